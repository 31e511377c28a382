package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/todoflow/internal/domain/activity"
	"github.com/rpggio/todoflow/internal/domain/task"
)

// registerTools exposes the task list commands. Every command returns the
// refreshed view so clients never need to guess the resulting state.
func registerTools(server *sdkmcp.Server, svc Services) {
	tasks := svc.Tasks

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_tasks",
		Description: "List the tasks visible under the current filter together with active and completed totals",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListTasksParams) (*sdkmcp.CallToolResult, TaskListView, error) {
		return nil, buildView(tasks), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_task",
		Description: "Append a new task. Blank text is ignored and reported as added=false",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in AddTaskParams) (*sdkmcp.CallToolResult, AddTaskResult, error) {
		res := AddTaskResult{}
		if added := tasks.Add(ctx, in.Text); added != nil {
			item := newTaskItem(*added)
			res.Added = true
			res.Task = &item
		}
		res.View = buildView(tasks)
		return nil, res, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "toggle_task",
		Description: "Flip a task between active and completed. Unknown IDs are ignored",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in TaskIDParams) (*sdkmcp.CallToolResult, TaskListView, error) {
		tasks.Toggle(ctx, in.ID)
		return nil, buildView(tasks), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "edit_task",
		Description: "Replace a task's text. Blank or unchanged text and unknown IDs are ignored",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in EditTaskParams) (*sdkmcp.CallToolResult, TaskListView, error) {
		tasks.Edit(ctx, in.ID, in.Text)
		return nil, buildView(tasks), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "remove_task",
		Description: "Delete a task. Unknown IDs are ignored",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in TaskIDParams) (*sdkmcp.CallToolResult, TaskListView, error) {
		tasks.Remove(ctx, in.ID)
		return nil, buildView(tasks), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "clear_completed",
		Description: "Delete every completed task, keeping the order of the rest",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListTasksParams) (*sdkmcp.CallToolResult, TaskListView, error) {
		tasks.ClearCompleted(ctx)
		return nil, buildView(tasks), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_filter",
		Description: "Choose which tasks list_tasks shows: all, active or completed. Not persisted",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SetFilterParams) (*sdkmcp.CallToolResult, TaskListView, error) {
		f, err := task.ParseFilter(in.Filter)
		if err != nil {
			return nil, TaskListView{}, mapError(err)
		}
		tasks.SetFilter(f)
		return nil, buildView(tasks), nil
	})

	if svc.Activity == nil {
		return
	}
	history := svc.Activity

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "Get recent task changes, newest first, optionally for a single task",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetRecentActivityParams) (*sdkmcp.CallToolResult, RecentActivityResult, error) {
		opts := activity.ListActivityOptions{Limit: in.Limit, Offset: in.Offset}
		if in.TaskID != "" {
			taskID := in.TaskID
			opts.TaskID = &taskID
		}
		entries, err := history.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, RecentActivityResult{}, mapError(err)
		}
		resp := RecentActivityResult{Entries: make([]ActivityEntryResponse, 0, len(entries))}
		for _, entry := range entries {
			resp.Entries = append(resp.Entries, ActivityEntryResponse{
				Timestamp: formatTime(entry.CreatedAt),
				Type:      entry.ActivityType,
				TaskID:    stringValue(entry.TaskID),
				Summary:   entry.Summary,
			})
		}
		return nil, resp, nil
	})
}

func buildView(tasks TaskService) TaskListView {
	snap := tasks.Snapshot()
	view := TaskListView{
		Filter:         string(snap.Filter),
		Tasks:          make([]TaskItem, 0, len(snap.Visible)),
		ActiveCount:    snap.ActiveCount,
		CompletedCount: snap.CompletedCount,
		TotalCount:     snap.ActiveCount + snap.CompletedCount,
	}
	for _, t := range snap.Visible {
		view.Tasks = append(view.Tasks, newTaskItem(t))
	}
	return view
}

func stringValue(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}
