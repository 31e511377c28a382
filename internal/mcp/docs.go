package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `todoflow keeps one ordered task list.

- Every task has an id, text, a completed flag and a creation time.
- Commands: add_task, toggle_task, edit_task, remove_task, clear_completed.
- Each command returns the refreshed view (visible tasks, active and completed counts).
- set_filter changes which tasks list_tasks shows: all, active or completed. The filter is not saved.
- Unknown ids, blank text and unchanged edits are ignored rather than reported as errors.

Docs: todoflow://docs/usage`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "todoflow://docs/usage",
		Name:        "docs_usage",
		Title:       "todoflow usage",
		Description: "How the task list behaves: ordering, filters, counts and ignored input.",
		Content: `# todoflow usage

## Ordering

Tasks stay in the order they were added. Editing or toggling a task never moves it.
clear_completed removes completed tasks and keeps the relative order of the rest.

## Filters

| filter    | shows                 |
|-----------|-----------------------|
| all       | every task            |
| active    | tasks not completed   |
| completed | completed tasks       |

active_count and completed_count always cover the whole list, whatever the filter.

## Ignored input

- add_task with blank text returns added=false.
- toggle_task, edit_task and remove_task with an unknown id change nothing.
- edit_task with blank text, or the task's current text, changes nothing.

Text is trimmed of leading and trailing whitespace before it is stored.

## History

When the server stores tasks in SQLite, get_recent_activity lists recent changes
newest first. Pass task_id to follow one task.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
