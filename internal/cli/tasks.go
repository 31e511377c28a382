package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rpggio/todoflow/internal/app"
	"github.com/rpggio/todoflow/internal/domain/task"
	"github.com/spf13/cobra"
)

const shortIDLen = 8

func newAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a task to the end of the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				a.Store.Add(cmd.Context(), strings.Join(args, " "))
				return printList(cmd.OutOrStdout(), a.Store)
			})
		},
	}
}

func newToggleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Mark a task completed, or active again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				a.Store.Toggle(cmd.Context(), resolveID(a.Store.Tasks(), args[0]))
				return printList(cmd.OutOrStdout(), a.Store)
			})
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit ID TEXT...",
		Short: "Replace the text of a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				id := resolveID(a.Store.Tasks(), args[0])
				a.Store.Edit(cmd.Context(), id, strings.Join(args[1:], " "))
				return printList(cmd.OutOrStdout(), a.Store)
			})
		},
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				a.Store.Remove(cmd.Context(), resolveID(a.Store.Tasks(), args[0]))
				return printList(cmd.OutOrStdout(), a.Store)
			})
		},
	}
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				a.Store.ClearCompleted(cmd.Context())
				return printList(cmd.OutOrStdout(), a.Store)
			})
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var filter string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := task.ParseFilter(filter)
			if err != nil {
				return fmt.Errorf("%w %q: use all, active or completed", err, filter)
			}
			return opts.withApp(cmd, func(a *app.App) error {
				a.Store.SetFilter(f)
				if asJSON {
					return printJSON(cmd.OutOrStdout(), a.Store)
				}
				return printList(cmd.OutOrStdout(), a.Store)
			})
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", string(task.FilterAll), "Which tasks to show: all, active or completed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the list as JSON")
	return cmd
}

// resolveID accepts a full task id or a prefix that matches exactly one task.
// Anything else is returned unchanged and the command becomes a no-op.
func resolveID(tasks []task.Task, ref string) string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return matchID(ids, ref)
}

func matchID(ids []string, ref string) string {
	if ref == "" {
		return ref
	}
	match := ""
	for _, id := range ids {
		if id == ref {
			return ref
		}
		if strings.HasPrefix(id, ref) && id != match {
			if match != "" {
				return ref
			}
			match = id
		}
	}
	if match == "" {
		return ref
	}
	return match
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func printList(w io.Writer, store *task.Store) error {
	snap := store.Snapshot()
	if len(snap.Visible) == 0 {
		if _, err := fmt.Fprintln(w, "No tasks"); err != nil {
			return err
		}
	}
	for _, t := range snap.Visible {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		if _, err := fmt.Fprintf(w, "[%s] %s  %s\n", mark, shortID(t.ID), t.Text); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, summaryLine(snap.ActiveCount, snap.CompletedCount))
	return err
}

func summaryLine(active, completed int) string {
	noun := "tasks"
	if active == 1 {
		noun = "task"
	}
	line := fmt.Sprintf("%d %s remaining", active, noun)
	if completed > 0 {
		line += fmt.Sprintf(", %d completed", completed)
	}
	return line
}

type listJSON struct {
	Filter         task.Filter `json:"filter"`
	Tasks          []task.Task `json:"tasks"`
	ActiveCount    int         `json:"active_count"`
	CompletedCount int         `json:"completed_count"`
}

func printJSON(w io.Writer, store *task.Store) error {
	snap := store.Snapshot()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(listJSON{
		Filter:         snap.Filter,
		Tasks:          snap.Visible,
		ActiveCount:    snap.ActiveCount,
		CompletedCount: snap.CompletedCount,
	})
}
