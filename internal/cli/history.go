package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/todoflow/internal/app"
	"github.com/rpggio/todoflow/internal/domain/activity"
	"github.com/spf13/cobra"
)

var errNoActivityLog = errors.New("activity history requires the sqlite storage driver")

// historyScanLimit bounds how far back removed task ids are searched.
const historyScanLimit = 1000

// resolveHistoryID matches ref against live tasks and the task ids in recent activity.
func resolveHistoryID(ctx context.Context, a *app.App, ref string) (string, error) {
	var ids []string
	for _, t := range a.Store.Tasks() {
		ids = append(ids, t.ID)
	}
	entries, err := a.Activity.GetRecentActivity(ctx, activity.ListActivityOptions{Limit: historyScanLimit})
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.TaskID != nil {
			ids = append(ids, *entry.TaskID)
		}
	}
	return matchID(ids, ref), nil
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [ID]",
		Short: "Show recent changes, newest first",
		Long: `Show recent changes, newest first.

ID may be a prefix of a current task or of a task that appears in the recent history,
including removed tasks.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				if a.Activity == nil {
					return errNoActivityLog
				}
				listOpts := activity.ListActivityOptions{Limit: limit}
				if len(args) == 1 {
					id, err := resolveHistoryID(cmd.Context(), a, args[0])
					if err != nil {
						return err
					}
					listOpts.TaskID = &id
				}
				entries, err := a.Activity.GetRecentActivity(cmd.Context(), listOpts)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if len(entries) == 0 {
					_, err := fmt.Fprintln(w, "No activity")
					return err
				}
				for _, entry := range entries {
					if _, err := fmt.Fprintf(w, "%s  %-17s  %s\n",
						entry.CreatedAt.Local().Format(time.DateTime), entry.ActivityType, entry.Summary); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")
	return cmd
}
