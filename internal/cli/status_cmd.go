package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/format"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/remote"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	var withRemote bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active session and today's totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var b strings.Builder
			b.WriteString(titleStyle.Render("Today") + "\n")

			if s := app.Tracker.Current(); s != nil {
				elapsed := int(app.Clock.Now().Sub(s.StartedAt).Seconds())
				b.WriteString(kv("Session", timerStyle.Render(format.Duration(elapsed))))
				if s.Task != nil {
					b.WriteString("  " + kv("Task", s.Task.Key))
				}
				if n := len(s.ScreenshotIDs); n > 0 {
					b.WriteString("  " + kv("Screenshots", fmt.Sprintf("%d", n)))
				}
				b.WriteString("\n")
			} else {
				b.WriteString(helpStyle.Render("No active session") + "\n")
			}

			today, err := app.Tracker.Today(ctx)
			if err != nil {
				return err
			}
			b.WriteString(kv("Total", today.TotalTimeFormatted))
			b.WriteString("  " + kv("Sessions", fmt.Sprintf("%d", today.SessionCount)))
			b.WriteString("  " + kv("Screenshots", fmt.Sprintf("%d", today.ScreenshotCount)))
			b.WriteString("\n")

			for _, key := range today.TaskKeys() {
				tt := today.Tasks[key]
				b.WriteString("  " + kv(key, format.Duration(tt.TimeSpentSeconds)) + "\n")
			}

			if withRemote {
				renderRemoteStatus(&b, app, cmd, today.DateKey)
			}

			fmt.Fprint(out, b.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&withRemote, "remote", false, "Compare against the remote store's view of today")
	return cmd
}

// renderRemoteStatus appends the remote store's total for the date, so a
// user can spot unflushed time at a glance.
func renderRemoteStatus(b *strings.Builder, app *App, cmd *cobra.Command, dateKey string) {
	agg, err := app.Store.GetDaily(cmd.Context(), app.Cfg.User, dateKey)
	switch {
	case errors.Is(err, remote.ErrNotFound):
		b.WriteString(kv("Remote", "nothing recorded") + "\n")
	case err != nil:
		b.WriteString(errStyle.Render(fmt.Sprintf("Remote unavailable: %v", err)) + "\n")
	default:
		b.WriteString(kv("Remote", agg.TotalTimeFormatted) + "\n")
	}
}
