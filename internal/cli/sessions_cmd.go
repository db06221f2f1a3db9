package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/format"
	"github.com/spf13/cobra"
)

func newSessionsCmd(app *App) *cobra.Command {
	var dateKey string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions recorded in the remote store for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dateKey == "" {
				dateKey = app.Clock.Now().Format(domain.DateKeyLayout)
			} else if _, err := time.Parse(domain.DateKeyLayout, dateKey); err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD", dateKey)
			}

			sessions, err := app.Store.GetSessions(cmd.Context(), app.Cfg.User, dateKey)
			if err != nil {
				return fmt.Errorf("fetching sessions for %s: %w", dateKey, err)
			}
			if len(sessions) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No sessions recorded for %s.\n", dateKey)
				return nil
			}

			var b strings.Builder
			b.WriteString(titleStyle.Render(dateKey) + "\n")
			for _, s := range sessions {
				b.WriteString(kv(s.StartedAt.Format("15:04"), format.Duration(s.DurationSeconds)))
				if s.Task != nil {
					b.WriteString("  " + s.Task.Key)
				}
				if s.Active {
					b.WriteString("  " + timerStyle.Render("recording"))
				}
				b.WriteString("\n")
			}
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&dateKey, "date", "", "Date to list (YYYY-MM-DD, defaults to today)")
	return cmd
}
