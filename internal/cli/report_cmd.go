package cli

import (
	"fmt"
	"strings"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/format"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/report"
	"github.com/spf13/cobra"
)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summaries over tracked days",
	}

	cmd.AddCommand(newReportWeekCmd(app), newReportHistoryCmd(app))
	return cmd
}

func newReportWeekCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Totals over the trailing 7 calendar days",
		RunE: func(cmd *cobra.Command, args []string) error {
			today := app.Clock.Now()
			from := today.AddDate(0, 0, -6).Format(domain.DateKeyLayout)

			days, err := app.Daily.Since(cmd.Context(), from)
			if err != nil {
				return err
			}
			stats := report.Weekly(days, today)

			var b strings.Builder
			b.WriteString(titleStyle.Render("This week") + "\n")
			b.WriteString(kv("Total", stats.TotalTimeFormatted) + "\n")
			b.WriteString(kv("Daily average", stats.AverageTimeFormatted) + "\n")
			b.WriteString(kv("Days tracked", fmt.Sprintf("%d", stats.DaysTracked)) + "\n")
			b.WriteString(kv("Screenshots", fmt.Sprintf("%d", stats.TotalScreenshots)) + "\n")
			if stats.MostProductiveDay != "" {
				b.WriteString(kv("Most productive", stats.MostProductiveDay) + "\n")
			}

			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}
}

func newReportHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Most recent tracked days",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := app.Daily.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(days) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing tracked yet.")
				return nil
			}

			var b strings.Builder
			for _, day := range days {
				b.WriteString(kv(day.DateKey, day.TotalTimeFormatted))
				b.WriteString(helpStyle.Render(fmt.Sprintf("  (%d sessions)", day.SessionCount)))
				b.WriteString("\n")
				for _, key := range day.TaskKeys() {
					b.WriteString("  " + kv(key, format.Duration(day.Tasks[key].TimeSpentSeconds)) + "\n")
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 14, "Maximum number of days to show")
	return cmd
}
