package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/format"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/jira"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/remote"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/tracker"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newStartCmd(app *App) *cobra.Command {
	var taskKey string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a tracking session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var task *domain.TaskRef
			if taskKey != "" {
				if app.Jira == nil {
					return fmt.Errorf("jira is not configured; cannot bind task %s", taskKey)
				}
				fetched, err := app.Jira.GetTask(ctx, taskKey)
				if err != nil {
					return fmt.Errorf("looking up task %s: %w", taskKey, err)
				}
				task = fetched
			}

			s, err := app.Tracker.Start(ctx, task)
			if err != nil {
				if errors.Is(err, tracker.ErrSessionActive) {
					return fmt.Errorf("a session is already running; stop it first")
				}
				return err
			}

			// Best-effort remote mirror of the fresh session.
			if err := app.Store.StoreSession(ctx, app.Cfg.User, s.DateKey(), s); err != nil {
				app.RemoteObs.ObserveFlush(remote.FlushEvent{
					Op: "session_store", User: app.Cfg.User, DateKey: s.DateKey(),
					SessionID: s.ID, Err: err,
				})
			}

			if task != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Tracking %s — %s\n", task.Key, task.Summary)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Tracking started (no task bound)")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&taskKey, "task", "", "Jira issue key to bind the session to")
	return cmd
}

func newStopCmd(app *App) *cobra.Command {
	var description string
	var noWorkLog bool

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the active session and fold it into today's totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rec := app.NewReconciler(nil)
			if err := rec.Begin(ctx); err != nil && !errors.Is(err, remote.ErrNoSession) {
				return err
			}

			done, err := app.Tracker.Stop(ctx)
			if err != nil {
				rec.Abort()
				return err
			}
			if done == nil {
				rec.Abort()
				fmt.Fprintln(cmd.OutOrStdout(), "No active session.")
				return nil
			}
			rec.Finish(ctx, done)

			fmt.Fprintf(cmd.OutOrStdout(), "Stopped after %s", format.Duration(done.DurationSeconds))
			if done.Task != nil {
				fmt.Fprintf(cmd.OutOrStdout(), " on %s", done.Task.Key)
			}
			fmt.Fprintln(cmd.OutOrStdout())

			return submitWorkLog(ctx, cmd, app, done, description, noWorkLog)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Work log description (skips the prompt)")
	cmd.Flags().BoolVar(&noWorkLog, "no-worklog", false, "Do not submit a work log entry")
	return cmd
}

// submitWorkLog sends the finalized session's timing to Jira, prompting
// for a description when running interactively. Submission failures are
// warnings; the tracked time is already safe locally.
func submitWorkLog(ctx context.Context, cmd *cobra.Command, app *App, done *domain.Session, description string, noWorkLog bool) error {
	if noWorkLog || done.Task == nil || app.Jira == nil || done.DurationSeconds <= 0 {
		return nil
	}

	if description == "" && app.Interactive {
		desc, submit := promptWorkLog(done.Task.Key)
		if !submit {
			return nil
		}
		description = desc
	}

	wl := jira.WorkLog{
		TaskKey:         done.Task.Key,
		StartedAt:       done.StartedAt,
		DurationSeconds: done.DurationSeconds,
		Description:     description,
	}
	if done.EndedAt != nil {
		wl.EndedAt = *done.EndedAt
	}
	if err := app.Jira.LogWork(ctx, wl); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render(fmt.Sprintf("Work log not submitted: %v", err)))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged %s to %s\n", format.Duration(done.DurationSeconds), done.Task.Key)
	return nil
}

func promptWorkLog(taskKey string) (string, bool) {
	var description string
	submit := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Work log description").
				Placeholder("What did you work on?").
				Value(&description),
			huh.NewConfirm().
				Title(fmt.Sprintf("Submit work log to %s?", taskKey)).
				Value(&submit),
		),
	).WithShowHelp(false)

	if err := form.Run(); err != nil {
		return "", false
	}
	return description, submit
}

func newCancelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Discard the active session without recording it",
		RunE: func(cmd *cobra.Command, args []string) error {
			had := app.Tracker.Current() != nil
			if err := app.Tracker.Cancel(cmd.Context()); err != nil {
				return err
			}
			if had {
				fmt.Fprintln(cmd.OutOrStdout(), "Session discarded.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "No active session.")
			}
			return nil
		},
	}
}

func newScreenshotCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screenshot",
		Short: "Manage session screenshots",
	}

	add := &cobra.Command{
		Use:   "add <screenshot-id>",
		Short: "Attach a captured screenshot id to the active session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Tracker.Current() == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No active session; screenshot dropped.")
				return nil
			}
			app.Tracker.AppendScreenshot(cmd.Context(), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Screenshot %s attached.\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add)
	return cmd
}
