package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/format"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/remote"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newTrackCmd(app *App) *cobra.Command {
	var taskKey string
	var description string
	var noWorkLog bool

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Track time with a live timer",
		Long:  "Runs a live timer that ticks the session every second and flushes increments to the remote store. Starts a session if none is active.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Interactive {
				return fmt.Errorf("track needs a terminal; use start/stop instead")
			}
			ctx := cmd.Context()

			if app.Tracker.Current() == nil {
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
				if _, err := app.Tracker.Start(ctx, task); err != nil {
					return err
				}
			} else if taskKey != "" {
				return fmt.Errorf("a session is already running; --task only applies to a fresh one")
			}

			obs := &programObserver{}
			rec := app.NewReconciler(obs)

			model := newTrackModel(app)
			p := tea.NewProgram(model)
			obs.send = p.Send

			if err := rec.Begin(ctx); err != nil && !errors.Is(err, remote.ErrNoSession) {
				return err
			}

			final, err := p.Run()
			if err != nil {
				rec.Abort()
				return err
			}

			switch final.(trackModel).action {
			case trackStop:
				done, err := app.Tracker.Stop(ctx)
				if err != nil {
					rec.Abort()
					return err
				}
				rec.Finish(ctx, done)
				fmt.Fprintf(cmd.OutOrStdout(), "Stopped after %s\n", format.Duration(done.DurationSeconds))
				return submitWorkLog(ctx, cmd, app, done, description, noWorkLog)
			case trackCancel:
				rec.Abort()
				if err := app.Tracker.Cancel(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Session discarded.")
			default:
				rec.Abort()
				fmt.Fprintln(cmd.OutOrStdout(), "Detached; the session keeps running. Run stop to finish it.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&taskKey, "task", "", "Jira issue key to bind a fresh session to")
	cmd.Flags().StringVar(&description, "description", "", "Work log description (skips the prompt)")
	cmd.Flags().BoolVar(&noWorkLog, "no-worklog", false, "Do not submit a work log entry on stop")
	return cmd
}

// programObserver forwards flush events into the running bubbletea
// program. send is nil until the program exists; events before that are
// dropped.
type programObserver struct {
	send func(tea.Msg)
}

func (o *programObserver) ObserveFlush(ev remote.FlushEvent) {
	if o.send != nil {
		o.send(flushMsg(ev))
	}
}

type flushMsg remote.FlushEvent

type tickMsg time.Time

// trackAction records how the user left the timer view.
type trackAction int

const (
	trackDetach trackAction = iota
	trackStop
	trackCancel
)

type trackModel struct {
	app       *App
	sp        spinner.Model
	elapsed   int
	lastFlush string
	action    trackAction
	quitting  bool
}

func newTrackModel(app *App) trackModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = timerStyle

	elapsed := 0
	if s := app.Tracker.Current(); s != nil {
		elapsed = int(app.Clock.Now().Sub(s.StartedAt).Seconds())
	}
	return trackModel{app: app, sp: sp, elapsed: elapsed}
}

func (m trackModel) Init() tea.Cmd {
	return tea.Batch(m.sp.Tick, trackTick())
}

func trackTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m trackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.elapsed = m.app.Tracker.Tick(context.Background())
		return m, trackTick()

	case flushMsg:
		m.lastFlush = describeFlush(remote.FlushEvent(msg))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "s":
			m.action = trackStop
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.action = trackCancel
			m.quitting = true
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			m.action = trackDetach
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	default:
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(msg)
		return m, cmd
	}
}

func (m trackModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Recording") + "\n\n")
	b.WriteString(fmt.Sprintf("  %s %s\n", m.sp.View(), timerStyle.Render(format.Duration(m.elapsed))))

	if s := m.app.Tracker.Current(); s != nil {
		if s.Task != nil {
			b.WriteString("  " + kv("Task", fmt.Sprintf("%s — %s", s.Task.Key, s.Task.Summary)) + "\n")
		}
		if n := len(s.ScreenshotIDs); n > 0 {
			b.WriteString("  " + kv("Screenshots", fmt.Sprintf("%d", n)) + "\n")
		}
	}
	if m.lastFlush != "" {
		b.WriteString("  " + m.lastFlush + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("  s stop · c cancel · q detach") + "\n")
	return b.String()
}

func describeFlush(ev remote.FlushEvent) string {
	if ev.Err != nil {
		return warnStyle.Render(fmt.Sprintf("sync %s failed, retrying next window", ev.Op))
	}
	if ev.DeltaSeconds > 0 {
		return helpStyle.Render(fmt.Sprintf("synced +%s", format.Duration(ev.DeltaSeconds)))
	}
	return helpStyle.Render(fmt.Sprintf("synced %s", ev.Op))
}
