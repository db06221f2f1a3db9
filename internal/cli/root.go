package cli

import (
	"github.com/MananAlchemy/JiraBridge-sub000/internal/clock"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/config"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/jira"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/remote"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/repository"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/tracker"
	"github.com/spf13/cobra"
)

// App holds the wired components CLI commands operate on. Jira is nil when
// no credentials are configured; Store is never nil (a no-op store stands
// in when the remote is unconfigured).
type App struct {
	Cfg         *config.Config
	Clock       clock.Clock
	Tracker     *tracker.Tracker
	Store       remote.Store
	RemoteObs   remote.Observer
	Daily       repository.DailyRepo
	Jira        jira.Client
	Interactive bool
}

// NewReconciler builds a reconciler bound to the app's tracker. Commands
// create their own so each process owns its flush timer.
func (app *App) NewReconciler(obs remote.Observer) *remote.Reconciler {
	if obs == nil {
		obs = app.RemoteObs
	}
	cfg := remote.DefaultConfig(app.Cfg.User)
	if app.Cfg.Remote.FlushIntervalSeconds > 0 {
		cfg.FlushInterval = secondsToDuration(app.Cfg.Remote.FlushIntervalSeconds)
	}
	return remote.NewReconciler(app.Store, app.Tracker, app.Clock, cfg, obs)
}

// NewRootCmd creates the top-level "jirabridge" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "jirabridge",
		Short:         "Track work time against Jira tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newStartCmd(app),
		newStopCmd(app),
		newCancelCmd(app),
		newTrackCmd(app),
		newStatusCmd(app),
		newScreenshotCmd(app),
		newReportCmd(app),
		newSessionsCmd(app),
	)

	return root
}
