package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/cli"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/clock"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/config"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/db"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/jira"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/remote"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/repository"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/tracker"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	stateRepo := repository.NewSQLiteStateRepo(database)
	dailyRepo := repository.NewSQLiteDailyRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)
	clk := clock.SystemClock{}

	var trackerObs tracker.Observer = tracker.NoopObserver{}
	var remoteObs remote.Observer = remote.NoopObserver{}
	if os.Getenv("JIRABRIDGE_DEBUG") != "" {
		trackerObs = tracker.NewLogObserver(os.Stderr)
		remoteObs = remote.NewLogObserver(os.Stderr)
	}

	tr := tracker.NewTracker(stateRepo, dailyRepo, uow, clk, trackerObs)
	if err := tr.Restore(context.Background()); err != nil {
		return fmt.Errorf("restoring tracker state: %w", err)
	}

	store := remote.NewNoopStore()
	if cfg.Remote.BaseURL != "" {
		httpCfg := remote.DefaultHTTPConfig(cfg.Remote.BaseURL)
		if cfg.Remote.TimeoutMs > 0 {
			httpCfg.TimeoutMs = cfg.Remote.TimeoutMs
		}
		if cfg.Remote.MaxRetries > 0 {
			httpCfg.MaxRetries = cfg.Remote.MaxRetries
		}
		store = remote.NewHTTPStore(httpCfg)
	}

	var jiraClient jira.Client
	jiraCfg := jira.LoadConfig()
	if jiraCfg.BaseURL == "" {
		jiraCfg.BaseURL = cfg.Jira.BaseURL
		jiraCfg.Email = cfg.Jira.Email
		jiraCfg.APIToken = cfg.Jira.APIToken
	}
	if jiraCfg.Configured() {
		jiraClient = jira.NewClient(jiraCfg)
	}

	app := &cli.App{
		Cfg:         cfg,
		Clock:       clk,
		Tracker:     tr,
		Store:       store,
		RemoteObs:   remoteObs,
		Daily:       dailyRepo,
		Jira:        jiraClient,
		Interactive: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}

	return cli.NewRootCmd(app).Execute()
}
