package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskdeck/client/internal/apiclient"
	"taskdeck/client/internal/board"
	"taskdeck/client/internal/channel"
	"taskdeck/client/internal/command"
	"taskdeck/client/internal/config"
	"taskdeck/client/internal/db"
	"taskdeck/client/internal/global"
	"taskdeck/client/internal/lifecycle"
	"taskdeck/client/internal/logging"
	"taskdeck/client/internal/logstore"
	"taskdeck/client/internal/plan"
	"taskdeck/client/internal/preview"
	"taskdeck/client/internal/taskcache"
)

var version = "dev"

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := command.BuildApp(command.Deps{
		LoadConfig: config.LoadConfig,
		RunBoard: func(ctx context.Context, cfg config.Config) error {
			return runBoard(ctx, applyGlobalSettings(cfg))
		},
		RunMigrateUp: func(ctx context.Context, cfg config.Config) error {
			gdb, err := db.OpenSQLiteWithMigrations(cfg.DBPath)
			if err != nil {
				return err
			}
			if sqlDB, dbErr := gdb.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
			out := os.Stdout
			fmt.Fprintf(out, "migrations applied: %s\n", cfg.DBPath)
			return nil
		},
	})

	if err := app.RunContext(rootCtx, os.Args); err != nil {
		logging.NewLogger(logging.Options{Component: "taskdeck"}).Error("exit", "error", err)
		os.Exit(1)
	}
}

// applyGlobalSettings lets the persisted config file fill values the
// environment left unset.
func applyGlobalSettings(cfg config.Config) config.Config {
	dir, err := global.DefaultConfigDir()
	if err != nil {
		return cfg
	}
	gcfg, err := global.NewConfigStore(dir).LoadOrInit()
	if err != nil {
		return cfg
	}
	if os.Getenv("TASKDECK_SERVER_BASE_URL") == "" && gcfg.ServerURL != "" {
		cfg.ServerBaseURL = gcfg.ServerURL
		if os.Getenv("TASKDECK_CHANNEL_URL") == "" {
			cfg.ChannelURL = config.DeriveChannelURL(gcfg.ServerURL)
		}
	}
	if os.Getenv("TASKDECK_LOG_LINES") == "" && gcfg.LogLines > 0 {
		cfg.LogLines = gcfg.LogLines
	}
	if os.Getenv("TASKDECK_PLAN_ASK_QUESTIONS") == "" {
		cfg.AskQuestions = gcfg.Plan.AskQuestions
	}
	return cfg
}

func runBoard(ctx context.Context, cfg config.Config) error {
	logger := logging.NewLogger(logging.Options{Level: cfg.LogLevel, Component: "taskdeck"})
	logger.Info("starting", "version", version, "server", cfg.ServerBaseURL)

	mgr := lifecycle.NewManager()

	var store *logstore.Store
	gdb, err := db.OpenSQLiteWithMigrations(cfg.DBPath)
	if err != nil {
		logger.Warn("log history disabled", "db_path", cfg.DBPath, "error", err)
	} else {
		store, err = logstore.NewStore(gdb)
		if err != nil {
			return err
		}
		mgr.AddShutdown("close-db", func(context.Context) error {
			sqlDB, dbErr := gdb.DB()
			if dbErr != nil {
				return dbErr
			}
			return sqlDB.Close()
		})
	}

	api := apiclient.New(cfg.ServerBaseURL)
	subs := plan.NewSubscriberTable()
	ch := channel.NewManager(cfg.ChannelURL, channel.RealDialer{}, logging.ForSubsystem(logger, "channel"))
	deck := board.NewBoard(api, taskcache.New(), subs, store, logging.ForSubsystem(logger, "board"), board.WithChannelSender(ch))

	session := plan.NewSession(api, subs, logging.ForSubsystem(logger, "plan"), plan.WithTaskCreatedCallback(func(taskID string) {
		logger.Info("plan produced task", "task_id", taskID)
	}))
	mgr.AddShutdown("cancel-plan", func(shutCtx context.Context) error {
		session.Cancel(shutCtx)
		return nil
	})

	tracker := preview.NewTracker(api, logging.ForSubsystem(logger, "preview"))

	cancelEvents := ch.Subscribe(deck.HandleEvent)
	cancelStatus := ch.SubscribeStatus(func(connected bool) {
		if !connected {
			return
		}
		// Changes made while the channel was down never arrive as events.
		go func() {
			if err := deck.Refresh(ctx); err != nil {
				logger.Warn("task list refresh failed", "error", err)
			}
		}()
	})
	mgr.AddShutdown("unsubscribe", func(context.Context) error {
		cancelEvents()
		cancelStatus()
		return nil
	})

	mgr.AddRun("channel", ch.Run)
	mgr.AddRun("preview-poller", func(runCtx context.Context) error {
		tracker.Run(runCtx)
		return nil
	})

	return mgr.StartAndWait(ctx, os.Interrupt, syscall.SIGTERM)
}
