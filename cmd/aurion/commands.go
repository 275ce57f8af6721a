package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/threec/aurion/internal/bot"
	"github.com/threec/aurion/internal/bot/handlers"
	"github.com/threec/aurion/internal/bot/tasks"
	"github.com/threec/aurion/internal/config"
	"github.com/threec/aurion/internal/database"
	"github.com/threec/aurion/internal/dispatch"
	"github.com/threec/aurion/internal/llm"
	"github.com/threec/aurion/internal/logger"
	"github.com/threec/aurion/internal/scheduler"
	"github.com/threec/aurion/internal/telegram"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "aurion",
		Short:         "Aurion community bot and scheduled-post worker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "./config.yaml", "path to the YAML configuration file (optional)")

	root.AddCommand(
		&cobra.Command{
			Use:   "bot",
			Short: "Answer commands and greet members in Telegram",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), configPath, runBot)
			},
		},
		&cobra.Command{
			Use:   "worker",
			Short: "Publish due scheduled posts at the configured trigger times",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), configPath, runWorker)
			},
		},
		&cobra.Command{
			Use:   "dispatch",
			Short: "Publish every due post once, ignoring trigger times",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), configPath, runDispatch)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				// NewDB applies the migrations.
				return withApp(cmd.Context(), configPath, func(context.Context, *app) error { return nil })
			},
		},
	)
	return root
}

// app holds the components shared by every command.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	store database.Store
}

// withApp loads configuration, opens the database and runs fn.
func withApp(ctx context.Context, configPath string, fn func(context.Context, *app) error) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return err
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		log.Error("Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		return err
	}
	defer database.CloseDB(db)

	err = fn(ctx, &app{cfg: cfg, log: log, store: database.NewStore(db, log)})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Command failed", "error", err)
		return err
	}
	return nil
}

func runBot(ctx context.Context, a *app) error {
	client, err := llm.NewClient(ctx, a.cfg.LLM, a.log)
	switch {
	case errors.Is(err, llm.ErrDisabled):
		a.log.Warn("No LLM API key configured, /ask will only answer from FAQ and keywords")
		client = nil
	case err != nil:
		return fmt.Errorf("failed to initialize llm client: %w", err)
	}

	hDeps := handlers.HandlerDeps{
		Logger: a.log,
		Config: a.cfg,
		Store:  a.store,
		LLM:    client,
	}

	tg, err := telegram.NewTelegramBot(a.cfg.Telegram.Token, a.log,
		tgbot.WithMiddlewares(logger.Middleware(a.log)),
		tgbot.WithDefaultHandler(handlers.NewDefaultHandler(hDeps)),
	)
	if err != nil {
		return err
	}

	a.cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}
	a.log.Info("Retrieved bot info", "bot_id", a.cfg.Telegram.BotInfo.ID, "bot_username", a.cfg.Telegram.BotInfo.Username)

	if err := telegram.RegisterHandlers(tg, a.log, handlers.RegisterAllCommands(hDeps)); err != nil {
		return fmt.Errorf("failed to register telegram handlers: %w", err)
	}

	sched, err := scheduler.New(a.log, &a.cfg.Scheduler, a.cfg.Location(), tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger: a.log,
		Config: a.cfg,
		Store:  a.store,
	}))
	if err != nil {
		return err
	}

	return bot.NewBot(a.log, tg, sched).Run(ctx)
}

func runWorker(ctx context.Context, a *app) error {
	d, err := newDispatcher(a)
	if err != nil {
		return err
	}

	guard, closeGuard, err := newGuard(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer closeGuard()

	sched, err := scheduler.New(a.log, &a.cfg.Scheduler, a.cfg.Location(), tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:     a.log,
		Config:     a.cfg,
		Store:      a.store,
		Dispatcher: d,
		Guard:      guard,
	}))
	if err != nil {
		return err
	}

	a.log.Info("Worker started",
		"service_type", a.cfg.Dispatch.ServiceType,
		"trigger_times", a.cfg.Scheduler.TriggerTimes,
		"timezone", a.cfg.Dispatch.Timezone,
	)
	return bot.NewBot(a.log, nil, sched).Run(ctx)
}

func runDispatch(ctx context.Context, a *app) error {
	d, err := newDispatcher(a)
	if err != nil {
		return err
	}
	result, err := d.RunBatch(ctx)
	if err != nil {
		return err
	}
	a.log.Info("Dispatch finished",
		"batch_id", result.BatchID,
		"claimed", result.Claimed,
		"sent", result.Sent,
		"retrying", result.Retrying,
		"failed", result.Failed,
	)
	return nil
}

func newDispatcher(a *app) (*dispatch.Dispatcher, error) {
	tg, err := telegram.NewTelegramBot(a.cfg.Telegram.Token, a.log)
	if err != nil {
		return nil, err
	}
	return dispatch.New(a.store, tg, dispatch.OptionsFromConfig(a.cfg), a.log), nil
}

// newGuard returns the shared Redis guard when a Redis URL is configured
// and a per-process guard otherwise.
func newGuard(ctx context.Context, cfg *config.Config) (scheduler.Guard, func(), error) {
	ttl := cfg.Scheduler.Redis.GuardTTL
	if cfg.Scheduler.Redis.URL == "" {
		return scheduler.NewMemoryGuard(ttl), func() {}, nil
	}

	client, err := scheduler.OpenRedis(ctx, cfg.Scheduler.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	prefix := cfg.Scheduler.Redis.KeyPrefix + "trigger:" + cfg.Dispatch.ServiceType + ":"
	return scheduler.NewRedisGuard(client, prefix, ttl), func() { _ = client.Close() }, nil
}
