// Package bot implements lifecycle management and component orchestration
// for the Aurion bot and its scheduled-post worker.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Listener is the long-polling update loop. *tgbot.Bot satisfies it.
type Listener interface {
	Start(ctx context.Context)
}

// TaskScheduler runs the scheduled jobs.
type TaskScheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// Bot represents the main application and manages its components' lifecycle.
// The listener is nil for a worker that only publishes scheduled posts.
type Bot struct {
	logger    *slog.Logger
	listener  Listener
	scheduler TaskScheduler
}

// NewBot creates the orchestrator.
func NewBot(logger *slog.Logger, listener Listener, scheduler TaskScheduler) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		listener:  listener,
		scheduler: scheduler,
	}
}

// Run starts the listener and the scheduler and blocks until ctx is
// cancelled or a component fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator", "listener", b.listener != nil)

	g, gCtx := errgroup.WithContext(ctx)

	if b.listener != nil {
		g.Go(func() error {
			b.logger.Info("Starting Telegram bot listener")

			b.listener.Start(gCtx)
			b.logger.Info("Telegram bot listener stopped")

			if gCtx.Err() == nil {
				b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation")
				return errors.New("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	g.Go(func() error {
		b.logger.Info("Starting scheduler")
		if err := b.scheduler.Start(gCtx); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}
