package tasks

import (
	"context"
	"fmt"

	"github.com/threec/aurion/internal/scheduler"
)

// newDispatchPostsTask ticks a TriggerGate that runs one dispatch batch
// per trigger slot.
func newDispatchPostsTask(deps TaskDeps) scheduler.TaskFunc {
	log := deps.Logger.With("task", TaskDispatchPosts)

	guard := deps.Guard
	if guard == nil {
		guard = scheduler.NewMemoryGuard(deps.Config.Scheduler.Redis.GuardTTL)
	}

	gate := scheduler.NewTriggerGate(
		deps.Config.Scheduler.TriggerTimes,
		deps.Config.Location(),
		guard,
		func(ctx context.Context) error {
			_, err := deps.Dispatcher.RunBatch(ctx)
			return err
		},
		log,
	)
	if deps.Clock != nil {
		gate.SetClock(deps.Clock)
	}

	return func(ctx context.Context) error {
		fired, err := gate.Tick(ctx)
		if err != nil {
			return fmt.Errorf("dispatch posts (fired=%t): %w", fired, err)
		}
		return nil
	}
}

// newReleaseStaleClaimsTask returns posts stuck in processing to the queue.
func newReleaseStaleClaimsTask(deps TaskDeps) scheduler.TaskFunc {
	log := deps.Logger.With("task", TaskReleaseStaleClaims)

	return func(ctx context.Context) error {
		released, err := deps.Dispatcher.ReleaseStaleClaims(ctx)
		if err != nil {
			return err
		}
		if released > 0 {
			log.InfoContext(ctx, "Released stale claims", "count", released)
		}
		return nil
	}
}
