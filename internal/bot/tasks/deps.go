// Package tasks implements the scheduled jobs of the Aurion worker:
// publishing due posts, releasing stale claims and database maintenance.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/threec/aurion/internal/config"
	"github.com/threec/aurion/internal/database"
	"github.com/threec/aurion/internal/dispatch"
	"github.com/threec/aurion/internal/scheduler"
)

// Dispatcher is the part of *dispatch.Dispatcher the tasks drive.
type Dispatcher interface {
	RunBatch(ctx context.Context) (dispatch.BatchResult, error)
	ReleaseStaleClaims(ctx context.Context) (int64, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
// Dispatcher and Guard are nil when the process does not publish posts.
type TaskDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Store      database.Store
	Dispatcher Dispatcher
	Guard      scheduler.Guard
	Clock      func() time.Time
}
