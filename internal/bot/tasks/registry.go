package tasks

import (
	"github.com/threec/aurion/internal/scheduler"
)

// Task names as used in the scheduler.tasks config section.
const (
	TaskDispatchPosts      = "dispatch_posts"
	TaskReleaseStaleClaims = "release_stale_claims"
	TaskDBMaintenance      = "db_maintenance"
)

// RegisterAllTasks initializes and returns a map of all registered scheduled tasks.
// The dispatch tasks are only registered when deps carries a Dispatcher.
func RegisterAllTasks(deps TaskDeps) map[string]scheduler.TaskFunc {
	tasks := make(map[string]scheduler.TaskFunc)

	tasks[TaskDBMaintenance] = newSQLMaintenanceTask(deps)

	if deps.Dispatcher != nil {
		tasks[TaskDispatchPosts] = newDispatchPostsTask(deps)
		tasks[TaskReleaseStaleClaims] = newReleaseStaleClaimsTask(deps)
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
