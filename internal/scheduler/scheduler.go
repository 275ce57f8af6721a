package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/threec/aurion/internal/config"
	"github.com/threec/aurion/internal/logger"
)

// TaskFunc is the body of a scheduled job. A returned error is logged and
// the job keeps its schedule.
type TaskFunc func(ctx context.Context) error

// Scheduler manages scheduled tasks using the gocron library.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]TaskFunc
	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
}

// New creates a scheduler whose cron expressions are evaluated in loc.
func New(log *slog.Logger, cfg *config.SchedulerConfig, loc *time.Location, taskMap map[string]TaskFunc) (*Scheduler, error) {
	if log == nil {
		log = logger.Discard()
	}
	if loc == nil {
		loc = time.UTC
	}
	log = log.With("component", "scheduler")

	s, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    log,
		cfg:       cfg,
		taskMap:   taskMap,
	}, nil
}

// Start schedules every enabled task and starts ticking. Tasks receive a
// context derived from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	scheduled := 0
	if s.cfg == nil || len(s.cfg.Tasks) == 0 {
		s.logger.Warn("No scheduler tasks configured")
	}
	for name, taskConfig := range s.cfgTasks() {
		if !taskConfig.Enabled {
			s.logger.Info("Skipping disabled task", "task_name", name)
			continue
		}

		taskFunc, exists := s.taskMap[name]
		if !exists {
			s.logger.Warn("Scheduled task configured but not found in registry, skipping", "task_name", name)
			continue
		}

		if taskConfig.Schedule == "" {
			s.logger.Warn("Scheduled task enabled but has empty schedule, skipping", "task_name", name)
			continue
		}

		_, err := s.scheduler.NewJob(
			gocron.CronJob(taskConfig.Schedule, true),
			gocron.NewTask(s.run, runCtx, name, taskFunc),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			s.logger.Error("Failed to schedule task", "task_name", name, "schedule", taskConfig.Schedule, "error", err)
			continue
		}

		s.logger.Info("Scheduled task", "task_name", name, "schedule", taskConfig.Schedule)
		scheduled++
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduled)
	return nil
}

func (s *Scheduler) cfgTasks() map[string]config.TaskConfig {
	if s.cfg == nil {
		return nil
	}
	return s.cfg.Tasks
}

// run executes one task invocation. Errors and panics are logged so a
// failing job never takes the process down.
func (s *Scheduler) run(ctx context.Context, name string, task TaskFunc) {
	log := s.logger.With("task_name", name)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "Scheduled task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	log.DebugContext(ctx, "Running scheduled task")
	if err := task(ctx); err != nil {
		log.ErrorContext(ctx, "Scheduled task failed", "error", err, "duration", time.Since(start))
		return
	}
	log.DebugContext(ctx, "Finished scheduled task", "duration", time.Since(start))
}

// Jobs returns the names of the registered jobs.
func (s *Scheduler) Jobs() []string {
	jobs := s.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

// Stop cancels running tasks and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Scheduler is not running, nothing to stop")
		return nil
	}

	s.logger.Debug("Stopping scheduler gracefully")
	if s.cancel != nil {
		s.cancel()
	}
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully")
	}

	s.running = false
	return err
}
