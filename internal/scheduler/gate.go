package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/threec/aurion/internal/logger"
)

// GateState is the state of a TriggerGate.
type GateState int32

const (
	GateIdle GateState = iota
	GateFiring
)

func (s GateState) String() string {
	if s == GateFiring {
		return "firing"
	}
	return "idle"
}

// TriggerGate fires a batch at most once per trigger slot. It is ticked
// often (every minute) and only lets ticks through whose local HH:MM is a
// trigger time whose slot key has not been taken yet.
type TriggerGate struct {
	times  map[string]struct{}
	loc    *time.Location
	guard  Guard
	fire   TaskFunc
	logger *slog.Logger
	now    func() time.Time
	state  atomic.Int32
}

// NewTriggerGate creates a gate for the given HH:MM trigger times.
// Times are normalised to zero-padded HH:MM, so "9:00" matches 09:00.
// Unparseable times are logged and ignored.
func NewTriggerGate(times []string, loc *time.Location, guard Guard, fire TaskFunc, log *slog.Logger) *TriggerGate {
	if log == nil {
		log = logger.Discard()
	}
	if loc == nil {
		loc = time.UTC
	}
	log = log.With("component", "trigger_gate")

	set := make(map[string]struct{}, len(times))
	for _, t := range times {
		parsed, err := time.Parse("15:04", strings.TrimSpace(t))
		if err != nil {
			log.Warn("Ignoring invalid trigger time", "trigger_time", t, "error", err)
			continue
		}
		set[parsed.Format("15:04")] = struct{}{}
	}
	return &TriggerGate{
		times:  set,
		loc:    loc,
		guard:  guard,
		fire:   fire,
		logger: log,
		now:    time.Now,
	}
}

// Times returns the normalised trigger times in ascending order.
func (g *TriggerGate) Times() []string {
	out := make([]string, 0, len(g.times))
	for t := range g.times {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// SetClock replaces the time source.
func (g *TriggerGate) SetClock(now func() time.Time) {
	g.now = now
}

// State returns the current gate state.
func (g *TriggerGate) State() GateState {
	return GateState(g.state.Load())
}

// SlotKey returns the guard key for t, formatted in loc.
func SlotKey(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return local.Format("2006-01-02") + "_" + local.Format("15:04")
}

// Tick checks the clock and fires the batch when a trigger slot opens.
// It reports whether the batch ran. The batch error, or a recovered
// panic, is returned after the gate is back to idle.
func (g *TriggerGate) Tick(ctx context.Context) (fired bool, err error) {
	local := g.now().In(g.loc)
	if _, ok := g.times[local.Format("15:04")]; !ok {
		return false, nil
	}

	if !g.state.CompareAndSwap(int32(GateIdle), int32(GateFiring)) {
		g.logger.DebugContext(ctx, "Batch already running, skipping tick")
		return false, nil
	}
	defer g.state.Store(int32(GateIdle))

	key := SlotKey(local, g.loc)
	acquired, err := g.guard.TryAcquire(ctx, key)
	if err != nil {
		return false, err
	}
	if !acquired {
		g.logger.DebugContext(ctx, "Trigger slot already taken", "slot", key)
		return false, nil
	}

	g.logger.InfoContext(ctx, "Trigger slot reached, firing batch", "slot", key)
	return true, g.runFire(ctx, key)
}

func (g *TriggerGate) runFire(ctx context.Context, key string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.ErrorContext(ctx, "Batch panicked", "slot", key, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("batch for slot %s panicked: %v", key, r)
		}
	}()
	if err := g.fire(ctx); err != nil {
		return fmt.Errorf("batch for slot %s: %w", key, err)
	}
	return nil
}
