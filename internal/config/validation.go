package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	// datetime=15:04 accepts "9:00"; store the zero-padded form the
	// trigger gate compares against.
	padded := make([]string, len(c.Scheduler.TriggerTimes))
	for i, t := range c.Scheduler.TriggerTimes {
		parsed, err := time.Parse("15:04", t)
		if err != nil {
			return fmt.Errorf("invalid trigger time %q: %w", t, err)
		}
		padded[i] = parsed.Format("15:04")
	}
	c.Scheduler.TriggerTimes = padded

	if _, err := time.LoadLocation(c.Dispatch.Timezone); err != nil {
		return fmt.Errorf("invalid dispatch timezone %q: %w", c.Dispatch.Timezone, err)
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database max_idle_conns (%d) exceeds max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	for name, task := range c.Scheduler.Tasks {
		if task.Enabled && strings.TrimSpace(task.Schedule) == "" {
			return fmt.Errorf("scheduler task %q is enabled but has no schedule", name)
		}
	}

	return nil
}

// Location returns the dispatch time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Dispatch.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsAdmin reports whether userID is in the admin allow-list.
func (c *Config) IsAdmin(userID int64) bool {
	return slices.Contains(c.Telegram.AdminUserIDs, userID)
}
