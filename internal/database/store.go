package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/threec/aurion/internal/logger"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RunSQLMaintenance runs VACUUM on SQLite or ANALYZE on Postgres.
	RunSQLMaintenance(ctx context.Context) error

	// ListFAQ returns every FAQ entry ordered by id.
	ListFAQ(ctx context.Context) ([]FAQEntry, error)

	// GetFAQ returns one FAQ entry or ErrNotFound.
	GetFAQ(ctx context.Context, id int64) (*FAQEntry, error)

	// MatchFAQ finds the entry whose question equals question, ignoring
	// case, surrounding whitespace and trailing question marks.
	MatchFAQ(ctx context.Context, question string) (*FAQEntry, error)

	// RandomFact returns a random fact or ErrNotFound.
	RandomFact(ctx context.Context) (*Fact, error)

	// ListResources returns every resource ordered by id.
	ListResources(ctx context.Context) ([]Resource, error)

	// ListKeywords returns every keyword response ordered by id.
	ListKeywords(ctx context.Context) ([]KeywordResponse, error)

	// MarkGreeted records that userID received the welcome message. It
	// reports true only for the call that inserted the row.
	MarkGreeted(ctx context.Context, userID int64) (bool, error)

	// ClaimDuePosts flips due scheduled rows to processing and returns them.
	ClaimDuePosts(ctx context.Context, params ClaimParams) ([]ScheduledPost, error)

	// CompleteDispatch marks the post sent, inserts the audit record and
	// deletes the post in one transaction.
	CompleteDispatch(ctx context.Context, post *ScheduledPost, record *DashboardPost) error

	// RecordFailure increments attempts and either reschedules the post or
	// marks it failed once maxAttempts is reached.
	RecordFailure(ctx context.Context, postID int64, reason string, maxAttempts int) (FailureOutcome, error)

	// ReleaseStaleClaims returns posts claimed before cutoff to scheduled.
	ReleaseStaleClaims(ctx context.Context, cutoff time.Time) (int64, error)
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	driver string
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store implementation backed by sqlx.
// Queries are written with ? placeholders and rebound for the driver.
func NewStore(db *sqlx.DB, log *slog.Logger) Store {
	if log == nil {
		log = logger.Discard()
	}
	return &sqlxStore{
		db:     db,
		driver: db.DriverName(),
		logger: log.With("component", "store"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *sqlxStore) isPostgres() bool {
	return s.driver == DriverPostgres
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RunSQLMaintenance reclaims space on SQLite and refreshes planner
// statistics on Postgres.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	stmt := "VACUUM;"
	if s.isPostgres() {
		stmt = "ANALYZE scheduled_posts, dashboard_posts, greeted_users;"
	}

	s.logger.InfoContext(ctx, "Starting database maintenance", "statement", stmt)
	_, err := s.db.ExecContext(ctx, stmt)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Database maintenance timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance failed", "error", err)
		return fmt.Errorf("failed to run database maintenance: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed successfully")
	return nil
}

func (s *sqlxStore) ListFAQ(ctx context.Context) ([]FAQEntry, error) {
	var entries []FAQEntry
	if err := s.db.SelectContext(ctx, &entries, `SELECT id, question, answer FROM faq ORDER BY id`); err != nil {
		s.logger.ErrorContext(ctx, "Error listing FAQ entries", "error", err)
		return nil, fmt.Errorf("failed to list faq: %w", err)
	}
	return entries, nil
}

func (s *sqlxStore) GetFAQ(ctx context.Context, id int64) (*FAQEntry, error) {
	var entry FAQEntry
	query := s.db.Rebind(`SELECT id, question, answer FROM faq WHERE id = ?`)
	err := s.db.GetContext(ctx, &entry, query, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting FAQ entry", "faq_id", id, "error", err)
		return nil, fmt.Errorf("failed to get faq %d: %w", id, err)
	}
	return &entry, nil
}

// NormalizeQuestion lowercases q, trims whitespace and trailing question marks.
func NormalizeQuestion(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	return strings.TrimSpace(strings.TrimRight(q, "?"))
}

func (s *sqlxStore) MatchFAQ(ctx context.Context, question string) (*FAQEntry, error) {
	normalized := NormalizeQuestion(question)
	if normalized == "" {
		return nil, ErrNotFound
	}

	var entry FAQEntry
	query := s.db.Rebind(`
        SELECT id, question, answer
        FROM faq
        WHERE TRIM(RTRIM(LOWER(TRIM(question)), '?')) = ?
        ORDER BY id
        LIMIT 1`)
	err := s.db.GetContext(ctx, &entry, query, normalized)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		s.logger.ErrorContext(ctx, "Error matching FAQ entry", "error", err)
		return nil, fmt.Errorf("failed to match faq: %w", err)
	}
	return &entry, nil
}

func (s *sqlxStore) RandomFact(ctx context.Context) (*Fact, error) {
	var fact Fact
	err := s.db.GetContext(ctx, &fact, `SELECT id, fact FROM fact ORDER BY RANDOM() LIMIT 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting random fact", "error", err)
		return nil, fmt.Errorf("failed to get random fact: %w", err)
	}
	return &fact, nil
}

func (s *sqlxStore) ListResources(ctx context.Context) ([]Resource, error) {
	var resources []Resource
	if err := s.db.SelectContext(ctx, &resources, `SELECT id, title, link FROM resources ORDER BY id`); err != nil {
		s.logger.ErrorContext(ctx, "Error listing resources", "error", err)
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return resources, nil
}

func (s *sqlxStore) ListKeywords(ctx context.Context) ([]KeywordResponse, error) {
	var keywords []KeywordResponse
	if err := s.db.SelectContext(ctx, &keywords, `SELECT id, keyword, response FROM keyword ORDER BY id`); err != nil {
		s.logger.ErrorContext(ctx, "Error listing keywords", "error", err)
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	return keywords, nil
}

func (s *sqlxStore) MarkGreeted(ctx context.Context, userID int64) (bool, error) {
	if userID == 0 {
		return false, fmt.Errorf("user_id cannot be zero")
	}

	query := s.db.Rebind(`
        INSERT INTO greeted_users (user_id, greeted_at)
        VALUES (?, ?)
        ON CONFLICT (user_id) DO NOTHING`)
	result, err := s.db.ExecContext(ctx, query, userID, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking user as greeted", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to mark user %d as greeted: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows for user %d: %w", userID, err)
	}
	return affected == 1, nil
}

// withTx runs fn in a transaction, committing when it returns nil.
func (s *sqlxStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
