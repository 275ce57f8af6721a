package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const scheduledPostColumns = `id, channel_group_id, thread_id, scheduled_date, scheduled_time, service_type,
        posting_status, post_status, attempts, post_content, media_files, last_error, claimed_at,
        created_at, updated_at`

// ClaimParams selects due posts. Date is YYYY-MM-DD and Time is HH:MM:SS,
// both in the dispatcher's local zone.
type ClaimParams struct {
	ServiceType string
	Date        string
	Time        string
	Limit       int
}

// FailureOutcome is the row state after RecordFailure.
type FailureOutcome struct {
	Attempts int    `db:"attempts"`
	Status   string `db:"posting_status"`
}

// Terminal reports whether the post will not be retried.
func (o FailureOutcome) Terminal() bool {
	return o.Status == StatusFailed
}

func (s *sqlxStore) claimQuery() string {
	lock := ""
	if s.isPostgres() {
		lock = "FOR UPDATE SKIP LOCKED"
	}
	return s.db.Rebind(fmt.Sprintf(`
        UPDATE scheduled_posts
        SET posting_status = '%[1]s', post_status = '%[1]s', claimed_at = ?, updated_at = ?
        WHERE posting_status = '%[2]s'
          AND id IN (
            SELECT id FROM scheduled_posts
            WHERE service_type = ?
              AND posting_status = '%[2]s'
              AND (scheduled_date < ? OR (scheduled_date = ? AND scheduled_time <= ?))
            ORDER BY scheduled_date, scheduled_time, id
            LIMIT ?
            %[3]s
          )
        RETURNING id`, StatusProcessing, StatusScheduled, lock))
}

func (s *sqlxStore) ClaimDuePosts(ctx context.Context, params ClaimParams) ([]ScheduledPost, error) {
	if params.ServiceType == "" {
		return nil, fmt.Errorf("service type cannot be empty")
	}
	if params.Limit <= 0 {
		params.Limit = 50
	}

	now := s.now()
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, s.claimQuery(),
		now, now,
		params.ServiceType,
		params.Date, params.Date, params.Time,
		params.Limit,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error claiming due posts", "service_type", params.ServiceType, "error", err)
		return nil, fmt.Errorf("failed to claim due posts: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	// The claimed rows belong to this worker now, so reading them back
	// outside the claim statement is safe.
	query, args, err := sqlx.In(`SELECT `+scheduledPostColumns+`
        FROM scheduled_posts
        WHERE id IN (?)
        ORDER BY scheduled_date, scheduled_time, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build claimed posts query: %w", err)
	}

	var posts []ScheduledPost
	if err := s.db.SelectContext(ctx, &posts, s.db.Rebind(query), args...); err != nil {
		s.logger.ErrorContext(ctx, "Error loading claimed posts", "service_type", params.ServiceType, "count", len(ids), "error", err)
		return nil, fmt.Errorf("failed to load claimed posts: %w", err)
	}

	s.logger.DebugContext(ctx, "Claimed due posts", "service_type", params.ServiceType, "count", len(posts))
	return posts, nil
}

func (s *sqlxStore) CompleteDispatch(ctx context.Context, post *ScheduledPost, record *DashboardPost) error {
	if post == nil || record == nil {
		return fmt.Errorf("post and dashboard record are required")
	}

	now := s.now()
	if record.SentAt.IsZero() {
		record.SentAt = now
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		markSent := tx.Rebind(`
            UPDATE scheduled_posts
            SET posting_status = ?, post_status = ?, last_error = NULL, updated_at = ?
            WHERE id = ?`)
		result, err := tx.ExecContext(ctx, markSent, StatusSent, StatusSent, now, post.ID)
		if err != nil {
			return fmt.Errorf("failed to mark post %d as sent: %w", post.ID, err)
		}
		if affected, err := result.RowsAffected(); err == nil && affected != 1 {
			return fmt.Errorf("post %d: %w", post.ID, ErrNotFound)
		}

		insertQuery, args, err := tx.BindNamed(`
            INSERT INTO dashboard_posts (
                scheduled_post_id, channel_group_id, chat_id, thread_id, service_type,
                post_content, media_files, caption, media_kind, telegram_message_id,
                permalink, scheduled_date, scheduled_time, attempts, sent_at
            ) VALUES (
                :scheduled_post_id, :channel_group_id, :chat_id, :thread_id, :service_type,
                :post_content, :media_files, :caption, :media_kind, :telegram_message_id,
                :permalink, :scheduled_date, :scheduled_time, :attempts, :sent_at
            ) RETURNING id`, record)
		if err != nil {
			return fmt.Errorf("failed to bind dashboard insert: %w", err)
		}
		if err := tx.QueryRowxContext(ctx, insertQuery, args...).Scan(&record.ID); err != nil {
			return fmt.Errorf("failed to insert dashboard record for post %d: %w", post.ID, err)
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM scheduled_posts WHERE id = ?`), post.ID); err != nil {
			return fmt.Errorf("failed to delete post %d: %w", post.ID, err)
		}

		post.PostingStatus = StatusSent
		post.PostStatus = StatusSent
		return nil
	})
}

func (s *sqlxStore) RecordFailure(ctx context.Context, postID int64, reason string, maxAttempts int) (FailureOutcome, error) {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	query := s.db.Rebind(fmt.Sprintf(`
        UPDATE scheduled_posts
        SET attempts = attempts + 1,
            posting_status = CASE WHEN attempts + 1 >= ? THEN '%[1]s' ELSE '%[2]s' END,
            post_status = CASE WHEN attempts + 1 >= ? THEN '%[1]s' ELSE '%[2]s' END,
            last_error = ?,
            claimed_at = NULL,
            updated_at = ?
        WHERE id = ?
        RETURNING attempts, posting_status`, StatusFailed, StatusScheduled))

	var outcome FailureOutcome
	err := s.db.GetContext(ctx, &outcome, query, maxAttempts, maxAttempts, reason, s.now(), postID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error recording dispatch failure", "post_id", postID, "error", err)
		return FailureOutcome{}, fmt.Errorf("failed to record failure for post %d: %w", postID, err)
	}
	return outcome, nil
}

func (s *sqlxStore) ReleaseStaleClaims(ctx context.Context, cutoff time.Time) (int64, error) {
	query := s.db.Rebind(fmt.Sprintf(`
        UPDATE scheduled_posts
        SET posting_status = '%[1]s', post_status = '%[1]s', claimed_at = NULL, updated_at = ?
        WHERE posting_status IN ('%[2]s', '%[3]s')
          AND COALESCE(claimed_at, updated_at) < ?`, StatusScheduled, StatusProcessing, StatusPending))

	result, err := s.db.ExecContext(ctx, query, s.now(), cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error releasing stale claims", "error", err)
		return 0, fmt.Errorf("failed to release stale claims: %w", err)
	}
	released, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read released rows: %w", err)
	}
	if released > 0 {
		s.logger.WarnContext(ctx, "Released stale post claims", "count", released, "cutoff", cutoff)
	}
	return released, nil
}
