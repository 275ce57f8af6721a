package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/threec/aurion/internal/config"
	"github.com/threec/aurion/internal/database"
	"github.com/threec/aurion/internal/logger"
)

const bookkeepingTimeout = 10 * time.Second

// Sender is the subset of the Telegram Bot API the dispatcher calls.
// *bot.Bot satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendVideo(ctx context.Context, params *bot.SendVideoParams) (*models.Message, error)
	SendAnimation(ctx context.Context, params *bot.SendAnimationParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
}

// Store is the part of database.Store the dispatcher needs.
type Store interface {
	ClaimDuePosts(ctx context.Context, params database.ClaimParams) ([]database.ScheduledPost, error)
	CompleteDispatch(ctx context.Context, post *database.ScheduledPost, record *database.DashboardPost) error
	RecordFailure(ctx context.Context, postID int64, reason string, maxAttempts int) (database.FailureOutcome, error)
	ReleaseStaleClaims(ctx context.Context, cutoff time.Time) (int64, error)
}

// Options configures a Dispatcher.
type Options struct {
	ServiceType  string
	BatchSize    int
	MaxAttempts  int
	Location     *time.Location
	ClaimTimeout time.Duration
	SendTimeout  time.Duration
	Groups       map[string]int64
}

// OptionsFromConfig builds Options from the dispatch section of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ServiceType:  cfg.Dispatch.ServiceType,
		BatchSize:    cfg.Dispatch.BatchSize,
		MaxAttempts:  cfg.Dispatch.MaxAttempts,
		Location:     cfg.Location(),
		ClaimTimeout: cfg.Dispatch.ClaimTimeout,
		SendTimeout:  cfg.Dispatch.SendTimeout,
		Groups:       cfg.Dispatch.Groups,
	}
}

// BatchResult summarises one RunBatch call.
type BatchResult struct {
	BatchID  string
	Claimed  int
	Sent     int
	Retrying int
	Failed   int
}

// Dispatcher delivers due scheduled posts for one service type.
type Dispatcher struct {
	store  Store
	sender Sender
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Dispatcher. Zero option values fall back to the defaults.
func New(store Store, sender Sender, opts Options, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = config.DefaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = config.DefaultMaxAttempts
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ClaimTimeout <= 0 {
		opts.ClaimTimeout = config.DefaultClaimTimeout
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = config.DefaultSendTimeout
	}
	return &Dispatcher{
		store:  store,
		sender: sender,
		opts:   opts,
		logger: log.With("component", "dispatcher", "service_type", opts.ServiceType),
		now:    time.Now,
	}
}

// SetClock replaces the time source.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// RunBatch claims the posts due now and dispatches them one after another.
// Only a failed claim is returned as an error; per-post failures end up
// in the counts and in the rows themselves.
func (d *Dispatcher) RunBatch(ctx context.Context) (BatchResult, error) {
	result := BatchResult{BatchID: uuid.NewString()}
	log := d.logger.With("batch_id", result.BatchID)

	local := d.now().In(d.opts.Location)
	posts, err := d.store.ClaimDuePosts(ctx, database.ClaimParams{
		ServiceType: d.opts.ServiceType,
		Date:        local.Format("2006-01-02"),
		Time:        local.Format("15:04:05"),
		Limit:       d.opts.BatchSize,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to claim due posts", "error", err)
		return result, fmt.Errorf("claim due posts: %w", err)
	}

	result.Claimed = len(posts)
	if result.Claimed == 0 {
		log.DebugContext(ctx, "No posts due", "local_time", local.Format(time.DateTime))
		return result, nil
	}
	log.InfoContext(ctx, "Dispatching batch", "claimed", result.Claimed)

	for i := range posts {
		if ctx.Err() != nil {
			// Unsent claims are returned by ReleaseStaleClaims later.
			log.WarnContext(ctx, "Batch interrupted", "remaining", len(posts)-i, "error", ctx.Err())
			break
		}
		switch d.process(ctx, log, &posts[i]) {
		case outcomeSent:
			result.Sent++
		case outcomeRetrying:
			result.Retrying++
		case outcomeFailed:
			result.Failed++
		}
	}

	log.InfoContext(ctx, "Batch finished",
		"claimed", result.Claimed,
		"sent", result.Sent,
		"retrying", result.Retrying,
		"failed", result.Failed,
	)
	return result, nil
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeRetrying
	outcomeFailed
)

func (d *Dispatcher) process(ctx context.Context, log *slog.Logger, post *database.ScheduledPost) outcome {
	log = log.With("post_id", post.ID)

	record, sendErr := d.DispatchOne(ctx, post)

	// Bookkeeping must land even when the batch context is cancelled
	// after the send.
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()

	if sendErr == nil {
		if err := d.store.CompleteDispatch(bctx, post, record); err != nil {
			log.ErrorContext(ctx, "Failed to record sent post", "error", err, "telegram_message_id", record.TelegramMessageID)
		} else {
			log.InfoContext(ctx, "Post sent",
				"media_kind", record.MediaKind,
				"telegram_message_id", record.TelegramMessageID,
				"permalink", record.Permalink,
			)
		}
		return outcomeSent
	}

	res, err := d.store.RecordFailure(bctx, post.ID, sendErr.Error(), d.opts.MaxAttempts)
	if err != nil {
		log.ErrorContext(ctx, "Failed to record dispatch failure", "error", err, "send_error", sendErr)
		if post.Attempts+1 >= d.opts.MaxAttempts {
			return outcomeFailed
		}
		return outcomeRetrying
	}

	if res.Terminal() {
		log.ErrorContext(ctx, "Post failed permanently", "error", sendErr, "attempts", res.Attempts)
		return outcomeFailed
	}
	log.WarnContext(ctx, "Post send failed, will retry", "error", sendErr, "attempts", res.Attempts)
	return outcomeRetrying
}

// DispatchOne validates and sends a single post and returns the audit
// record to persist. It performs no database writes.
func (d *Dispatcher) DispatchOne(ctx context.Context, post *database.ScheduledPost) (*database.DashboardPost, error) {
	if err := ValidatePost(post); err != nil {
		return nil, err
	}

	chatID, err := ResolveChat(post.ChannelGroupID, d.opts.Groups)
	if err != nil {
		return nil, err
	}

	media, kind := PrimaryMedia(post)
	caption := BuildCaption(post.PostContent)
	if err := CheckCaption(caption, kind); err != nil {
		return nil, err
	}

	threadID := 0
	if post.ThreadID.Valid {
		threadID = int(post.ThreadID.Int64)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()

	msg, err := d.send(sendCtx, chatID, threadID, kind, media.URL, caption)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", kind, err)
	}
	if msg == nil {
		return nil, errors.New("telegram returned no message")
	}

	return &database.DashboardPost{
		ScheduledPostID:   post.ID,
		ChannelGroupID:    post.ChannelGroupID,
		ChatID:            chatString(chatID),
		ThreadID:          post.ThreadID,
		ServiceType:       post.ServiceType,
		PostContent:       post.PostContent,
		MediaFiles:        post.Media(),
		Caption:           caption,
		MediaKind:         string(kind),
		TelegramMessageID: int64(msg.ID),
		Permalink:         Permalink(chatID, threadID, msg.ID),
		ScheduledDate:     post.ScheduledDate,
		ScheduledTime:     post.ScheduledTime,
		Attempts:          post.Attempts,
		SentAt:            d.now().UTC(),
	}, nil
}

func (d *Dispatcher) send(ctx context.Context, chatID any, threadID int, kind MediaKind, mediaURL, caption string) (*models.Message, error) {
	switch kind {
	case KindPhoto:
		return d.sender.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:          chatID,
			MessageThreadID: threadID,
			Photo:           &models.InputFileString{Data: mediaURL},
			Caption:         caption,
			ParseMode:       models.ParseModeHTML,
		})
	case KindVideo:
		return d.sender.SendVideo(ctx, &bot.SendVideoParams{
			ChatID:          chatID,
			MessageThreadID: threadID,
			Video:           &models.InputFileString{Data: mediaURL},
			Caption:         caption,
			ParseMode:       models.ParseModeHTML,
		})
	case KindAnimation:
		return d.sender.SendAnimation(ctx, &bot.SendAnimationParams{
			ChatID:          chatID,
			MessageThreadID: threadID,
			Animation:       &models.InputFileString{Data: mediaURL},
			Caption:         caption,
			ParseMode:       models.ParseModeHTML,
		})
	case KindDocument:
		return d.sender.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:          chatID,
			MessageThreadID: threadID,
			Document:        &models.InputFileString{Data: mediaURL},
			Caption:         caption,
			ParseMode:       models.ParseModeHTML,
		})
	default:
		return d.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:          chatID,
			MessageThreadID: threadID,
			Text:            caption,
			ParseMode:       models.ParseModeHTML,
		})
	}
}

// ReleaseStaleClaims returns posts claimed longer than the claim timeout
// ago to the scheduled state.
func (d *Dispatcher) ReleaseStaleClaims(ctx context.Context) (int64, error) {
	cutoff := d.now().Add(-d.opts.ClaimTimeout)
	released, err := d.store.ReleaseStaleClaims(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("release stale claims: %w", err)
	}
	return released, nil
}

func chatString(chatID any) string {
	switch v := chatID.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
