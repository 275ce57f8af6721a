package dispatch_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threec/aurion/internal/database"
	"github.com/threec/aurion/internal/dispatch"
	"github.com/threec/aurion/internal/logger"
)

type sentCall struct {
	method   string
	chatID   any
	threadID int
	text     string
	media    string
}

type fakeSender struct {
	mu     sync.Mutex
	calls  []sentCall
	err    error
	nextID int
}

func (f *fakeSender) record(c sentCall) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	return &models.Message{ID: 100 + f.nextID}, nil
}

func inputURL(f models.InputFile) string {
	if s, ok := f.(*models.InputFileString); ok {
		return s.Data
	}
	return ""
}

func (f *fakeSender) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	return f.record(sentCall{method: "sendMessage", chatID: p.ChatID, threadID: p.MessageThreadID, text: p.Text})
}

func (f *fakeSender) SendPhoto(_ context.Context, p *bot.SendPhotoParams) (*models.Message, error) {
	return f.record(sentCall{method: "sendPhoto", chatID: p.ChatID, threadID: p.MessageThreadID, text: p.Caption, media: inputURL(p.Photo)})
}

func (f *fakeSender) SendVideo(_ context.Context, p *bot.SendVideoParams) (*models.Message, error) {
	return f.record(sentCall{method: "sendVideo", chatID: p.ChatID, threadID: p.MessageThreadID, text: p.Caption, media: inputURL(p.Video)})
}

func (f *fakeSender) SendAnimation(_ context.Context, p *bot.SendAnimationParams) (*models.Message, error) {
	return f.record(sentCall{method: "sendAnimation", chatID: p.ChatID, threadID: p.MessageThreadID, text: p.Caption, media: inputURL(p.Animation)})
}

func (f *fakeSender) SendDocument(_ context.Context, p *bot.SendDocumentParams) (*models.Message, error) {
	return f.record(sentCall{method: "sendDocument", chatID: p.ChatID, threadID: p.MessageThreadID, text: p.Caption, media: inputURL(p.Document)})
}

// fakeStore keeps posts in memory and mimics the claim and failure rules
// of the SQL store.
type fakeStore struct {
	mu          sync.Mutex
	posts       map[int64]*database.ScheduledPost
	dashboard   []database.DashboardPost
	claims      []database.ClaimParams
	completeErr error
	releasedAt  time.Time
}

func newFakeStore(posts ...database.ScheduledPost) *fakeStore {
	s := &fakeStore{posts: map[int64]*database.ScheduledPost{}}
	for i := range posts {
		p := posts[i]
		if p.PostingStatus == "" {
			p.PostingStatus = database.StatusScheduled
		}
		s.posts[p.ID] = &p
	}
	return s
}

func (s *fakeStore) ClaimDuePosts(_ context.Context, params database.ClaimParams) ([]database.ScheduledPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims = append(s.claims, params)

	var out []database.ScheduledPost
	for id := int64(1); id <= int64(len(s.posts))+10; id++ {
		p, ok := s.posts[id]
		if !ok || p.ServiceType != params.ServiceType || p.PostingStatus != database.StatusScheduled {
			continue
		}
		due := p.ScheduledDate < params.Date || (p.ScheduledDate == params.Date && p.ScheduledTime <= params.Time)
		if !due || len(out) == params.Limit {
			continue
		}
		p.PostingStatus = database.StatusProcessing
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeStore) CompleteDispatch(_ context.Context, post *database.ScheduledPost, record *database.DashboardPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return s.completeErr
	}
	delete(s.posts, post.ID)
	record.ID = int64(len(s.dashboard) + 1)
	s.dashboard = append(s.dashboard, *record)
	return nil
}

func (s *fakeStore) RecordFailure(_ context.Context, postID int64, reason string, maxAttempts int) (database.FailureOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.posts[postID]
	p.Attempts++
	p.LastError = sql.NullString{String: reason, Valid: true}
	p.PostingStatus = database.StatusScheduled
	if p.Attempts >= maxAttempts {
		p.PostingStatus = database.StatusFailed
	}
	return database.FailureOutcome{Attempts: p.Attempts, Status: p.PostingStatus}, nil
}

func (s *fakeStore) ReleaseStaleClaims(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releasedAt = cutoff
	return 0, nil
}

func lisbon(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Lisbon")
	require.NoError(t, err)
	return loc
}

func newDispatcher(t *testing.T, store *fakeStore, sender *fakeSender, now time.Time) *dispatch.Dispatcher {
	t.Helper()
	d := dispatch.New(store, sender, dispatch.Options{
		ServiceType: "workerA",
		MaxAttempts: 3,
		Location:    lisbon(t),
		Groups:      map[string]int64{"3c_community": -1002377255109},
	}, logger.Discard())
	d.SetClock(func() time.Time { return now })
	return d
}

func textPost(id int64) database.ScheduledPost {
	return database.ScheduledPost{
		ID:             id,
		ChannelGroupID: "3c_community",
		ScheduledDate:  "2024-01-01",
		ScheduledTime:  "09:00:00",
		ServiceType:    "workerA",
		PostContent:    database.PostContent{Title: "Morning", Content: "Rise and shine, Champs."},
	}
}

func TestRunBatchSendsDueTextPost(t *testing.T) {
	t.Parallel()

	store := newFakeStore(textPost(1))
	sender := &fakeSender{}
	// Lisbon is UTC+0 in January.
	d := newDispatcher(t, store, sender, time.Date(2024, 1, 1, 9, 0, 15, 0, time.UTC))

	result, err := d.RunBatch(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, 1, result.Claimed)
	assert.Equal(t, 1, result.Sent)

	require.Len(t, store.claims, 1)
	assert.Equal(t, database.ClaimParams{ServiceType: "workerA", Date: "2024-01-01", Time: "09:00:15", Limit: 50}, store.claims[0])

	require.Len(t, sender.calls, 1)
	call := sender.calls[0]
	assert.Equal(t, "sendMessage", call.method)
	assert.Equal(t, int64(-1002377255109), call.chatID)
	assert.Zero(t, call.threadID)
	assert.Equal(t, "<b>Morning</b>\n\nRise and shine, Champs.", call.text)

	require.Len(t, store.dashboard, 1)
	rec := store.dashboard[0]
	assert.Equal(t, int64(1), rec.ScheduledPostID)
	assert.Equal(t, "-1002377255109", rec.ChatID)
	assert.Equal(t, "text", rec.MediaKind)
	assert.Equal(t, "https://t.me/c/2377255109/101", rec.Permalink)
	assert.Empty(t, store.posts)
}

func TestRunBatchUsesConfiguredZone(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	d := newDispatcher(t, store, &fakeSender{}, time.Date(2024, 7, 1, 8, 0, 15, 0, time.UTC))

	_, err := d.RunBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, store.claims, 1)
	// Summer time in Lisbon is UTC+1.
	assert.Equal(t, "09:00:15", store.claims[0].Time)
}

func TestRunBatchMediaAndThread(t *testing.T) {
	t.Parallel()

	post := textPost(1)
	post.ThreadID = sql.NullInt64{Int64: 12, Valid: true}
	post.MediaFiles = database.MediaList{{URL: "https://cdn.example.com/render.mp4"}}
	store := newFakeStore(post)
	sender := &fakeSender{}
	d := newDispatcher(t, store, sender, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	result, err := d.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)

	require.Len(t, sender.calls, 1)
	assert.Equal(t, "sendVideo", sender.calls[0].method)
	assert.Equal(t, 12, sender.calls[0].threadID)
	assert.Equal(t, "https://cdn.example.com/render.mp4", sender.calls[0].media)
	assert.Equal(t, "https://t.me/c/2377255109/12/101", store.dashboard[0].Permalink)
}

func TestRunBatchRetriesThenFails(t *testing.T) {
	t.Parallel()

	store := newFakeStore(textPost(1))
	sender := &fakeSender{err: errors.New("Bad Request: chat not found")}
	d := newDispatcher(t, store, sender, time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC))

	for attempt := 1; attempt <= 2; attempt++ {
		result, err := d.RunBatch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Retrying, "attempt %d", attempt)
	}

	result, err := d.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	result, err = d.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Claimed)

	p := store.posts[1]
	assert.Equal(t, database.StatusFailed, p.PostingStatus)
	assert.Equal(t, 3, p.Attempts)
	assert.Contains(t, p.LastError.String, "chat not found")
	assert.Len(t, sender.calls, 3)
	assert.Empty(t, store.dashboard)
}

func TestRunBatchRejectsLongCaptionWithoutSending(t *testing.T) {
	t.Parallel()

	post := textPost(1)
	post.PostContent.Content = strings.Repeat("a", dispatch.MaxCaptionLength)
	post.MediaFiles = database.MediaList{{URL: "https://cdn.example.com/banner.png"}}
	store := newFakeStore(post)
	sender := &fakeSender{}
	d := newDispatcher(t, store, sender, time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC))

	result, err := d.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Retrying)
	assert.Empty(t, sender.calls)
	assert.Contains(t, store.posts[1].LastError.String, dispatch.ErrCaptionTooLong.Error())
}

func TestRunBatchSwallowsBookkeepingErrors(t *testing.T) {
	t.Parallel()

	store := newFakeStore(textPost(1))
	store.completeErr = errors.New("connection reset")
	sender := &fakeSender{}
	d := newDispatcher(t, store, sender, time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC))

	result, err := d.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Len(t, sender.calls, 1)
}

func TestDispatchOneValidation(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, newFakeStore(), &fakeSender{}, time.Now())

	tests := []struct {
		name   string
		mutate func(p *database.ScheduledPost)
	}{
		{name: "missing chat", mutate: func(p *database.ScheduledPost) { p.ChannelGroupID = "" }},
		{name: "no text", mutate: func(p *database.ScheduledPost) { p.PostContent = database.PostContent{Hashtags: database.HashtagList{"#x"}} }},
		{name: "bad date", mutate: func(p *database.ScheduledPost) { p.ScheduledDate = "01/01/2024" }},
		{name: "bad time", mutate: func(p *database.ScheduledPost) { p.ScheduledTime = "9am" }},
		{name: "unpadded time", mutate: func(p *database.ScheduledPost) { p.ScheduledTime = "9:00" }},
		{name: "unpadded date", mutate: func(p *database.ScheduledPost) { p.ScheduledDate = "2024-1-1" }},
		{name: "bad media url", mutate: func(p *database.ScheduledPost) { p.MediaFiles = database.MediaList{{URL: "not a url.png"}} }},
		{name: "unknown group", mutate: func(p *database.ScheduledPost) { p.ChannelGroupID = "elsewhere" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			post := textPost(1)
			tt.mutate(&post)
			_, err := d.DispatchOne(context.Background(), &post)
			require.Error(t, err)
			assert.True(t, errors.Is(err, dispatch.ErrInvalidPost))
		})
	}
}

func TestReleaseStaleClaimsUsesTimeout(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	d := newDispatcher(t, store, &fakeSender{}, now)

	_, err := d.ReleaseStaleClaims(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(-15*time.Minute), store.releasedAt)
}
