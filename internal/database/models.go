package database

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Posting statuses of a scheduled post. StatusPending is the in-flight
// marker written by older publishers and is treated like StatusProcessing.
const (
	StatusScheduled  = "scheduled"
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSent       = "sent"
	StatusFailed     = "failed"
)

// FAQEntry is a question and its canned answer.
type FAQEntry struct {
	ID       int64  `db:"id"`
	Question string `db:"question"`
	Answer   string `db:"answer"`
}

// Fact is a single community fact served by /fact.
type Fact struct {
	ID   int64  `db:"id"`
	Text string `db:"fact"`
}

// Resource is a titled link served by /resources.
type Resource struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
	Link  string `db:"link"`
}

// KeywordResponse is a canned reply triggered by a word in a plain message.
type KeywordResponse struct {
	ID       int64  `db:"id"`
	Keyword  string `db:"keyword"`
	Response string `db:"response"`
}

// ScheduledPost is one pending outbound message owned by a worker via
// its ServiceType.
type ScheduledPost struct {
	ID             int64          `db:"id"`
	ChannelGroupID string         `db:"channel_group_id"`
	ThreadID       sql.NullInt64  `db:"thread_id"`
	ScheduledDate  string         `db:"scheduled_date"`
	ScheduledTime  string         `db:"scheduled_time"`
	ServiceType    string         `db:"service_type"`
	PostingStatus  string         `db:"posting_status"`
	PostStatus     string         `db:"post_status"`
	Attempts       int            `db:"attempts"`
	PostContent    PostContent    `db:"post_content"`
	MediaFiles     MediaList      `db:"media_files"`
	LastError      sql.NullString `db:"last_error"`
	ClaimedAt      sql.NullTime   `db:"claimed_at"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// Media returns the row's media list, falling back to the list embedded in
// the post content.
func (p *ScheduledPost) Media() MediaList {
	if len(p.MediaFiles) > 0 {
		return p.MediaFiles
	}
	return p.PostContent.MediaFiles
}

// DashboardPost is the append-only audit copy of a delivered post.
type DashboardPost struct {
	ID                int64         `db:"id"`
	ScheduledPostID   int64         `db:"scheduled_post_id"`
	ChannelGroupID    string        `db:"channel_group_id"`
	ChatID            string        `db:"chat_id"`
	ThreadID          sql.NullInt64 `db:"thread_id"`
	ServiceType       string        `db:"service_type"`
	PostContent       PostContent   `db:"post_content"`
	MediaFiles        MediaList     `db:"media_files"`
	Caption           string        `db:"caption"`
	MediaKind         string        `db:"media_kind"`
	TelegramMessageID int64         `db:"telegram_message_id"`
	Permalink         string        `db:"permalink"`
	ScheduledDate     string        `db:"scheduled_date"`
	ScheduledTime     string        `db:"scheduled_time"`
	Attempts          int           `db:"attempts"`
	SentAt            time.Time     `db:"sent_at"`
}

// Character is the persona a post is written as.
type Character struct {
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// IsZero reports whether no persona field is set.
func (c Character) IsZero() bool {
	return c.Name == "" && c.Username == "" && c.Role == ""
}

// MediaFile describes one attachment. Type is optional and overrides
// extension sniffing.
type MediaFile struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// PostContent is the structured payload stored in post_content. Older rows
// carry the persona as flat name/username/role keys instead of character.
type PostContent struct {
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Content     string      `json:"content,omitempty"`
	Hashtags    HashtagList `json:"hashtags,omitempty"`
	CTA         string      `json:"cta,omitempty"`
	Character   Character   `json:"character,omitzero"`
	Name        string      `json:"name,omitempty"`
	Username    string      `json:"username,omitempty"`
	Role        string      `json:"role,omitempty"`
	MediaFiles  MediaList   `json:"media_files,omitempty"`
}

// Persona returns the nested character, or the flat fields when it is empty.
func (c PostContent) Persona() Character {
	if !c.Character.IsZero() {
		return c.Character
	}
	return Character{Name: c.Name, Username: c.Username, Role: c.Role}
}

// Value implements driver.Valuer. JSON is sent as text so jsonb columns
// accept it.
func (c PostContent) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post content: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *PostContent) Scan(src any) error {
	*c = PostContent{}
	b, err := jsonBytes(src)
	if err != nil || b == nil {
		return err
	}
	if err := json.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to unmarshal post content: %w", err)
	}
	return nil
}

// MediaList is the JSON list stored in media_files.
type MediaList []MediaFile

// Value implements driver.Valuer.
func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]MediaFile(m))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal media files: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *MediaList) Scan(src any) error {
	*m = nil
	b, err := jsonBytes(src)
	if err != nil || b == nil {
		return err
	}
	var list []MediaFile
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("failed to unmarshal media files: %w", err)
	}
	*m = list
	return nil
}

// HashtagList accepts either a JSON array of tags or a single string of
// space or comma separated tags.
type HashtagList []string

// UnmarshalJSON implements json.Unmarshaler.
func (h *HashtagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*h = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = HashtagList(strings.FieldsFunc(s, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\n' || r == '\t'
		}))
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("hashtags must be a string or a list of strings: %w", err)
	}
	*h = list
	return nil
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", src)
	}
}
