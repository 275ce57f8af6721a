package dispatch

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/threec/aurion/internal/database"
)

// Telegram limits, counted in UTF-16 code units after entity parsing.
const (
	MaxCaptionLength = 1024
	MaxMessageLength = 4096
)

// ErrCaptionTooLong is returned instead of truncating an oversized caption.
var ErrCaptionTooLong = errors.New("caption exceeds telegram limit")

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// BuildCaption renders post content as Telegram HTML in a fixed order:
// persona header, title, body, hashtags, call to action. Blocks are
// separated by a blank line. The result depends only on content.
func BuildCaption(content database.PostContent) string {
	var blocks []string

	if header := personaHeader(content.Persona()); header != "" {
		blocks = append(blocks, header)
	}
	if title := strings.TrimSpace(content.Title); title != "" {
		blocks = append(blocks, "<b>"+html.EscapeString(title)+"</b>")
	}

	description := strings.TrimSpace(content.Description)
	body := strings.TrimSpace(content.Content)
	if description != "" {
		blocks = append(blocks, html.EscapeString(description))
	}
	if body != "" && body != description {
		blocks = append(blocks, html.EscapeString(body))
	}

	if tags := hashtagLine(content.Hashtags); tags != "" {
		blocks = append(blocks, tags)
	}
	if cta := strings.TrimSpace(content.CTA); cta != "" {
		blocks = append(blocks, "👉 "+html.EscapeString(cta))
	}

	return strings.Join(blocks, "\n\n")
}

func personaHeader(c database.Character) string {
	var parts []string
	if name := strings.TrimSpace(c.Name); name != "" {
		parts = append(parts, "<b>"+html.EscapeString(name)+"</b>")
	}
	if username := strings.TrimPrefix(strings.TrimSpace(c.Username), "@"); username != "" {
		parts = append(parts, "@"+html.EscapeString(username))
	}
	if role := strings.TrimSpace(c.Role); role != "" {
		parts = append(parts, "<i>"+html.EscapeString(role)+"</i>")
	}
	return strings.Join(parts, " · ")
}

func hashtagLine(tags database.HashtagList) string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || tag == "#" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		out = append(out, html.EscapeString(tag))
	}
	return strings.Join(out, " ")
}

// CaptionLength returns the length Telegram checks against its limits:
// the visible text in UTF-16 code units.
func CaptionLength(caption string) int {
	visible := html.UnescapeString(htmlTag.ReplaceAllString(caption, ""))
	n := 0
	for _, r := range visible {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// CheckCaption rejects captions longer than the limit for kind.
func CheckCaption(caption string, kind MediaKind) error {
	limit := MaxCaptionLength
	if kind == KindText {
		limit = MaxMessageLength
	}
	if n := CaptionLength(caption); n > limit {
		return fmt.Errorf("%w: %d > %d characters for %s", ErrCaptionTooLong, n, limit, kind)
	}
	return nil
}
