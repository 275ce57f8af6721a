package dispatch

import (
	"net/url"
	"path"
	"strings"

	"github.com/threec/aurion/internal/database"
)

// MediaKind selects the Telegram send method for a post.
type MediaKind string

const (
	KindText      MediaKind = "text"
	KindPhoto     MediaKind = "photo"
	KindVideo     MediaKind = "video"
	KindAnimation MediaKind = "animation"
	KindDocument  MediaKind = "document"
)

var (
	videoExts    = map[string]bool{"mp4": true, "mov": true, "avi": true, "mkv": true, "webm": true, "m4v": true}
	documentExts = map[string]bool{
		"pdf": true, "doc": true, "docx": true, "txt": true, "zip": true,
		"rar": true, "csv": true, "xls": true, "xlsx": true,
	}
	photoExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "webp": true, "bmp": true}
)

// explicitKinds maps the type values authoring tools write, including
// MIME-style prefixes.
var explicitKinds = map[string]MediaKind{
	"photo":     KindPhoto,
	"image":     KindPhoto,
	"video":     KindVideo,
	"animation": KindAnimation,
	"gif":       KindAnimation,
	"document":  KindDocument,
	"file":      KindDocument,
	"doc":       KindDocument,
}

// DetectMediaKind classifies one media entry. An explicit type wins;
// otherwise the URL extension decides and anything unrecognised is a photo.
func DetectMediaKind(m database.MediaFile) MediaKind {
	if kind, ok := explicitKind(m.Type); ok {
		return kind
	}

	switch ext := urlExtension(m.URL); {
	case videoExts[ext]:
		return KindVideo
	case ext == "gif":
		return KindAnimation
	case documentExts[ext]:
		return KindDocument
	case photoExts[ext]:
		return KindPhoto
	default:
		return KindPhoto
	}
}

func explicitKind(t string) (MediaKind, bool) {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return "", false
	}
	if kind, ok := explicitKinds[t]; ok {
		return kind, true
	}
	// MIME types such as image/gif or application/pdf.
	if major, minor, found := strings.Cut(t, "/"); found {
		switch {
		case minor == "gif":
			return KindAnimation, true
		case major == "image":
			return KindPhoto, true
		case major == "video":
			return KindVideo, true
		case major == "application" || major == "text":
			return KindDocument, true
		}
	}
	return "", false
}

func urlExtension(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}

// PrimaryMedia returns the first media entry of post and its kind, or
// KindText when the post has no media. Further entries are ignored.
func PrimaryMedia(post *database.ScheduledPost) (database.MediaFile, MediaKind) {
	for _, m := range post.Media() {
		if strings.TrimSpace(m.URL) == "" {
			continue
		}
		return m, DetectMediaKind(m)
	}
	return database.MediaFile{}, KindText
}
