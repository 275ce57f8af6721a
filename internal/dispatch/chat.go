package dispatch

import (
	"fmt"
	"strconv"
	"strings"
)

// ResolveChat turns a channel_group_id into a Telegram chat id. Configured
// group names map to numeric ids, numeric strings are used as is and
// @usernames are passed through.
func ResolveChat(ref string, groups map[string]int64) (any, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty channel_group_id", ErrInvalidPost)
	}
	if id, ok := groups[ref]; ok {
		return id, nil
	}
	if id, ok := groups[strings.ToLower(ref)]; ok {
		return id, nil
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}
	if strings.HasPrefix(ref, "@") && len(ref) > 1 {
		return ref, nil
	}
	return nil, fmt.Errorf("%w: unknown chat %q", ErrInvalidPost, ref)
}

// Permalink builds a t.me link to a delivered message. Private supergroups
// and channels (-100 prefixed ids) use the /c/ form, public chats their
// username. Other chats have no link and return "".
func Permalink(chatID any, threadID int, messageID int) string {
	if messageID <= 0 {
		return ""
	}

	var base string
	switch v := chatID.(type) {
	case int64:
		s := strconv.FormatInt(v, 10)
		internal, ok := strings.CutPrefix(s, "-100")
		if !ok || internal == "" {
			return ""
		}
		base = "https://t.me/c/" + internal
	case string:
		name, ok := strings.CutPrefix(v, "@")
		if !ok || name == "" {
			return ""
		}
		base = "https://t.me/" + name
	default:
		return ""
	}

	if threadID > 0 {
		return fmt.Sprintf("%s/%d/%d", base, threadID, messageID)
	}
	return fmt.Sprintf("%s/%d", base, messageID)
}
