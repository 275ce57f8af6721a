package llm

import (
	"regexp"
	"strings"
)

// EnsureSignoff removes every occurrence of signoff from text (ignoring case)
// and appends it exactly once after a blank line. Applying it twice yields
// the same string as applying it once.
func EnsureSignoff(text, signoff string) string {
	signoff = strings.TrimSpace(signoff)
	body := strings.TrimSpace(text)
	if signoff == "" {
		return body
	}

	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(signoff))
	for re.MatchString(body) {
		body = strings.TrimSpace(re.ReplaceAllString(body, ""))
	}

	if body == "" {
		return signoff
	}
	return body + "\n\n" + signoff
}
