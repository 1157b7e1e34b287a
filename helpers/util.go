package helpers

import (
	"strings"
)

// QuizSlug extracts the trailing slug of a quiz URL, without query parameters
// or the .html suffix. Used for log correlation and block-cache keys.
func QuizSlug(link string) string {
	base := strings.Split(link, "?")[0]
	base = strings.TrimSuffix(base, "/")
	idx := strings.LastIndex(base, "/")
	if idx < 0 || idx == len(base)-1 {
		return base
	}
	return strings.TrimSuffix(base[idx+1:], ".html")
}
