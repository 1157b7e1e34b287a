package results

import (
	"regexp"
	"strings"
)

const (
	minExplanationLength = 30
	minAnswerLength      = 2
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	// Text past this marker belongs to the site, not the question.
	playersMarkerRe = regexp.MustCompile(`(?i)\d+%\s+of\s+players`)

	labelPrefixes = []string{
		"Explanation:", "Description:", "Summary:",
		"Interesting Information:", "Fun Fact:", "Hint:", "Info:",
	}

	boilerplatePhrases = []string{
		"your answer",
		"i see an error",
		"question by player",
		"of players have answered",
		"report this",
		"next question",
		"avg score",
		"view image",
		"play this quiz",
	}
)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// normalizeExplanation strips label prefixes, cuts at the players marker and
// collapses whitespace. Too-short results come back empty.
func normalizeExplanation(s string) string {
	if loc := playersMarkerRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = collapseWhitespace(s)
	for _, prefix := range labelPrefixes {
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			s = strings.TrimSpace(s[len(prefix):])
		}
	}
	if len(s) < minExplanationLength {
		return ""
	}
	return s
}

func normalizeAnswer(s string) string {
	s = collapseWhitespace(s)
	s = strings.Trim(s, `"'.,;: `)
	return s
}

// The player's own answer line must never feed the answer patterns.
var userAnswerLineRe = regexp.MustCompile(`(?im)^[^\n]*your answer[^\n]*$`)

func stripUserAnswerLines(s string) string {
	return userAnswerLineRe.ReplaceAllString(s, "")
}

func stripBoilerplateLines(s string) string {
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isBoilerplate(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, " ")
}

func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return playersMarkerRe.MatchString(line)
}
