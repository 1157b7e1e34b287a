// Package classify assigns a record type to a question from its prompt and
// option shape alone, independent of the quiz layout it was scraped from.
package classify

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"

	"quizharvester/logger"
)

// Type is the classified record type of a question.
type Type string

const (
	TypeMultipleChoice Type = "multiple_choice"
	TypeTrueFalse      Type = "true_false"
	TypeSound          Type = "sound"
)

// Prefix returns the identifier prefix for the type.
func (t Type) Prefix() string {
	switch t {
	case TypeTrueFalse:
		return "TF"
	case TypeSound:
		return "Sound"
	default:
		return "MQ"
	}
}

var (
	trueSynonyms  = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "correct": true, "right": true, "agree": true}
	falseSynonyms = map[string]bool{"false": true, "f": true, "no": true, "n": true, "incorrect": true, "wrong": true, "disagree": true}

	oppositePairs = [][2]string{
		{"true", "false"}, {"yes", "no"}, {"y", "n"}, {"t", "f"},
		{"correct", "incorrect"}, {"right", "wrong"}, {"agree", "disagree"},
	}

	soundIndicators = []string{"sound", "audio", "listen"}

	trueFalseIndicators = []*regexp.Regexp{
		regexp.MustCompile(`\bis\s+it\b`),
		regexp.MustCompile(`\bdoes\b`),
		regexp.MustCompile(`\bcan\b`),
		regexp.MustCompile(`\bwill\b`),
		regexp.MustCompile(`\bwere\b`),
		regexp.MustCompile(`\bhas\b`),
		regexp.MustCompile(`\bhave\b`),
		regexp.MustCompile(`\bare\b`),
		regexp.MustCompile(`\bam\b`),
		regexp.MustCompile(`\bdo\b`),
		regexp.MustCompile(`\bdid\b`),
		regexp.MustCompile(`\btrue\s+or\s+false\b`),
		regexp.MustCompile(`\byes\s+or\s+no\b`),
		regexp.MustCompile(`\bcorrect\s+or\s+incorrect\b`),
	}

	factualIndicators = []*regexp.Regexp{
		regexp.MustCompile(`\bwhat\s+year\b`),
		regexp.MustCompile(`\bwhich\s+year\b`),
		regexp.MustCompile(`\bwhen\s+was\b`),
		regexp.MustCompile(`\bwhen\s+did\b`),
		regexp.MustCompile(`\bwho\s+was\b`),
		regexp.MustCompile(`\bwhere\s+was\b`),
		regexp.MustCompile(`\bwhat\s+is\s+the\b`),
		regexp.MustCompile(`\bwhich\s+is\s+the\b`),
	}
)

const (
	shortOptionLength   = 10
	mediumOptionLength  = 15
	similarityThreshold = 0.85
)

// Classify assigns a type from the prompt and option list. It is pure and
// deterministic: same inputs, same answer, no errors. Ambiguous two-option
// questions log a warning and resolve to multiple_choice.
func Classify(prompt string, options []string) Type {
	clean := make([]string, 0, len(options))
	for _, opt := range options {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			clean = append(clean, strings.ToLower(trimmed))
		}
	}

	// Audio vocabulary wins unconditionally
	if isSoundPrompt(prompt) {
		return TypeSound
	}

	if len(clean) == 2 {
		if isTrueFalse(prompt, clean) {
			return TypeTrueFalse
		}
		flagSuspiciousBinary(prompt, clean, options)
		logger.Warn("ambiguous two-option question, defaulting to multiple choice: %.50q options=%v", prompt, options)
	}

	return TypeMultipleChoice
}

func isSoundPrompt(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, indicator := range soundIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func isTrueFalse(prompt string, clean []string) bool {
	a, b := clean[0], clean[1]

	// Direct synonym match from opposite polarity groups
	if (trueSynonyms[a] && falseSynonyms[b]) || (falseSynonyms[a] && trueSynonyms[b]) {
		return true
	}

	// Canonical opposite pairs
	for _, pair := range oppositePairs {
		if (a == pair[0] && b == pair[1]) || (a == pair[1] && b == pair[0]) {
			return true
		}
	}

	// Grammatical true/false marker without a factual-question marker,
	// and both options short
	lower := strings.ToLower(prompt)
	hasTFMarker := false
	for _, re := range trueFalseIndicators {
		if re.MatchString(lower) {
			hasTFMarker = true
			break
		}
	}
	if !hasTFMarker {
		return false
	}
	for _, re := range factualIndicators {
		if re.MatchString(lower) {
			return false
		}
	}
	return len(a) <= shortOptionLength && len(b) <= shortOptionLength
}

// flagSuspiciousBinary warns about two-option questions whose options look
// like near-duplicates, a common sign of a mis-scraped true/false pair.
func flagSuspiciousBinary(prompt string, clean []string, original []string) {
	lower := strings.ToLower(prompt)
	for _, re := range factualIndicators {
		if re.MatchString(lower) {
			return
		}
	}
	if len(clean[0]) > mediumOptionLength || len(clean[1]) > mediumOptionLength {
		return
	}
	similarity := matchr.JaroWinkler(clean[0], clean[1], false)
	if similarity > similarityThreshold {
		logger.Warn("suspicious binary question (option similarity %.2f): %.50q options=%v", similarity, prompt, original)
	}
}
