package results

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockStage walks per-question review blocks in the DOM. It activates on
// the first candidate selector that yields at least as many blocks as there
// are questions.
type blockStage struct{}

func (s *blockStage) Name() string { return "blocks" }

var (
	blockSelectors = []string{
		".questionReview",
		".questionTable",
		".result-item",
		".question-result",
	}

	explanationSelectors = []string{
		".explanation",
		".answer-explanation",
		".hint",
		".trivia-fact",
		".additional-info",
	}

	blockAnswerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Correct Answer:\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?i)The correct answer was\s+([^.\n\r]+)`),
		regexp.MustCompile(`(?i)Right Answer:\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?i)Answer:\s*(.+?)(?:\n|$)`),
	}

	educationalVocabulary = []string{
		"was", "were", "known", "famous", "first", "originally",
		"named", "history", "because", "called",
	}
)

func (s *blockStage) TryExtract(page Content, questions []Question) ([]Graded, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, false
	}

	var blocks *goquery.Selection
	for _, selector := range blockSelectors {
		candidate := doc.Find(selector)
		if candidate.Length() >= len(questions) {
			blocks = candidate
			break
		}
	}
	if blocks == nil {
		return nil, false
	}

	graded := make([]Graded, len(questions))
	hits := 0
	for i, q := range questions {
		block := blocks.Eq(i)
		answer, matched := blockAnswer(block, q.Options)
		if answer == "" {
			graded[i] = firstOptionGraded(q)
			continue
		}
		hits++
		graded[i] = Graded{
			Answer:      answer,
			Explanation: blockExplanation(block),
			Fallback:    !matched,
		}
	}

	return graded, hits > 0
}

func blockAnswer(block *goquery.Selection, options []string) (string, bool) {
	text := stripUserAnswerLines(block.Text())
	for _, pattern := range blockAnswerPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			capture := normalizeAnswer(m[1])
			if len(capture) >= minAnswerLength {
				return matchOption(capture, options)
			}
		}
	}

	// Highlighted answer node as a fallback.
	marked := block.Find(".correct, .right-answer").First()
	if capture := normalizeAnswer(marked.Text()); len(capture) >= minAnswerLength {
		return matchOption(capture, options)
	}
	return "", false
}

func blockExplanation(block *goquery.Selection) string {
	for _, selector := range explanationSelectors {
		if text := normalizeExplanation(block.Find(selector).First().Text()); text != "" {
			return text
		}
	}

	// No dedicated node: fall back to the longest prose paragraph that reads
	// like an explanation rather than chrome.
	best := ""
	for _, para := range strings.Split(block.Text(), "\n") {
		para = collapseWhitespace(para)
		if len(para) <= len(best) || isBoilerplate(para) {
			continue
		}
		if hasEducationalVocabulary(para) {
			best = para
		}
	}
	return normalizeExplanation(best)
}

func hasEducationalVocabulary(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range educationalVocabulary {
		if strings.Contains(lower, " "+word+" ") {
			return true
		}
	}
	return false
}
