package results

import (
	"regexp"
	"strings"
)

// lineStage works on the flattened page text line by line, for result pages
// whose markup defeats both the section scan and the block scan.
type lineStage struct{}

func (s *lineStage) Name() string { return "lines" }

var lineNumberRe = regexp.MustCompile(`^\s*(\d{1,2})[.)]\s`)

// How far past a question's numeral the answer phrasing may appear.
const answerLineWindow = 5

func (s *lineStage) TryExtract(page Content, questions []Question) ([]Graded, bool) {
	lines := strings.Split(page.Text, "\n")
	starts := make(map[string]int, len(questions))
	for i, line := range lines {
		if m := lineNumberRe.FindStringSubmatch(line); m != nil {
			if _, seen := starts[m[1]]; !seen {
				starts[m[1]] = i
			}
		}
	}
	if len(starts) == 0 {
		return nil, false
	}

	graded := make([]Graded, len(questions))
	hits := 0
	for i, q := range questions {
		start, ok := starts[q.Number]
		if !ok {
			graded[i] = firstOptionGraded(q)
			continue
		}

		answer, matched, answerLine := lineAnswer(lines, start, q.Options)
		if answer == "" {
			graded[i] = firstOptionGraded(q)
			continue
		}
		hits++
		graded[i] = Graded{
			Answer:      answer,
			Explanation: lineExplanation(lines, answerLine+1),
			Fallback:    !matched,
		}
	}

	return graded, hits > 0
}

func lineAnswer(lines []string, start int, options []string) (answer string, matched bool, at int) {
	end := start + answerLineWindow
	if end > len(lines) {
		end = len(lines)
	}
	for i := start; i < end; i++ {
		if isBoilerplate(lines[i]) {
			continue
		}
		for _, pattern := range answerPatterns {
			if m := pattern.FindStringSubmatch(lines[i]); m != nil {
				capture := normalizeAnswer(m[1])
				if len(capture) < minAnswerLength {
					continue
				}
				answer, matched = matchOption(capture, options)
				return answer, matched, i
			}
		}
	}
	return "", false, 0
}

// lineExplanation greedily collects prose lines after the answer until the
// next question numeral or a score marker.
func lineExplanation(lines []string, from int) string {
	var collected []string
	for i := from; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if lineNumberRe.MatchString(line) || playersMarkerRe.MatchString(line) {
			break
		}
		if isBoilerplate(line) {
			continue
		}
		collected = append(collected, line)
	}
	return normalizeExplanation(strings.Join(collected, " "))
}
