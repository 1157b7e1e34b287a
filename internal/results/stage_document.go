package results

import "regexp"

// documentStage scans the full page text: sections are split on question
// numbering and each section is probed with ordered answer phrasings.
type documentStage struct{}

func (s *documentStage) Name() string { return "document" }

var (
	sectionMarkerRe = regexp.MustCompile(`(?m)^\s*(\d{1,2})[.)]\s`)

	answerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)The correct answer was\s+([^.\n\r]+)`),
		regexp.MustCompile(`(?i)Correct answer was\s+([^.\n\r]+)`),
		regexp.MustCompile(`(?i)correct answer:\s*([^.\n\r]+)`),
		regexp.MustCompile(`(?i)The correct answer is\s+([^.\n\r]+)`),
		regexp.MustCompile(`(?i)Answer:\s*([^.\n\r]+)`),
	}
)

func (s *documentStage) TryExtract(page Content, questions []Question) ([]Graded, bool) {
	sections := splitSections(page.Text)
	if len(sections) == 0 {
		return nil, false
	}

	graded := make([]Graded, len(questions))
	hits := 0
	for i, q := range questions {
		section, ok := sections[q.Number]
		if !ok {
			graded[i] = firstOptionGraded(q)
			continue
		}

		answer, matched, tail := findAnswer(stripUserAnswerLines(section), q.Options)
		if answer == "" {
			graded[i] = firstOptionGraded(q)
			continue
		}
		hits++
		graded[i] = Graded{
			Answer:      answer,
			Explanation: sectionExplanation(tail),
			Fallback:    !matched,
		}
	}

	return graded, hits > 0
}

// splitSections maps each question number to the text between its numbering
// marker and the next one.
func splitSections(text string) map[string]string {
	markers := sectionMarkerRe.FindAllStringSubmatchIndex(text, -1)
	sections := make(map[string]string, len(markers))
	for i, m := range markers {
		number := text[m[2]:m[3]]
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		// First marker wins when a numeral repeats further down the page.
		if _, seen := sections[number]; !seen {
			sections[number] = text[m[1]:end]
		}
	}
	return sections
}

// findAnswer tries the ordered answer phrasings against a section and
// returns the resolved answer, whether it matched a real option, and the
// section text after the answer sentence.
func findAnswer(section string, options []string) (answer string, matched bool, tail string) {
	for _, pattern := range answerPatterns {
		loc := pattern.FindStringSubmatchIndex(section)
		if loc == nil {
			continue
		}
		capture := normalizeAnswer(section[loc[2]:loc[3]])
		if len(capture) < minAnswerLength {
			continue
		}
		answer, matched = matchOption(capture, options)
		return answer, matched, section[loc[3]:]
	}
	return "", false, ""
}

// sectionExplanation keeps everything after the answer sentence up to the
// players-score marker, minus boilerplate lines.
func sectionExplanation(tail string) string {
	if loc := playersMarkerRe.FindStringIndex(tail); loc != nil {
		tail = tail[:loc[0]]
	}
	return normalizeExplanation(stripBoilerplateLines(tail))
}

func firstOptionGraded(q Question) Graded {
	if len(q.Options) == 0 {
		return Graded{Fallback: true}
	}
	return Graded{Answer: q.Options[0], Fallback: true}
}
