package scraper

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"quizharvester/logger"
)

const (
	minOptionsPerQuestion = 2
	maxMediaSiblingWalk   = 6
)

var (
	numberPrefixRe = regexp.MustCompile(`^(\d{1,2})[.)]\s*`)
	bindingDigitRe = regexp.MustCompile(`\d+`)

	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)

// ExtractQuestions lifts questions from a quiz page. The primary path finds
// numbered prompt elements and binds each to its radio group by input name;
// if no numbered prompts exist it reconstructs questions from the radio
// groups alone. Groups with fewer than two options are dropped.
func ExtractQuestions(html string, qtype QuizType) ([]RawQuestion, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	questions := extractNumbered(doc, qtype)
	if len(questions) == 0 {
		questions = extractFromRadioGroups(doc, qtype)
	}
	return questions, nil
}

// CleanPrompt strips the leading question numbering from prompt text.
func CleanPrompt(prompt string) string {
	return strings.TrimSpace(numberPrefixRe.ReplaceAllString(strings.TrimSpace(prompt), ""))
}

func extractNumbered(doc *goquery.Document, qtype QuizType) []RawQuestion {
	var questions []RawQuestion
	doc.Find("b, .q, .question").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		m := numberPrefixRe.FindStringSubmatch(text)
		if m == nil {
			return
		}
		number := m[1]

		options, inputName := optionsForNumber(doc, number)
		if len(options) < minOptionsPerQuestion {
			logger.Debug("question %s dropped, only %d options", number, len(options))
			return
		}

		q := RawQuestion{
			Number:    number,
			Prompt:    CleanPrompt(text),
			Options:   options,
			InputName: inputName,
		}
		attachMedia(&q, s, qtype)
		questions = append(questions, q)
	})
	return questions
}

// optionsForNumber resolves a question's options through the shared input
// name on its radio group.
func optionsForNumber(doc *goquery.Document, number string) ([]string, string) {
	for _, name := range []string{"q" + number, "question" + number} {
		selector := fmt.Sprintf("input[type='radio'][name='%s']", name)
		inputs := doc.Find(selector)
		if inputs.Length() == 0 {
			continue
		}
		var options []string
		inputs.Each(func(_ int, input *goquery.Selection) {
			if value := optionText(input); value != "" {
				options = append(options, value)
			}
		})
		return options, name
	}
	return nil, ""
}

func optionText(input *goquery.Selection) string {
	if value, ok := input.Attr("value"); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	// No value attribute: take the enclosing label's text.
	label := input.Closest("label")
	if label.Length() == 0 {
		label = input.Parent()
	}
	return strings.TrimSpace(label.Text())
}

// extractFromRadioGroups is the fallback when no numbered prompts exist:
// group every radio input by name and scan backward for the nearest element
// whose text contains a question mark.
func extractFromRadioGroups(doc *goquery.Document, qtype QuizType) []RawQuestion {
	groups := make(map[string][]*goquery.Selection)
	var order []string
	doc.Find("input[type='radio']").Each(func(_ int, input *goquery.Selection) {
		name, ok := input.Attr("name")
		if !ok || name == "" {
			return
		}
		if _, seen := groups[name]; !seen {
			order = append(order, name)
		}
		groups[name] = append(groups[name], input)
	})

	sort.SliceStable(order, func(i, j int) bool {
		return bindingOrdinal(order[i]) < bindingOrdinal(order[j])
	})

	var questions []RawQuestion
	for i, name := range order {
		inputs := groups[name]
		var options []string
		for _, input := range inputs {
			if value := optionText(input); value != "" {
				options = append(options, value)
			}
		}
		if len(options) < minOptionsPerQuestion {
			continue
		}

		number := bindingNumber(name, i+1)
		prompt := promptBehind(inputs[0])
		if prompt == "" {
			prompt = fmt.Sprintf("Question %s", number)
		}

		q := RawQuestion{
			Number:    number,
			Prompt:    CleanPrompt(prompt),
			Options:   options,
			InputName: name,
		}
		attachMedia(&q, inputs[0], qtype)
		questions = append(questions, q)
	}
	return questions
}

func bindingOrdinal(name string) int {
	if m := bindingDigitRe.FindString(name); m != "" {
		n := 0
		fmt.Sscanf(m, "%d", &n)
		return n
	}
	return 1 << 30
}

func bindingNumber(name string, position int) string {
	if m := bindingDigitRe.FindString(name); m != "" {
		return m
	}
	return fmt.Sprintf("%d", position)
}

// promptBehind walks backward from an input looking for question-mark text.
func promptBehind(input *goquery.Selection) string {
	for node := input.Parent(); node.Length() > 0; node = node.Parent() {
		for prev := node.Prev(); prev.Length() > 0; prev = prev.Prev() {
			text := strings.TrimSpace(prev.Text())
			if strings.Contains(text, "?") && len(text) > 10 {
				return text
			}
		}
		if node.Is("body") {
			break
		}
	}
	return ""
}

// attachMedia walks forward a bounded number of siblings from the prompt
// element for the first qualifying media reference. Missing media never
// invalidates a question.
func attachMedia(q *RawQuestion, from *goquery.Selection, qtype QuizType) {
	if qtype != QuizTypePhoto && qtype != QuizTypeAudio {
		return
	}

	node := from
	for step := 0; step < maxMediaSiblingWalk; step++ {
		node = node.Next()
		if node.Length() == 0 {
			return
		}
		if qtype == QuizTypeAudio {
			if url := audioRef(node); url != "" {
				q.MediaURL = url
				q.IsAudio = true
				return
			}
			continue
		}
		if url := imageRef(node); url != "" {
			q.MediaURL = url
			q.IsPhoto = true
			return
		}
	}
}

func audioRef(node *goquery.Selection) string {
	ref := ""
	node.Find("a[href], source[src], audio[src]").AddSelection(node.Filter("a[href], source[src], audio[src]")).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		candidate, _ := s.Attr("href")
		if candidate == "" {
			candidate, _ = s.Attr("src")
		}
		lower := strings.ToLower(candidate)
		for _, ext := range audioExtensions {
			if strings.HasSuffix(lower, ext) {
				ref = candidate
				return false
			}
		}
		return true
	})
	return ref
}

func imageRef(node *goquery.Selection) string {
	ref := ""
	node.Find("img").AddSelection(node.Filter("img")).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		lower := strings.ToLower(src)
		if src == "" || iconPathRe.MatchString(lower) {
			return true
		}
		for _, ext := range imageExtensions {
			if strings.HasSuffix(stripQuery(lower), ext) {
				ref = src
				return false
			}
		}
		return true
	})
	return ref
}

func stripQuery(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}
