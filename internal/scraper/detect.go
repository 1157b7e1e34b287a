package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Layout detection thresholds. Images below the pixel floor are treated as
// page chrome, not quiz content.
const (
	minImagePixels    = 100
	minContentImages  = 2
	iconPathFragments = "icon|logo|button|sprite|banner|avatar"
)

var (
	audioKeywords = []string{"audio quiz", "sound clip", "listen to", "audio round"}
	photoKeywords = []string{"photo quiz", "picture quiz", "photo round"}
	matchKeywords = []string{"match quiz", "matching quiz", "ordering quiz", "click the region", "drag and drop"}

	audioExtensions = []string{".mp3", ".wav", ".ogg", ".m4a"}

	iconPathRe       = regexp.MustCompile(iconPathFragments)
	promptNumberRe   = regexp.MustCompile(`^\d{1,2}[.)]\s`)
	soundPhrasingRe  = regexp.MustCompile(`(?i)\b(sound|audio|listen)\b`)
	unsupportedAttrs = `[draggable='true'], .sortable, .drag-drop, .match-pair, map area, [class*='dragdrop']`
)

// DetectType classifies a loaded quiz page. Checks run in a fixed order and
// the first hit wins; audio cues run before photo and match cues because
// they are the easiest to mistake for generic text.
func DetectType(html, pageURL string) QuizType {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return QuizTypeUnknown
	}

	bodyText := strings.ToLower(doc.Find("body").Text())
	title := strings.ToLower(doc.Find("title").Text())

	if containsAny(bodyText, audioKeywords) || containsAny(title, audioKeywords) {
		return QuizTypeAudio
	}
	if hasAudioElements(doc) {
		return QuizTypeAudio
	}
	if hasSoundPrompts(doc) {
		return QuizTypeAudio
	}

	if containsAny(bodyText, photoKeywords) || containsAny(title, photoKeywords) {
		return QuizTypePhoto
	}
	if countContentImages(doc) >= minContentImages {
		return QuizTypePhoto
	}

	if containsAny(bodyText, matchKeywords) || doc.Find(unsupportedAttrs).Length() > 0 {
		return QuizTypeMatch
	}

	if doc.Find("input[type='radio']").Length() > 0 {
		return QuizTypeStandard
	}

	lowerURL := strings.ToLower(pageURL)
	switch {
	case strings.Contains(lowerURL, "audio") || strings.Contains(lowerURL, "sound"):
		return QuizTypeAudio
	case strings.Contains(lowerURL, "photo"):
		return QuizTypePhoto
	case strings.Contains(lowerURL, "match"):
		return QuizTypeMatch
	}

	return QuizTypeStandard
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func hasAudioElements(doc *goquery.Document) bool {
	if doc.Find("audio, source[type^='audio']").Length() > 0 {
		return true
	}
	found := false
	doc.Find("a[href], source[src], embed[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		ref, _ := s.Attr("href")
		if ref == "" {
			ref, _ = s.Attr("src")
		}
		ref = strings.ToLower(ref)
		for _, ext := range audioExtensions {
			if strings.HasSuffix(ref, ext) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// hasSoundPrompts checks numbered question prompts for audio vocabulary.
func hasSoundPrompts(doc *goquery.Document) bool {
	found := false
	doc.Find("b, .q, .question").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if promptNumberRe.MatchString(text) && soundPhrasingRe.MatchString(text) {
			found = true
			return false
		}
		return true
	})
	return found
}

func countContentImages(doc *goquery.Document) int {
	count := 0
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" || iconPathRe.MatchString(strings.ToLower(src)) {
			return
		}
		if attrPixels(s, "width") >= minImagePixels && attrPixels(s, "height") >= minImagePixels {
			count++
		}
	})
	return count
}

func attrPixels(s *goquery.Selection, attr string) int {
	raw, ok := s.Attr(attr)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(raw), "px"))
	if err != nil {
		return 0
	}
	return n
}
