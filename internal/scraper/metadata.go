package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractMetadata recovers quiz title, domain, topic and difficulty from the
// page. Values are raw site vocabulary; taxonomy mapping happens downstream.
func ExtractMetadata(html, pageURL string) QuizMetadata {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return QuizMetadata{Difficulty: "Normal"}
	}

	md := QuizMetadata{
		Title:      pageTitle(doc),
		Difficulty: quizDifficulty(doc),
	}
	md.Domain, md.Topic = quizCategories(doc, pageURL)
	return md
}

var breadcrumbSelectors = []string{
	".breadcrumb a, .breadcrumbs a",
	"[itemtype*='BreadcrumbList'] a",
	".nav-breadcrumb a",
	"nav a",
}

var categorySuffixRe = regexp.MustCompile(`(?i)\s*(trivia|quiz|quizzes)\s*$`)

func pageTitle(doc *goquery.Document) string {
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return strings.TrimSpace(doc.Find("title").Text())
}

func quizDifficulty(doc *goquery.Document) string {
	probe := strings.ToLower(doc.Find(".quiz-meta, .quiz-info, .quiz-details").Text())
	if probe == "" {
		probe = strings.ToLower(doc.Find("title").Text())
	}
	switch {
	case strings.Contains(probe, "easy") || strings.Contains(probe, "beginner"):
		return "Easy"
	case strings.Contains(probe, "hard") || strings.Contains(probe, "difficult") || strings.Contains(probe, "expert"):
		return "Hard"
	default:
		return "Normal"
	}
}

// quizCategories resolves domain (first category level) and topic (second
// level) from breadcrumbs, then the URL path, then the page title.
func quizCategories(doc *goquery.Document, pageURL string) (domain, topic string) {
	for _, selector := range breadcrumbSelectors {
		links := doc.Find(selector)
		if links.Length() < 2 {
			continue
		}
		// First crumb is the site home; the next two are category levels.
		domain = crumbText(links.Eq(1))
		if links.Length() > 2 {
			topic = crumbText(links.Eq(2))
		}
		if domain != "" {
			break
		}
	}

	if domain == "" || topic == "" {
		urlDomain, urlTopic := categoriesFromURL(pageURL)
		if domain == "" {
			domain = urlDomain
		}
		if topic == "" {
			topic = urlTopic
		}
	}
	if topic == "" {
		topic = titleTopic(doc)
	}
	if topic == "" {
		topic = "General"
	}
	return domain, topic
}

func crumbText(s *goquery.Selection) string {
	text := categorySuffixRe.ReplaceAllString(strings.TrimSpace(s.Text()), "")
	if len(text) < 3 || len(text) > 50 {
		return ""
	}
	return text
}

func categoriesFromURL(pageURL string) (string, string) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", ""
	}
	var parts []string
	for _, part := range strings.Split(parsed.Path, "/") {
		if part == "" || part == "quiz" || part == "trivia-quiz" || part == "en" || strings.HasSuffix(part, ".html") {
			continue
		}
		parts = append(parts, part)
	}

	domain, topic := "", ""
	if len(parts) > 0 {
		domain = parts[0]
	}
	if len(parts) > 1 {
		topic = titleCase(strings.NewReplacer("-", " ", "_", " ").Replace(parts[1]))
	}
	return domain, topic
}

var titleNoiseRe = regexp.MustCompile(`(?i)\s*(trivia\s*)?(questions?\s*and\s*answers?|quiz)\s*$`)

// titleTopic accepts the page heading only when it reads like a category
// name rather than a specific quiz title.
func titleTopic(doc *goquery.Document) string {
	title := titleNoiseRe.ReplaceAllString(strings.TrimSpace(doc.Find("h1").First().Text()), "")
	title = strings.TrimSpace(title)
	if len(title) <= 3 || len(title) >= 30 {
		return ""
	}
	if strings.ContainsAny(title, "?0123456789") || len(strings.Fields(title)) > 4 {
		return ""
	}
	return title
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
