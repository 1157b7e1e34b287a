package catalog

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"quizharvester/helpers"
	"quizharvester/services/ratelimit"
)

// Catalog discovers category and quiz links from the site's listing pages.
// Listings render without JavaScript, so plain HTTP with browser-like headers
// is enough; only quiz play-throughs need the headless driver. Listing
// fetches draw from the same rate budget as every other request to the site.
type Catalog struct {
	baseURL      string
	categoryPath string
	limiter      *ratelimit.Limiter
}

// New creates a catalog rooted at baseURL, paced by limiter.
func New(baseURL, categoryPath string, limiter *ratelimit.Limiter) *Catalog {
	return &Catalog{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		categoryPath: categoryPath,
		limiter:      limiter,
	}
}

// Categories returns the deduplicated category URLs from the main listing page.
func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	return c.collectLinks(ctx, c.baseURL+c.categoryPath, "a[href*='/quizzes/']")
}

// Quizzes returns the deduplicated quiz URLs from a category page.
func (c *Catalog) Quizzes(ctx context.Context, categoryURL string) ([]string, error) {
	return c.collectLinks(ctx, categoryURL, "a[href*='/quiz/']")
}

func (c *Catalog) collectLinks(ctx context.Context, pageURL, selector string) ([]string, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	body, err := helpers.FetchWithRandomHeaders(pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		resolved := c.resolveURL(strings.TrimSpace(href))
		if resolved == "" || resolved == pageURL {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	})

	// Stable ordering keeps runs comparable across restarts
	sort.Strings(links)
	return links, nil
}

func (c *Catalog) resolveURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
