package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/wolfitem/ai-podcast/internal/domain/model"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
)

const fetchUserAgent = "ai-podcast/1.0 (+https://github.com/wolfitem/ai-podcast)"

// ArticleSource fetches articles for a named news source.
type ArticleSource interface {
	// Name returns the source identifier, e.g. "wired".
	Name() string
	// SupportedCategories lists the categories this source can serve.
	SupportedCategories() []string
	// GetLatestArticle fetches the newest article in a category.
	GetLatestArticle(ctx context.Context, category string) (*model.Article, error)
	// GetMultipleArticles fetches up to count recent articles in a category.
	GetMultipleArticles(ctx context.Context, category string, count int) ([]model.Article, error)
}

// sourceFactory builds a source from shared fetch plumbing.
type sourceFactory func(f *Fetcher) ArticleSource

// sourceRegistry is the closed set of built-in sources.
var sourceRegistry = map[string]sourceFactory{
	"wired":      func(f *Fetcher) ArticleSource { return NewWiredSource(f) },
	"techcrunch": func(f *Fetcher) ArticleSource { return NewTechCrunchSource(f) },
}

// NewSource builds a built-in source by name. Unknown names are rejected.
func NewSource(name string, fetcher *Fetcher) (ArticleSource, error) {
	factory, ok := sourceRegistry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, model.NewConfigurationError(fmt.Sprintf("unknown article source: %s", name), nil)
	}
	return factory(fetcher), nil
}

// SupportsCategory reports whether a source serves the given category.
func SupportsCategory(src ArticleSource, category string) bool {
	for _, c := range src.SupportedCategories() {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// validateCategory guards every fetch entry point before any network use.
func validateCategory(src ArticleSource, category string) error {
	if SupportsCategory(src, category) {
		return nil
	}
	return model.NewValidationError(
		fmt.Sprintf("source %s does not support category %s (supported: %s)",
			src.Name(), category, strings.Join(src.SupportedCategories(), ", ")), nil)
}

// Fetcher bundles the HTTP plumbing shared by all sources: a feed parser
// with a custom client and a page fetcher for full article bodies.
type Fetcher struct {
	parser *gofeed.Parser
	client *http.Client
}

// NewFetcher creates a fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = fetchUserAgent
	return &Fetcher{parser: parser, client: client}
}

// FetchFeed downloads and parses an RSS/Atom feed.
func (f *Fetcher) FetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	logger.Debug("fetching feed", "url", url)
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, model.NewNetworkError(fmt.Sprintf("failed to fetch feed %s", url), err)
	}
	return feed, nil
}

// FetchPage downloads an article page and parses it as HTML.
func (f *Fetcher) FetchPage(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, model.NewNetworkError(fmt.Sprintf("failed to build request for %s", url), err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, model.NewNetworkError(fmt.Sprintf("failed to fetch page %s", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewNetworkError(fmt.Sprintf("page %s returned status %d", url, resp.StatusCode), nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, model.NewScrapingError(fmt.Sprintf("failed to parse page %s", url), err)
	}
	return doc, nil
}

// extractRules describes how to pull article text out of a page.
type extractRules struct {
	// containers are tried in order; the first match wins.
	containers []string
	// skipPatterns drop boilerplate paragraphs by substring match.
	skipPatterns []string
}

// ExtractContent pulls the article body out of a parsed page: the first
// matching container, its paragraph texts longer than 20 characters,
// boilerplate filtered, joined with blank lines.
func ExtractContent(doc *goquery.Document, rules extractRules) string {
	var container *goquery.Selection
	for _, sel := range rules.containers {
		found := doc.Find(sel)
		if found.Length() > 0 {
			container = found.First()
			break
		}
	}
	if container == nil {
		return ""
	}

	var paragraphs []string
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) <= 20 {
			return
		}
		lower := strings.ToLower(text)
		for _, pattern := range rules.skipPatterns {
			if strings.Contains(lower, pattern) {
				return
			}
		}
		paragraphs = append(paragraphs, text)
	})

	return strings.Join(paragraphs, "\n\n")
}

// StripHTML reduces an HTML fragment to whitespace-normalized text.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Warn("failed to parse html fragment, keeping raw content", "error", err)
		return html
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
