package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/wolfitem/ai-podcast/internal/domain/model"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
)

// WiredSource collects articles from wired.com: category feeds for the
// headline list, page scraping for the full body text.
type WiredSource struct {
	fetcher *Fetcher
	feeds   map[string]string
	rules   extractRules
}

// NewWiredSource creates the wired.com source.
func NewWiredSource(fetcher *Fetcher) *WiredSource {
	return &WiredSource{
		fetcher: fetcher,
		feeds: map[string]string{
			"ai":       "https://www.wired.com/feed/tag/ai/latest/rss",
			"business": "https://www.wired.com/feed/category/business/latest/rss",
			"science":  "https://www.wired.com/feed/category/science/latest/rss",
			"security": "https://www.wired.com/feed/category/security/latest/rss",
			"gear":     "https://www.wired.com/feed/category/gear/latest/rss",
		},
		rules: extractRules{
			containers: []string{
				"div.body__inner-container",
				"article.article__body",
				"div.article__chunks",
				"article",
			},
			skipPatterns: []string{
				"sign up for",
				"newsletter",
				"subscribe to wired",
				"this story originally appeared",
				"special offer",
			},
		},
	}
}

// Name returns the source identifier.
func (s *WiredSource) Name() string {
	return "wired"
}

// SupportedCategories lists the categories with a configured feed.
func (s *WiredSource) SupportedCategories() []string {
	categories := make([]string, 0, len(s.feeds))
	for c := range s.feeds {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// GetLatestArticle fetches the newest article in a category.
func (s *WiredSource) GetLatestArticle(ctx context.Context, category string) (*model.Article, error) {
	articles, err := s.GetMultipleArticles(ctx, category, 1)
	if err != nil {
		return nil, err
	}
	return &articles[0], nil
}

// GetMultipleArticles fetches up to count recent articles in a category.
func (s *WiredSource) GetMultipleArticles(ctx context.Context, category string, count int) ([]model.Article, error) {
	if err := validateCategory(s, category); err != nil {
		return nil, err
	}
	defer logger.TimeTrack("wired.GetMultipleArticles")()

	feed, err := s.fetcher.FetchFeed(ctx, s.feeds[category])
	if err != nil {
		return nil, err
	}

	var articles []model.Article
	for _, item := range feed.Items {
		if len(articles) >= count {
			break
		}
		if item.Link == "" {
			continue
		}

		doc, err := s.fetcher.FetchPage(ctx, item.Link)
		if err != nil {
			logger.Warn("failed to fetch article page, skipping", "source", s.Name(), "url", item.Link, "error", err)
			continue
		}
		content := ExtractContent(doc, s.rules)
		if content == "" {
			logger.Warn("no article body extracted, skipping", "source", s.Name(), "url", item.Link)
			continue
		}

		author := ""
		if len(item.Authors) > 0 {
			author = item.Authors[0].Name
		}
		articles = append(articles, model.Article{
			Title:    item.Title,
			Content:  content,
			Author:   author,
			URL:      item.Link,
			Category: category,
			Source:   s.Name(),
		})
	}

	if len(articles) == 0 {
		return nil, model.NewScrapingError(
			fmt.Sprintf("no articles could be collected from %s category %s", s.Name(), category), nil)
	}
	logger.Info("collected articles", "source", s.Name(), "category", category, "count", len(articles))
	return articles, nil
}
