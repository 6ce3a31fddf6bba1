package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gilliek/go-opml/opml"
	"github.com/wolfitem/ai-podcast/internal/domain/model"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
)

// FeedSource is a generic feed-backed source added through an OPML
// subscription file. Article bodies come from the feed entries
// themselves, with any HTML markup stripped.
type FeedSource struct {
	fetcher  *Fetcher
	name     string
	feedURL  string
	category string
}

// LoadOPMLSources parses an OPML file and returns one source per feed
// outline, nested outlines included. Each source serves the single
// category given.
func LoadOPMLSources(opmlFilePath, category string, fetcher *Fetcher) ([]ArticleSource, error) {
	logger.Info("parsing opml file", "file", opmlFilePath)
	defer logger.TimeTrack("LoadOPMLSources")()

	if err := NewValidator().ValidateOPMLPath(opmlFilePath); err != nil {
		return nil, model.NewConfigurationError(fmt.Sprintf("rejected opml file %s", opmlFilePath), err)
	}

	doc, err := opml.NewOPMLFromFile(opmlFilePath)
	if err != nil {
		return nil, model.NewConfigurationError(fmt.Sprintf("failed to parse opml file %s", opmlFilePath), err)
	}

	var sources []ArticleSource
	for _, outline := range doc.Outlines() {
		sources = append(sources, collectOutlineSources(outline, category, fetcher)...)
	}

	logger.Info("opml file parsed", "file", opmlFilePath, "sources_count", len(sources))
	return sources, nil
}

// collectOutlineSources walks an outline tree and builds a source for
// every node carrying a feed URL.
func collectOutlineSources(outline opml.Outline, category string, fetcher *Fetcher) []ArticleSource {
	var sources []ArticleSource

	if outline.XMLURL != "" {
		if err := NewValidator().ValidateFeedURL(outline.XMLURL); err != nil {
			logger.Warn("skipping feed with rejected url", "url", outline.XMLURL, "error", err)
		} else {
			name := outline.Title
			if name == "" {
				name = outline.Text
			}
			sources = append(sources, &FeedSource{
				fetcher:  fetcher,
				name:     name,
				feedURL:  outline.XMLURL,
				category: category,
			})
		}
	}

	for _, child := range outline.Outlines {
		sources = append(sources, collectOutlineSources(child, category, fetcher)...)
	}

	return sources
}

// Name returns the source identifier taken from the OPML outline.
func (s *FeedSource) Name() string {
	return s.name
}

// SupportedCategories lists the single category this feed serves.
func (s *FeedSource) SupportedCategories() []string {
	return []string{s.category}
}

// GetLatestArticle fetches the newest article in a category.
func (s *FeedSource) GetLatestArticle(ctx context.Context, category string) (*model.Article, error) {
	articles, err := s.GetMultipleArticles(ctx, category, 1)
	if err != nil {
		return nil, err
	}
	return &articles[0], nil
}

// GetMultipleArticles fetches up to count recent entries from the feed.
// Unlike the scraping sources, the body text comes from the entry
// content or description.
func (s *FeedSource) GetMultipleArticles(ctx context.Context, category string, count int) ([]model.Article, error) {
	if err := validateCategory(s, category); err != nil {
		return nil, err
	}

	feed, err := s.fetcher.FetchFeed(ctx, s.feedURL)
	if err != nil {
		return nil, err
	}

	var articles []model.Article
	for _, item := range feed.Items {
		if len(articles) >= count {
			break
		}

		raw := item.Content
		if raw == "" {
			raw = item.Description
		}
		content := StripHTML(raw)
		if strings.TrimSpace(content) == "" {
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
			Source:   s.name,
		})
	}

	if len(articles) == 0 {
		return nil, model.NewScrapingError(
			fmt.Sprintf("no articles could be collected from feed %s", s.feedURL), nil)
	}
	return articles, nil
}
