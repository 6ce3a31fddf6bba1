package service

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/wolfitem/ai-podcast/internal/domain/model"
	domainservice "github.com/wolfitem/ai-podcast/internal/domain/service"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
)

const (
	rfc822Layout       = "Mon, 02 Jan 2006 15:04:05 +0000"
	defaultMaxEpisodes = 50
	feedContentType    = "application/rss+xml"
)

// RSSGenerator merges new episodes into the published show feed.
type RSSGenerator struct {
	storage     domainservice.ObjectStorage
	show        model.ShowConfig
	maxEpisodes int
	parser      *gofeed.Parser
	log         *logger.ContextLogger
}

// NewRSSGenerator creates a feed generator for the given show.
func NewRSSGenerator(storage domainservice.ObjectStorage, show model.ShowConfig, maxEpisodes int) *RSSGenerator {
	if maxEpisodes <= 0 {
		maxEpisodes = defaultMaxEpisodes
	}
	return &RSSGenerator{
		storage:     storage,
		show:        show,
		maxEpisodes: maxEpisodes,
		parser:      gofeed.NewParser(),
		log:         logger.WithContext("rss"),
	}
}

// FeedKey returns the fixed storage key of the show feed.
func (g *RSSGenerator) FeedKey() string {
	return showSlug(g.show.Title) + "/feed.xml"
}

// showSlug lowercases a show title and joins its words with hyphens.
func showSlug(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(title))), "-")
}

// LoadExistingEpisodes fetches and parses the published feed. A missing
// feed or one that fails to parse yields an empty list; publishing must
// never be blocked by a broken remote feed.
func (g *RSSGenerator) LoadExistingEpisodes(ctx context.Context) []model.PodcastEpisode {
	data, err := g.storage.Download(ctx, g.FeedKey())
	if err != nil {
		if errors.Is(err, domainservice.ErrObjectNotFound) {
			g.log.Info("no existing feed found, starting fresh", "key", g.FeedKey())
		} else {
			g.log.Warn("failed to fetch existing feed, starting fresh", "key", g.FeedKey(), "error", err)
		}
		return nil
	}

	feed, err := g.parser.ParseString(string(data))
	if err != nil {
		g.log.Warn("existing feed is malformed, starting fresh", "key", g.FeedKey(), "error", err)
		return nil
	}

	episodes := make([]model.PodcastEpisode, 0, len(feed.Items))
	for _, item := range feed.Items {
		episodes = append(episodes, episodeFromItem(item))
	}
	g.log.Info("loaded existing episodes", "count", len(episodes))
	return episodes
}

// episodeFromItem maps a parsed feed item back onto the episode model.
func episodeFromItem(item *gofeed.Item) model.PodcastEpisode {
	ep := model.PodcastEpisode{
		Title:       item.Title,
		Description: item.Description,
		GUID:        item.GUID,
	}
	if item.PublishedParsed != nil {
		ep.PubDate = *item.PublishedParsed
	}
	if len(item.Enclosures) > 0 {
		enc := item.Enclosures[0]
		ep.AudioURL = enc.URL
		if size, err := strconv.ParseInt(enc.Length, 10, 64); err == nil {
			ep.FileSize = size
		}
	}
	if item.ITunesExt != nil {
		ep.Duration = item.ITunesExt.Duration
		ep.Author = item.ITunesExt.Author
		if n, err := strconv.Atoi(item.ITunesExt.Episode); err == nil {
			ep.EpisodeNumber = n
		}
	}
	return ep
}

// NextEpisodeNumber returns one past the highest assigned episode
// number. Entries without a number are ignored; an empty history
// starts at 1.
func NextEpisodeNumber(episodes []model.PodcastEpisode) int {
	max := 0
	for _, ep := range episodes {
		if ep.EpisodeNumber > max {
			max = ep.EpisodeNumber
		}
	}
	return max + 1
}

// BuildEpisode assembles the new episode entry from the run's articles
// and audio result.
func (g *RSSGenerator) BuildEpisode(articles []model.Article, audio model.AudioResult, audioURL string, number int, now time.Time) model.PodcastEpisode {
	ep := model.PodcastEpisode{
		Title:         fmt.Sprintf("Episode %d - %s", number, formatEpisodeDate(now)),
		Description:   episodeDescription(articles),
		AudioURL:      audioURL,
		PubDate:       now,
		EpisodeNumber: number,
		Duration:      audio.Duration,
		FileSize:      audio.FileSize,
		Author:        g.show.Author,
	}
	ep.EnsureGUID()
	return ep
}

// formatEpisodeDate renders a date like "Aug 31st, 2026".
func formatEpisodeDate(t time.Time) string {
	return fmt.Sprintf("%s%s, %d", t.Format("Jan 2"), ordinalSuffix(t.Day()), t.Year())
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// episodeDescription enumerates the covered articles with their source
// links.
func episodeDescription(articles []model.Article) string {
	var b strings.Builder
	b.WriteString("In this episode:\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. %s\n   Source: %s\n", i+1, a.Title, a.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

// PublishEpisode merges the new episode into the feed, writes the feed
// locally and uploads it to the fixed show key.
func (g *RSSGenerator) PublishEpisode(ctx context.Context, episode model.PodcastEpisode, localDir string) (model.RSSResult, error) {
	defer logger.TimeTrack("PublishEpisode")()

	episodes := append([]model.PodcastEpisode{episode}, g.LoadExistingEpisodes(ctx)...)
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].PubDate.After(episodes[j].PubDate)
	})
	if len(episodes) > g.maxEpisodes {
		episodes = episodes[:g.maxEpisodes]
	}

	feedXML := g.RenderFeed(episodes, time.Now().UTC())

	localPath := filepath.Join(localDir, "feed.xml")
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return model.RSSResult{}, fmt.Errorf("failed to create feed directory: %w", err)
	}
	if err := os.WriteFile(localPath, feedXML, 0644); err != nil {
		return model.RSSResult{}, fmt.Errorf("failed to write feed file: %w", err)
	}

	feedURL, err := g.storage.Upload(ctx, g.FeedKey(), feedXML, feedContentType)
	if err != nil {
		return model.RSSResult{}, fmt.Errorf("failed to upload feed: %w", err)
	}

	g.log.Info("feed published", "url", feedURL, "episodes", len(episodes))
	return model.RSSResult{
		LocalPath:    localPath,
		FeedURL:      feedURL,
		EpisodeCount: len(episodes),
	}, nil
}

// RenderFeed renders the full RSS 2.0 document with iTunes extensions.
// Output is deterministic for a given episode list and build time.
func (g *RSSGenerator) RenderFeed(episodes []model.PodcastEpisode, buildTime time.Time) []byte {
	var buf bytes.Buffer

	buf.WriteString(xml.Header)
	buf.WriteString(`<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd" xmlns:content="http://purl.org/rss/1.0/modules/content/">`)
	buf.WriteString("\n  <channel>\n")

	writeElement(&buf, 2, "title", g.show.Title)
	writeElement(&buf, 2, "description", g.show.Description)
	writeElement(&buf, 2, "link", g.show.Link)
	if g.show.Email != "" {
		owner := fmt.Sprintf("%s (%s)", g.show.Email, g.show.Author)
		writeElement(&buf, 2, "managingEditor", owner)
		writeElement(&buf, 2, "webMaster", owner)
	}
	language := g.show.Language
	if language == "" {
		language = "en-us"
	}
	writeElement(&buf, 2, "language", language)
	writeElement(&buf, 2, "lastBuildDate", buildTime.Format(rfc822Layout))
	writeElement(&buf, 2, "pubDate", buildTime.Format(rfc822Layout))
	writeElement(&buf, 2, "generator", "ai-podcast")

	if g.show.Subtitle != "" {
		writeElement(&buf, 2, "itunes:subtitle", g.show.Subtitle)
	}
	writeElement(&buf, 2, "itunes:author", g.show.Author)
	writeElement(&buf, 2, "itunes:summary", g.show.Description)
	writeElement(&buf, 2, "itunes:explicit", explicitValue(g.show.Explicit))
	if g.show.Email != "" {
		buf.WriteString("    <itunes:owner>\n")
		writeElement(&buf, 3, "itunes:name", g.show.Author)
		writeElement(&buf, 3, "itunes:email", g.show.Email)
		buf.WriteString("    </itunes:owner>\n")
	}
	if g.show.Category != "" {
		buf.WriteString(`    <itunes:category text="`)
		escapeTo(&buf, g.show.Category)
		buf.WriteString("\"/>\n")
	}
	if g.show.ImageURL != "" {
		buf.WriteString(`    <itunes:image href="`)
		escapeTo(&buf, g.show.ImageURL)
		buf.WriteString("\"/>\n")
		buf.WriteString("    <image>\n")
		writeElement(&buf, 3, "url", g.show.ImageURL)
		writeElement(&buf, 3, "title", g.show.Title)
		writeElement(&buf, 3, "link", g.show.Link)
		buf.WriteString("    </image>\n")
	}

	for _, ep := range episodes {
		g.writeItem(&buf, ep)
	}

	buf.WriteString("  </channel>\n</rss>\n")
	return buf.Bytes()
}

// writeItem renders one episode item.
func (g *RSSGenerator) writeItem(buf *bytes.Buffer, ep model.PodcastEpisode) {
	buf.WriteString("    <item>\n")
	writeElement(buf, 3, "title", ep.Title)
	writeElement(buf, 3, "description", ep.Description)
	writeElement(buf, 3, "link", ep.AudioURL)
	buf.WriteString(`      <guid isPermaLink="false">`)
	escapeTo(buf, ep.GUID)
	buf.WriteString("</guid>\n")
	writeElement(buf, 3, "pubDate", ep.PubDate.UTC().Format(rfc822Layout))
	buf.WriteString(`      <enclosure url="`)
	escapeTo(buf, ep.AudioURL)
	fmt.Fprintf(buf, `" length="%d" type="audio/mpeg"/>`, ep.FileSize)
	buf.WriteString("\n")

	author := ep.Author
	if author == "" {
		author = g.show.Author
	}
	writeElement(buf, 3, "itunes:author", author)
	writeElement(buf, 3, "itunes:subtitle", firstDescriptionLine(ep.Description))
	writeElement(buf, 3, "itunes:summary", ep.Description)
	if ep.Duration != "" {
		writeElement(buf, 3, "itunes:duration", ep.Duration)
	}
	if ep.EpisodeNumber > 0 {
		writeElement(buf, 3, "itunes:episode", strconv.Itoa(ep.EpisodeNumber))
	}
	buf.WriteString("    </item>\n")
}

// writeElement writes an indented, escaped XML element on one line.
func writeElement(buf *bytes.Buffer, indent int, name, value string) {
	for i := 0; i < indent; i++ {
		buf.WriteString("  ")
	}
	buf.WriteString("<")
	buf.WriteString(name)
	buf.WriteString(">")
	escapeTo(buf, value)
	buf.WriteString("</")
	buf.WriteString(name)
	buf.WriteString(">\n")
}

func escapeTo(buf *bytes.Buffer, value string) {
	// xml.EscapeText only fails on a failing writer; bytes.Buffer never
	// does.
	_ = xml.EscapeText(buf, []byte(value))
}

func explicitValue(explicit bool) string {
	if explicit {
		return "yes"
	}
	return "no"
}

func firstDescriptionLine(description string) string {
	if idx := strings.IndexByte(description, '\n'); idx >= 0 {
		return description[:idx]
	}
	return description
}
