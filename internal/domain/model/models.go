package model

import (
	"errors"
	"strings"
	"time"
)

// Article is a single scraped news article.
type Article struct {
	Title    string // article headline
	Content  string // extracted body text
	Author   string // author name, may be empty
	URL      string // canonical link, used as the dedup key
	Category string // category the article was collected under
	Source   string // source name, e.g. "wired"
}

// IsValid reports whether the article carries enough content to feed
// script generation. The title must be non-blank and the trimmed body
// must exceed 100 characters.
func (a Article) IsValid() bool {
	if strings.TrimSpace(a.Title) == "" {
		return false
	}
	return len(strings.TrimSpace(a.Content)) > 100
}

// PodcastEpisode is one published episode in the show feed.
type PodcastEpisode struct {
	Title         string
	Description   string
	AudioURL      string
	PubDate       time.Time
	EpisodeNumber int // 0 means unassigned
	Duration      string // "HH:MM:SS"
	FileSize      int64 // enclosure size in bytes
	GUID          string
	Author        string
}

// EpisodeGUID builds the deterministic episode identifier used when no
// GUID was supplied: "{YYYYMMDD}-{slug}" where the slug is the lowercased
// title with spaces replaced by hyphens.
func EpisodeGUID(title string, date time.Time) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Join(strings.Fields(slug), "-")
	return date.Format("20060102") + "-" + slug
}

// EnsureGUID fills in the deterministic GUID when none is set.
func (e *PodcastEpisode) EnsureGUID() {
	if e.GUID == "" {
		e.GUID = EpisodeGUID(e.Title, e.PubDate)
	}
}

// AudioResult describes a synthesized episode audio file.
type AudioResult struct {
	FilePath string
	FileSize int64
	Duration string // "HH:MM:SS"
}

// RSSResult describes a published feed update.
type RSSResult struct {
	LocalPath    string
	FeedURL      string
	EpisodeCount int
}

// AnthropicConfig holds configuration for the dialogue model API.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	MaxCalls  int // 0 means unlimited
	APIUrl    string
	Timeout   int // seconds per request
}

// ElevenLabsConfig holds configuration for the speech synthesis API.
type ElevenLabsConfig struct {
	APIKey  string
	ModelID string
	APIUrl  string
	Timeout int // seconds per request
}

// AWSConfig holds object storage configuration.
type AWSConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
}

// VoiceConfig maps the two dialogue speakers to synthesis voices.
type VoiceConfig struct {
	VoiceA string // voice ID for Alex, also the fallback voice
	VoiceB string // voice ID for Sam
}

// ShowConfig holds the podcast channel metadata.
type ShowConfig struct {
	Title       string
	Subtitle    string
	Description string
	Link        string
	Author      string
	Email       string
	ImageURL    string
	Category    string
	Language    string
	Explicit    bool
}

// DatabaseConfig holds the local persistence configuration.
type DatabaseConfig struct {
	Enabled  bool
	FilePath string
}

// PipelineParams carries every setting one pipeline run needs. It is
// passed explicitly through the call chain; nothing reads global state.
type PipelineParams struct {
	Anthropic  AnthropicConfig
	ElevenLabs ElevenLabsConfig
	AWS        AWSConfig

	Sources           []string // source names to collect from
	Categories        []string // categories to collect
	ArticlesPerSource int      // per-(source,category) cap
	OPMLFile          string   // optional OPML file adding feed-backed sources

	OutputDir      string
	GenerateScript bool
	GenerateAudio  bool

	Voices VoiceConfig
	Show   ShowConfig

	MaxFeedEpisodes int
	Database        DatabaseConfig

	ChunkByteBudget int // max bytes of text per synthesis call
	AudioTimeoutSec int // overall synthesis deadline in seconds
}

// Validate checks the parameter set eagerly, before any network or API
// spend.
func (p PipelineParams) Validate() error {
	if !p.GenerateScript && !p.GenerateAudio {
		return errors.New("At least one of generate_script or generate_audio must be enabled")
	}
	if p.GenerateScript && p.Anthropic.APIKey == "" {
		return errors.New("anthropic api key is required when script generation is enabled")
	}
	if p.GenerateAudio && p.ElevenLabs.APIKey == "" {
		return errors.New("elevenlabs api key is required when audio generation is enabled")
	}
	if len(p.Categories) == 0 {
		return errors.New("at least one category must be configured")
	}
	if len(p.Sources) == 0 && p.OPMLFile == "" {
		return errors.New("at least one article source must be configured")
	}
	return nil
}

// PodcastResult summarizes one pipeline run. Run always returns one of
// these; a failed run carries Success=false and an error message.
type PodcastResult struct {
	Success bool   `json:"success"`
	RunID   string `json:"run_id"`

	ArticleCount int       `json:"article_count"`
	Articles     []Article `json:"-"`
	Titles       []string  `json:"titles,omitempty"`

	ScriptGenerated bool `json:"script_generated"`
	AudioGenerated  bool `json:"audio_generated"`
	RSSPublished    bool `json:"rss_published"`

	ScriptPath string `json:"script_path,omitempty"`
	AudioPath  string `json:"audio_path,omitempty"`
	FeedPath   string `json:"feed_path,omitempty"`

	ScriptURL string `json:"script_url,omitempty"`
	AudioURL  string `json:"audio_url,omitempty"`
	FeedURL   string `json:"feed_url,omitempty"`

	EpisodeNumber  int     `json:"episode_number,omitempty"`
	Duration       string  `json:"duration,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Error          string  `json:"error,omitempty"`
}
