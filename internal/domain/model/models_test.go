package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArticleIsValid(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		want    bool
	}{
		{
			name:    "valid article",
			title:   "Quantum Leap For Batteries",
			content: strings.Repeat("a", 150),
			want:    true,
		},
		{
			name:    "blank title",
			title:   "   ",
			content: strings.Repeat("a", 150),
			want:    false,
		},
		{
			name:    "content exactly 100 chars",
			title:   "Short Story",
			content: strings.Repeat("a", 100),
			want:    false,
		},
		{
			name:    "content 101 chars",
			title:   "Short Story",
			content: strings.Repeat("a", 101),
			want:    true,
		},
		{
			name:    "whitespace padding does not count",
			title:   "Padded Story",
			content: strings.Repeat("a", 95) + strings.Repeat(" ", 50),
			want:    false,
		},
		{
			name:    "empty content",
			title:   "Empty Story",
			content: "",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Article{Title: tt.title, Content: tt.content}
			assert.Equal(t, tt.want, a.IsValid())
		})
	}
}

func TestEpisodeGUID(t *testing.T) {
	date := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	guid := EpisodeGUID("Tech News Daily", date)
	assert.Equal(t, "20260831-tech-news-daily", guid)

	// Deterministic for identical inputs.
	assert.Equal(t, guid, EpisodeGUID("Tech News Daily", date))

	// Case and padding are normalized.
	assert.Equal(t, guid, EpisodeGUID("  TECH News   Daily ", date))
}

func TestEnsureGUID(t *testing.T) {
	date := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	ep := PodcastEpisode{Title: "Morning Brief", PubDate: date}
	ep.EnsureGUID()
	assert.Equal(t, "20260831-morning-brief", ep.GUID)

	preset := PodcastEpisode{Title: "Morning Brief", PubDate: date, GUID: "custom-guid"}
	preset.EnsureGUID()
	assert.Equal(t, "custom-guid", preset.GUID)
}

func TestPipelineParamsValidate(t *testing.T) {
	base := PipelineParams{
		Anthropic:      AnthropicConfig{APIKey: "key-a"},
		ElevenLabs:     ElevenLabsConfig{APIKey: "key-b"},
		Sources:        []string{"wired"},
		Categories:     []string{"ai"},
		GenerateScript: true,
		GenerateAudio:  true,
	}

	assert.NoError(t, base.Validate())

	t.Run("both stages disabled", func(t *testing.T) {
		p := base
		p.GenerateScript = false
		p.GenerateAudio = false
		err := p.Validate()
		assert.EqualError(t, err, "At least one of generate_script or generate_audio must be enabled")
	})

	t.Run("script without llm key", func(t *testing.T) {
		p := base
		p.Anthropic.APIKey = ""
		assert.Error(t, p.Validate())
	})

	t.Run("audio without tts key", func(t *testing.T) {
		p := base
		p.ElevenLabs.APIKey = ""
		assert.Error(t, p.Validate())
	})

	t.Run("no categories", func(t *testing.T) {
		p := base
		p.Categories = nil
		assert.Error(t, p.Validate())
	})

	t.Run("no sources but opml file", func(t *testing.T) {
		p := base
		p.Sources = nil
		p.OPMLFile = "feeds.opml"
		assert.NoError(t, p.Validate())
	})
}
