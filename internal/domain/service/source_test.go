package service

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSource(t *testing.T) {
	fetcher := NewFetcher(time.Second)

	src, err := NewSource("wired", fetcher)
	require.NoError(t, err)
	assert.Equal(t, "wired", src.Name())

	src, err = NewSource("  TechCrunch ", fetcher)
	require.NoError(t, err)
	assert.Equal(t, "techcrunch", src.Name())

	_, err = NewSource("unknown-site", fetcher)
	assert.ErrorContains(t, err, "unknown article source: unknown-site")
}

func TestSupportsCategory(t *testing.T) {
	src := NewWiredSource(NewFetcher(time.Second))

	assert.True(t, SupportsCategory(src, "ai"))
	assert.True(t, SupportsCategory(src, "AI"))
	assert.False(t, SupportsCategory(src, "sports"))
}

func TestValidateCategory(t *testing.T) {
	src := NewTechCrunchSource(NewFetcher(time.Second))

	assert.NoError(t, validateCategory(src, "startups"))

	err := validateCategory(src, "cooking")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support category cooking")
}

func TestExtractContent(t *testing.T) {
	html := `
	<html><body>
	<div class="article-body">
		<p>short</p>
		<p>This is a long enough paragraph with actual article text in it.</p>
		<p>Sign up for our newsletter to receive more stories like this.</p>
		<p>A second long paragraph that should also make it into the body.</p>
	</div>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	rules := extractRules{
		containers:   []string{"div.missing", "div.article-body"},
		skipPatterns: []string{"newsletter"},
	}

	content := ExtractContent(doc, rules)
	paragraphs := strings.Split(content, "\n\n")
	require.Len(t, paragraphs, 2)
	assert.Contains(t, paragraphs[0], "long enough paragraph")
	assert.Contains(t, paragraphs[1], "second long paragraph")
}

func TestExtractContentNoContainer(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>text</p></body></html>"))
	require.NoError(t, err)

	content := ExtractContent(doc, extractRules{containers: []string{"div.article"}})
	assert.Empty(t, content)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello world", StripHTML("<p>Hello   <b>world</b></p>"))
	assert.Equal(t, "", StripHTML(""))
	assert.Equal(t, "plain text", StripHTML("plain text"))
}
