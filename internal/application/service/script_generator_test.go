package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfitem/ai-podcast/internal/domain/model"
	domainservice "github.com/wolfitem/ai-podcast/internal/domain/service"
)

// stubAI answers segment prompts and the framework prompt with canned
// replies.
type stubAI struct {
	segmentReply   func(prompt string) (string, error)
	frameworkReply string
	frameworkErr   error
	calls          int
}

func (s *stubAI) GenerateDialogue(_ context.Context, prompt string) (string, error) {
	s.calls++
	if strings.Contains(prompt, "framing") {
		if s.frameworkErr != nil {
			return "", s.frameworkErr
		}
		return s.frameworkReply, nil
	}
	return s.segmentReply(prompt)
}

func (s *stubAI) GetRateLimits() domainservice.RateLimit {
	return domainservice.RateLimit{ResetTime: time.Now()}
}

const stubSegmentReply = `### SEGMENT SCRIPT
Alex: So this story really caught my attention today.
Sam: Same here, there is a lot to unpack in this one.
Alex: Let us walk through what actually happened.
### SEGMENT SUMMARY
The hosts discuss a notable development and what it means.`

const stubFrameworkReply = `## SHOW OPENING
Alex: Welcome back to the show, we have a packed episode.
Sam: Three stories today, so let us get right into it.
## TRANSITION 1→2
Alex: Moving right along to our next story.
## TRANSITION 2→3
Sam: And that brings us to the last story of the day.
## SHOW CLOSING
Alex: That is all for today, thanks for listening.
Sam: See you next time.`

func validArticle(title string) model.Article {
	return model.Article{
		Title:   title,
		Content: strings.Repeat("words about things happening in the world of machines. ", 5),
		URL:     "https://example.com/" + strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Source:  "wired",
	}
}

func TestGenerateScriptContainsEachTitleOnce(t *testing.T) {
	ai := &stubAI{
		segmentReply:   func(string) (string, error) { return stubSegmentReply, nil },
		frameworkReply: stubFrameworkReply,
	}
	gen := NewScriptGenerator(ai, nil)

	articles := []model.Article{
		validArticle("Quantum Leap For Batteries"),
		validArticle("Solar Panels Get Cheaper"),
		validArticle("New Chips From Portland"),
	}

	script, results, err := gen.GenerateScript(context.Background(), articles)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, a := range articles {
		assert.Equal(t, 1, strings.Count(script, a.Title), "title %q should appear exactly once", a.Title)
	}
	assert.Contains(t, script, "Welcome back to the show")
	assert.Contains(t, script, "thanks for listening")

	// Same inputs and stubbed replies must yield the same script.
	again, _, err := gen.GenerateScript(context.Background(), articles)
	require.NoError(t, err)
	assert.Equal(t, script, again)
}

func TestGenerateScriptNoValidArticles(t *testing.T) {
	ai := &stubAI{segmentReply: func(string) (string, error) { return stubSegmentReply, nil }}
	gen := NewScriptGenerator(ai, nil)

	articles := []model.Article{
		{Title: "", Content: strings.Repeat("a", 200)},
		{Title: "Thin Story", Content: "too short"},
	}

	_, _, err := gen.GenerateScript(context.Background(), articles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No valid articles")

	var genErr *model.AIGenerationError
	assert.True(t, errors.As(err, &genErr))
	assert.Zero(t, ai.calls, "no API spend on invalid input")
}

func TestGenerateScriptSkipsRefusedArticles(t *testing.T) {
	refusedURL := "https://example.com/pasta-recipes-ranked"
	ai := &stubAI{
		segmentReply: func(prompt string) (string, error) {
			if strings.Contains(prompt, "Pasta Recipes Ranked") {
				return "NON_TECH_CONTENT: this is a cooking article", nil
			}
			return stubSegmentReply, nil
		},
		frameworkReply: stubFrameworkReply,
	}
	gen := NewScriptGenerator(ai, nil)

	articles := []model.Article{
		validArticle("Quantum Leap For Batteries"),
		{Title: "Pasta Recipes Ranked", Content: strings.Repeat("boil the water first. ", 10), URL: refusedURL},
	}

	script, results, err := gen.GenerateScript(context.Background(), articles)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var statuses []SegmentStatus
	for _, r := range results {
		statuses = append(statuses, r.Status)
	}
	assert.Contains(t, statuses, SegmentSkipped)
	assert.NotContains(t, script, "Pasta Recipes Ranked")
}

func TestGenerateScriptLegacyRefusalPhrase(t *testing.T) {
	refused, reason := detectRefusal("I'm sorry, but I can't generate a podcast segment from this article.")
	assert.True(t, refused)
	assert.NotEmpty(t, reason)

	refused, _ = detectRefusal(stubSegmentReply)
	assert.False(t, refused)
}

func TestGenerateScriptAllRefused(t *testing.T) {
	ai := &stubAI{
		segmentReply:   func(string) (string, error) { return "NON_TECH_CONTENT: nope", nil },
		frameworkReply: stubFrameworkReply,
	}
	gen := NewScriptGenerator(ai, nil)

	_, results, err := gen.GenerateScript(context.Background(), []model.Article{validArticle("Some Story")})
	require.Error(t, err)
	assert.Len(t, results, 1)
	assert.Contains(t, err.Error(), "no article produced a usable segment")
}

func TestGenerateScriptMalformedFramework(t *testing.T) {
	ai := &stubAI{
		segmentReply:   func(string) (string, error) { return stubSegmentReply, nil },
		frameworkReply: "Here is your episode framing, hope it works out.",
	}
	gen := NewScriptGenerator(ai, nil)

	_, _, err := gen.GenerateScript(context.Background(), []model.Article{validArticle("Some Story")})
	require.Error(t, err)

	var malformed *MalformedReplyError
	assert.True(t, errors.As(err, &malformed))
}

func TestParseSegmentReply(t *testing.T) {
	script, summary, err := parseSegmentReply(stubSegmentReply)
	require.NoError(t, err)
	assert.Contains(t, script, "Alex: So this story")
	assert.Equal(t, "The hosts discuss a notable development and what it means.", summary)

	_, _, err = parseSegmentReply("no sections at all")
	assert.Error(t, err)

	// A missing summary falls back to the first script line.
	script, summary, err = parseSegmentReply("### SEGMENT SCRIPT\nAlex: Just one line here.")
	require.NoError(t, err)
	assert.Equal(t, "Alex: Just one line here.", summary)
	assert.Equal(t, "Alex: Just one line here.", script)
}

func TestParseFramework(t *testing.T) {
	fw, err := parseFramework(stubFrameworkReply)
	require.NoError(t, err)
	assert.Contains(t, fw.Opening, "Welcome back")
	require.Len(t, fw.Transitions, 2)
	assert.Contains(t, fw.Transitions[0], "Moving right along")
	assert.Contains(t, fw.Transitions[1], "last story of the day")
	assert.Contains(t, fw.Closing, "thanks for listening")
}

func TestGenerateScriptSegmentCallError(t *testing.T) {
	boom := fmt.Errorf("api unavailable")
	ai := &stubAI{
		segmentReply:   func(string) (string, error) { return "", boom },
		frameworkReply: stubFrameworkReply,
	}
	gen := NewScriptGenerator(ai, nil)

	_, results, err := gen.GenerateScript(context.Background(), []model.Article{validArticle("Some Story")})
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, SegmentError, results[0].Status)
}
