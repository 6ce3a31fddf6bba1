package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfitem/ai-podcast/internal/domain/model"
	domainservice "github.com/wolfitem/ai-podcast/internal/domain/service"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
	"github.com/wolfitem/ai-podcast/internal/middleware"
)

// Marker the dialogue model is instructed to reply with when an article
// is not technology news.
const refusalMarker = "NON_TECH_CONTENT:"

// Phrases older model versions used instead of the refusal marker.
var legacyRefusalPhrases = []string{
	"i cannot generate a podcast",
	"i can't generate a podcast",
	"i'm unable to create a podcast",
	"not related to technology",
	"this article is not about technology",
}

// SegmentStatus classifies the outcome of one article's segment call.
type SegmentStatus string

const (
	SegmentSuccess SegmentStatus = "success"
	SegmentSkipped SegmentStatus = "skipped"
	SegmentError   SegmentStatus = "error"
)

// SegmentResult is the per-article outcome of script generation.
type SegmentResult struct {
	Article model.Article
	Script  string
	Summary string
	Status  SegmentStatus
	Reason  string
}

// MalformedReplyError reports a framework reply that carried none of
// the expected section headers.
type MalformedReplyError struct {
	Preview string
}

func (e *MalformedReplyError) Error() string {
	return fmt.Sprintf("framework reply contained no recognized sections: %s", e.Preview)
}

// ScriptGenerator turns collected articles into a multi-speaker
// dialogue script.
type ScriptGenerator struct {
	ai      domainservice.AIClient
	metrics *middleware.MetricsCollector
}

// NewScriptGenerator creates a script generator. The metrics collector
// may be nil.
func NewScriptGenerator(ai domainservice.AIClient, metrics *middleware.MetricsCollector) *ScriptGenerator {
	return &ScriptGenerator{ai: ai, metrics: metrics}
}

// GenerateScript produces the full episode script from the given
// articles. Invalid articles are filtered first; refused articles are
// skipped per item. The call fails only when no article yields a
// segment.
func (g *ScriptGenerator) GenerateScript(ctx context.Context, articles []model.Article) (string, []SegmentResult, error) {
	defer logger.TimeTrack("GenerateScript")()

	var valid []model.Article
	for _, a := range articles {
		if a.IsValid() {
			valid = append(valid, a)
		} else {
			logger.Warn("article failed validation, excluded from script", "title", a.Title, "url", a.URL)
		}
	}
	if len(valid) == 0 {
		return "", nil, model.NewAIGenerationError("No valid articles available for script generation", nil)
	}

	results := make([]SegmentResult, 0, len(valid))
	var segments []SegmentResult
	for _, article := range valid {
		result := g.generateSegment(ctx, article)
		results = append(results, result)
		if result.Status == SegmentSuccess {
			segments = append(segments, result)
		}
	}
	if g.metrics != nil {
		g.metrics.RecordSegments(int64(len(segments)))
	}
	if len(segments) == 0 {
		return "", results, model.NewAIGenerationError("no article produced a usable segment", nil)
	}

	framework, err := g.generateFramework(ctx, segments)
	if err != nil {
		return "", results, err
	}

	script := combineScript(framework, segments)
	script = domainservice.OptimizeForSpeech(script)

	logger.Info("script generated",
		"segments", len(segments),
		"skipped", len(results)-len(segments),
		"script_length", len(script))
	return script, results, nil
}

// generateSegment runs one article through the dialogue model.
func (g *ScriptGenerator) generateSegment(ctx context.Context, article model.Article) SegmentResult {
	reply, err := g.ai.GenerateDialogue(ctx, buildSegmentPrompt(article))
	if err != nil {
		logger.Error("segment generation failed", "title", article.Title, "error", err)
		return SegmentResult{Article: article, Status: SegmentError, Reason: err.Error()}
	}

	if refused, reason := detectRefusal(reply); refused {
		logger.Warn("dialogue model declined article, skipping", "title", article.Title, "reason", reason)
		return SegmentResult{Article: article, Status: SegmentSkipped, Reason: reason}
	}

	script, summary, err := parseSegmentReply(reply)
	if err != nil {
		logger.Error("segment reply could not be parsed", "title", article.Title, "error", err)
		return SegmentResult{Article: article, Status: SegmentError, Reason: err.Error()}
	}

	return SegmentResult{
		Article: article,
		Script:  script,
		Summary: summary,
		Status:  SegmentSuccess,
	}
}

// generateFramework produces the show opening, transitions and closing
// from the segment summaries.
func (g *ScriptGenerator) generateFramework(ctx context.Context, segments []SegmentResult) (*framework, error) {
	reply, err := g.ai.GenerateDialogue(ctx, buildFrameworkPrompt(segments))
	if err != nil {
		return nil, model.NewAIGenerationError("framework generation failed", err)
	}
	return parseFramework(reply)
}

// detectRefusal checks a reply for the refusal marker or one of the
// legacy refusal phrases.
func detectRefusal(reply string) (bool, string) {
	trimmed := strings.TrimSpace(reply)
	if strings.HasPrefix(trimmed, refusalMarker) {
		return true, strings.TrimSpace(strings.TrimPrefix(trimmed, refusalMarker))
	}

	lower := strings.ToLower(trimmed)
	for _, phrase := range legacyRefusalPhrases {
		if strings.Contains(lower, phrase) {
			return true, phrase
		}
	}
	return false, ""
}

// parseSegmentReply splits a segment reply into its script and summary
// sections.
func parseSegmentReply(reply string) (script, summary string, err error) {
	sections := splitSections(reply, "### ")
	script = sections["SEGMENT SCRIPT"]
	summary = sections["SEGMENT SUMMARY"]

	if script == "" {
		return "", "", fmt.Errorf("reply carried no SEGMENT SCRIPT section")
	}
	if summary == "" {
		// A missing summary degrades the framework prompt but the
		// segment itself is still usable.
		summary = firstLine(script)
	}
	return script, summary, nil
}

// framework holds the parsed show opening, ordered transitions and
// closing.
type framework struct {
	Opening     string
	Transitions []string
	Closing     string
}

// parseFramework scans a framework reply for its section headers. A
// reply without any recognized section yields MalformedReplyError.
func parseFramework(reply string) (*framework, error) {
	fw := &framework{}
	found := false

	var current *string
	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "## SHOW OPENING"):
			found = true
			current = &fw.Opening
			continue
		case strings.HasPrefix(trimmed, "## TRANSITION"):
			found = true
			fw.Transitions = append(fw.Transitions, "")
			current = &fw.Transitions[len(fw.Transitions)-1]
			continue
		case strings.HasPrefix(trimmed, "## SHOW CLOSING"):
			found = true
			current = &fw.Closing
			continue
		}
		if current != nil {
			if *current != "" {
				*current += "\n"
			}
			*current += line
		}
	}

	if !found {
		return nil, &MalformedReplyError{Preview: firstLine(reply)}
	}

	fw.Opening = strings.TrimSpace(fw.Opening)
	fw.Closing = strings.TrimSpace(fw.Closing)
	for i := range fw.Transitions {
		fw.Transitions[i] = strings.TrimSpace(fw.Transitions[i])
	}
	return fw, nil
}

// combineScript assembles the final episode script: opening, then each
// segment under a header carrying its article title, transitions in
// between, and the closing.
func combineScript(fw *framework, segments []SegmentResult) string {
	var b strings.Builder

	if fw.Opening != "" {
		b.WriteString(fw.Opening)
		b.WriteString("\n\n")
	}

	for i, seg := range segments {
		fmt.Fprintf(&b, "## SEGMENT %d: %s\n\n", i+1, seg.Article.Title)
		b.WriteString(strings.TrimSpace(seg.Script))
		b.WriteString("\n\n")

		if i < len(segments)-1 && i < len(fw.Transitions) && fw.Transitions[i] != "" {
			b.WriteString(fw.Transitions[i])
			b.WriteString("\n\n")
		}
	}

	if fw.Closing != "" {
		b.WriteString(fw.Closing)
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String()) + "\n"
}

// splitSections splits text at headers with the given prefix and keys
// the body of each section by its header label.
func splitSections(text, headerPrefix string) map[string]string {
	sections := make(map[string]string)
	var label string
	var body strings.Builder

	flush := func() {
		if label != "" {
			sections[label] = strings.TrimSpace(body.String())
		}
		body.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, headerPrefix) {
			flush()
			label = strings.TrimSpace(strings.TrimPrefix(trimmed, headerPrefix))
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return sections
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}

// buildSegmentPrompt asks for one article's dialogue segment with the
// two fixed sections and the refusal marker contract.
func buildSegmentPrompt(article model.Article) string {
	var b strings.Builder
	b.WriteString("You are writing a segment for a two-host technology news podcast.\n")
	b.WriteString("The hosts are Alex and Sam. Write a natural back-and-forth dialogue\n")
	b.WriteString("covering the article below. Every spoken line must start with either\n")
	b.WriteString("\"Alex:\" or \"Sam:\".\n\n")
	b.WriteString("Reply with exactly two sections:\n")
	b.WriteString("### SEGMENT SCRIPT\n")
	b.WriteString("The dialogue for this segment.\n")
	b.WriteString("### SEGMENT SUMMARY\n")
	b.WriteString("Two or three sentences summarizing the segment for show planning.\n\n")
	fmt.Fprintf(&b, "If the article is not technology news, reply with a single line starting with %s followed by a short reason.\n\n", refusalMarker)
	fmt.Fprintf(&b, "Title: %s\n", article.Title)
	if article.Author != "" {
		fmt.Fprintf(&b, "Author: %s\n", article.Author)
	}
	fmt.Fprintf(&b, "Source: %s\n\n", article.Source)
	b.WriteString(article.Content)
	return b.String()
}

// buildFrameworkPrompt asks for the show opening, transitions and
// closing given the segment summaries.
func buildFrameworkPrompt(segments []SegmentResult) string {
	var b strings.Builder
	b.WriteString("You are writing the framing for a two-host technology news podcast\n")
	b.WriteString("episode. The hosts are Alex and Sam; every spoken line must start\n")
	b.WriteString("with \"Alex:\" or \"Sam:\".\n\n")
	fmt.Fprintf(&b, "The episode has %d segments, summarized below. Reply with these sections:\n", len(segments))
	b.WriteString("## SHOW OPENING\n")
	for i := 1; i < len(segments); i++ {
		fmt.Fprintf(&b, "## TRANSITION %d→%d\n", i, i+1)
	}
	b.WriteString("## SHOW CLOSING\n\n")
	for i, seg := range segments {
		fmt.Fprintf(&b, "Segment %d: %s\n%s\n\n", i+1, seg.Article.Title, seg.Summary)
	}
	return b.String()
}
