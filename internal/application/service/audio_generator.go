package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tcolgate/mp3"
	"github.com/wolfitem/ai-podcast/internal/domain/model"
	domainservice "github.com/wolfitem/ai-podcast/internal/domain/service"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
	"github.com/wolfitem/ai-podcast/internal/middleware"
)

const (
	speakerAlex = "Alex"
	speakerSam  = "Sam"

	defaultChunkBudget = 8000
	defaultAudioLimit  = 10 * time.Minute
	minScriptLength    = 100
)

// AudioGenerator synthesizes an episode MP3 from a dialogue script.
type AudioGenerator struct {
	tts         domainservice.TTSClient
	voices      model.VoiceConfig
	chunkBudget int
	timeout     time.Duration
	metrics     *middleware.MetricsCollector
}

// NewAudioGenerator creates an audio generator. Zero chunk budget and
// timeout fall back to defaults; the metrics collector may be nil.
func NewAudioGenerator(tts domainservice.TTSClient, voices model.VoiceConfig, chunkBudget, timeoutSec int, metrics *middleware.MetricsCollector) *AudioGenerator {
	budget := chunkBudget
	if budget <= 0 {
		budget = defaultChunkBudget
	}
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultAudioLimit
	}
	return &AudioGenerator{
		tts:         tts,
		voices:      voices,
		chunkBudget: budget,
		timeout:     timeout,
		metrics:     metrics,
	}
}

// speakerChunk is a run of consecutive same-speaker lines small enough
// for one synthesis call.
type speakerChunk struct {
	speaker string
	text    string
}

// GenerateAudio synthesizes the script into an MP3 at outputPath. The
// whole synthesis is bounded by the configured deadline.
func (g *AudioGenerator) GenerateAudio(ctx context.Context, script, outputPath string) (model.AudioResult, error) {
	defer logger.TimeTrack("GenerateAudio")()

	trimmed := strings.TrimSpace(script)
	if len(trimmed) < minScriptLength {
		return model.AudioResult{}, model.NewAudioGenerationError("Script too short or empty", nil)
	}

	chunks := g.buildChunks(script)
	if len(chunks) == 0 {
		return model.AudioResult{}, model.NewAudioGenerationError("script contained no speakable lines", nil)
	}
	logger.Info("synthesizing audio", "chunks", len(chunks), "script_length", len(trimmed))

	synthCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var merged bytes.Buffer
	synthesized := 0
	for i, chunk := range chunks {
		audio, err := g.tts.Synthesize(synthCtx, chunk.text, g.voiceFor(chunk.speaker))
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(synthCtx.Err(), context.DeadlineExceeded) {
				return model.AudioResult{}, model.NewAudioGenerationError("Audio synthesis timed out", err)
			}
			logger.Warn("chunk synthesis failed, skipping", "chunk", i+1, "speaker", chunk.speaker, "error", err)
			continue
		}
		merged.Write(audio)
		synthesized++
	}
	if g.metrics != nil {
		g.metrics.RecordChunks(int64(synthesized))
	}
	if synthesized == 0 {
		return model.AudioResult{}, model.NewAudioGenerationError("no audio chunk could be synthesized", nil)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return model.AudioResult{}, model.NewAudioGenerationError("failed to create output directory", err)
	}
	if err := os.WriteFile(outputPath, merged.Bytes(), 0644); err != nil {
		return model.AudioResult{}, model.NewAudioGenerationError("failed to write audio file", err)
	}

	duration := measureDuration(merged.Bytes())
	logger.Info("audio generated",
		"path", outputPath,
		"bytes", merged.Len(),
		"duration", duration,
		"chunks_ok", synthesized,
		"chunks_total", len(chunks))

	return model.AudioResult{
		FilePath: outputPath,
		FileSize: int64(merged.Len()),
		Duration: duration,
	}, nil
}

// voiceFor maps a speaker name to its synthesis voice. Unknown speakers
// fall back to voice A.
func (g *AudioGenerator) voiceFor(speaker string) string {
	if speaker == speakerSam {
		return g.voices.VoiceB
	}
	return g.voices.VoiceA
}

// buildChunks parses the script into speaker-labeled lines and groups
// consecutive same-speaker lines into chunks within the byte budget.
// Splits happen only at line boundaries.
func (g *AudioGenerator) buildChunks(script string) []speakerChunk {
	var chunks []speakerChunk
	var current *speakerChunk

	flush := func() {
		if current != nil && strings.TrimSpace(current.text) != "" {
			chunks = append(chunks, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "**") {
			continue
		}

		speaker := speakerAlex
		text := trimmed
		if rest, ok := strings.CutPrefix(trimmed, speakerAlex+":"); ok {
			text = strings.TrimSpace(rest)
		} else if rest, ok := strings.CutPrefix(trimmed, speakerSam+":"); ok {
			speaker = speakerSam
			text = strings.TrimSpace(rest)
		}
		if text == "" {
			continue
		}

		if current != nil && current.speaker == speaker && len(current.text)+len(text)+1 <= g.chunkBudget {
			current.text += "\n" + text
			continue
		}
		flush()
		current = &speakerChunk{speaker: speaker, text: text}
	}
	flush()

	return chunks
}

// measureDuration decodes the MP3 frames and sums their durations,
// returned as "HH:MM:SS". Undecodable data yields "00:00:00".
func measureDuration(data []byte) string {
	decoder := mp3.NewDecoder(bytes.NewReader(data))
	var frame mp3.Frame
	var skipped int

	seconds := 0.0
	for {
		if err := decoder.Decode(&frame, &skipped); err != nil {
			if err != io.EOF {
				logger.Debug("mp3 decode stopped early", "error", err)
			}
			break
		}
		seconds += frame.Duration().Seconds()
	}

	return formatDuration(seconds)
}

// formatDuration renders seconds as "HH:MM:SS".
func formatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
