package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfitem/ai-podcast/internal/domain/model"
)

// stubTTS records synthesis calls and returns a fixed payload per call.
type stubTTS struct {
	payload []byte
	err     error
	texts   []string
	voices  []string
}

func (s *stubTTS) Synthesize(_ context.Context, text, voiceID string) ([]byte, error) {
	s.texts = append(s.texts, text)
	s.voices = append(s.voices, voiceID)
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}

var testVoices = model.VoiceConfig{VoiceA: "voice-alex", VoiceB: "voice-sam"}

const testScript = `## SHOW OPENING

Alex: Welcome back to the show, everyone, we have a great episode lined up.
Sam: We really do, there is a lot to get through today.

**Segment notes for the editor, not spoken.**

Alex: Let us start with the first story.
Sam: Sounds good to me.
Sam: It is a big one.

Alex: And that is the show, thanks for listening.
`

func TestGenerateAudioShortScript(t *testing.T) {
	gen := NewAudioGenerator(&stubTTS{payload: []byte("mp3")}, testVoices, 0, 0, nil)

	_, err := gen.GenerateAudio(context.Background(), "Alex: Hi.", filepath.Join(t.TempDir(), "out.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Script too short or empty")

	_, err = gen.GenerateAudio(context.Background(), "   \n\n  ", filepath.Join(t.TempDir(), "out.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Script too short or empty")
}

func TestGenerateAudioWritesMergedFile(t *testing.T) {
	tts := &stubTTS{payload: []byte("FRAME")}
	gen := NewAudioGenerator(tts, testVoices, 0, 0, nil)
	out := filepath.Join(t.TempDir(), "episodes", "out.mp3")

	result, err := gen.GenerateAudio(context.Background(), testScript, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, len(tts.texts)*len("FRAME"), len(data))
	assert.Equal(t, out, result.FilePath)
	assert.Equal(t, int64(len(data)), result.FileSize)
	// Stub payloads carry no decodable frames.
	assert.Equal(t, "00:00:00", result.Duration)
}

func TestGenerateAudioSpeakerVoices(t *testing.T) {
	tts := &stubTTS{payload: []byte("x")}
	gen := NewAudioGenerator(tts, testVoices, 0, 0, nil)

	_, err := gen.GenerateAudio(context.Background(), testScript, filepath.Join(t.TempDir(), "out.mp3"))
	require.NoError(t, err)

	require.NotEmpty(t, tts.voices)
	assert.Contains(t, tts.voices, "voice-alex")
	assert.Contains(t, tts.voices, "voice-sam")
	for _, v := range tts.voices {
		assert.Contains(t, []string{"voice-alex", "voice-sam"}, v)
	}
}

func TestGenerateAudioTimeout(t *testing.T) {
	tts := &stubTTS{err: context.DeadlineExceeded}
	gen := NewAudioGenerator(tts, testVoices, 0, 0, nil)

	_, err := gen.GenerateAudio(context.Background(), testScript, filepath.Join(t.TempDir(), "out.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Audio synthesis timed out")
}

func TestGenerateAudioAllChunksFail(t *testing.T) {
	tts := &stubTTS{err: assert.AnError}
	gen := NewAudioGenerator(tts, testVoices, 0, 0, nil)

	_, err := gen.GenerateAudio(context.Background(), testScript, filepath.Join(t.TempDir(), "out.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio chunk could be synthesized")
}

func TestBuildChunksGroupsConsecutiveSpeakers(t *testing.T) {
	gen := NewAudioGenerator(&stubTTS{}, testVoices, 0, 0, nil)

	chunks := gen.buildChunks(testScript)
	require.Len(t, chunks, 5)

	assert.Equal(t, speakerAlex, chunks[0].speaker)
	assert.Contains(t, chunks[0].text, "Welcome back")

	assert.Equal(t, speakerSam, chunks[1].speaker)

	assert.Equal(t, speakerAlex, chunks[2].speaker)
	assert.Equal(t, "Let us start with the first story.", chunks[2].text)

	// The two consecutive Sam lines collapse into one chunk.
	assert.Equal(t, speakerSam, chunks[3].speaker)
	assert.Equal(t, "Sounds good to me.\nIt is a big one.", chunks[3].text)

	assert.Equal(t, speakerAlex, chunks[4].speaker)
	assert.Contains(t, chunks[4].text, "thanks for listening")

	for _, c := range chunks {
		assert.NotContains(t, c.text, "##")
		assert.NotContains(t, c.text, "Segment notes")
	}
}

func TestBuildChunksByteBudget(t *testing.T) {
	gen := NewAudioGenerator(&stubTTS{}, testVoices, 30, 0, nil)

	script := strings.Join([]string{
		"Alex: first line of dialogue",
		"Alex: second line of dialogue",
		"Alex: third line of dialogue",
	}, "\n")

	chunks := gen.buildChunks(script)
	require.True(t, len(chunks) > 1, "budget forces a split")
	for _, c := range chunks {
		assert.Equal(t, speakerAlex, c.speaker)
		assert.LessOrEqual(t, len(c.text), 30)
	}
}

func TestBuildChunksUnlabeledLines(t *testing.T) {
	gen := NewAudioGenerator(&stubTTS{}, testVoices, 0, 0, nil)

	chunks := gen.buildChunks("A narrator line without a speaker label.\nSam: Then a reply.")
	require.Len(t, chunks, 2)
	assert.Equal(t, speakerAlex, chunks[0].speaker)
	assert.Equal(t, "A narrator line without a speaker label.", chunks[0].text)
	assert.Equal(t, speakerSam, chunks[1].speaker)
}

func TestBuildChunksLastChunkNotLost(t *testing.T) {
	gen := NewAudioGenerator(&stubTTS{}, testVoices, 0, 0, nil)

	chunks := gen.buildChunks("Alex: Only line in the script.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Only line in the script.", chunks[0].text)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00", formatDuration(0))
	assert.Equal(t, "00:01:05", formatDuration(65.4))
	assert.Equal(t, "01:00:59", formatDuration(3659))
	assert.Equal(t, "02:46:40", formatDuration(10000))
}
