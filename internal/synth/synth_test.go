package synth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialoguereel/internal/audio"
	"dialoguereel/internal/dialogue"
)

func wavPayload(t *testing.T, millis int) []byte {
	t.Helper()
	data, err := audio.WAVBytes(audio.Clip{
		Format:  beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2},
		Samples: make([][2]float64, millis*8),
	})
	require.NoError(t, err)
	return data
}

func TestElevenLabsSynthesizer_Synthesize(t *testing.T) {
	t.Run("should post text and voice settings and measure the reply", func(t *testing.T) {
		// Arrange
		payload := wavPayload(t, 1250)
		var received elevenLabsRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/text-to-speech/voice-rick", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get("xi-api-key"))
			assert.Equal(t, "audio/mpeg", r.Header.Get("Accept"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.Header().Set("Content-Type", "audio/wav")
			_, _ = w.Write(payload)
		}))
		defer server.Close()

		synth := NewElevenLabsSynthesizer(ElevenLabsConfig{
			BaseURL: server.URL + "/",
			APIKey:  "secret",
			Voices: map[dialogue.SpeakerID]VoiceSettings{
				"rick": {VoiceID: "voice-rick", Stability: 0.4, SimilarityBoost: 0.8},
			},
		}, nil)

		// Act
		speech, err := synth.Synthesize(context.Background(), "Wubba lubba dub dub", "rick")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1250*time.Millisecond, speech.Duration)
		assert.Equal(t, audio.FormatWAV, speech.Format)
		assert.Equal(t, "Wubba lubba dub dub", received.Text)
		assert.Equal(t, DefaultElevenLabsModel, received.ModelID)
		assert.Equal(t, 0.4, received.VoiceSettings.Stability)
		assert.Equal(t, 0.8, received.VoiceSettings.SimilarityBoost)
	})

	t.Run("should wrap service failures in a SynthesisError", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail":"quota exceeded"}`, http.StatusUnauthorized)
		}))
		defer server.Close()
		synth := NewElevenLabsSynthesizer(ElevenLabsConfig{
			BaseURL: server.URL,
			Voices:  map[dialogue.SpeakerID]VoiceSettings{"rick": {VoiceID: "v"}},
		}, nil)

		// Act
		_, err := synth.Synthesize(context.Background(), "hi", "rick")

		// Assert
		var se *SynthesisError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, dialogue.SpeakerID("rick"), se.Voice)
		var status *StatusError
		require.True(t, errors.As(err, &status))
		assert.Equal(t, http.StatusUnauthorized, status.StatusCode)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("should reject unknown voices and empty text without calling out", func(t *testing.T) {
		// Arrange
		synth := NewElevenLabsSynthesizer(ElevenLabsConfig{BaseURL: "http://127.0.0.1:1"}, nil)

		// Act
		_, errVoice := synth.Synthesize(context.Background(), "hi", "jerry")
		_, errText := synth.Synthesize(context.Background(), "  ", "jerry")

		// Assert
		assert.ErrorIs(t, errVoice, ErrUnsupportedVoice)
		assert.ErrorIs(t, errText, ErrUnsupportedText)
	})

	t.Run("should fail on undecodable audio", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "audio/wav")
			_, _ = w.Write([]byte("not audio"))
		}))
		defer server.Close()
		synth := NewElevenLabsSynthesizer(ElevenLabsConfig{
			BaseURL: server.URL,
			Voices:  map[dialogue.SpeakerID]VoiceSettings{"rick": {VoiceID: "v"}},
		}, nil)

		// Act
		_, err := synth.Synthesize(context.Background(), "hi", "rick")

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to measure speech")
	})
}

func TestElevenLabsSynthesizer_ListVoices(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/voices", r.URL.Path)
		_, _ = w.Write([]byte(`{"voices":[{"voice_id":"abc","name":"Rick Clone","category":"cloned"}]}`))
	}))
	defer server.Close()
	synth := NewElevenLabsSynthesizer(ElevenLabsConfig{BaseURL: server.URL, APIKey: "k"}, nil)

	// Act
	voices, err := synth.ListVoices(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []VoiceInfo{{ID: "abc", Name: "Rick Clone", Category: "cloned"}}, voices)
}

func TestSpeechSynthesizer_Synthesize(t *testing.T) {
	t.Run("should call the OpenAI compatible endpoint", func(t *testing.T) {
		// Arrange
		payload := wavPayload(t, 500)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/audio/speech", r.URL.Path)
			assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
			var req speechRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "am_michael", req.Voice)
			assert.Equal(t, "wav", req.ResponseFormat)
			_, _ = w.Write(payload)
		}))
		defer server.Close()
		synth := NewSpeechSynthesizer(SpeechConfig{
			BaseURL: server.URL,
			APIKey:  "token",
			Voices:  map[dialogue.SpeakerID]string{"morty": "am_michael"},
		}, nil)

		// Act
		speech, err := synth.Synthesize(context.Background(), "oh geez", "morty")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 500*time.Millisecond, speech.Duration)
	})

	t.Run("should require a base url", func(t *testing.T) {
		// Arrange
		synth := NewSpeechSynthesizer(SpeechConfig{Voices: map[dialogue.SpeakerID]string{"morty": "x"}}, nil)

		// Act
		_, err := synth.Synthesize(context.Background(), "hi", "morty")

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "base url")
	})
}

type scriptedSynth struct {
	durations map[string]time.Duration
	failures  map[string]error
	calls     atomic.Int32
}

func (s *scriptedSynth) Synthesize(_ context.Context, text string, voice dialogue.SpeakerID) (*Speech, error) {
	s.calls.Add(1)
	if err, ok := s.failures[text]; ok {
		return nil, &SynthesisError{Voice: voice, Text: text, Err: err}
	}
	return &Speech{Duration: s.durations[text], Format: audio.FormatWAV}, nil
}

type emptySynth struct{}

func (emptySynth) Synthesize(context.Context, string, dialogue.SpeakerID) (*Speech, error) {
	return nil, nil
}

func TestSynthesizeLines(t *testing.T) {
	lines := []dialogue.Line{
		{Speaker: "rick", Text: "one"},
		{Speaker: "morty", Text: "two"},
		{Speaker: "rick", Text: "three"},
		{Speaker: "morty", Text: "four"},
	}
	durations := map[string]time.Duration{"one": time.Second, "two": 2 * time.Second, "three": 3 * time.Second, "four": 4 * time.Second}

	for _, workers := range []int{1, 4} {
		t.Run("should keep line order", func(t *testing.T) {
			// Arrange
			s := &scriptedSynth{durations: durations}

			// Act
			speeches, err := SynthesizeLines(context.Background(), s, lines, workers)

			// Assert
			require.NoError(t, err)
			require.Len(t, speeches, 4)
			for i, line := range lines {
				assert.Equal(t, durations[line.Text], speeches[i].Duration)
			}
		})

		t.Run("should return the earliest failing line unchanged", func(t *testing.T) {
			// Arrange
			first := errors.New("voice offline")
			s := &scriptedSynth{durations: durations, failures: map[string]error{
				"two":  first,
				"four": errors.New("later failure"),
			}}

			// Act
			speeches, err := SynthesizeLines(context.Background(), s, lines, workers)

			// Assert
			assert.Nil(t, speeches)
			var se *SynthesisError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "two", se.Text)
			assert.ErrorIs(t, err, first)
		})
	}

	for _, workers := range []int{1, 4} {
		t.Run("should reject a synthesizer that returns no speech", func(t *testing.T) {
			// Arrange
			s := emptySynth{}

			// Act
			speeches, err := SynthesizeLines(context.Background(), s, []dialogue.Line{{Speaker: "rick", Text: "hi"}}, workers)

			// Assert
			assert.Nil(t, speeches)
			var se *SynthesisError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, dialogue.SpeakerID("rick"), se.Voice)
			assert.Contains(t, err.Error(), "synthesizer returned no speech")
		})
	}

	t.Run("should stop at the first failure when sequential", func(t *testing.T) {
		// Arrange
		s := &scriptedSynth{durations: durations, failures: map[string]error{"one": errors.New("down")}}

		// Act
		_, err := SynthesizeLines(context.Background(), s, lines, 1)

		// Assert
		require.Error(t, err)
		assert.Equal(t, int32(1), s.calls.Load())
	})
}

func TestPostWithRetry(t *testing.T) {
	t.Run("should retry server errors with backoff until success", func(t *testing.T) {
		// Arrange
		payload := wavPayload(t, 500)
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "audio/wav")
			_, _ = w.Write(payload)
		}))
		defer server.Close()

		synth := NewSpeechSynthesizer(SpeechConfig{
			BaseURL: server.URL,
			Voices:  map[dialogue.SpeakerID]string{"rick": "am_adam"},
			Retry:   Retry{MaxAttempts: 3, BaseBackoff: time.Millisecond},
		}, nil)

		// Act
		speech, err := synth.Synthesize(context.Background(), "again", "rick")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
		assert.Equal(t, 500*time.Millisecond, speech.Duration)
	})

	t.Run("should not retry client errors", func(t *testing.T) {
		// Arrange
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		synth := NewSpeechSynthesizer(SpeechConfig{
			BaseURL: server.URL,
			Voices:  map[dialogue.SpeakerID]string{"rick": "am_adam"},
			Retry:   Retry{MaxAttempts: 5, BaseBackoff: time.Millisecond},
		}, nil)

		// Act
		_, err := synth.Synthesize(context.Background(), "denied", "rick")

		// Assert
		var status *StatusError
		require.True(t, errors.As(err, &status))
		assert.Equal(t, http.StatusUnauthorized, status.StatusCode)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("should classify retryable failures", func(t *testing.T) {
		assert.True(t, retryable(&StatusError{StatusCode: http.StatusTooManyRequests}))
		assert.True(t, retryable(&StatusError{StatusCode: http.StatusBadGateway}))
		assert.False(t, retryable(&StatusError{StatusCode: http.StatusBadRequest}))
		assert.False(t, retryable(context.Canceled))
		assert.True(t, retryable(errors.New("connection reset")))
	})
}
