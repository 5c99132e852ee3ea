package segmenter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialoguereel/internal/audio"
	"dialoguereel/internal/dialogue"
	"dialoguereel/internal/transcript"
)

const testRate = 1000

func testTrack(seconds int) *audio.Track {
	samples := make([][2]float64, seconds*testRate)
	for i := range samples {
		v := float64(i%testRate) / testRate
		samples[i] = [2]float64{v, -v}
	}
	return audio.NewTrack(audio.Clip{
		Format:  beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2},
		Samples: samples,
	})
}

func record(speaker string, start, end time.Duration) transcript.UtteranceRecord {
	return transcript.UtteranceRecord{
		Speaker:     dialogue.SpeakerID(speaker),
		Text:        speaker + " says something",
		SourceStart: start,
		SourceEnd:   end,
	}
}

func TestSegmenter_Segment(t *testing.T) {
	t.Run("should reject a 12 second utterance with default bounds", func(t *testing.T) {
		// Arrange
		seg := NewSegmenter()
		records := []transcript.UtteranceRecord{record("rick", 0, 12*time.Second)}

		// Act
		result, err := seg.Segment(context.Background(), testTrack(20), records, "S01E01")

		// Assert
		require.NoError(t, err)
		assert.Empty(t, result.Units)
		assert.Equal(t, 1, result.Rejected)
	})

	t.Run("should keep accepted units in record order with exact sample counts", func(t *testing.T) {
		// Arrange
		seg := NewSegmenterWithLogger(DefaultMinDuration, DefaultMaxDuration, 4, nil)
		records := []transcript.UtteranceRecord{
			record("rick", 15*time.Second, 17500*time.Millisecond),
			record("morty", 17500*time.Millisecond, 20*time.Second),
			record("rick", 1*time.Second, 1500*time.Millisecond),
			record("morty", 2*time.Second, 5*time.Second),
		}

		// Act
		result, err := seg.Segment(context.Background(), testTrack(30), records, "S01E01")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, result.Rejected)
		require.Len(t, result.Units, 3)
		assert.Equal(t, dialogue.SpeakerID("rick"), result.Units[0].Speaker)
		assert.Equal(t, 2500, result.Units[0].Clip.Len())
		assert.Equal(t, 2500*time.Millisecond, result.Units[0].Duration())
		assert.Equal(t, dialogue.SpeakerID("morty"), result.Units[1].Speaker)
		assert.Equal(t, 3*time.Second, result.Units[2].Duration())
		assert.Equal(t, "S01E01", result.Units[2].Episode)
		assert.Empty(t, result.Units[0].ID)
	})

	t.Run("should clamp the end to the track and count records past the end", func(t *testing.T) {
		// Arrange
		seg := NewSegmenter()
		records := []transcript.UtteranceRecord{
			record("rick", 8*time.Second, 12*time.Second),
			record("morty", 20*time.Second, 22*time.Second),
		}

		// Act
		result, err := seg.Segment(context.Background(), testTrack(10), records, "")

		// Assert
		require.NoError(t, err)
		require.Len(t, result.Units, 1)
		assert.Equal(t, 2*time.Second, result.Units[0].Duration())
		assert.Equal(t, 1, result.Rejected)
	})

	t.Run("should produce identical samples on repeated runs", func(t *testing.T) {
		// Arrange
		seg := NewSegmenterWithLogger(DefaultMinDuration, DefaultMaxDuration, 8, nil)
		track := testTrack(10)
		records := []transcript.UtteranceRecord{
			record("rick", 1234567*time.Microsecond, 3456789*time.Microsecond),
			record("morty", 4000500*time.Microsecond, 6000500*time.Microsecond),
		}

		// Act
		first, err1 := seg.Segment(context.Background(), track, records, "")
		second, err2 := seg.Segment(context.Background(), track, records, "")

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, first.Units, second.Units)
		assert.Equal(t, 2222, first.Units[0].Clip.Len())
	})

	t.Run("should abort on an invalid record", func(t *testing.T) {
		// Arrange
		seg := NewSegmenter()
		records := []transcript.UtteranceRecord{
			record("rick", 1*time.Second, 3*time.Second),
			record("morty", 5*time.Second, 4*time.Second),
		}

		// Act
		result, err := seg.Segment(context.Background(), testTrack(10), records, "")

		// Assert
		require.Error(t, err)
		assert.True(t, errors.Is(err, dialogue.ErrValidation))
		assert.Contains(t, err.Error(), "utterance record 2")
		assert.Empty(t, result.Units)
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		// Arrange
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Act
		_, err := NewSegmenter().Segment(ctx, testTrack(5), []transcript.UtteranceRecord{record("rick", 0, 2*time.Second)}, "")

		// Assert
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("should refuse a nil track", func(t *testing.T) {
		// Act
		_, err := NewSegmenter().Segment(context.Background(), nil, nil, "")

		// Assert
		assert.Error(t, err)
	})
}
