package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_Validate(t *testing.T) {
	base := func() Plan {
		plan, _ := NewCompositor(DefaultOptions()).Compose([]Pair{
			pair("rick", "a", time.Second),
			pair("morty", "b", 2*time.Second),
		})
		return plan
	}

	t.Run("should detect a gap in voice audio", func(t *testing.T) {
		// Arrange
		plan := base()
		for i := range plan.Elements {
			if plan.Elements[i].Track == TrackVoiceAudio && plan.Elements[i].LineIndex == 1 {
				plan.Elements[i].Start += time.Millisecond
			}
		}

		// Act
		err := plan.Validate()

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "voice element 1")
	})

	t.Run("should detect a background that does not match the total", func(t *testing.T) {
		// Arrange
		plan := base()
		for i := range plan.Elements {
			if plan.Elements[i].Track == TrackBackground {
				plan.Elements[i].Duration += time.Second
			}
		}

		// Act
		err := plan.Validate()

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "background")
	})

	t.Run("should detect overlapping overlays for one speaker", func(t *testing.T) {
		// Arrange
		plan := Plan{Total: 0, Elements: []Element{
			{Track: TrackOverlay, Speaker: "rick", Start: 0, Duration: 2 * time.Second},
			{Track: TrackOverlay, Speaker: "rick", Start: time.Second, Duration: time.Second},
		}}

		// Act
		err := plan.Validate()

		// Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "overlap")
	})
}

func TestCoalesceOverlays(t *testing.T) {
	t.Run("should merge touching same-speaker overlays and keep visible timing", func(t *testing.T) {
		// Arrange
		plan, err := NewCompositor(DefaultOptions()).Compose([]Pair{
			pair("rick", "one", time.Second),
			pair("rick", "two", 1500*time.Millisecond),
			pair("morty", "three", time.Second),
			pair("rick", "four", time.Second),
		})
		require.NoError(t, err)

		// Act
		merged := CoalesceOverlays(plan)

		// Assert
		overlays := merged.ByTrack(TrackOverlay)
		require.Len(t, overlays, 3)
		assert.Equal(t, time.Duration(0), overlays[0].Start)
		assert.Equal(t, 2500*time.Millisecond, overlays[0].Duration)
		assert.Equal(t, plan.ByTrack(TrackVoiceAudio), merged.ByTrack(TrackVoiceAudio))
		assert.Equal(t, plan.Total, merged.Total)
		assert.NoError(t, merged.Validate())
		assert.Len(t, plan.ByTrack(TrackOverlay), 4)
	})
}
