package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
)

func TestApportion(t *testing.T) {
	t.Run("sums exactly to the total", func(t *testing.T) {
		for _, tc := range []struct{ total, n int }{
			{1800, 481}, {1800, 480}, {1800, 1}, {1800, 1800}, {100, 7}, {5, 3},
		} {
			counts := Apportion(tc.total, tc.n)
			sum := 0
			for _, c := range counts {
				sum += c
			}
			assert.Equal(t, tc.total, sum, "total=%d n=%d", tc.total, tc.n)
		}
	})

	t.Run("buckets differ by at most one frame", func(t *testing.T) {
		// The worked example: 60s x 30fps over 481 captures gives a mix of
		// 3- and 4-frame holds.
		counts := Apportion(1800, 481)
		for _, c := range counts {
			assert.GreaterOrEqual(t, c, 3)
			assert.LessOrEqual(t, c, 4)
		}
	})
}

func planSpec(crossfade int) model.VideoSpec {
	return model.VideoSpec{
		DurationSeconds: 60,
		FPS:             30,
		Width:           640,
		Height:          480,
		CrossfadeFrames: crossfade,
	}
}

func TestBuildFramePlan(t *testing.T) {
	t.Run("plan length equals duration x fps", func(t *testing.T) {
		plan, err := BuildFramePlan(481, planSpec(3))
		require.NoError(t, err)
		assert.Len(t, plan, 1800)
	})

	t.Run("zero captures is a coverage error", func(t *testing.T) {
		_, err := BuildFramePlan(0, planSpec(3))
		require.Error(t, err)
		assert.True(t, model.IsCategory(err, model.CategoryCoverage))
	})

	t.Run("single capture holds with no blending", func(t *testing.T) {
		plan, err := BuildFramePlan(1, planSpec(3))
		require.NoError(t, err)
		require.Len(t, plan, 1800)
		for _, ref := range plan {
			assert.Equal(t, 0, ref.Image)
			assert.Equal(t, -1, ref.BlendWith)
		}
	})

	t.Run("blend factors ramp toward the next image", func(t *testing.T) {
		plan, err := BuildFramePlan(10, planSpec(2))
		require.NoError(t, err)

		prevImage := 0
		var lastT float64
		for _, ref := range plan {
			if ref.BlendWith >= 0 {
				assert.Equal(t, ref.Image+1, ref.BlendWith)
				assert.Greater(t, ref.T, 0.0)
				assert.Less(t, ref.T, 1.0)
				if ref.Image == prevImage {
					assert.Greater(t, ref.T, lastT, "t must increase within a fade")
				}
				lastT = ref.T
			} else {
				lastT = 0
			}
			prevImage = ref.Image
		}
	})

	t.Run("last image never blends past the end", func(t *testing.T) {
		plan, err := BuildFramePlan(5, planSpec(3))
		require.NoError(t, err)
		for _, ref := range plan {
			assert.Less(t, ref.BlendWith, 5)
		}
		tail := plan[len(plan)-1]
		assert.Equal(t, 4, tail.Image)
		assert.Equal(t, -1, tail.BlendWith)
	})

	t.Run("images appear in order without skips", func(t *testing.T) {
		plan, err := BuildFramePlan(37, planSpec(3))
		require.NoError(t, err)
		prev := 0
		for _, ref := range plan {
			assert.GreaterOrEqual(t, ref.Image, prev)
			assert.LessOrEqual(t, ref.Image, prev+1)
			prev = ref.Image
		}
		assert.Equal(t, 36, prev)
	})
}
