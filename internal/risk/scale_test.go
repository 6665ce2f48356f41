package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDisplayScale(t *testing.T) {
	want := map[int]int{1: 1, 2: 1, 3: 2, 4: 3, 5: 3}
	for r, d := range want {
		assert.Equal(t, d, ToDisplayScale(r), "risk %d", r)
	}
}

func TestToDisplayScaleIsMonotonic(t *testing.T) {
	prev := ToDisplayScale(MinLevel)
	for r := MinLevel + 1; r <= MaxLevel; r++ {
		cur := ToDisplayScale(r)
		assert.GreaterOrEqual(t, cur, prev, "risk %d", r)
		prev = cur
	}
}

func TestColorAndLabel(t *testing.T) {
	assert.Equal(t, "green", Color(DisplayLow))
	assert.Equal(t, "orange", Color(DisplayMedium))
	assert.Equal(t, "red", Color(DisplayHigh))

	assert.Equal(t, "low", Label(DisplayLow))
	assert.Equal(t, "medium", Label(DisplayMedium))
	assert.Equal(t, "high", Label(DisplayHigh))
}
