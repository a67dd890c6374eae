package clock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceFt(t *testing.T) {
	// One degree of latitude on the sphere the formula assumes.
	degLatFt := earthRadiusMeters * math.Pi / 180 * feetPerMeter

	tests := []struct {
		name   string
		offset float64 // feet of latitude offset
	}{
		{name: "at the fence", offset: 150},
		{name: "just inside", offset: 149},
		{name: "just outside", offset: 151},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := distanceFt(40.0, -75.0, 40.0+tc.offset/degLatFt, -75.0)
			assert.InDelta(t, tc.offset, got, 0.01)
		})
	}

	assert.Zero(t, distanceFt(40.0, -75.0, 40.0, -75.0))
}
