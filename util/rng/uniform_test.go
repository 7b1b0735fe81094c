package rng

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat32(t *testing.T) {
	assert.Equal(t, float32(0), Float32(0))
	assert.Equal(t, float32(0.5), Float32(1<<31))
	assert.Equal(t, math.Nextafter32(1, 0), Float32(math.MaxUint32))
	assert.Less(t, Float32(math.MaxUint32-64), float32(1))

	p := NewPhilox(0, 0, 0)
	for i := 0; i < 10000; i++ {
		f := Float32(p.Next())
		assert.GreaterOrEqual(t, f, float32(0))
		assert.Less(t, f, float32(1))
	}
}

func TestFloat64(t *testing.T) {
	assert.Equal(t, float64(0), Float64(0))
	assert.Equal(t, 0.5, Float64(1<<63))
	assert.Less(t, Float64(math.MaxUint64), 1.0)
}
