package rng

import "math"

const (
	pow2Neg32 = 1.0 / (1 << 32)
	pow2Neg53 = 1.0 / (1 << 53)
)

// Float32 maps a raw word onto [0, 1). Words close to 2^32 round up to 1.0 in
// single precision, those are pinned to the largest float32 below 1.
func Float32(x uint32) float32 {
	res := float32(x) * float32(pow2Neg32)
	if res == 1.0 {
		res = math.Nextafter32(1.0, 0.0)
	}
	return res
}

// Float64 maps the top 53 bits of x onto [0, 1).
func Float64(x uint64) float64 {
	return float64(x>>11) * pow2Neg53
}
