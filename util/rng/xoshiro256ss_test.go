package rng

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitmix64(t *testing.T) {
	var state uint64
	require.Equal(t, uint64(0xe220a8397b1dcdaf), Splitmix64(&state))
	require.Equal(t, uint64(0x6e789e6aa1b965f4), Splitmix64(&state))
	inc := uint64(splitmix64Increment)
	require.Equal(t, inc+inc, state)
}

func TestXoshiro256SSKnownAnswers(t *testing.T) {
	x := NewXoshiro256SS(0)
	require.Equal(t, [4]uint64{0xe220a8397b1dcdaf, 0x6e789e6aa1b965f4, 0x06c45d188009454f, 0xf88bb8a8724c81ec}, x.State)

	for _, exp := range []uint64{0x99ec5f36cb75f2b4, 0xbf6e1f784956452a, 0x1a5f849d4933e6e0} {
		require.Equal(t, exp, x.Next())
	}
}

func TestXoshiro256SSDeterministic(t *testing.T) {
	for _, seed := range []uint64{0, 1, 42, 1<<64 - 1} {
		a := NewXoshiro256SS(seed)
		b := NewXoshiro256SS(seed)

		for i := 0; i < 1000; i++ {
			require.Equal(t, a.Next(), b.Next(), "seed %d draw %d", seed, i)
		}
	}
}

func TestXoshiro256SSSkip(t *testing.T) {
	a := NewXoshiro256SS(9)
	b := NewXoshiro256SS(9)

	a.Skip(100)
	for i := 0; i < 100; i++ {
		_ = b.Next()
	}
	require.Equal(t, b.State, a.State)
	require.Equal(t, b.String(), a.String())
}

func BenchmarkXoshiro256SSNext(b *testing.B) {
	x := NewXoshiro256SS(0)
	for i := 0; i < b.N; i++ {
		_ = x.Next()
	}
}
