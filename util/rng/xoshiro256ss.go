package rng

import (
	"fmt"

	"github.com/xor-shift/streamrng/util"
)

const splitmix64Increment = 0x9e3779b97f4a7c15

// Splitmix64 advances state and returns its next output.
// https://prng.di.unimi.it/splitmix64.c
func Splitmix64(state *uint64) uint64 {
	*state += splitmix64Increment
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Xoshiro256SSState is xoshiro256**. It has no arbitrary jump-ahead: streams
// for parallel workers come from distinct seeds.
type Xoshiro256SSState struct {
	State [4]uint64
}

// NewXoshiro256SS fills the state with four consecutive splitmix64 outputs,
// which keeps it away from the all-zero state whatever the seed.
func NewXoshiro256SS(seed uint64) *Xoshiro256SSState {
	state := &Xoshiro256SSState{}
	state.State[0] = Splitmix64(&seed)
	state.State[1] = Splitmix64(&seed)
	state.State[2] = Splitmix64(&seed)
	state.State[3] = Splitmix64(&seed)

	return state
}

func (state *Xoshiro256SSState) Next() uint64 {
	return xoshiro256SSPermuteState(state.State[:])
}

// Skip draws and discards n outputs.
func (state *Xoshiro256SSState) Skip(n uint64) {
	for i := uint64(0); i < n; i++ {
		_ = xoshiro256SSPermuteState(state.State[:])
	}
}

func (state *Xoshiro256SSState) String() string {
	s := ""

	for i := 0; i < 4; i++ {
		s += fmt.Sprintf("%016X", state.State[i])
	}

	return s
}

// permutes a [4]uint64 state according to xoshiro256**
// https://prng.di.unimi.it/xoshiro256starstar.c
func xoshiro256SSPermuteState(s []uint64) (result uint64) {
	result = util.RotL(s[1]*5, 7) * 9

	t := s[1] << 17

	s[2] ^= s[0]
	s[3] ^= s[1]
	s[1] ^= s[2]
	s[0] ^= s[3]

	s[2] ^= t

	s[3] = util.RotL(s[3], 45)

	return
}
