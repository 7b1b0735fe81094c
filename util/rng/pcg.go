package rng

import "github.com/xor-shift/streamrng/util"

// PCG32 (XSH-RR) on a 64-bit LCG.
// https://www.pcg-random.org/

const (
	DefaultPCGState    uint64 = 0x853c49e6748fea9b
	DefaultPCGSequence uint64 = 0xda3e39cb94b95bdb

	// pcgMultiplier is the multiplier of the LCG step
	pcgMultiplier uint64 = 6364136223846793005
)

type PCG32 struct {
	state uint64
	inc   uint64
}

// NewPCG32 seeds the generator the standard way: zero state, one step, add
// initstate, one more step. initseq picks the stream; its top bit is lost.
func NewPCG32(initstate, initseq uint64) *PCG32 {
	p := &PCG32{
		state: 0,
		inc:   initseq<<1 | 1,
	}

	p.step()
	p.state += initstate
	p.step()

	return p
}

func (p *PCG32) step() uint32 {
	oldstate := p.state
	p.state = oldstate*pcgMultiplier + p.inc

	// output permutation is applied to the old state
	xorshifted := uint32(((oldstate >> 18) ^ oldstate) >> 27)
	rot := uint(oldstate >> 59)
	return util.RotR(xorshifted, rot)
}

func (p *PCG32) Next() uint32 {
	return p.step()
}

// Advance jumps delta outputs ahead in O(log delta) by composing the affine
// map state -> state*M + inc with itself through binary exponentiation.
func (p *PCG32) Advance(delta uint64) {
	p.state = advanceLCG64(p.state, delta, pcgMultiplier, p.inc)
}

// Retreat steps delta outputs back. The LCG has period 2^64, so going back
// delta is going forward 2^64 - delta.
func (p *PCG32) Retreat(delta uint64) {
	p.Advance(-delta)
}

func (p *PCG32) State() uint64 {
	return p.state
}

func (p *PCG32) Increment() uint64 {
	return p.inc
}

func advanceLCG64(state, delta, curMult, curPlus uint64) uint64 {
	accMult := uint64(1)
	accPlus := uint64(0)

	for delta > 0 {
		if delta&1 != 0 {
			accMult *= curMult
			accPlus = accPlus*curMult + curPlus
		}
		curPlus = (curMult + 1) * curPlus
		curMult *= curMult
		delta /= 2
	}

	return accMult*state + accPlus
}
