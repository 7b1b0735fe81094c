package rng

// Philox4x32-10 counter-based generator.
// https://www.thesalmons.org/john/random123/papers/random123sc11.pdf
//
// An engine is addressed by (seed, subsequence, offset). The seed is the key,
// the subsequence occupies the upper 64 bits of the 128-bit counter and the
// offset, counted in 128-bit blocks, the lower 64. Two engines sharing a seed
// but not a subsequence never walk over the same counter values unless one of
// them is advanced by 2^64 blocks or more.

const DefaultPhiloxSeed uint64 = 67280421310721

const (
	philoxW0 uint32 = 0x9E3779B9 // key schedule (Weyl) bumps
	philoxW1 uint32 = 0xBB67AE85
	philoxM0 uint32 = 0xD2511F53 // round multipliers
	philoxM1 uint32 = 0xCD9E8D57

	philoxRounds = 10
)

// cacheState tracks how much of the last computed block Next has not handed
// out yet. The zero value means a new block has to be computed.
type cacheState uint8

const (
	needsBlock cacheState = iota
	hasRemaining1
	hasRemaining2
	hasRemaining3
)

// remaining returns how many cached words are left to hand out.
func (s cacheState) remaining() int {
	return int(s)
}

type Philox struct {
	counter counter128
	key     [2]uint32

	output [4]uint32
	state  cacheState
}

func NewPhilox(seed, subsequence, offset uint64) *Philox {
	p := &Philox{}
	p.Reset(seed, subsequence, offset)
	return p
}

// Reset repositions the engine as if it had just been built with NewPhilox.
func (p *Philox) Reset(seed, subsequence, offset uint64) {
	p.key = [2]uint32{uint32(seed), uint32(seed >> 32)}
	p.counter = philoxStart(subsequence, offset)
	p.output = [4]uint32{}
	p.state = needsBlock
}

// Next returns the next 32-bit word, computing a new block every fourth call.
func (p *Philox) Next() uint32 {
	if p.state == needsBlock {
		p.output = philoxBlock(p.counter, p.key)
		p.counter.incr()
		p.state = hasRemaining3
		return p.output[0]
	}

	ret := p.output[4-p.state.remaining()]
	p.state--
	return ret
}

// NextBlock computes the block at the current counter and moves on to the
// next one. The word cache used by Next is left alone.
func (p *Philox) NextBlock() [4]uint32 {
	out := philoxBlock(p.counter, p.key)
	p.counter.incr()
	return out
}

// Advance skips n blocks (4n words). Words already cached for Next are still
// handed out before the new position takes effect.
func (p *Philox) Advance(n uint64) {
	p.counter.add(n)
}

// CacheState reports whether Next will compute a fresh block on its next call
// and, if not, how many cached words are left.
func (p *Philox) CacheState() (needsNewBlock bool, remaining int) {
	return p.state == needsBlock, p.state.remaining()
}

func (p *Philox) Counter() Uint128 {
	return p.counter.uint128()
}

func (p *Philox) Key() [2]uint32 {
	return p.key
}

func mulHiLo32(a, b uint32) (hi, lo uint32) {
	product := uint64(a) * uint64(b)
	return uint32(product >> 32), uint32(product)
}

func philoxRound(ctr counter128, key [2]uint32) counter128 {
	hi0, lo0 := mulHiLo32(philoxM0, ctr[0])
	hi1, lo1 := mulHiLo32(philoxM1, ctr[2])

	return counter128{
		hi1 ^ ctr[1] ^ key[0],
		lo1,
		hi0 ^ ctr[3] ^ key[1],
		lo0,
	}
}

func philoxBlock(ctr counter128, key [2]uint32) [4]uint32 {
	ctr = philoxRound(ctr, key)
	for i := 1; i < philoxRounds; i++ {
		key[0] += philoxW0
		key[1] += philoxW1
		ctr = philoxRound(ctr, key)
	}

	return ctr
}
