package rng

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// BatchLanes is the number of blocks a BatchEngine produces per call.
const BatchLanes = 8

// Lanes holds BatchLanes consecutive Philox blocks, transposed:
// Lanes[w][i] is word w of the i-th block.
type Lanes [4][BatchLanes]uint32

// Block returns the i-th block in the same layout Philox.NextBlock uses.
func (l *Lanes) Block(i int) [4]uint32 {
	return [4]uint32{l[0][i], l[1][i], l[2][i], l[3][i]}
}

// BatchEngine produces Philox blocks BatchLanes at a time. Every
// implementation must match BatchLanes sequential Philox.NextBlock calls on an
// engine built from the same (seed, subsequence, offset), word for word.
type BatchEngine interface {
	NextBlocks(out *Lanes)
	Advance(n uint64)
}

// HasWideLanes reports whether the CPU has the vector units PhiloxWide is
// laid out for.
func HasWideLanes() bool {
	switch runtime.GOARCH {
	case "amd64":
		return cpu.X86.HasAVX2
	case "arm64":
		return cpu.ARM64.HasASIMD
	}
	return false
}

// NewPhiloxBatch picks PhiloxWide where the CPU supports it and falls back to
// PhiloxScalarBatch otherwise.
func NewPhiloxBatch(seed, subsequence, offset uint64) BatchEngine {
	if HasWideLanes() {
		return NewPhiloxWide(seed, subsequence, offset)
	}
	return NewPhiloxScalarBatch(seed, subsequence, offset)
}

// PhiloxScalarBatch is the portable BatchEngine: it asks a scalar engine for
// BatchLanes blocks in a row.
type PhiloxScalarBatch struct {
	engine Philox
}

func NewPhiloxScalarBatch(seed, subsequence, offset uint64) *PhiloxScalarBatch {
	b := &PhiloxScalarBatch{}
	b.engine.Reset(seed, subsequence, offset)
	return b
}

func (b *PhiloxScalarBatch) NextBlocks(out *Lanes) {
	for i := 0; i < BatchLanes; i++ {
		block := b.engine.NextBlock()
		out[0][i] = block[0]
		out[1][i] = block[1]
		out[2][i] = block[2]
		out[3][i] = block[3]
	}
}

func (b *PhiloxScalarBatch) Advance(n uint64) {
	b.engine.Advance(n)
}

// PhiloxWide runs the ten Philox rounds over BatchLanes counters at once,
// keeping every counter word in its own lane array so each round is a
// straight loop over independent lanes.
type PhiloxWide struct {
	counter counter128
	key     [2]uint32
}

func NewPhiloxWide(seed, subsequence, offset uint64) *PhiloxWide {
	w := &PhiloxWide{
		key:     [2]uint32{uint32(seed), uint32(seed >> 32)},
		counter: philoxStart(subsequence, offset),
	}
	return w
}

func (w *PhiloxWide) Advance(n uint64) {
	w.counter.add(n)
}

func (w *PhiloxWide) NextBlocks(out *Lanes) {
	var x0, x1, x2, x3 [BatchLanes]uint32

	c := w.counter
	for i := 0; i < BatchLanes; i++ {
		x0[i], x1[i], x2[i], x3[i] = c[0], c[1], c[2], c[3]
		c.incr()
	}
	w.counter = c

	k0, k1 := w.key[0], w.key[1]
	for r := 0; r < philoxRounds; r++ {
		if r > 0 {
			k0 += philoxW0
			k1 += philoxW1
		}
		for i := 0; i < BatchLanes; i++ {
			p0 := uint64(philoxM0) * uint64(x0[i])
			p1 := uint64(philoxM1) * uint64(x2[i])
			x0[i], x1[i], x2[i], x3[i] =
				uint32(p1>>32)^x1[i]^k0,
				uint32(p1),
				uint32(p0>>32)^x3[i]^k1,
				uint32(p0)
		}
	}

	out[0], out[1], out[2], out[3] = x0, x1, x2, x3
}

// BatchReader turns a BatchEngine into a word stream ordered like Philox.Next:
// all four words of block 0, then block 1 and so on.
type BatchReader struct {
	engine BatchEngine
	lanes  Lanes
	pos    int // next word index in [0, 4*BatchLanes); the cache is empty at 4*BatchLanes
}

func NewBatchReader(engine BatchEngine) *BatchReader {
	return &BatchReader{engine: engine, pos: 4 * BatchLanes}
}

func (r *BatchReader) Next() uint32 {
	if r.pos == 4*BatchLanes {
		r.engine.NextBlocks(&r.lanes)
		r.pos = 0
	}

	block, word := r.pos/4, r.pos%4
	r.pos++
	return r.lanes[word][block]
}
