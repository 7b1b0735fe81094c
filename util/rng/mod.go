// Package rng holds the random engines. None of them synchronize on their
// own; a generator shared between goroutines needs a lock around it.
package rng

// Source32 is anything producing a stream of 32-bit words.
type Source32 interface {
	Next() uint32
}

// Source64 is anything producing a stream of 64-bit words.
type Source64 interface {
	Next() uint64
}

// Advancer repositions a generator as if n outputs had been drawn.
// For Philox n counts 128-bit blocks, for PCG32 it counts 32-bit words.
type Advancer interface {
	Advance(n uint64)
}
