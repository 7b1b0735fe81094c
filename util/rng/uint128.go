package rng

import "fmt"

// Uint128 is an unsigned 128-bit integer made of two 64-bit halves.
type Uint128 struct {
	Hi, Lo uint64
}

func (u Uint128) Add64(n uint64) Uint128 {
	lo := u.Lo + n
	hi := u.Hi
	if lo < n {
		hi++
	}
	return Uint128{Hi: hi, Lo: lo}
}

func (u Uint128) Add(v Uint128) Uint128 {
	lo := u.Lo + v.Lo
	hi := u.Hi + v.Hi
	if lo < v.Lo {
		hi++
	}
	return Uint128{Hi: hi, Lo: lo}
}

// Cmp returns -1, 0 or 1 as u is below, equal to or above v.
func (u Uint128) Cmp(v Uint128) int {
	switch {
	case u.Hi < v.Hi:
		return -1
	case u.Hi > v.Hi:
		return 1
	case u.Lo < v.Lo:
		return -1
	case u.Lo > v.Lo:
		return 1
	}
	return 0
}

func (u Uint128) String() string {
	return fmt.Sprintf("%016x%016x", u.Hi, u.Lo)
}

// counter128 is the Philox counter, word 0 being the least significant.
type counter128 [4]uint32

func (c counter128) uint128() Uint128 {
	return Uint128{
		Hi: uint64(c[3])<<32 | uint64(c[2]),
		Lo: uint64(c[1])<<32 | uint64(c[0]),
	}
}

func counterFromUint128(u Uint128) counter128 {
	return counter128{uint32(u.Lo), uint32(u.Lo >> 32), uint32(u.Hi), uint32(u.Hi >> 32)}
}

// philoxStart is the counter of block offset within a subsequence.
func philoxStart(subsequence, offset uint64) counter128 {
	return counterFromUint128(Uint128{Hi: subsequence, Lo: offset})
}

// incr adds one block, carrying through all four words.
func (c *counter128) incr() {
	c[0]++
	if c[0] != 0 {
		return
	}
	c[1]++
	if c[1] != 0 {
		return
	}
	c[2]++
	if c[2] != 0 {
		return
	}
	c[3]++
}

// add adds n blocks. Overflow is detected by comparing each sum against the
// operand that was added; a zero result alone says nothing.
func (c *counter128) add(n uint64) {
	nlo := uint32(n)
	nhi := uint32(n >> 32)

	c[0] += nlo
	if c[0] < nlo {
		nhi++
		// nhi was 0xffffffff and the carry wrapped it: word 1 is unchanged
		// but 2^64 has been added, so carry straight into word 2.
		if nhi == 0 {
			c.carryHigh()
			return
		}
	}

	c[1] += nhi
	if c[1] < nhi {
		c.carryHigh()
	}
}

func (c *counter128) carryHigh() {
	c[2]++
	if c[2] != 0 {
		return
	}
	c[3]++
}
