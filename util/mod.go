package util

import (
	"fmt"
	"unsafe"
)

// RotL rotates x left by k bits. k must be below the bit width of T.
func RotL[T uint8 | uint16 | uint32 | uint64](x T, k uint) T {
	bitWidth := uint(unsafe.Sizeof(x) * 8)
	return (x << k) | (x >> ((-k) & (bitWidth - 1)))
}

// RotR rotates x right by k bits. k must be below the bit width of T.
func RotR[T uint8 | uint16 | uint32 | uint64](x T, k uint) T {
	bitWidth := uint(unsafe.Sizeof(x) * 8)
	return (x >> k) | (x << ((-k) & (bitWidth - 1)))
}

// ArrayToString renders every element as fixed width hex, most significant
// nibble first, with no separators.
func ArrayToString[T uint8 | uint16 | uint32 | uint64](arr []T) string {
	ret := ""

	for _, v := range arr {
		bitWidth := int(unsafe.Sizeof(v) * 8)
		ret += fmt.Sprintf("%0[1]*[2]x", bitWidth/4, v)
	}

	return ret
}
