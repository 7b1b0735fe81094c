package bench

import (
	"math/rand"
	"sort"

	"github.com/xor-shift/streamrng/util/rng"
)

// drawer produces at least n words and returns their wrapping sum. The sum
// keeps the work observable to the compiler and doubles as a checksum.
type drawer func(n uint64) uint32

type engine struct {
	// wordsPerCall is how many 32-bit words one call of the engine yields.
	wordsPerCall uint64
	// build returns the generator owned by one worker. worker is the
	// worker index, used as the stream selector where the engine has one.
	build func(seed uint64, worker int) drawer
}

var engines = map[string]engine{
	"philox": {
		wordsPerCall: 4,
		build: func(seed uint64, worker int) drawer {
			p := rng.NewPhilox(seed, uint64(worker), 0)
			return func(n uint64) (y uint32) {
				for i := uint64(0); i < n; i += 4 {
					z := p.NextBlock()
					y += z[0]
					y += z[1]
					y += z[2]
					y += z[3]
				}
				return
			}
		},
	},
	"philox_word": {
		wordsPerCall: 1,
		build: func(seed uint64, worker int) drawer {
			p := rng.NewPhilox(seed, uint64(worker), 0)
			return func(n uint64) (y uint32) {
				for i := uint64(0); i < n; i++ {
					y += p.Next()
				}
				return
			}
		},
	},
	"philox_batch": {
		wordsPerCall: 4 * rng.BatchLanes,
		build: func(seed uint64, worker int) drawer {
			b := rng.NewPhiloxBatch(seed, uint64(worker), 0)
			var lanes rng.Lanes
			return func(n uint64) (y uint32) {
				for i := uint64(0); i < n; i += 4 * rng.BatchLanes {
					b.NextBlocks(&lanes)
					for w := range lanes {
						for _, v := range lanes[w] {
							y += v
						}
					}
				}
				return
			}
		},
	},
	"pcg": {
		wordsPerCall: 1,
		build: func(seed uint64, worker int) drawer {
			p := rng.NewPCG32(seed, uint64(worker))
			return func(n uint64) (y uint32) {
				for i := uint64(0); i < n; i++ {
					y += p.Next()
				}
				return
			}
		},
	},
	"xoshiro256ss": {
		wordsPerCall: 2,
		build: func(seed uint64, worker int) drawer {
			x := rng.NewXoshiro256SS(seed + uint64(worker))
			return func(n uint64) (y uint32) {
				for i := uint64(0); i < n; i += 2 {
					z := x.Next()
					y += uint32(z)
					y += uint32(z >> 32)
				}
				return
			}
		},
	},
	"mathrand": {
		wordsPerCall: 1,
		build: func(seed uint64, worker int) drawer {
			r := rand.New(rand.NewSource(int64(seed) + int64(worker)))
			return func(n uint64) (y uint32) {
				for i := uint64(0); i < n; i++ {
					y += r.Uint32()
				}
				return
			}
		},
	},
}

// Engines lists the engine names Run accepts.
func Engines() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
