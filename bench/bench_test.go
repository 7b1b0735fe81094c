package bench

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xor-shift/streamrng/util/rng"
)

func sumWords(src rng.Source32, n int) (y uint32) {
	for i := 0; i < n; i++ {
		y += src.Next()
	}
	return
}

func TestRunAllEngines(t *testing.T) {
	for _, name := range Engines() {
		for _, mode := range []Mode{ModeGlobal, ModeLocal} {
			res, err := Run(context.Background(), Config{
				Engine:  name,
				Mode:    mode,
				Words:   1 << 12,
				Threads: 3,
				Trials:  2,
				Seed:    1,
			})
			require.NoError(t, err, "%s/%s", name, mode)

			assert.Len(t, res.Durations, 2)
			assert.Len(t, res.Checksums, 3)
			assert.LessOrEqual(t, res.Best, res.Durations[0])
			assert.LessOrEqual(t, res.Best, res.Durations[1])
		}
	}
}

func TestLocalWorkersUseTheirOwnSubsequence(t *testing.T) {
	const threads = 3
	const share = 64

	res, err := Run(context.Background(), Config{
		Engine:  "philox",
		Mode:    ModeLocal,
		Words:   threads * share,
		Threads: threads,
		Trials:  2,
		Seed:    5,
	})
	require.NoError(t, err)

	for w := 0; w < threads; w++ {
		assert.Equal(t, sumWords(rng.NewPhilox(5, uint64(w), 0), share), res.Checksums[w], "worker %d", w)
	}
}

func TestPhiloxVariantsAgree(t *testing.T) {
	cfg := Config{
		Mode:    ModeLocal,
		Words:   4 * 4 * rng.BatchLanes * 10,
		Threads: 4,
		Trials:  1,
		Seed:    rng.DefaultPhiloxSeed,
	}

	checksums := map[string][]uint32{}
	for _, name := range []string{"philox", "philox_word", "philox_batch"} {
		cfg.Engine = name
		res, err := Run(context.Background(), cfg)
		require.NoError(t, err, name)
		checksums[name] = res.Checksums
	}

	assert.Equal(t, checksums["philox"], checksums["philox_word"])
	assert.Equal(t, checksums["philox"], checksums["philox_batch"])
}

func TestGlobalWorkersShareOneStream(t *testing.T) {
	const threads = 4
	const share = 128

	res, err := Run(context.Background(), Config{
		Engine:  "pcg",
		Mode:    ModeGlobal,
		Words:   threads * share,
		Threads: threads,
		Trials:  1,
		Seed:    42,
	})
	require.NoError(t, err)

	var total uint32
	for _, sum := range res.Checksums {
		total += sum
	}
	assert.Equal(t, sumWords(rng.NewPCG32(42, 0), threads*share), total)
}

func TestRunValidates(t *testing.T) {
	good := Config{Engine: "philox", Mode: ModeLocal, Words: 64, Threads: 1, Trials: 1}

	bad := []func(c *Config){
		func(c *Config) { c.Engine = "mt19937" },
		func(c *Config) { c.Mode = "shared" },
		func(c *Config) { c.Threads = 0 },
		func(c *Config) { c.Trials = 0 },
		func(c *Config) { c.Words = 0 },
		func(c *Config) { c.Words, c.Threads = 3, 4 },
		func(c *Config) { c.Engine, c.Words, c.Threads = "philox_batch", 63, 2 },
	}

	for i, mutate := range bad {
		cfg := good
		mutate(&cfg)
		_, err := Run(context.Background(), cfg)
		assert.Error(t, err, "case %d", i)
	}
}

func TestWordsAreRoundedToWholeCalls(t *testing.T) {
	cases := []struct {
		engine  string
		words   uint64
		threads int
		drawn   uint64
	}{
		{"philox_batch", 40, 1, 32},
		{"philox_batch", 100, 3, 96},
		{"philox_batch", 90, 3, 0},
		{"philox", 4, 1, 4},
		{"philox", 30, 3, 24},
		{"xoshiro256ss", 7, 2, 4},
		{"pcg", 10, 3, 9},
	}

	for _, c := range cases {
		cfg := Config{Engine: c.engine, Mode: ModeLocal, Words: c.words, Threads: c.threads, Trials: 1, Seed: 9}
		res, err := Run(context.Background(), cfg)
		if c.drawn == 0 {
			assert.Error(t, err, "%s %d/%d", c.engine, c.words, c.threads)
			continue
		}
		require.NoError(t, err, "%s %d/%d", c.engine, c.words, c.threads)
		assert.Equal(t, c.drawn, res.Words, "%s %d/%d", c.engine, c.words, c.threads)
	}
}

func TestRoundedShareMatchesChecksums(t *testing.T) {
	// 40 words over one worker is one batch call of 32 words
	res, err := Run(context.Background(), Config{Engine: "philox_batch", Mode: ModeLocal, Words: 40, Threads: 1, Trials: 1})
	require.NoError(t, err)

	assert.Equal(t, uint64(32), res.Words)
	assert.Equal(t, sumWords(rng.NewPhilox(0, 0, 0), 32), res.Checksums[0])
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Config{Engine: "philox", Mode: ModeLocal, Words: 64, Threads: 1, Trials: 3})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWordsPerSecond(t *testing.T) {
	assert.Equal(t, float64(2000), Result{Words: 1000, Best: 500 * time.Millisecond}.WordsPerSecond())
	assert.Zero(t, Result{Words: 1000}.WordsPerSecond())
}
