package bench

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/xor-shift/streamrng/logger"
)

type Mode string

const (
	// ModeGlobal shares one engine between all workers. A worker holds the
	// lock for its whole share of the draws.
	ModeGlobal Mode = "global"
	// ModeLocal gives every worker its own engine on its own stream.
	ModeLocal Mode = "local"
)

type Config struct {
	Engine  string
	Mode    Mode
	Words   uint64 // total 32-bit words per trial, split evenly between workers
	Threads int
	Trials  int
	Seed    uint64
}

type Result struct {
	Engine  string
	Mode    Mode
	Words   uint64 // words drawn per trial: cfg.Words rounded down to whole engine calls per worker
	Threads int
	Trials  int
	Seed    uint64

	StartedAt time.Time
	Best      time.Duration
	Durations []time.Duration

	// Checksums holds the sum of the words each worker drew in the last trial.
	Checksums []uint32
}

// WordsPerSecond is the throughput of the best trial.
func (r Result) WordsPerSecond() float64 {
	if r.Best <= 0 {
		return 0
	}
	return float64(r.Words) / r.Best.Seconds()
}

func (cfg Config) validate() (engine, error) {
	e, ok := engines[cfg.Engine]
	if !ok {
		return e, errors.Errorf("unknown engine %q", cfg.Engine)
	}

	switch {
	case cfg.Mode != ModeGlobal && cfg.Mode != ModeLocal:
		return e, errors.Errorf("unknown mode %q", cfg.Mode)
	case cfg.Threads < 1:
		return e, errors.Errorf("need at least one thread, got %d", cfg.Threads)
	case cfg.Trials < 1:
		return e, errors.Errorf("need at least one trial, got %d", cfg.Trials)
	case cfg.Words < uint64(cfg.Threads)*e.wordsPerCall:
		return e, errors.Errorf("%d words cannot be split between %d workers drawing %d at a time",
			cfg.Words, cfg.Threads, e.wordsPerCall)
	}

	return e, nil
}

// Run times cfg.Trials rounds of cfg.Threads goroutines drawing their share of
// cfg.Words and keeps the fastest round. ctx is checked between trials.
func Run(ctx context.Context, cfg Config) (Result, error) {
	e, err := cfg.validate()
	if err != nil {
		return Result{}, err
	}

	// every worker draws whole engine calls
	share := cfg.Words / uint64(cfg.Threads)
	share -= share % e.wordsPerCall

	res := Result{
		Engine:    cfg.Engine,
		Mode:      cfg.Mode,
		Words:     share * uint64(cfg.Threads),
		Threads:   cfg.Threads,
		Trials:    cfg.Trials,
		Seed:      cfg.Seed,
		StartedAt: time.Now().UTC(),
		Checksums: make([]uint32, cfg.Threads),
	}

	var shared drawer
	var sharedMu sync.Mutex
	if cfg.Mode == ModeGlobal {
		shared = e.build(cfg.Seed, 0)
	}

	for trial := 0; trial < cfg.Trials; trial++ {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrapf(err, "trial %d of %s", trial, cfg.Engine)
		}

		// engines are built before the clock starts
		workers := make([]drawer, cfg.Threads)
		for i := range workers {
			if cfg.Mode == ModeLocal {
				workers[i] = e.build(cfg.Seed, i)
				continue
			}
			workers[i] = func(n uint64) uint32 {
				sharedMu.Lock()
				defer sharedMu.Unlock()
				return shared(n)
			}
		}

		var wg sync.WaitGroup
		wg.Add(cfg.Threads)

		start := time.Now()
		for i, draw := range workers {
			go func(i int, draw drawer) {
				defer wg.Done()
				res.Checksums[i] = draw(share)
			}(i, draw)
		}
		wg.Wait()
		elapsed := time.Since(start)

		res.Durations = append(res.Durations, elapsed)
		if trial == 0 || elapsed < res.Best {
			res.Best = elapsed
		}

		logger.Debug("engine", cfg.Engine, "mode", string(cfg.Mode), "trial", trial, elapsed, "trial finished")
	}

	return res, nil
}
