package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/template"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/xor-shift/streamrng/bench"
	"github.com/xor-shift/streamrng/common"
	"github.com/xor-shift/streamrng/logger"
	"github.com/xor-shift/streamrng/report"
	"github.com/xor-shift/streamrng/store"
	"github.com/xor-shift/streamrng/util/rng"
)

type runContext struct {
	ctx context.Context
	cfg common.Config
	out io.Writer
}

type BenchCmd struct {
	Engines []string `name:"engine" short:"e" default:"philox,philox_batch,pcg,xoshiro256ss" help:"Engines to benchmark (comma separated)"`
	Mode    string   `name:"mode" short:"m" enum:"global,local,both" default:"both" help:"Shared instance behind a lock, one instance per worker, or both"`
	Words   uint64   `name:"words" short:"n" default:"134217728" help:"32-bit words drawn per trial, over all workers"`
	Threads []int    `name:"threads" short:"t" default:"1" help:"Worker counts to run (comma separated)"`
	Trials  int      `name:"trials" default:"3" help:"Trials per configuration, the fastest is reported"`
	Seed    uint64   `name:"seed" default:"0" help:"Seed shared by all engines"`

	Format string `name:"format" short:"f" enum:"csv,json" default:"csv" help:"Report format"`
	Out    string `name:"out" short:"o" default:"-" help:"File to write the report to, - for stdout (templated, e.g. bench_{{.Unix}}.csv)"`
	Titles bool   `name:"titles" negatable:"" default:"true" help:"(applicable only to CSV outputs) whether to include column titles"`

	Save    bool `name:"save" help:"Store results in MySQL (DB_* settings)"`
	Publish bool `name:"publish" help:"Publish results to the AMQP exchange (AMQP_* settings)"`
}

func (c *BenchCmd) modes() []bench.Mode {
	switch c.Mode {
	case "global":
		return []bench.Mode{bench.ModeGlobal}
	case "local":
		return []bench.Mode{bench.ModeLocal}
	}
	return []bench.Mode{bench.ModeGlobal, bench.ModeLocal}
}

func (c *BenchCmd) Run(rc *runContext) error {
	var results []bench.Result

	for _, engine := range c.Engines {
		for _, mode := range c.modes() {
			for _, threads := range c.Threads {
				logger.Info("engine", engine, "mode", string(mode), "threads", threads, "benchmarking")

				res, err := bench.Run(rc.ctx, bench.Config{
					Engine:  engine,
					Mode:    mode,
					Words:   c.Words,
					Threads: threads,
					Trials:  c.Trials,
					Seed:    c.Seed,
				})
				if err != nil {
					return err
				}

				logger.Info("engine", engine, "mode", string(mode), "threads", threads,
					"best", res.Best, "words_per_s", res.WordsPerSecond(), "done")
				results = append(results, res)
			}
		}
	}

	if err := c.writeReport(rc, results); err != nil {
		return err
	}

	if c.Save {
		if err := saveResults(rc, results); err != nil {
			return err
		}
	}

	if c.Publish {
		if err := publishResults(rc, results); err != nil {
			return err
		}
	}

	return nil
}

func (c *BenchCmd) writeReport(rc *runContext, results []bench.Result) error {
	w := rc.out

	if c.Out != "-" {
		outFileNameTemplate, err := template.New("").Parse(c.Out)
		if err != nil {
			return errors.Wrap(err, "creating the output filename template")
		}

		var outFileNameBuf bytes.Buffer
		if err = outFileNameTemplate.Execute(&outFileNameBuf, struct{ Unix int64 }{time.Now().Unix()}); err != nil {
			return errors.Wrap(err, "executing the output filename template")
		}

		outFile, err := os.Create(outFileNameBuf.String())
		if err != nil {
			return errors.Wrapf(err, "creating the output file %q", outFileNameBuf.String())
		}
		defer outFile.Close()
		w = outFile
	}

	if c.Format == "json" {
		return report.WriteJSON(w, results)
	}
	return report.WriteCSV(w, results, c.Titles)
}

func saveResults(rc *runContext, results []bench.Result) error {
	if !rc.cfg.HasDB() {
		return errors.New("--save needs DB_ADDRESS and DB_NAME")
	}

	s, err := store.Connect(rc.ctx, rc.cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if err = s.SaveRuns(rc.ctx, results); err != nil {
		return err
	}

	logger.Info("runs", len(results), "saved results")
	return nil
}

func publishResults(rc *runContext, results []bench.Result) error {
	if !rc.cfg.HasAMQP() {
		return errors.New("--publish needs AMQP_URL")
	}

	publisher, err := common.NewAMQPPublisher(rc.cfg.AMQPURL, rc.cfg.AMQPExchange)
	if err != nil {
		return err
	}
	defer publisher.Close()

	for _, res := range results {
		if err = publisher.Publish(res); err != nil {
			return err
		}
	}

	logger.Info("runs", len(results), "exchange", rc.cfg.AMQPExchange, "published results")
	return nil
}

type CheckCmd struct {
	Iterations  int    `name:"iterations" short:"i" default:"1000" help:"Blocks to compare"`
	Seed        uint64 `name:"seed" default:"0"`
	Subsequence uint64 `name:"subsequence" default:"0"`
	Offset      uint64 `name:"offset" default:"0"`
}

func (c *CheckCmd) Run(rc *runContext) error {
	batches := map[string]func() rng.BatchEngine{
		"wide":   func() rng.BatchEngine { return rng.NewPhiloxWide(c.Seed, c.Subsequence, c.Offset) },
		"scalar": func() rng.BatchEngine { return rng.NewPhiloxScalarBatch(c.Seed, c.Subsequence, c.Offset) },
	}

	logger.Info("wide_lanes", rng.HasWideLanes(), "checking batch engines against the scalar engine")

	failed := false
	for _, name := range []string{"wide", "scalar"} {
		scalar := rng.NewPhilox(c.Seed, c.Subsequence, c.Offset)
		if err := rng.CompareBlocks(scalar, batches[name](), c.Iterations); err != nil {
			logger.Error(err, "impl", name, "blocks differ")
			failed = true
		}

		scalar = rng.NewPhilox(c.Seed, c.Subsequence, c.Offset)
		if err := rng.CompareWords(scalar, rng.NewBatchReader(batches[name]()), 4*c.Iterations); err != nil {
			logger.Error(err, "impl", name, "words differ")
			failed = true
		}
	}

	if failed {
		return errors.New("batch engines diverge from the scalar engine")
	}

	fmt.Fprintln(rc.out, "OK")
	return nil
}

type DumpCmd struct {
	Engine      string `name:"engine" short:"e" enum:"philox,pcg,xoshiro256ss" default:"philox"`
	Seed        uint64 `name:"seed" default:"0" help:"Philox key, PCG initial state or xoshiro seed"`
	Subsequence uint64 `name:"subsequence" default:"0" help:"Philox subsequence or PCG stream"`
	Offset      uint64 `name:"offset" default:"0" help:"Outputs to jump over first (Philox: blocks)"`
	Count       int    `name:"count" short:"c" default:"16"`
	Float       bool   `name:"float" help:"Print uniforms on [0, 1) instead of raw hex"`

	Raw      bool   `name:"raw" help:"Write --words little-endian words to stdout, for piping into test batteries"`
	RawWords uint64 `name:"words" default:"1048576" help:"(applicable only to --raw) words to write"`
	LZ4      bool   `name:"lz4" help:"(applicable only to --raw) wrap the output in an lz4 frame"`
}

// halves splits 64-bit outputs into two 32-bit words, low half first.
type halves struct {
	src  rng.Source64
	hi   uint32
	have bool
}

func (h *halves) Next() uint32 {
	if h.have {
		h.have = false
		return h.hi
	}

	v := h.src.Next()
	h.hi, h.have = uint32(v>>32), true
	return uint32(v)
}

func (c *DumpCmd) Run(rc *runContext) error {
	if c.Engine == "xoshiro256ss" {
		x := rng.NewXoshiro256SS(c.Seed)
		x.Skip(c.Offset)
		if c.Raw {
			return report.WriteRaw(rc.out, &halves{src: x}, c.RawWords, c.LZ4)
		}
		for i := 0; i < c.Count; i++ {
			if c.Float {
				fmt.Fprintf(rc.out, "%.17g\n", rng.Float64(x.Next()))
			} else {
				fmt.Fprintf(rc.out, "%016x\n", x.Next())
			}
		}
		return nil
	}

	var src interface {
		rng.Source32
		rng.Advancer
	}
	if c.Engine == "pcg" {
		src = rng.NewPCG32(c.Seed, c.Subsequence)
	} else {
		src = rng.NewPhilox(c.Seed, c.Subsequence, 0)
	}
	src.Advance(c.Offset)

	if c.Raw {
		return report.WriteRaw(rc.out, src, c.RawWords, c.LZ4)
	}

	for i := 0; i < c.Count; i++ {
		if c.Float {
			fmt.Fprintf(rc.out, "%.9g\n", rng.Float32(src.Next()))
		} else {
			fmt.Fprintf(rc.out, "%08x\n", src.Next())
		}
	}
	return nil
}

var cli struct {
	Env []string `name:"env" default:".env" help:"dotenv files to load"`

	Bench BenchCmd `cmd:"" help:"Time the engines, single and multi threaded"`
	Check CheckCmd `cmd:"" help:"Check the batch engines against the scalar Philox engine"`
	Dump  DumpCmd  `cmd:"" help:"Print raw engine output"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("rngbench"),
		kong.Description("Benchmarks and cross-checks for the streamrng engines."),
		kong.UsageOnError())

	cfg, err := common.LoadConfig(cli.Env...)
	kctx.FatalIfErrorf(err)
	kctx.FatalIfErrorf(logger.Configure(cfg.LogFormat, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	kctx.FatalIfErrorf(kctx.Run(&runContext{ctx: ctx, cfg: cfg, out: os.Stdout}))
}
