package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xor-shift/streamrng/common"
	"github.com/xor-shift/streamrng/util/rng"
)

func testContext(out *bytes.Buffer) *runContext {
	return &runContext{ctx: context.Background(), cfg: common.DefaultConfig(), out: out}
}

func TestHalves(t *testing.T) {
	h := &halves{src: rng.NewXoshiro256SS(0)}

	x := rng.NewXoshiro256SS(0)
	for i := 0; i < 10; i++ {
		v := x.Next()
		assert.Equal(t, uint32(v), h.Next())
		assert.Equal(t, uint32(v>>32), h.Next())
	}
}

func TestDumpPhilox(t *testing.T) {
	var buf bytes.Buffer
	cmd := DumpCmd{Engine: "philox", Count: 4}
	require.NoError(t, cmd.Run(testContext(&buf)))

	assert.Equal(t, []string{"6627e8d5", "e169c58d", "bc57ac4c", "9b00dbd8"}, strings.Fields(buf.String()))
}

func TestDumpPCG(t *testing.T) {
	var buf bytes.Buffer
	cmd := DumpCmd{Engine: "pcg", Seed: 42, Subsequence: 54, Offset: 2, Count: 2}
	require.NoError(t, cmd.Run(testContext(&buf)))

	assert.Equal(t, []string{"ba1d3330", "83d2f293"}, strings.Fields(buf.String()))
}

func TestDumpXoshiro(t *testing.T) {
	var buf bytes.Buffer
	cmd := DumpCmd{Engine: "xoshiro256ss", Offset: 1, Count: 2}
	require.NoError(t, cmd.Run(testContext(&buf)))

	assert.Equal(t, []string{"bf6e1f784956452a", "1a5f849d4933e6e0"}, strings.Fields(buf.String()))
}

func TestDumpRaw(t *testing.T) {
	var buf bytes.Buffer
	cmd := DumpCmd{Engine: "xoshiro256ss", Raw: true, RawWords: 3}
	require.NoError(t, cmd.Run(testContext(&buf)))

	raw := buf.Bytes()
	require.Len(t, raw, 12)
	assert.Equal(t, uint32(0xcb75f2b4), binary.LittleEndian.Uint32(raw[0:]))
	assert.Equal(t, uint32(0x99ec5f36), binary.LittleEndian.Uint32(raw[4:]))
	assert.Equal(t, uint32(0x4956452a), binary.LittleEndian.Uint32(raw[8:]))
}

func TestDumpFloat(t *testing.T) {
	var buf bytes.Buffer
	cmd := DumpCmd{Engine: "philox", Count: 64, Float: true}
	require.NoError(t, cmd.Run(testContext(&buf)))

	lines := strings.Fields(buf.String())
	require.Len(t, lines, 64)
	for _, l := range lines {
		f, err := strconv.ParseFloat(l, 32)
		require.NoError(t, err)
		assert.True(t, f >= 0 && f < 1, l)
	}
}

func TestCheck(t *testing.T) {
	var buf bytes.Buffer
	cmd := CheckCmd{Iterations: 100, Seed: rng.DefaultPhiloxSeed, Subsequence: 3, Offset: 1<<32 - 5}
	require.NoError(t, cmd.Run(testContext(&buf)))

	assert.Equal(t, "OK\n", buf.String())
}

func TestBenchToCSV(t *testing.T) {
	var buf bytes.Buffer
	cmd := BenchCmd{
		Engines: []string{"philox", "pcg"},
		Mode:    "both",
		Words:   4096,
		Threads: []int{1, 2},
		Trials:  1,
		Format:  "csv",
		Out:     "-",
		Titles:  true,
	}
	require.NoError(t, cmd.Run(testContext(&buf)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1+2*2*2)
	assert.True(t, strings.HasPrefix(lines[1], "philox,global,4096,1,"), lines[1])
}

func TestBenchSaveNeedsDB(t *testing.T) {
	var buf bytes.Buffer
	cmd := BenchCmd{Engines: []string{"pcg"}, Mode: "local", Words: 64, Threads: []int{1}, Trials: 1, Format: "json", Out: "-", Save: true}
	assert.Error(t, cmd.Run(testContext(&buf)))
}
