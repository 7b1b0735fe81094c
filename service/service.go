// Package service answers "give me the output at this address" requests for
// the engines in util/rng. It knows nothing about HTTP; query parameters come
// in as a string map.
package service

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/xor-shift/streamrng/util"
	"github.com/xor-shift/streamrng/util/rng"
)

// ErrBadRequest marks errors caused by the caller's parameters.
var ErrBadRequest = errors.New("bad request")

// MaxSkip bounds xoshiro skips, which cost one step per skipped output.
const MaxSkip = 1 << 24

type PhiloxRequest struct {
	Seed        uint64 `mapstructure:"seed"`
	Subsequence uint64 `mapstructure:"subsequence"`
	Offset      uint64 `mapstructure:"offset"`
	Blocks      int    `mapstructure:"blocks"`
	Batch       bool   `mapstructure:"batch"`
	Uniform     bool   `mapstructure:"uniform"`
}

type PhiloxResponse struct {
	Seed        uint64      `json:"seed"`
	Subsequence uint64      `json:"subsequence"`
	Offset      uint64      `json:"offset"`
	Next        string      `json:"next_counter"`
	Blocks      [][4]uint32 `json:"blocks"`
	Hex         []string    `json:"hex"`
	Uniform     []float32   `json:"uniform,omitempty"`
}

type PCGRequest struct {
	State    uint64 `mapstructure:"state"`
	Sequence uint64 `mapstructure:"sequence"`
	Advance  uint64 `mapstructure:"advance"`
	Words    int    `mapstructure:"words"`
	Uniform  bool   `mapstructure:"uniform"`
}

type PCGResponse struct {
	Increment uint64    `json:"increment"`
	Words     []uint32  `json:"words"`
	Uniform   []float32 `json:"uniform,omitempty"`
}

type XoshiroRequest struct {
	Seed    uint64 `mapstructure:"seed"`
	Skip    uint64 `mapstructure:"skip"`
	Words   int    `mapstructure:"words"`
	Uniform bool   `mapstructure:"uniform"`
}

type XoshiroResponse struct {
	State   string    `json:"state"`
	Words   []uint64  `json:"words"`
	Uniform []float64 `json:"uniform,omitempty"`
}

func DefaultPhiloxRequest() PhiloxRequest {
	return PhiloxRequest{Seed: rng.DefaultPhiloxSeed, Blocks: 1}
}

func DefaultPCGRequest() PCGRequest {
	return PCGRequest{State: rng.DefaultPCGState, Sequence: rng.DefaultPCGSequence, Words: 1}
}

func DefaultXoshiroRequest() XoshiroRequest {
	return XoshiroRequest{Words: 1}
}

// DecodeQuery fills out from query parameters. Numbers may be written in
// decimal or with a 0x prefix; unknown parameters are rejected.
func DecodeQuery(params map[string]string, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "creating query decoder")
	}

	if err = decoder.Decode(params); err != nil {
		return errors.Wrapf(ErrBadRequest, "%s", err)
	}

	return nil
}

type Service struct {
	maxBlocks int
}

func New(maxBlocks int) *Service {
	return &Service{maxBlocks: maxBlocks}
}

func (s *Service) checkCount(name string, n int) error {
	if n < 1 || n > s.maxBlocks {
		return errors.Wrapf(ErrBadRequest, "%s must be in [1, %d], got %d", name, s.maxBlocks, n)
	}
	return nil
}

func (s *Service) Philox(req PhiloxRequest) (PhiloxResponse, error) {
	if err := s.checkCount("blocks", req.Blocks); err != nil {
		return PhiloxResponse{}, err
	}

	start := rng.Uint128{Hi: req.Subsequence, Lo: req.Offset}
	next := start.Add(rng.Uint128{Lo: uint64(req.Blocks)})
	if next.Cmp(start) < 0 {
		return PhiloxResponse{}, errors.Wrapf(ErrBadRequest, "%d blocks from %s run past the end of the counter space", req.Blocks, start)
	}

	resp := PhiloxResponse{
		Seed:        req.Seed,
		Subsequence: req.Subsequence,
		Offset:      req.Offset,
		Blocks:      make([][4]uint32, 0, req.Blocks),
		Hex:         make([]string, 0, req.Blocks),
	}

	if req.Batch {
		batch := rng.NewPhiloxBatch(req.Seed, req.Subsequence, req.Offset)
		var lanes rng.Lanes
		for len(resp.Blocks) < req.Blocks {
			batch.NextBlocks(&lanes)
			for i := 0; i < rng.BatchLanes && len(resp.Blocks) < req.Blocks; i++ {
				resp.Blocks = append(resp.Blocks, lanes.Block(i))
			}
		}
	} else {
		p := rng.NewPhilox(req.Seed, req.Subsequence, req.Offset)
		for i := 0; i < req.Blocks; i++ {
			resp.Blocks = append(resp.Blocks, p.NextBlock())
		}
	}

	// the batch engine may have run past the last block returned, so the
	// next counter is computed rather than read back
	resp.Next = next.String()

	for _, block := range resp.Blocks {
		resp.Hex = append(resp.Hex, util.ArrayToString(block[:]))
		if req.Uniform {
			for _, w := range block {
				resp.Uniform = append(resp.Uniform, rng.Float32(w))
			}
		}
	}

	return resp, nil
}

func (s *Service) PCG(req PCGRequest) (PCGResponse, error) {
	if err := s.checkCount("words", req.Words); err != nil {
		return PCGResponse{}, err
	}

	p := rng.NewPCG32(req.State, req.Sequence)
	p.Advance(req.Advance)

	resp := PCGResponse{
		Increment: p.Increment(),
		Words:     make([]uint32, req.Words),
	}
	for i := range resp.Words {
		resp.Words[i] = p.Next()
		if req.Uniform {
			resp.Uniform = append(resp.Uniform, rng.Float32(resp.Words[i]))
		}
	}

	return resp, nil
}

func (s *Service) Xoshiro(req XoshiroRequest) (XoshiroResponse, error) {
	if err := s.checkCount("words", req.Words); err != nil {
		return XoshiroResponse{}, err
	}
	if req.Skip > MaxSkip {
		return XoshiroResponse{}, errors.Wrapf(ErrBadRequest, "skip must be at most %d, got %d", MaxSkip, req.Skip)
	}

	x := rng.NewXoshiro256SS(req.Seed)
	x.Skip(req.Skip)

	resp := XoshiroResponse{
		State: x.String(),
		Words: make([]uint64, req.Words),
	}
	for i := range resp.Words {
		resp.Words[i] = x.Next()
		if req.Uniform {
			resp.Uniform = append(resp.Uniform, rng.Float64(resp.Words[i]))
		}
	}

	return resp, nil
}
