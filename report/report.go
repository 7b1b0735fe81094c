package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/xor-shift/streamrng/bench"
	"github.com/xor-shift/streamrng/util"
)

var columns = []string{
	"Engine",
	"Mode",
	"Words",
	"Threads",
	"Trials",
	"Seed",
	"Best (s)",
	"Words/s",
	"Checksums",
}

// WriteCSV writes one row per result, preceded by column titles if asked to.
func WriteCSV(w io.Writer, results []bench.Result, titles bool) error {
	csvWriter := csv.NewWriter(w)

	if titles {
		if err := csvWriter.Write(columns); err != nil {
			return errors.Wrap(err, "writing column titles")
		}
	}

	for _, r := range results {
		row := []string{
			r.Engine,
			string(r.Mode),
			fmt.Sprintf("%d", r.Words),
			fmt.Sprintf("%d", r.Threads),
			fmt.Sprintf("%d", r.Trials),
			fmt.Sprintf("%d", r.Seed),
			fmt.Sprintf("%f", r.Best.Seconds()),
			fmt.Sprintf("%.0f", r.WordsPerSecond()),
			util.ArrayToString(r.Checksums),
		}

		if err := csvWriter.Write(row); err != nil {
			return errors.Wrapf(err, "writing row for %s", r.Engine)
		}
	}

	csvWriter.Flush()
	return errors.Wrap(csvWriter.Error(), "flushing csv")
}

type jsonResult struct {
	Engine         string   `json:"engine"`
	Mode           string   `json:"mode"`
	Words          uint64   `json:"words"`
	Threads        int      `json:"threads"`
	Trials         int      `json:"trials"`
	Seed           uint64   `json:"seed"`
	BestSeconds    float64  `json:"best_s"`
	WordsPerSecond float64  `json:"words_per_s"`
	Checksums      []uint32 `json:"checksums"`
}

func WriteJSON(w io.Writer, results []bench.Result) error {
	out := make([]jsonResult, 0, len(results))

	for _, r := range results {
		out = append(out, jsonResult{
			Engine:         r.Engine,
			Mode:           string(r.Mode),
			Words:          r.Words,
			Threads:        r.Threads,
			Trials:         r.Trials,
			Seed:           r.Seed,
			BestSeconds:    r.Best.Seconds(),
			WordsPerSecond: r.WordsPerSecond(),
			Checksums:      r.Checksums,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(out), "encoding results")
}
