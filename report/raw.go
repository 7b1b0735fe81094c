package report

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/xor-shift/streamrng/util/rng"
)

// WriteRaw writes n words from src as little-endian bytes, the layout stdin
// readers of external test batteries expect. With compress set the stream is
// wrapped in an lz4 frame.
func WriteRaw(w io.Writer, src rng.Source32, n uint64, compress bool) error {
	var zw *lz4.Writer
	if compress {
		zw = lz4.NewWriter(w)
		w = zw
	}

	bw := bufio.NewWriterSize(w, 1<<16)

	var word [4]byte
	for i := uint64(0); i < n; i++ {
		binary.LittleEndian.PutUint32(word[:], src.Next())
		if _, err := bw.Write(word[:]); err != nil {
			return errors.Wrapf(err, "writing word %d", i)
		}
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing raw output")
	}

	if zw != nil {
		return errors.Wrap(zw.Close(), "closing the lz4 frame")
	}
	return nil
}
