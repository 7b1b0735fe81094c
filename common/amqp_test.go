package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type message struct {
	Engine string
	Words  uint64
	Sums   []uint32
}

func TestGobRoundTrip(t *testing.T) {
	in := message{Engine: "philox", Words: 1 << 20, Sums: []uint32{1, 2, 3}}

	body, err := EncodeGob(in)
	require.NoError(t, err)

	var out message
	require.NoError(t, DecodeGob(body, &out))
	require.Equal(t, in, out)

	require.Error(t, DecodeGob([]byte("not gob"), &out))
}
