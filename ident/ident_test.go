package ident

import (
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"prefixed", "0x00112233445566778899aabbccddeeff00112233", false},
		{"bare", "00112233445566778899aabbccddeeff00112233", false},
		{"empty is zero", "", false},
		{"short", "0x0011", true},
		{"not hex", "0xzz112233445566778899aabbccddeeff00112233", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIdentity)
				return
			}
			require.NoError(t, err)
			if tt.in == "" {
				assert.True(t, id.IsZero())
			} else {
				assert.Equal(t, "0x00112233445566778899aabbccddeeff00112233", id.Hex())
			}
		})
	}
}

func TestTextRoundTrip(t *testing.T) {
	id := MustParse("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	text, err := id.MarshalText()
	require.NoError(t, err)

	var back Identity
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, id, back)
}

func TestFromPubKey(t *testing.T) {
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)

	id := FromPubKey(priv.PubKey())
	assert.Equal(t, bsvhash.Hash160(priv.PubKey().Compressed()), id[:])
	assert.False(t, id.IsZero())
}

func TestFromLabel_Stable(t *testing.T) {
	assert.Equal(t, FromLabel("erc721-basic"), FromLabel("erc721-basic"))
	assert.NotEqual(t, FromLabel("erc721-basic"), FromLabel("erc721-lazy"))
}

func TestFromBytes_WrongSize(t *testing.T) {
	_, err := FromBytes([]byte{0x01})
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}
