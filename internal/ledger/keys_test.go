package ledger

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Known vector from the reference keypair implementation.
const (
	knownSeed    = "sEdTM1uX8pu2do5XvTnutH6HsouMaM2"
	knownAddress = "rLUEXYuLiQptky37CqLcm9USQpPiz5rkpD"
)

func TestDeriveKeypairKnownVector(t *testing.T) {
	_, public, err := DeriveKeypair(knownSeed)
	require.NoError(t, err)

	address, err := AddressFromPublicKey(public)
	require.NoError(t, err)
	assert.Equal(t, knownAddress, address)

	address, err = AddressFromSeed(knownSeed)
	require.NoError(t, err)
	assert.Equal(t, knownAddress, address)
}

func TestSeedRoundTrip(t *testing.T) {
	entropy, err := DecodeSeed(knownSeed)
	require.NoError(t, err)
	require.Len(t, entropy, 16)

	encoded, err := EncodeSeed(entropy)
	require.NoError(t, err)
	assert.Equal(t, knownSeed, encoded)
}

func TestDecodeSeedRejectsInvalidInput(t *testing.T) {
	for _, seed := range []string{"", "garbage", "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"} {
		_, err := DecodeSeed(seed)
		assert.ErrorIs(t, err, ErrValidation, "seed: %q", seed)
	}
}

func TestEncodeSeedRejectsShortEntropy(t *testing.T) {
	entropy, err := hex.DecodeString("0102030405")
	require.NoError(t, err)
	_, err = EncodeSeed(entropy)
	assert.ErrorIs(t, err, ErrValidation)
}
