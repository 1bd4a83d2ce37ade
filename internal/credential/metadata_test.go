package credential

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string    { return &s }
func ratePtr(r float64) *float64 { return &r }

func TestMetadataRoundTrip(t *testing.T) {
	cases := []Metadata{
		{Name: "Resident", Type: "64656661756C74"},
		{Name: "Gym Membership", Type: "6D656D62657273686970", Location: strPtr("Oslo")},
		{Name: "License", Type: "6C6963656E7365", ExpireDate: strPtr("2030-01-01"), Rate: ratePtr(4.5)},
		{Name: "Rated", Type: "72", Rate: ratePtr(0)},
		{Name: "Rated", Type: "72", Rate: ratePtr(5)},
	}
	for _, m := range cases {
		encoded, err := EncodeMetadata(m)
		require.NoError(t, err)

		decoded, err := DecodeMetadata(encoded)
		require.NoError(t, err)
		if diff := cmp.Diff(m, *decoded); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestEncodeMetadataCanonicalForm(t *testing.T) {
	encoded, err := EncodeMetadata(Metadata{Name: "Resident", Type: "64656661756C74"})
	require.NoError(t, err)

	// uppercase hex
	assert.Equal(t, strings.ToUpper(encoded), encoded)

	raw, err := hex.DecodeString(encoded)
	require.NoError(t, err)
	// fixed key order, absent optionals serialized as null
	assert.Equal(t, `{"name":"Resident","expire-date":null,"type":"64656661756C74","location":null,"rate":null}`, string(raw))
}

func TestEncodeMetadataValidates(t *testing.T) {
	_, err := EncodeMetadata(Metadata{Type: "74"})
	assert.ErrorIs(t, err, ErrInvalidMetadata)

	_, err = EncodeMetadata(Metadata{Name: "n"})
	assert.ErrorIs(t, err, ErrInvalidMetadata)

	_, err = EncodeMetadata(Metadata{Name: "n", Type: "t", Rate: ratePtr(-0.01)})
	assert.ErrorIs(t, err, ErrInvalidMetadata)

	_, err = EncodeMetadata(Metadata{Name: "n", Type: "t", Rate: ratePtr(5.01)})
	assert.ErrorIs(t, err, ErrInvalidMetadata)
}

func TestDecodeMetadataMalformedInput(t *testing.T) {
	cases := map[string]string{
		"odd length hex":   "ABC",
		"non hex":          "ZZZZ",
		"invalid utf8":     "FFFE",
		"not json":         hex.EncodeToString([]byte("hello")),
		"truncated json":   hex.EncodeToString([]byte(`{"name":"x"`)),
		"json wrong shape": hex.EncodeToString([]byte(`[1,2,3]`)),
	}
	for name, uri := range cases {
		t.Run(name, func(t *testing.T) {
			decoded, err := DecodeMetadata(uri)
			assert.Nil(t, decoded)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestNewViewDegradesCorruptMetadata(t *testing.T) {
	good := Descriptor{
		CredentialType: "64656661756C74",
		Issuer:         "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
		Subject:        "rN7n7otQDd6FczFgLdSqtcsAUxDkw6fzRH",
		Flags:          LSFAccepted,
	}
	uri, err := EncodeMetadata(Metadata{Name: "Resident", Type: "64656661756C74"})
	require.NoError(t, err)
	good.URI = uri

	view := NewView(good)
	require.NotNil(t, view.Metadata)
	assert.Equal(t, "Resident", view.Metadata.Name)

	corrupt := good
	corrupt.URI = "ZZZZ"
	view = NewView(corrupt)
	assert.Nil(t, view.Metadata)
	assert.Equal(t, "ZZZZ", view.URI)
}

func TestDescriptorAccepted(t *testing.T) {
	assert.True(t, Descriptor{Flags: LSFAccepted}.Accepted())
	assert.True(t, Descriptor{Flags: LSFAccepted | 0x1}.Accepted())
	assert.False(t, Descriptor{Flags: 0}.Accepted())
	assert.False(t, Descriptor{Flags: 0x1}.Accepted())
}
