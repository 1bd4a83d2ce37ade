// Package credential holds the on-ledger credential object model and the
// codec for its descriptive metadata.
package credential

import (
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// ErrDecode indicates a credential's URI field could not be decoded into
// metadata. Callers degrade the single item to a nil metadata rather than
// failing a whole listing.
var ErrDecode = errors.New("metadata decode error")

// ErrInvalidMetadata indicates metadata that fails shape validation.
var ErrInvalidMetadata = errors.New("invalid metadata")

const (
	MinRate = 0
	MaxRate = 5
)

// Metadata is the descriptive metadata embedded in a credential's URI field.
// Immutable once embedded in a transaction.
type Metadata struct {
	Name       string   `json:"name" validate:"required"`
	Type       string   `json:"type" validate:"required"`
	Location   *string  `json:"location,omitempty"`
	ExpireDate *string  `json:"expireDate,omitempty"`
	Rate       *float64 `json:"rate,omitempty"`
}

// wireMetadata is the canonical on-ledger shape. Field order matters: the
// serialized key order is fixed for wire compatibility, and absent optional
// fields serialize as null rather than being omitted. The dash-named
// expire-date key is preserved from the original wire format.
type wireMetadata struct {
	Name       string   `json:"name"`
	ExpireDate *string  `json:"expire-date"`
	Type       string   `json:"type"`
	Location   *string  `json:"location"`
	Rate       *float64 `json:"rate"`
}

// Validate checks the metadata shape: name and type are required, and rate,
// when present, must be within [0, 5].
func (m Metadata) Validate() error {
	if m.Name == "" {
		return errors.Wrap(ErrInvalidMetadata, "name is required")
	}
	if m.Type == "" {
		return errors.Wrap(ErrInvalidMetadata, "type is required")
	}
	if m.Rate != nil && (*m.Rate < MinRate || *m.Rate > MaxRate) {
		return errors.Wrapf(ErrInvalidMetadata, "rate must be between %d and %d, got %v", MinRate, MaxRate, *m.Rate)
	}
	return nil
}

// EncodeMetadata serializes metadata to its on-ledger representation:
// canonical JSON, UTF-8 encoded, uppercase hex.
func EncodeMetadata(m Metadata) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	wire := wireMetadata{
		Name:       m.Name,
		ExpireDate: m.ExpireDate,
		Type:       m.Type,
		Location:   m.Location,
		Rate:       m.Rate,
	}
	bytes, err := json.Marshal(wire)
	if err != nil {
		return "", errors.Wrap(err, "marshalling metadata")
	}
	return strings.ToUpper(hex.EncodeToString(bytes)), nil
}

// DecodeMetadata parses an on-ledger URI value back into metadata. Malformed
// hex, invalid UTF-8, and invalid JSON all yield ErrDecode; decode failures
// never propagate past the caller boundary.
func DecodeMetadata(uri string) (*Metadata, error) {
	raw, err := hex.DecodeString(uri)
	if err != nil {
		return nil, errors.Wrap(ErrDecode, "uri is not valid hex")
	}
	if !utf8.Valid(raw) {
		return nil, errors.Wrap(ErrDecode, "uri is not valid utf-8")
	}
	var wire wireMetadata
	if err = json.Unmarshal(raw, &wire); err != nil {
		return nil, errors.Wrap(ErrDecode, "uri is not valid json")
	}
	return &Metadata{
		Name:       wire.Name,
		Type:       wire.Type,
		Location:   wire.Location,
		ExpireDate: wire.ExpireDate,
		Rate:       wire.Rate,
	}, nil
}
