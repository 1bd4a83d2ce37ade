// Package ledger contains primitives for the XRP Ledger: address and seed
// encoding, epoch conversion, and unsigned transaction construction.
package ledger

import (
	"regexp"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// ErrValidation indicates malformed caller input (bad address, missing
// required field). It is never retried; surface it straight to the caller.
var ErrValidation = errors.New("validation error")

// alphabet is the XRPL base58 dictionary, which differs from Bitcoin's.
var alphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

var addressRegex = regexp.MustCompile(`^r[a-zA-Z0-9]{24,34}$`)

const (
	accountIDLength   = 20
	checksumLength    = 4
	addressTypePrefix = 0x00
)

// IsValidAddress reports whether addr matches the classic address format
// accepted everywhere in the API. This is the same shape check upstream
// consumers apply; checksum verification happens only where an address is
// decoded to its account ID.
func IsValidAddress(addr string) bool {
	return addressRegex.MatchString(addr)
}

// DecodeAddress decodes a classic address into its 20-byte account ID.
func DecodeAddress(addr string) ([]byte, error) {
	decoded, err := base58.DecodeAlphabet(addr, alphabet)
	if err != nil {
		return nil, errors.Wrapf(ErrValidation, "address<%s> is not valid base58", addr)
	}
	if len(decoded) != 1+accountIDLength+checksumLength {
		return nil, errors.Wrapf(ErrValidation, "address<%s> has unexpected length %d", addr, len(decoded))
	}
	if decoded[0] != addressTypePrefix {
		return nil, errors.Wrapf(ErrValidation, "address<%s> has unexpected type prefix", addr)
	}
	payload := decoded[:1+accountIDLength]
	checksum := decoded[1+accountIDLength:]
	expected := chainhash.DoubleHashB(payload)[:checksumLength]
	for i := range checksum {
		if checksum[i] != expected[i] {
			return nil, errors.Wrapf(ErrValidation, "address<%s> failed checksum", addr)
		}
	}
	return payload[1:], nil
}

// EncodeAddress encodes a 20-byte account ID as a classic address.
func EncodeAddress(accountID []byte) (string, error) {
	if len(accountID) != accountIDLength {
		return "", errors.Wrapf(ErrValidation, "account ID must be %d bytes, got %d", accountIDLength, len(accountID))
	}
	payload := append([]byte{addressTypePrefix}, accountID...)
	checksum := chainhash.DoubleHashB(payload)[:checksumLength]
	return base58.EncodeAlphabet(append(payload, checksum...), alphabet), nil
}
