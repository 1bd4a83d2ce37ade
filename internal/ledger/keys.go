package ledger

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // mandated by the XRPL account ID derivation
)

// ed25519 family seeds are encoded with a three byte prefix before the
// 16 bytes of entropy. secp256k1 seeds are not supported; the service's
// system account is expected to use an ed25519 key.
var ed25519SeedPrefix = []byte{0x01, 0xE1, 0x4B}

const seedEntropyLength = 16

// DecodeSeed decodes an ed25519 family seed (sEd...) into its entropy.
func DecodeSeed(seed string) ([]byte, error) {
	decoded, err := base58.DecodeAlphabet(seed, alphabet)
	if err != nil {
		return nil, errors.Wrap(ErrValidation, "seed is not valid base58")
	}
	if len(decoded) != len(ed25519SeedPrefix)+seedEntropyLength+checksumLength {
		return nil, errors.Wrap(ErrValidation, "seed has unexpected length")
	}
	for i, b := range ed25519SeedPrefix {
		if decoded[i] != b {
			return nil, errors.Wrap(ErrValidation, "seed is not an ed25519 family seed")
		}
	}
	payload := decoded[:len(ed25519SeedPrefix)+seedEntropyLength]
	checksum := decoded[len(payload):]
	expected := chainhash.DoubleHashB(payload)[:checksumLength]
	for i := range checksum {
		if checksum[i] != expected[i] {
			return nil, errors.Wrap(ErrValidation, "seed failed checksum")
		}
	}
	return payload[len(ed25519SeedPrefix):], nil
}

// EncodeSeed encodes 16 bytes of entropy as an ed25519 family seed.
func EncodeSeed(entropy []byte) (string, error) {
	if len(entropy) != seedEntropyLength {
		return "", errors.Wrapf(ErrValidation, "seed entropy must be %d bytes, got %d", seedEntropyLength, len(entropy))
	}
	payload := append(append([]byte{}, ed25519SeedPrefix...), entropy...)
	checksum := chainhash.DoubleHashB(payload)[:checksumLength]
	return base58.EncodeAlphabet(append(payload, checksum...), alphabet), nil
}

// DeriveKeypair derives the ed25519 keypair for a family seed. The raw
// private key is the SHA-512 half of the seed entropy.
func DeriveKeypair(seed string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	entropy, err := DecodeSeed(seed)
	if err != nil {
		return nil, nil, err
	}
	digest := sha512.Sum512(entropy)
	private := ed25519.NewKeyFromSeed(digest[:ed25519.SeedSize])
	public, ok := private.Public().(ed25519.PublicKey)
	if !ok {
		return nil, nil, errors.New("unexpected public key type")
	}
	return private, public, nil
}

// AddressFromPublicKey computes the classic address for an ed25519 public
// key: RIPEMD160(SHA256(0xED || key)) base58check encoded.
func AddressFromPublicKey(public ed25519.PublicKey) (string, error) {
	prefixed := append([]byte{0xED}, public...)
	sha := sha256.Sum256(prefixed)
	ripe := ripemd160.New()
	if _, err := ripe.Write(sha[:]); err != nil {
		return "", errors.Wrap(err, "hashing public key")
	}
	return EncodeAddress(ripe.Sum(nil))
}

// AddressFromSeed is a convenience for deriving the classic address the
// system issuer endpoint reports.
func AddressFromSeed(seed string) (string, error) {
	_, public, err := DeriveKeypair(seed)
	if err != nil {
		return "", err
	}
	return AddressFromPublicKey(public)
}
