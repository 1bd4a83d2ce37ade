// Package encryption provides authenticated encryption for secrets the
// service persists, such as the system account seed.
package encryption

import (
	"context"
	"crypto/rand"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Encrypter is the interface for any encrypter implementation.
type Encrypter interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
}

// Decrypter is the interface for any decrypter implementation.
type Decrypter interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// XChaCha20Poly1305Encrypter encrypts with a key derived from a service
// password via argon2id. The salt is fixed per service instance so the same
// password always yields the same key.
type XChaCha20Poly1305Encrypter struct {
	key []byte
}

var _ Encrypter = (*XChaCha20Poly1305Encrypter)(nil)
var _ Decrypter = (*XChaCha20Poly1305Encrypter)(nil)

// NewXChaCha20Poly1305EncrypterWithPassword derives a symmetric key from the
// given password and salt.
func NewXChaCha20Poly1305EncrypterWithPassword(password, salt []byte) *XChaCha20Poly1305Encrypter {
	key := argon2.IDKey(password, salt, 1, 64*1024, 4, chacha20poly1305.KeySize)
	return &XChaCha20Poly1305Encrypter{key: key}
}

// NewXChaCha20Poly1305EncrypterWithKey uses the given key directly.
func NewXChaCha20Poly1305EncrypterWithKey(key []byte) (*XChaCha20Poly1305Encrypter, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.Errorf("key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &XChaCha20Poly1305Encrypter{key: key}, nil
}

func (e *XChaCha20Poly1305Encrypter) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return nil, errors.Wrap(err, "creating cipher")
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err = rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "generating nonce")
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (e *XChaCha20Poly1305Encrypter) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return nil, errors.Wrap(err, "creating cipher")
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.Wrap(err, "decrypting")
	}
	return plaintext, nil
}
