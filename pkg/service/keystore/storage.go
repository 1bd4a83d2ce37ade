package keystore

import (
	"context"
	"crypto/rand"

	"github.com/goccy/go-json"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/ledgerworks/credential-service/internal/encryption"
	"github.com/ledgerworks/credential-service/internal/util"
	"github.com/ledgerworks/credential-service/pkg/storage"
)

const (
	namespace = "keystore"
	saltKey   = "seed-salt"
	seedKey   = "issuer-seed"

	saltSize = 16
)

type Storage struct {
	db        storage.ServiceStorage
	encrypter encryption.Encrypter
	decrypter encryption.Decrypter
}

func NewKeyStoreStorage(db storage.ServiceStorage, encrypter encryption.Encrypter, decrypter encryption.Decrypter) (*Storage, error) {
	if db == nil {
		return nil, errors.New("db reference is nil")
	}
	return &Storage{db: db, encrypter: encrypter, decrypter: decrypter}, nil
}

// GetOrCreateSalt returns the stored key-derivation salt, generating and
// persisting one on first boot.
func GetOrCreateSalt(ctx context.Context, db storage.ServiceStorage) ([]byte, error) {
	saltBytes, err := db.Read(ctx, namespace, saltKey)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "reading salt")
	}
	if len(saltBytes) != 0 {
		var stored ServiceKeySalt
		if err = json.Unmarshal(saltBytes, &stored); err != nil {
			return nil, util.LoggingErrorMsg(err, "unmarshalling salt")
		}
		return base58.Decode(stored.Base58Salt)
	}

	salt := make([]byte, saltSize)
	if _, err = rand.Read(salt); err != nil {
		return nil, util.LoggingErrorMsg(err, "generating salt")
	}
	stored := ServiceKeySalt{Base58Salt: base58.Encode(salt)}
	storedBytes, err := json.Marshal(stored)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "marshalling salt")
	}
	if err = db.Write(ctx, namespace, saltKey, storedBytes); err != nil {
		return nil, util.LoggingErrorMsg(err, "storing salt")
	}
	return salt, nil
}

// StoreSeed seals the seed and persists it with its derived address.
func (kss *Storage) StoreSeed(ctx context.Context, seed, address string) error {
	encryptedSeed, err := kss.encrypter.Encrypt(ctx, []byte(seed))
	if err != nil {
		return util.LoggingErrorMsg(err, "encrypting seed")
	}
	stored := StoredSeed{
		EncryptedSeed: base58.Encode(encryptedSeed),
		Address:       address,
		CreatedAt:     now(),
	}
	storedBytes, err := json.Marshal(stored)
	if err != nil {
		return util.LoggingErrorMsg(err, "marshalling seed record")
	}
	return kss.db.Write(ctx, namespace, seedKey, storedBytes)
}

// GetSeedRecord returns the stored record without decrypting the seed.
func (kss *Storage) GetSeedRecord(ctx context.Context) (*StoredSeed, error) {
	storedBytes, err := kss.db.Read(ctx, namespace, seedKey)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "reading seed record")
	}
	if len(storedBytes) == 0 {
		return nil, nil
	}
	var stored StoredSeed
	if err = json.Unmarshal(storedBytes, &stored); err != nil {
		return nil, util.LoggingErrorMsg(err, "unmarshalling seed record")
	}
	return &stored, nil
}

// GetSeed decrypts and returns the stored seed.
func (kss *Storage) GetSeed(ctx context.Context) (string, error) {
	stored, err := kss.GetSeedRecord(ctx)
	if err != nil {
		return "", err
	}
	if stored == nil {
		return "", util.LoggingNewError("no issuer seed stored")
	}
	ciphertext, err := base58.Decode(stored.EncryptedSeed)
	if err != nil {
		return "", util.LoggingErrorMsg(err, "decoding seed ciphertext")
	}
	seed, err := kss.decrypter.Decrypt(ctx, ciphertext)
	if err != nil {
		return "", util.LoggingErrorMsg(err, "decrypting seed")
	}
	return string(seed), nil
}
