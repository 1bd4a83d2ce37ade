// Package keystore guards the issuing account's family seed. The seed is
// sealed with a key derived from the service password and never leaves the
// service unencrypted except to sign submissions.
package keystore

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ledgerworks/credential-service/config"
	"github.com/ledgerworks/credential-service/internal/encryption"
	"github.com/ledgerworks/credential-service/internal/ledger"
	"github.com/ledgerworks/credential-service/internal/util"
	"github.com/ledgerworks/credential-service/pkg/service/framework"
	"github.com/ledgerworks/credential-service/pkg/storage"
)

type Service struct {
	storage *Storage
	config  config.KeyStoreServiceConfig
}

func (s Service) Type() framework.Type {
	return framework.KeyStore
}

func (s Service) Status() framework.Status {
	ae := util.NewAppendError()
	if s.storage == nil {
		ae.AppendString("no storage configured")
	}
	if !ae.IsEmpty() {
		return framework.Status{
			Status:  framework.StatusNotReady,
			Message: fmt.Sprintf("key store service is not ready: %s", ae.Error().Error()),
		}
	}
	return framework.Status{Status: framework.StatusReady}
}

func (s Service) Config() config.KeyStoreServiceConfig {
	return s.config
}

func NewKeyStoreService(config config.KeyStoreServiceConfig, s storage.ServiceStorage) (*Service, error) {
	if config.ServiceKeyPassword == "" {
		return nil, errors.New("keystore requires a service key password")
	}

	salt, err := GetOrCreateSalt(context.Background(), s)
	if err != nil {
		return nil, errors.Wrap(err, "getting service key salt")
	}
	encrypter := encryption.NewXChaCha20Poly1305EncrypterWithPassword([]byte(config.ServiceKeyPassword), salt)

	keyStoreStorage, err := NewKeyStoreStorage(s, encrypter, encrypter)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "instantiating storage for the keystore service")
	}

	service := Service{
		storage: keyStoreStorage,
		config:  config,
	}
	if !service.Status().IsReady() {
		return nil, errors.New(service.Status().Message)
	}
	return &service, nil
}

// StoreIssuerSeed validates, seals, and persists the issuing account's seed.
// The derived address is stored alongside so it can be served without
// decryption.
func (s Service) StoreIssuerSeed(ctx context.Context, seed string) error {
	address, err := ledger.AddressFromSeed(seed)
	if err != nil {
		return util.LoggingErrorMsg(err, "deriving address from seed")
	}
	if err = s.storage.StoreSeed(ctx, seed, address); err != nil {
		return util.LoggingErrorMsg(err, "storing issuer seed")
	}
	logrus.Infof("stored issuer seed for address %s", address)
	return nil
}

// HasIssuerSeed reports whether a seed has been stored.
func (s Service) HasIssuerSeed(ctx context.Context) (bool, error) {
	stored, err := s.storage.GetSeedRecord(ctx)
	if err != nil {
		return false, err
	}
	return stored != nil, nil
}

// GetIssuerSeed decrypts and returns the issuing account's seed.
func (s Service) GetIssuerSeed(ctx context.Context) (string, error) {
	return s.storage.GetSeed(ctx)
}

// GetIssuerAddress returns the classic address of the issuing account.
func (s Service) GetIssuerAddress(ctx context.Context) (string, error) {
	stored, err := s.storage.GetSeedRecord(ctx)
	if err != nil {
		return "", err
	}
	if stored == nil {
		return "", util.LoggingNewError("no issuer seed stored")
	}
	return stored.Address, nil
}
