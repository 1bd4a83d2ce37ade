package service

import (
	"context"
	"fmt"

	"github.com/ledgerworks/credential-service/config"
	"github.com/ledgerworks/credential-service/internal/util"
	"github.com/ledgerworks/credential-service/pkg/service/credential"
	"github.com/ledgerworks/credential-service/pkg/service/framework"
	"github.com/ledgerworks/credential-service/pkg/service/keystore"
	"github.com/ledgerworks/credential-service/pkg/service/webhook"
	"github.com/ledgerworks/credential-service/pkg/storage"
	"github.com/ledgerworks/credential-service/pkg/wallet"
	"github.com/ledgerworks/credential-service/pkg/xrpl"
)

// CredentialService represents all services and their dependencies independent of transport
type CredentialService struct {
	KeyStore   *keystore.Service
	Credential *credential.Service
	Webhook    *webhook.Service

	// Wallet is nil when no signing service is configured.
	Wallet *wallet.Client
	Ledger *xrpl.Client
}

// InstantiateCredentialService creates a new instance which instantiates all services and their
// dependencies independent of transport.
func InstantiateCredentialService(config config.ServicesConfig) (*CredentialService, error) {
	if err := validateServiceConfig(config); err != nil {
		return nil, util.LoggingErrorMsg(err, "could not instantiate credential service, invalid config")
	}
	service, err := instantiateServices(config)
	if err != nil {
		return nil, util.LoggingErrorMsgf(err, "could not instantiate the credential service")
	}
	return service, nil
}

func validateServiceConfig(config config.ServicesConfig) error {
	if config.StorageProvider == "" {
		return fmt.Errorf("no storage provider configured")
	}
	if config.KeyStoreConfig.IsEmpty() {
		return fmt.Errorf("%s no config provided", framework.KeyStore)
	}
	if config.LedgerConfig.IsEmpty() {
		return fmt.Errorf("%s no config provided", framework.Ledger)
	}
	if config.CredentialConfig.IsEmpty() {
		return fmt.Errorf("%s no config provided", framework.Credential)
	}
	if config.WebhookConfig.IsEmpty() {
		return fmt.Errorf("%s no config provided", framework.Webhook)
	}
	return nil
}

// instantiateServices begins all instantiates and their dependencies
func instantiateServices(config config.ServicesConfig) (*CredentialService, error) {
	storageOptions := make([]storage.Option, 0, len(config.StorageOptions))
	for _, opt := range config.StorageOptions {
		storageOptions = append(storageOptions, storage.Option{ID: opt.ID, Option: opt.Option})
	}
	storageProvider, err := storage.NewStorage(storage.Type(config.StorageProvider), storageOptions...)
	if err != nil {
		return nil, util.LoggingErrorMsgf(err, "could not instantiate storage provider: %s", config.StorageProvider)
	}

	webhookService, err := webhook.NewWebhookService(config.WebhookConfig, storageProvider)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "could not instantiate the webhook service")
	}

	keyStoreService, err := keystore.NewKeyStoreService(config.KeyStoreConfig, storageProvider)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "could not instantiate KeyStore service")
	}

	ledgerClient := xrpl.NewClient(config.LedgerConfig.Endpoint,
		xrpl.WithRequestTimeout(config.LedgerConfig.RequestTimeout),
		xrpl.WithConfirmationInterval(config.LedgerConfig.ConfirmationInterval),
	)

	// the signing service is optional; without it the API can issue and query
	// but cannot hand off acceptance payloads
	var walletClient *wallet.Client
	var broker wallet.Broker
	if !config.WalletConfig.IsEmpty() && config.WalletConfig.APIKey != "" {
		walletClient, err = wallet.NewClient(wallet.Config{
			APIKey:       config.WalletConfig.APIKey,
			APISecret:    config.WalletConfig.APISecret,
			BaseURL:      config.WalletConfig.APIBaseURL,
			WebsocketURL: config.WalletConfig.WebsocketURL,
		})
		if err != nil {
			return nil, util.LoggingErrorMsg(err, "could not instantiate the wallet client")
		}
		broker = walletClient
	}

	credentialService, err := credential.NewCredentialService(config.CredentialConfig, storageProvider, keyStoreService, ledgerClient, broker)
	if err != nil {
		return nil, util.LoggingErrorMsg(err, "could not instantiate the credential service")
	}

	// seed the keystore on first boot when the config carries an issuer seed
	if config.CredentialConfig.IssuerSeed != "" {
		has, err := keyStoreService.HasIssuerSeed(context.Background())
		if err != nil {
			return nil, util.LoggingErrorMsg(err, "checking for stored issuer seed")
		}
		if !has {
			if err = keyStoreService.StoreIssuerSeed(context.Background(), config.CredentialConfig.IssuerSeed); err != nil {
				return nil, util.LoggingErrorMsg(err, "storing configured issuer seed")
			}
		}
	}

	return &CredentialService{
		KeyStore:   keyStoreService,
		Credential: credentialService,
		Webhook:    webhookService,
		Wallet:     walletClient,
		Ledger:     ledgerClient,
	}, nil
}

// GetServices returns all services
func (s *CredentialService) GetServices() []framework.Service {
	return []framework.Service{
		s.KeyStore,
		s.Credential,
		s.Webhook,
	}
}
