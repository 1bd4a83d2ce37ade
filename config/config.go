package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ardanlabs/conf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultConfigPath = "config/config.toml"
	ConfigFileName    = "config.toml"
	ConfigExtension   = ".toml"

	DefaultServiceEndpoint = "http://localhost:8080"
	DefaultLedgerEndpoint  = "wss://s.altnet.rippletest.net:51233"

	EnvironmentDev  = "dev"
	EnvironmentTest = "test"
	EnvironmentProd = "prod"
)

type EnvironmentVariable string

const (
	// ConfigPath points at an alternative TOML config file.
	ConfigPath EnvironmentVariable = "CONFIG_PATH"
	// WalletAPIKey and WalletAPISecret override the signing service
	// credentials so they stay out of the config file.
	WalletAPIKey    EnvironmentVariable = "WALLET_API_KEY"
	WalletAPISecret EnvironmentVariable = "WALLET_API_SECRET"
)

func (e EnvironmentVariable) String() string {
	return string(e)
}

type CredentialServiceConfig struct {
	conf.Version
	Server   ServerConfig   `toml:"server"`
	Services ServicesConfig `toml:"services"`
}

// ServerConfig represents configurable properties for the HTTP server
type ServerConfig struct {
	Environment        string        `toml:"env" conf:"default:dev"`
	APIHost            string        `toml:"api_host" conf:"default:0.0.0.0:3000"`
	JagerHost          string        `toml:"jager_host" conf:"http://jaeger:14268/api/traces"`
	JagerEnabled       bool          `toml:"jager_enabled" conf:"default:false"`
	ReadTimeout        time.Duration `toml:"read_timeout" conf:"default:5s"`
	WriteTimeout       time.Duration `toml:"write_timeout" conf:"default:5s"`
	ShutdownTimeout    time.Duration `toml:"shutdown_timeout" conf:"default:5s"`
	LogLocation        string        `toml:"log_location" conf:"default:log"`
	LogLevel           string        `toml:"log_level" conf:"default:debug"`
	EnableAllowAllCORS bool          `toml:"enable_allow_all_cors" conf:"default:false"`
}

// ServicesConfig represents configurable properties for the components of the service
type ServicesConfig struct {
	// at present, it is assumed that a single storage provider works for all services
	StorageProvider string          `toml:"storage"`
	StorageOptions  []StorageOption `toml:"storage_option"`
	ServiceEndpoint string          `toml:"service_endpoint"`

	// Embed all service-specific configs here. The order matters: from which should be instantiated first, to last
	KeyStoreConfig   KeyStoreServiceConfig `toml:"keystore,omitempty"`
	LedgerConfig     LedgerServiceConfig   `toml:"ledger,omitempty"`
	WalletConfig     WalletServiceConfig   `toml:"wallet,omitempty"`
	CredentialConfig CredentialConfig      `toml:"credential,omitempty"`
	WebhookConfig    WebhookServiceConfig  `toml:"webhook,omitempty"`
}

type StorageOption struct {
	ID     string `toml:"id"`
	Option string `toml:"option"`
}

// BaseServiceConfig represents configurable properties for a specific component of the service.
// Can be wrapped and extended for any specific service config
type BaseServiceConfig struct {
	Name            string `toml:"name"`
	ServiceEndpoint string `toml:"service_endpoint"`
}

type KeyStoreServiceConfig struct {
	*BaseServiceConfig
	// Service key password. Used by a KDF whose key is used by a symmetric cypher for seed encryption.
	// The password is salted before usage.
	ServiceKeyPassword string `toml:"password"`
}

func (k *KeyStoreServiceConfig) IsEmpty() bool {
	if k == nil {
		return true
	}
	return reflect.DeepEqual(k, &KeyStoreServiceConfig{})
}

// LedgerServiceConfig configures connectivity to the XRP Ledger.
type LedgerServiceConfig struct {
	*BaseServiceConfig
	// Endpoint is the websocket RPC endpoint of a rippled node.
	Endpoint string `toml:"endpoint"`
	// RequestTimeout bounds a single query round trip.
	RequestTimeout time.Duration `toml:"request_timeout"`
	// ConfirmationInterval is the wait between validation checks after a submission.
	ConfirmationInterval time.Duration `toml:"confirmation_interval"`
}

func (l *LedgerServiceConfig) IsEmpty() bool {
	if l == nil {
		return true
	}
	return reflect.DeepEqual(l, &LedgerServiceConfig{})
}

// WalletServiceConfig configures the payload signing service integration.
type WalletServiceConfig struct {
	*BaseServiceConfig
	APIKey       string `toml:"api_key"`
	APISecret    string `toml:"api_secret"`
	APIBaseURL   string `toml:"api_base_url"`
	WebsocketURL string `toml:"websocket_url"`
}

func (w *WalletServiceConfig) IsEmpty() bool {
	if w == nil {
		return true
	}
	return reflect.DeepEqual(w, &WalletServiceConfig{})
}

// CredentialConfig configures the credential issuance service.
type CredentialConfig struct {
	*BaseServiceConfig
	// IssuerSeed is the family seed of the issuing account. The keystore
	// encrypts it at rest; this value is only read on first boot.
	IssuerSeed string `toml:"issuer_seed"`
	// VisibilityTimeout bounds the poll for a freshly created credential
	// to appear in the subject's account objects.
	VisibilityTimeout time.Duration `toml:"visibility_timeout"`
	// VisibilityInterval is the poll cadence within the visibility window.
	VisibilityInterval time.Duration `toml:"visibility_interval"`
}

func (c *CredentialConfig) IsEmpty() bool {
	if c == nil {
		return true
	}
	return reflect.DeepEqual(c, &CredentialConfig{})
}

type WebhookServiceConfig struct {
	*BaseServiceConfig
	WebhookTimeout string `toml:"webhook_timeout"`
}

func (w *WebhookServiceConfig) IsEmpty() bool {
	if w == nil {
		return true
	}
	return reflect.DeepEqual(w, &WebhookServiceConfig{})
}

// LoadConfig attempts to load a TOML config file from the given path, and coerce it into our object model.
// Before loading, defaults are applied on certain properties, which are overwritten if specified in the TOML file.
func LoadConfig(path string) (*CredentialServiceConfig, error) {
	// no path, load default config
	defaultConfig := false
	if path == "" {
		logrus.Info("no config path provided, loading default config...")
		defaultConfig = true
	} else if filepath.Ext(path) != ConfigExtension {
		return nil, fmt.Errorf("path<%s> did not match the expected TOML format", path)
	}

	// create the config object
	var config CredentialServiceConfig

	// parse and apply defaults
	if err := conf.Parse(os.Args[1:], ServiceName, &config); err != nil {
		switch {
		case errors.Is(err, conf.ErrHelpWanted):
			usage, err := conf.Usage(ServiceName, &config)
			if err != nil {
				return nil, errors.Wrap(err, "parsing config")
			}
			fmt.Println(usage)

			return nil, nil

		case errors.Is(err, conf.ErrVersionWanted):
			version, err := conf.VersionString(ServiceName, &config)
			if err != nil {
				return nil, errors.Wrap(err, "generating config version")
			}

			fmt.Println(version)
			return nil, nil
		}

		return nil, errors.Wrap(err, "parsing config")
	}

	if defaultConfig {
		config.Services = defaultServicesConfig()
	} else {
		// load from TOML file
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return nil, errors.Wrapf(err, "could not load config: %s", path)
		}

		// apply defaults if not included in toml file
		services := &config.Services
		if services.CredentialConfig.BaseServiceConfig == nil {
			services.CredentialConfig.BaseServiceConfig = &BaseServiceConfig{Name: "credential"}
		}
		if services.CredentialConfig.ServiceEndpoint == "" {
			services.CredentialConfig.ServiceEndpoint = services.ServiceEndpoint
		}
		if services.LedgerConfig.BaseServiceConfig == nil {
			services.LedgerConfig.BaseServiceConfig = &BaseServiceConfig{Name: "ledger"}
		}
		if services.LedgerConfig.Endpoint == "" {
			services.LedgerConfig.Endpoint = DefaultLedgerEndpoint
		}
		// durations are not expressed in toml; fill the zero values
		if services.LedgerConfig.RequestTimeout == 0 {
			services.LedgerConfig.RequestTimeout = 10 * time.Second
		}
		if services.LedgerConfig.ConfirmationInterval == 0 {
			services.LedgerConfig.ConfirmationInterval = time.Second
		}
		if services.CredentialConfig.VisibilityTimeout == 0 {
			services.CredentialConfig.VisibilityTimeout = 5 * time.Second
		}
		if services.CredentialConfig.VisibilityInterval == 0 {
			services.CredentialConfig.VisibilityInterval = 500 * time.Millisecond
		}
	}

	// signing service credentials come from the environment, never the file
	if v, present := os.LookupEnv(WalletAPIKey.String()); present {
		config.Services.WalletConfig.APIKey = v
	}
	if v, present := os.LookupEnv(WalletAPISecret.String()); present {
		config.Services.WalletConfig.APISecret = v
	}

	return &config, nil
}

func defaultServicesConfig() ServicesConfig {
	return ServicesConfig{
		StorageProvider: "bolt",
		ServiceEndpoint: DefaultServiceEndpoint,
		KeyStoreConfig: KeyStoreServiceConfig{
			BaseServiceConfig:  &BaseServiceConfig{Name: "keystore"},
			ServiceKeyPassword: "default-password",
		},
		LedgerConfig: LedgerServiceConfig{
			BaseServiceConfig:    &BaseServiceConfig{Name: "ledger"},
			Endpoint:             DefaultLedgerEndpoint,
			RequestTimeout:       10 * time.Second,
			ConfirmationInterval: time.Second,
		},
		WalletConfig: WalletServiceConfig{
			BaseServiceConfig: &BaseServiceConfig{Name: "wallet"},
			APIBaseURL:        "https://xumm.app/api/v1/platform",
			WebsocketURL:      "wss://xumm.app/sign",
		},
		CredentialConfig: CredentialConfig{
			BaseServiceConfig:  &BaseServiceConfig{Name: "credential", ServiceEndpoint: DefaultServiceEndpoint},
			VisibilityTimeout:  5 * time.Second,
			VisibilityInterval: 500 * time.Millisecond,
		},
		WebhookConfig: WebhookServiceConfig{
			BaseServiceConfig: &BaseServiceConfig{Name: "webhook"},
			WebhookTimeout:    "10s",
		},
	}
}
