// Package storage provides the service's key value storage abstraction with
// pluggable backing databases.
package storage

import (
	"context"

	"github.com/pkg/errors"
)

type Type string

const (
	Bolt   Type = "bolt"
	Memory Type = "memory"
	Redis  Type = "redis"
)

// Option IDs understood by the storage implementations.
const (
	BoltDBFilePathOption = "boltdb-filepath-option"
	RedisAddressOption   = "redis-address-option"
	PasswordOption       = "password-option"
)

// Option is a single named configuration value for a storage implementation.
type Option struct {
	ID     string
	Option any
}

// ServiceStorage describes the api for storage independent of DB providers.
type ServiceStorage interface {
	Init(opts ...Option) error
	Type() Type
	URI() string
	IsOpen() bool
	Close() error
	Write(ctx context.Context, namespace, key string, value []byte) error
	Read(ctx context.Context, namespace, key string) ([]byte, error)
	Exists(ctx context.Context, namespace, key string) (bool, error)
	ReadAll(ctx context.Context, namespace string) (map[string][]byte, error)
	Delete(ctx context.Context, namespace, key string) error
	DeleteNamespace(ctx context.Context, namespace string) error
}

var registeredStorageProviders = map[Type]ServiceStorage{}

// RegisterStorage makes a storage implementation available by its type.
func RegisterStorage(s ServiceStorage) error {
	if _, ok := registeredStorageProviders[s.Type()]; ok {
		return errors.Errorf("storage provider<%s> already registered", s.Type())
	}
	registeredStorageProviders[s.Type()] = s
	return nil
}

// NewStorage initializes the registered storage provider for the given type.
func NewStorage(storageType Type, opts ...Option) (ServiceStorage, error) {
	provider, ok := registeredStorageProviders[storageType]
	if !ok {
		return nil, errors.Errorf("unsupported storage provider: %s", storageType)
	}
	if err := provider.Init(opts...); err != nil {
		return nil, errors.Wrapf(err, "initializing storage provider<%s>", storageType)
	}
	return provider, nil
}

func optionValue(opts []Option, id string) (string, bool) {
	for _, opt := range opts {
		if opt.ID == id {
			if s, ok := opt.Option.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// Join takes a set of possible namespace values and combines them as a convention.
func Join(ns ...string) string {
	out := ""
	for i, n := range ns {
		if i > 0 {
			out += "-"
		}
		out += n
	}
	return out
}
