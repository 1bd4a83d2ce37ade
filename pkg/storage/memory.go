package storage

import (
	"context"
	"sync"
)

func init() {
	if err := RegisterStorage(&MemoryDB{}); err != nil {
		panic(err)
	}
}

// MemoryDB is an in memory ServiceStorage safe for concurrent use.
// Intended for tests and local development.
type MemoryDB struct {
	maps sync.Map
	open bool
}

func (m *MemoryDB) Init(_ ...Option) error {
	m.open = true
	return nil
}

func (m *MemoryDB) Type() Type {
	return Memory
}

func (m *MemoryDB) URI() string {
	return "memory"
}

func (m *MemoryDB) IsOpen() bool {
	return m.open
}

func (m *MemoryDB) Close() error {
	m.open = false
	m.maps.Range(func(key, _ any) bool {
		m.maps.Delete(key)
		return true
	})
	return nil
}

func (m *MemoryDB) namespace(namespace string) *sync.Map {
	ns, _ := m.maps.LoadOrStore(namespace, &sync.Map{})
	return ns.(*sync.Map)
}

func (m *MemoryDB) Write(_ context.Context, namespace, key string, value []byte) error {
	copied := make([]byte, len(value))
	copy(copied, value)
	m.namespace(namespace).Store(key, copied)
	return nil
}

func (m *MemoryDB) Read(_ context.Context, namespace, key string) ([]byte, error) {
	value, ok := m.namespace(namespace).Load(key)
	if !ok {
		return nil, nil
	}
	return value.([]byte), nil
}

func (m *MemoryDB) Exists(_ context.Context, namespace, key string) (bool, error) {
	_, ok := m.namespace(namespace).Load(key)
	return ok, nil
}

func (m *MemoryDB) ReadAll(_ context.Context, namespace string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	m.namespace(namespace).Range(func(key, value any) bool {
		result[key.(string)] = value.([]byte)
		return true
	})
	return result, nil
}

func (m *MemoryDB) Delete(_ context.Context, namespace, key string) error {
	m.namespace(namespace).Delete(key)
	return nil
}

func (m *MemoryDB) DeleteNamespace(_ context.Context, namespace string) error {
	m.maps.Delete(namespace)
	return nil
}
