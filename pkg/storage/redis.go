package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func init() {
	if err := RegisterStorage(&RedisDB{}); err != nil {
		panic(err)
	}
}

const (
	pong               = "PONG"
	redisScanBatchSize = 1000
)

// RedisDB is a redis-backed ServiceStorage implementation. Namespaces are
// encoded as key prefixes.
type RedisDB struct {
	db *redis.Client
}

func (r *RedisDB) Init(opts ...Option) error {
	address, ok := optionValue(opts, RedisAddressOption)
	if !ok {
		return errors.New("redis address option is required")
	}
	password, _ := optionValue(opts, PasswordOption)

	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
	})
	if err := redisotel.InstrumentTracing(client); err != nil {
		logrus.WithError(err).Warn("could not instrument redis tracing")
	}

	r.db = client
	return nil
}

func (r *RedisDB) Type() Type {
	return Redis
}

func (r *RedisDB) URI() string {
	return r.db.Options().Addr
}

func (r *RedisDB) IsOpen() bool {
	res, err := r.db.Ping(context.Background()).Result()
	if err != nil {
		logrus.WithError(err).Error("pinging redis")
		return false
	}
	return res == pong
}

func (r *RedisDB) Close() error {
	return r.db.Close()
}

func (r *RedisDB) Write(ctx context.Context, namespace, key string, value []byte) error {
	// zero expiration means the key never expires
	return r.db.Set(ctx, redisKey(namespace, key), value, 0).Err()
}

func (r *RedisDB) Read(ctx context.Context, namespace, key string) ([]byte, error) {
	value, err := r.db.Get(ctx, redisKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return value, err
}

func (r *RedisDB) Exists(ctx context.Context, namespace, key string) (bool, error) {
	count, err := r.db.Exists(ctx, redisKey(namespace, key)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RedisDB) ReadAll(ctx context.Context, namespace string) (map[string][]byte, error) {
	keys, err := r.readAllKeys(ctx, namespace)
	if err != nil {
		return nil, errors.Wrap(err, "reading all keys")
	}
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	values, err := r.db.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "getting multiple keys")
	}
	prefix := redisKey(namespace, "")
	for i, value := range values {
		if value == nil {
			continue
		}
		result[strings.TrimPrefix(keys[i], prefix)] = []byte(fmt.Sprintf("%v", value))
	}
	return result, nil
}

func (r *RedisDB) Delete(ctx context.Context, namespace, key string) error {
	return r.db.Del(ctx, redisKey(namespace, key)).Err()
}

func (r *RedisDB) DeleteNamespace(ctx context.Context, namespace string) error {
	keys, err := r.readAllKeys(ctx, namespace)
	if err != nil {
		return errors.Wrap(err, "reading all keys")
	}
	if len(keys) == 0 {
		return nil
	}
	return r.db.Del(ctx, keys...).Err()
}

func (r *RedisDB) readAllKeys(ctx context.Context, namespace string) ([]string, error) {
	var cursor uint64
	allKeys := make([]string, 0)
	for {
		keys, nextCursor, err := r.db.Scan(ctx, cursor, redisKey(namespace, "")+"*", redisScanBatchSize).Result()
		if err != nil {
			return nil, errors.Wrap(err, "scanning keys")
		}
		allKeys = append(allKeys, keys...)
		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}
	return allKeys, nil
}

func redisKey(namespace, key string) string {
	return namespace + ":" + key
}
