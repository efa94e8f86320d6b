// Package idempotency хранит ключи идемпотентности оформления заказа в Redis.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyCheckout: idem:checkout:{phone}:{key} -> номер заказа или пустая строка, пока заказ оформляется.
const keyCheckout = "idem:checkout:%s"

// pending хранится под ключом, пока заказ не оформлен.
const pending = ""

// Key возвращает ключ Redis для клиентского ключа идемпотентности.
func Key(key string) string {
	return fmt.Sprintf(keyCheckout, key)
}

// Store реализует хранилище ключей идемпотентности поверх Redis.
type Store struct {
	rdb *redis.Client
}

// NewClient создаёт клиента Redis с короткими таймаутами.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// NewStore создаёт хранилище поверх клиента Redis.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Reserve занимает ключ на время ttl. Возвращает false, если ключ уже занят.
func (s *Store) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, Key(key), pending, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Result возвращает номер заказа, сохранённый под ключом.
// Пустая строка означает, что заказ ещё оформляется или ключ истёк.
func (s *Store) Result(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

// Complete сохраняет номер оформленного заказа.
func (s *Store) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, Key(key), result, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Release освобождает ключ после неудачного оформления.
func (s *Store) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, Key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping проверяет доступность Redis.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close закрывает клиента Redis.
func (s *Store) Close() error {
	return s.rdb.Close()
}
