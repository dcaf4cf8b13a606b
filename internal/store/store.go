package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soulteary/libreauth/internal/secret"
	"github.com/soulteary/libreauth/internal/vault"
)

const (
	vaultPrefix       = "libreauth:vault:"
	rateSubjectPrefix = "libreauth:rate:subject:"
	rateIPPrefix      = "libreauth:rate:ip:"

	maxUpdateAttempts = 5
)

// ErrConflict is returned by Update when the vault kept changing underneath it.
var ErrConflict = errors.New("vault changed concurrently, retry")

// Store keeps one sealed vault document per subject in Redis, plus rate counters.
type Store struct {
	rdb        *redis.Client
	rateSubTTL time.Duration
	rateIPTTL  time.Duration
}

// NewStore creates a Store with the given Redis client and rate window TTLs.
func NewStore(rdb *redis.Client, rateSubTTL, rateIPTTL time.Duration) *Store {
	return &Store{
		rdb:        rdb,
		rateSubTTL: rateSubTTL,
		rateIPTTL:  rateIPTTL,
	}
}

func decode(c *secret.Cipher, sealed string) (*vault.AuthData, error) {
	plain, err := c.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	d := vault.Empty()
	if err := json.Unmarshal(plain, d); err != nil {
		return nil, fmt.Errorf("decode vault: %w", err)
	}
	if d.Accounts == nil {
		d.Accounts = []vault.Account{}
	}
	if d.Folders == nil {
		d.Folders = []vault.Folder{}
	}
	return d, nil
}

func encode(c *secret.Cipher, d *vault.AuthData) (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return c.Seal(data)
}

// Load returns the subject's vault. A subject with no stored vault gets an
// empty one.
func (s *Store) Load(ctx context.Context, c *secret.Cipher, subject string) (*vault.AuthData, error) {
	sealed, err := s.rdb.Get(ctx, vaultPrefix+subject).Result()
	if err == redis.Nil {
		return vault.Empty(), nil
	}
	if err != nil {
		return nil, err
	}
	return decode(c, sealed)
}

// Save replaces the subject's vault.
func (s *Store) Save(ctx context.Context, c *secret.Cipher, subject string, d *vault.AuthData) error {
	sealed, err := encode(c, d)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, vaultPrefix+subject, sealed, 0).Err()
}

// Update loads the vault, applies fn and saves the result atomically. If
// another writer changes the vault in between, fn runs again on the fresh
// copy. An error from fn aborts without writing.
func (s *Store) Update(ctx context.Context, c *secret.Cipher, subject string, fn func(*vault.AuthData) error) (*vault.AuthData, error) {
	key := vaultPrefix + subject
	var result *vault.AuthData

	txf := func(tx *redis.Tx) error {
		d := vault.Empty()
		sealed, err := tx.Get(ctx, key).Result()
		switch {
		case err == redis.Nil:
		case err != nil:
			return err
		default:
			if d, err = decode(c, sealed); err != nil {
				return err
			}
		}
		if err := fn(d); err != nil {
			return err
		}
		out, err := encode(c, d)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			result = d
		}
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrConflict
}

// Clear removes the subject's vault.
func (s *Store) Clear(ctx context.Context, subject string) error {
	return s.rdb.Del(ctx, vaultPrefix+subject).Err()
}

// IncrRateSubject increments subject rate counter; returns new count.
func (s *Store) IncrRateSubject(ctx context.Context, subject string) (int64, error) {
	return s.incr(ctx, rateSubjectPrefix+subject, s.rateSubTTL)
}

// IncrRateIP increments IP rate counter; returns new count.
func (s *Store) IncrRateIP(ctx context.Context, ip string) (int64, error) {
	return s.incr(ctx, rateIPPrefix+ip, s.rateIPTTL)
}

func (s *Store) incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
