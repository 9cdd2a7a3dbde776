package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const updateRetries = 16

// RedisStore persists accounts in Redis: one JSON value per account, a
// username index, and an INCR-based id allocator. Update uses WATCH/MULTI
// optimistic transactions to serialize per-record read-modify-write.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. prefix namespaces all keys.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "mfagate"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) accountKey(id int64) string {
	return s.prefix + ":acct:" + strconv.FormatInt(id, 10)
}

func (s *RedisStore) usernameKey(username string) string {
	return s.prefix + ":name:" + username
}

func (s *RedisStore) nextIDKey() string {
	return s.prefix + ":next_id"
}

// Lookup resolves the username index and fetches the record.
func (s *RedisStore) Lookup(ctx context.Context, username string) (*Account, error) {
	raw, err := s.client.Get(ctx, s.usernameKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Get fetches and decodes one record, or ErrAccountNotFound.
func (s *RedisStore) Get(ctx context.Context, id int64) (*Account, error) {
	data, err := s.client.Get(ctx, s.accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// Create claims the username with SETNX, allocates an id, and writes the
// record. Losing the SETNX race yields ErrDuplicateUsername; a failed record
// write releases the claimed username best-effort.
func (s *RedisStore) Create(ctx context.Context, username, passwordHash string) (*Account, error) {
	id, err := s.client.Incr(ctx, s.nextIDKey()).Result()
	if err != nil {
		return nil, err
	}

	claimed, err := s.client.SetNX(ctx, s.usernameKey(username), strconv.FormatInt(id, 10), 0).Result()
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrDuplicateUsername
	}

	acct := &Account{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
	}
	data, err := json.Marshal(acct)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, s.accountKey(id), data, 0).Err(); err != nil {
		_ = s.client.Del(ctx, s.usernameKey(username)).Err()
		return nil, err
	}

	return acct, nil
}

// Update retries an optimistic WATCH transaction until the record is swapped
// without interference from concurrent writers of the same id.
func (s *RedisStore) Update(ctx context.Context, id int64, mutate func(*Account) error) (*Account, error) {
	key := s.accountKey(id)

	for attempt := 0; attempt < updateRetries; attempt++ {
		var updated *Account

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrAccountNotFound
				}
				return err
			}

			var acct Account
			if err := json.Unmarshal(data, &acct); err != nil {
				return err
			}
			if err := mutate(&acct); err != nil {
				return err
			}
			acct.ID = id

			next, err := json.Marshal(&acct)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, next, 0)
				return nil
			})
			if err == nil {
				updated = &acct
			}
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	return nil, errors.New("credstore: update contention exceeded retry budget")
}
