package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mikey/spam-risk-scorer/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRedisPrefix namespaces the per-sender lists
const DefaultRedisPrefix = "spamrisk:history:"

// RedisStore keeps one Redis list of JSON records per sender
type RedisStore struct {
	client *redis.Client
	prefix string
	limit  int
	logger *zap.Logger
}

// NewRedisStore creates a new Redis history store from a redis:// URL
func NewRedisStore(redisURL, prefix string, limit int, logger *zap.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 5 * time.Second
	opt.WriteTimeout = 5 * time.Second

	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &RedisStore{
		client: redis.NewClient(opt),
		prefix: prefix,
		limit:  limit,
		logger: logger,
	}, nil
}

func (s *RedisStore) key(sender string) string {
	return s.prefix + sender
}

// Load checks that Redis is reachable
func (s *RedisStore) Load(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

// History returns the records of a sender. Undecodable entries are skipped.
func (s *RedisStore) History(ctx context.Context, sender string) ([]core.EmailRecord, error) {
	values, err := s.client.LRange(ctx, s.key(sender), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history list: %w", err)
	}
	return s.decode(sender, values), nil
}

func (s *RedisStore) decode(sender string, values []string) []core.EmailRecord {
	records := make([]core.EmailRecord, 0, len(values))
	for _, v := range values {
		var r core.EmailRecord
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			s.logger.Warn("Skipping undecodable history entry", zap.String("sender", sender), zap.Error(err))
			continue
		}
		records = append(records, r)
	}
	return records
}

// Append pushes a record and trims the list to the limit atomically
func (s *RedisStore) Append(ctx context.Context, sender string, record core.EmailRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode history record: %w", err)
	}

	key := s.key(sender)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-s.limit), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}
	return nil
}

// Persist is a no-op, Redis writes are applied immediately
func (s *RedisStore) Persist(ctx context.Context) error {
	return nil
}

// Prune rewrites every sender list without the records older than retention
func (s *RedisStore) Prune(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		values, err := s.client.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to read history list %s: %w", key, err)
		}

		kept := make([]interface{}, 0, len(values))
		for _, r := range s.decode(strings.TrimPrefix(key, s.prefix), values) {
			if r.Date.Before(cutoff) {
				continue
			}
			data, err := json.Marshal(r)
			if err != nil {
				return removed, fmt.Errorf("failed to encode history record: %w", err)
			}
			kept = append(kept, data)
		}
		if len(kept) == len(values) {
			continue
		}

		pipe := s.client.TxPipeline()
		pipe.Del(ctx, key)
		if len(kept) > 0 {
			pipe.RPush(ctx, key, kept...)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("failed to rewrite history list %s: %w", key, err)
		}
		removed += len(values) - len(kept)
	}
	return removed, nil
}

// Senders lists the stored sender keys
func (s *RedisStore) Senders(ctx context.Context) ([]string, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return nil, err
	}
	senders := make([]string, 0, len(keys))
	for _, key := range keys {
		senders = append(senders, strings.TrimPrefix(key, s.prefix))
	}
	sort.Strings(senders)
	return senders, nil
}

// scanKeys uses SCAN rather than KEYS to avoid blocking the server.
// SCAN may return a key more than once.
func (s *RedisStore) scanKeys(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		all    []string
	)
	seen := make(map[string]struct{})
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan history keys: %w", err)
		}
		for _, k := range keys {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				all = append(all, k)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return all, nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
