package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key, e.g. "quicknews:ledger:".
	Prefix string
}

// RedisStore keeps one hash per date plus a set of known dates. Ensure and
// Increment map to HSETNX and HINCRBY, which Redis applies atomically.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Prefix == "" {
		opts.Prefix = "quicknews:ledger:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client, prefix: opts.Prefix, logger: slog.Default()}, nil
}

func (s *RedisStore) datesKey() string           { return s.prefix + "dates" }
func (s *RedisStore) dayKey(date string) string { return s.prefix + "day:" + date }

func (s *RedisStore) Read(ctx context.Context) Ledger {
	l, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("ledger unreadable, using empty state", "backend", "redis", "error", err)
		return Ledger{}
	}
	return l
}

func (s *RedisStore) read(ctx context.Context) (Ledger, error) {
	dates, err := s.client.SMembers(ctx, s.datesKey()).Result()
	if err != nil {
		return nil, err
	}
	l := Ledger{}
	for _, date := range dates {
		fields, err := s.client.HGetAll(ctx, s.dayKey(date)).Result()
		if err != nil {
			return nil, err
		}
		day := make(map[string]int64, len(fields))
		for id, v := range fields {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				continue
			}
			day[id] = n
		}
		l[date] = day
	}
	return l, nil
}

func (s *RedisStore) Write(ctx context.Context, l Ledger) error {
	old, err := s.client.SMembers(ctx, s.datesKey()).Result()
	if err != nil {
		return fmt.Errorf("%w: list dates: %w", ErrWrite, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, date := range old {
			pipe.Del(ctx, s.dayKey(date))
		}
		pipe.Del(ctx, s.datesKey())
		for date, day := range l {
			pipe.SAdd(ctx, s.datesKey(), date)
			if len(day) == 0 {
				continue
			}
			fields := make(map[string]any, len(day))
			for id, n := range day {
				fields[id] = n
			}
			pipe.HSet(ctx, s.dayKey(date), fields)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func (s *RedisStore) Ensure(ctx context.Context, date, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.datesKey(), date)
		pipe.HSetNX(ctx, s.dayKey(date), id, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: ensure %s/%s: %w", ErrWrite, date, id, err)
	}
	return nil
}

func (s *RedisStore) Increment(ctx context.Context, date, id string) (int64, error) {
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.datesKey(), date)
		incr = pipe.HIncrBy(ctx, s.dayKey(date), id, 1)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: increment %s/%s: %w", ErrWrite, date, id, err)
	}
	return incr.Val(), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
