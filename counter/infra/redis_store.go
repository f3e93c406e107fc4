package infra

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"neko-counter/counter/domain"
)

// RedisStore guarda os contadores num hash do Redis: campo = fonte, valor = contagem.
//
// HIncrBy é atômico no servidor, então vários processos podem incrementar o
// mesmo hash. O valor de cada campo é limitado a int64 pelo Redis; a soma é
// feita em big.Int.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

var _ domain.CounterStore = (*RedisStore)(nil)

type RedisOption func(*RedisStore)

func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func NewRedisStore(rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "neko",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) countsKey() string {
	return s.prefix + ":counts"
}

func (s *RedisStore) Ensure(ctx context.Context, sources []string) error {
	if len(sources) == 0 {
		return nil
	}
	pipe := s.rdb.Pipeline()
	for _, name := range sources {
		pipe.HSetNX(ctx, s.countsKey(), name, 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Add(ctx context.Context, source string, n uint8) error {
	ok, err := s.rdb.HExists(ctx, s.countsKey(), source).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUnknownSource
	}
	return s.rdb.HIncrBy(ctx, s.countsKey(), source, int64(n)).Err()
}

// Sum lê todos os valores do hash com um único HVALS e soma em big.Int.
func (s *RedisStore) Sum(ctx context.Context) (*big.Int, error) {
	vals, err := s.rdb.HVals(ctx, s.countsKey()).Result()
	if err != nil {
		return nil, err
	}
	return sumCounts(vals)
}

func sumCounts(vals []string) (*big.Int, error) {
	sum := new(big.Int)
	for _, v := range vals {
		n, ok := new(big.Int).SetString(v, 10)
		if !ok || n.Sign() < 0 {
			return nil, fmt.Errorf("corrupt counter value %q", v)
		}
		sum.Add(sum, n)
	}
	return sum, nil
}

func (s *RedisStore) Sources(ctx context.Context) ([]string, error) {
	sources, err := s.rdb.HKeys(ctx, s.countsKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(sources)
	return sources, nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
