package infra

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"neko-counter/counter/domain"
)

// MemoryStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento; os valores se perdem ao reiniciar.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[string]*big.Int
}

var _ domain.CounterStore = (*MemoryStore)(nil)

func NewMemoryStore(sources ...string) *MemoryStore {
	s := &MemoryStore{counts: make(map[string]*big.Int)}
	_ = s.Ensure(context.Background(), sources)
	return s
}

func (s *MemoryStore) Ensure(_ context.Context, sources []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range sources {
		if _, ok := s.counts[name]; !ok {
			s.counts[name] = new(big.Int)
		}
	}
	return nil
}

func (s *MemoryStore) Add(_ context.Context, source string, n uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counts[source]
	if !ok {
		return domain.ErrUnknownSource
	}
	c.Add(c, big.NewInt(int64(n)))
	return nil
}

func (s *MemoryStore) Sum(_ context.Context) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := new(big.Int)
	for _, c := range s.counts {
		sum.Add(sum, c)
	}
	return sum, nil
}

func (s *MemoryStore) Sources(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.counts))
	for name := range s.counts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Count retorna o valor de uma fonte (cópia).
func (s *MemoryStore) Count(source string) (*big.Int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counts[source]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(c), true
}

func (s *MemoryStore) Close() error { return nil }
