package infra

import (
	"time"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"neko-counter/counter/domain"
)

// LimiterStore guarda um token bucket (x/time/rate) por cliente.
//
// As entradas ficam num go-cache com expiração por inatividade: cada acesso
// renova o prazo, e o janitor do go-cache remove os clientes ociosos.
type LimiterStore struct {
	entries      *cache.Cache
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type LimiterOption func(*LimiterStore)

func WithIdleTTL(d time.Duration) LimiterOption {
	return func(s *LimiterStore) { s.idleTTL = d }
}

// WithCleanupEvery define o intervalo do janitor; 0 desliga a limpeza ativa
// (entradas expiradas continuam invisíveis para Get).
func WithCleanupEvery(d time.Duration) LimiterOption {
	return func(s *LimiterStore) { s.cleanupEvery = d }
}

func NewLimiterStore(rps float64, burst int, opts ...LimiterOption) *LimiterStore {
	s := &LimiterStore{
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = cache.New(s.idleTTL, s.cleanupEvery)
	return s
}

func (s *LimiterStore) RPS() float64 { return float64(s.rps) }
func (s *LimiterStore) Burst() int   { return s.burst }

// Len conta as entradas, incluindo expiradas ainda não limpas.
func (s *LimiterStore) Len() int { return s.entries.ItemCount() }

// Get implementa domain.LimiterStore.
func (s *LimiterStore) Get(key domain.Key) domain.Limiter {
	return s.Limiter(string(key))
}

func (s *LimiterStore) Limiter(key string) *rate.Limiter {
	if v, found := s.entries.Get(key); found {
		lim := v.(*rate.Limiter)
		s.entries.SetDefault(key, lim)
		return lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	if err := s.entries.Add(key, lim, cache.DefaultExpiration); err != nil {
		// outro request criou o limiter primeiro: usa o dele
		if v, found := s.entries.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// Cleanup remove agora as entradas expiradas.
func (s *LimiterStore) Cleanup() {
	s.entries.DeleteExpired()
}
