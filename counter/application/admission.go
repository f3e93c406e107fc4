package application

import (
	"context"
	"time"

	"neko-counter/counter/domain"
)

// Admission decide se um request de incremento pode seguir.
//
// Não sabe nada de HTTP (headers/status), apenas retorna uma decisão.
type Admission struct {
	Store      domain.LimiterStore
	RetryAfter time.Duration
}

func (a Admission) Decide(key domain.Key) domain.Decision {
	if a.Store == nil {
		return domain.Decision{Allowed: true}
	}
	if a.RetryAfter <= 0 {
		a.RetryAfter = 1 * time.Second
	}

	lim := a.Store.Get(key)
	if lim == nil || lim.Allow() {
		return domain.Decision{Allowed: true}
	}
	return domain.Decision{Allowed: false, RetryAfter: a.RetryAfter}
}

// RenderSlots limita quantos renders de contagem rodam ao mesmo tempo.
type RenderSlots struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta pegar uma vaga.
// - AcquireTimeout <= 0: espera até ctx cancelar.
// - AcquireTimeout > 0: espera no máximo esse tempo.
// Com ok=false nenhuma vaga foi adquirida.
func (s RenderSlots) Acquire(ctx context.Context) (func(), bool) {
	if s.Pool == nil {
		return func() {}, true
	}
	if s.AcquireTimeout <= 0 {
		return s.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return s.Pool.Acquire(acqCtx)
}
