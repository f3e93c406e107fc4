package domain

import (
	"context"
	"time"
)

// Key identifica o cliente de um request (IP, header, etc.).
type Key string

// Limiter decide se uma ação é permitida agora.
// A camada de infra usa token-bucket (golang.org/x/time/rate).
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por chave.
type LimiterStore interface {
	Get(Key) Limiter
}

type Decision struct {
	Allowed bool
	// RetryAfter é o valor do header Retry-After quando bloqueado.
	RetryAfter time.Duration
}

// SlotPool representa uma capacidade finita (ex: renders simultâneos).
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar.
// O release retornado deve ser chamado exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
