package domain

import (
	"context"
	"math/big"
	"time"
)

// AggregateSource fornece a soma atual de todos os contadores.
//
// É a única operação que o cache precisa da persistência. Timeouts são
// responsabilidade de quem chama (via ctx).
type AggregateSource interface {
	Sum(ctx context.Context) (*big.Int, error)
}

// CounterStore é a persistência dos contadores por fonte.
//
// Implementações podem usar LevelDB, Redis, memória, etc.
type CounterStore interface {
	AggregateSource

	// Add soma n ao contador da fonte; ErrUnknownSource se ela não existe.
	Add(ctx context.Context, source string, n uint8) error
	// Sources lista as fontes conhecidas, em ordem alfabética.
	Sources(ctx context.Context) ([]string, error)
	// Ensure cria com valor 0 as fontes que ainda não existem.
	Ensure(ctx context.Context, sources []string) error
	Close() error
}

// Renderer produz as imagens consumidas pelo cache. Deve ser puro: as mesmas
// entradas geram exatamente os mesmos bytes.
type Renderer interface {
	RenderCount(n *big.Int) (Image, error)
	RenderTotal(n *big.Int, at time.Time) (Image, error)
}
