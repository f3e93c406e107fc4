package application

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/bitmark-inc/logger"

	"neko-counter/counter/domain"
)

// DefaultFetchTimeout limita cada consulta à fonte agregada.
const DefaultFetchTimeout = 10 * time.Second

// TotalUpdater é o lado do cache que o refresher usa.
type TotalUpdater interface {
	UpdateTotal(n *big.Int, at time.Time) error
}

// Refresher consulta a soma agregada periodicamente e atualiza a imagem total.
//
// Uma falha da fonte só pula o tick (a imagem total anterior continua valendo);
// o loop só termina quando o ctx é cancelado.
type Refresher struct {
	Source       domain.AggregateSource
	Cache        TotalUpdater
	Interval     time.Duration
	FetchTimeout time.Duration
	// Now permite fixar a data nos testes. Padrão: time.Now.
	Now func() time.Time

	log *logger.L
}

func NewRefresher(source domain.AggregateSource, cache TotalUpdater, interval time.Duration) *Refresher {
	return &Refresher{
		Source:       source,
		Cache:        cache,
		Interval:     interval,
		FetchTimeout: DefaultFetchTimeout,
		Now:          time.Now,
		log:          logger.New("refresher"),
	}
}

// Run executa um tick imediatamente e depois a cada Interval, até ctx encerrar.
//
// O cancelamento só é observado entre ticks; a troca do slot total é atômica,
// então parar aqui nunca deixa o cache pela metade.
func (r *Refresher) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		if err := r.Tick(ctx); err != nil && ctx.Err() == nil {
			r.log.Warnf("skipping total refresh: %s", err)
		}

		select {
		case <-ctx.Done():
			r.log.Info("stopped")
			return
		case <-t.C:
		}
	}
}

// Tick faz uma única atualização: busca a soma e renderiza a imagem total.
func (r *Refresher) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fetchCtx := ctx
	if r.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.FetchTimeout)
		defer cancel()
	}

	sum, err := r.Source.Sum(fetchCtx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return r.Cache.UpdateTotal(sum, now().UTC())
}
