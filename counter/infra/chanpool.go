package infra

import (
	"context"

	"neko-counter/counter/domain"
)

// ChanPool limita quantas imagens de contagem são renderizadas ao mesmo tempo.
//
// Cada vaga é um slot no channel; um GET /count/{count} ocupa uma vaga durante
// todo o request (hit ou miss), então no pior caso há no máximo Capacity()
// faixas de dígitos sendo alocadas e codificadas em paralelo.
type ChanPool struct {
	slots chan struct{}
}

// NewChanPool cria um pool com `max` vagas de render.
func NewChanPool(max int) *ChanPool {
	return &ChanPool{slots: make(chan struct{}, max)}
}

var _ domain.SlotPool = (*ChanPool)(nil)

// Acquire espera uma vaga até o ctx encerrar (o handler passa o ctx do request,
// já limitado pelo timeout de aquisição).
func (p *ChanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.slots <- struct{}{}:
		return func() { <-p.slots }, true
	case <-ctx.Done():
		return nil, false
	}
}

// InUse é a quantidade de renders em andamento.
func (p *ChanPool) InUse() int { return len(p.slots) }

func (p *ChanPool) Capacity() int { return cap(p.slots) }
