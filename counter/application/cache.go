package application

import (
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"

	"neko-counter/counter/domain"
)

const (
	// DefaultCapacity limita o mapa de contagens (~350MB com o tamanho médio observado das imagens).
	DefaultCapacity = 13000
	// DefaultRefreshInterval é o intervalo de atualização da imagem total.
	DefaultRefreshInterval = 5 * time.Minute
)

/*
ImageCache guarda a imagem total e um mapa de imagens por contagem.

São duas regiões exclusivas independentes: a leitura da imagem total nunca
disputa lock com o tráfego do mapa de contagens.

Num miss o lock é liberado durante o render. Dois misses simultâneos da
mesma chave podem renderizar em dobro; como o render é puro, os bytes são
idênticos e vale a última escrita.

Quando o mapa atinge a capacidade ele é descartado inteiro antes da
inserção (flush total, sem LRU): as chaves só crescem e qualquer entrada é
barata de regenerar.
*/
type ImageCache struct {
	renderer domain.Renderer
	capacity int

	totalMu sync.RWMutex
	total   domain.Image

	countMu sync.Mutex
	counts  map[string]domain.Image

	hits      atomic.Uint64
	misses    atomic.Uint64
	flushes   atomic.Uint64
	refreshes atomic.Uint64

	log *logger.L
}

// Stats é um retrato dos contadores do cache.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Flushes   uint64
	Refreshes uint64
}

type Option func(*ImageCache)

// WithCapacity define o tamanho que dispara o flush do mapa de contagens.
// Valores <= 0 são ignorados.
func WithCapacity(n int) Option {
	return func(c *ImageCache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// NewImageCache cria o cache com initial na imagem total (a imagem de startup).
func NewImageCache(renderer domain.Renderer, initial domain.Image, opts ...Option) *ImageCache {
	c := &ImageCache{
		renderer: renderer,
		capacity: DefaultCapacity,
		total:    initial,
		log:      logger.New("image-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.counts = make(map[string]domain.Image)
	return c
}

// Total retorna a imagem total atual. Nunca renderiza.
func (c *ImageCache) Total() domain.Image {
	c.totalMu.RLock()
	defer c.totalMu.RUnlock()
	return c.total
}

// UpdateTotal renderiza a imagem total de n (fora do lock) e troca o slot de
// uma vez. Em caso de erro o slot fica como estava.
//
// Só o refresher periódico chama isto; requests nunca pagam esse custo.
func (c *ImageCache) UpdateTotal(n *big.Int, at time.Time) error {
	if err := domain.ValidateCount(n); err != nil {
		return err
	}
	c.log.Infof("updating total image, count: %s", domain.CountKey(n))

	img, err := c.renderer.RenderTotal(n, at)
	if err != nil {
		return fmt.Errorf("render total %s: %w", domain.CountKey(n), err)
	}

	c.totalMu.Lock()
	c.total = img
	c.totalMu.Unlock()

	c.refreshes.Add(1)
	return nil
}

// Count retorna a imagem da contagem n, renderizando no primeiro acesso.
func (c *ImageCache) Count(n *big.Int) (domain.Image, error) {
	if err := domain.ValidateCount(n); err != nil {
		return domain.Image{}, err
	}
	key := domain.CountKey(n)

	c.countMu.Lock()
	img, found := c.counts[key]
	c.countMu.Unlock()
	if found {
		c.hits.Add(1)
		return img, nil
	}
	c.misses.Add(1)

	// render sem lock: outros hits e misses seguem enquanto isto roda
	img, err := c.renderer.RenderCount(n)
	if err != nil {
		return domain.Image{}, fmt.Errorf("render count %s: %w", key, err)
	}
	c.log.Debugf("generated image for %s", key)

	c.countMu.Lock()
	if len(c.counts) >= c.capacity {
		c.log.Warnf("clearing cache: %d entries", len(c.counts))
		c.counts = make(map[string]domain.Image)
		c.flushes.Add(1)
	}
	c.counts[key] = img
	c.countMu.Unlock()

	return img, nil
}

// Len é a quantidade atual de imagens por contagem.
func (c *ImageCache) Len() int {
	c.countMu.Lock()
	defer c.countMu.Unlock()
	return len(c.counts)
}

func (c *ImageCache) Capacity() int { return c.capacity }

func (c *ImageCache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Flushes:   c.flushes.Load(),
		Refreshes: c.refreshes.Load(),
	}
}
