package counter

import (
	"context"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/bitmark-inc/logger"

	"neko-counter/counter/domain"
)

// ImageCache é o que os handlers precisam do cache de imagens.
type ImageCache interface {
	Total() domain.Image
	Count(n *big.Int) (domain.Image, error)
}

// Counter recebe incrementos de uma fonte.
type Counter interface {
	Add(ctx context.Context, source string, n uint8) error
}

type HandlerOptions struct {
	Cache ImageCache
	Store Counter
	// Sources são os nomes das fontes como estão no store.
	// A rota usa o nome em snake_case.
	Sources []string

	// AddLimit envolve as rotas POST /add/...; nil = sem limite.
	AddLimit func(http.Handler) http.Handler
	// RenderLimit envolve GET /count/{count}; nil = sem limite.
	RenderLimit func(http.Handler) http.Handler
}

// SnakeCase converte o nome de uma fonte para o segmento usado na rota.
func SnakeCase(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// NewHandler monta o mux com todas as rotas, já com access log.
func NewHandler(opts HandlerOptions) http.Handler {
	h := &handlers{
		cache:   opts.Cache,
		store:   opts.Store,
		sources: make(map[string]string, len(opts.Sources)),
		log:     logger.New("http"),
	}
	for _, name := range opts.Sources {
		route := SnakeCase(name)
		h.log.Infof("adding route for %s", route)
		h.sources[route] = name
	}

	addLimit := passthrough
	if opts.AddLimit != nil {
		addLimit = opts.AddLimit
	}
	renderLimit := passthrough
	if opts.RenderLimit != nil {
		renderLimit = opts.RenderLimit
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /count_total", h.total)
	mux.Handle("GET /count/{count}", renderLimit(http.HandlerFunc(h.count)))
	mux.Handle("POST /add/{source}/{count}", addLimit(http.HandlerFunc(h.add)))
	mux.Handle("POST /add/{source}", addLimit(http.HandlerFunc(h.addMissingCount)))
	mux.HandleFunc("/add/", h.unknownSource)

	return AccessLog(h.log)(mux)
}

func passthrough(next http.Handler) http.Handler { return next }

type handlers struct {
	cache   ImageCache
	store   Counter
	sources map[string]string
	log     *logger.L
}

func (h *handlers) total(w http.ResponseWriter, r *http.Request) {
	writePNG(w, h.cache.Total())
}

func (h *handlers) count(w http.ResponseWriter, r *http.Request) {
	n, err := domain.ParseCount(r.PathValue("count"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, err := h.cache.Count(n)
	if err != nil {
		if domain.IsErrInvalid(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Errorf("render count %s: %s", n, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writePNG(w, img)
}

func (h *handlers) add(w http.ResponseWriter, r *http.Request) {
	name, ok := h.sources[r.PathValue("source")]
	if !ok {
		h.unknownSource(w, r)
		return
	}

	n, err := strconv.ParseUint(r.PathValue("count"), 10, 8)
	if err != nil {
		h.addMissingCount(w, r)
		return
	}

	if err := h.store.Add(r.Context(), name, uint8(n)); err != nil {
		h.log.Warnf("add %d to %q: %s", n, name, err)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeText(w, http.StatusOK, "OK")
}

// POST /add/{source} sem o número: mesma resposta de um número fora de 0..255.
func (h *handlers) addMissingCount(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sources[r.PathValue("source")]; !ok {
		h.unknownSource(w, r)
		return
	}
	writeText(w, http.StatusNotAcceptable, "Number to large")
}

func (h *handlers) unknownSource(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusNotAcceptable, "Unknown Source")
}

func writePNG(w http.ResponseWriter, img domain.Image) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", formatInt(img.Len()))
	w.WriteHeader(http.StatusOK)
	// erro aqui é cliente que desconectou
	_, _ = img.WriteTo(w)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
