package counter

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neko-counter/assets"
	"neko-counter/counter/application"
	"neko-counter/counter/domain"
	"neko-counter/counter/infra"
)

type fakeCache struct {
	mu    sync.Mutex
	total domain.Image
	asked []string
	err   error
}

func (c *fakeCache) Total() domain.Image { return c.total }

func (c *fakeCache) Count(n *big.Int) (domain.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asked = append(c.asked, n.String())
	if c.err != nil {
		return domain.Image{}, c.err
	}
	return domain.NewImage([]byte("count-" + n.String())), nil
}

type failingCounter struct{}

func (failingCounter) Add(context.Context, string, uint8) error {
	return errors.New("database is locked")
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, "http://example"+target, nil)
	r.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func newTestHandler(cache ImageCache, store Counter) http.Handler {
	return NewHandler(HandlerOptions{
		Cache:   cache,
		Store:   store,
		Sources: []string{"Neko Bot", "web"},
	})
}

func TestHandler_CountTotal(t *testing.T) {
	cache := &fakeCache{total: domain.NewImage([]byte("total-png"))}
	h := newTestHandler(cache, infra.NewMemoryStore())

	w := do(t, h, http.MethodGet, "/count_total")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, "total-png", w.Body.String())

	w = do(t, h, http.MethodPost, "/count_total")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandler_Count(t *testing.T) {
	cache := &fakeCache{}
	h := newTestHandler(cache, infra.NewMemoryStore())

	w := do(t, h, http.MethodGet, "/count/00123")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "count-123", w.Body.String())

	huge := "340282366920938463463374607431768211456"
	w = do(t, h, http.MethodGet, "/count/"+huge)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "count-"+huge, w.Body.String())

	assert.Equal(t, []string{"123", huge}, cache.asked)
}

func TestHandler_CountRejectsInvalidInput(t *testing.T) {
	cache := &fakeCache{}
	h := newTestHandler(cache, infra.NewMemoryStore())

	for _, in := range []string{"-1", "abc", "1e3", "12a"} {
		w := do(t, h, http.MethodGet, "/count/"+in)
		assert.Equal(t, http.StatusBadRequest, w.Code, "input %q", in)
	}
	assert.Empty(t, cache.asked)
}

func TestHandler_CountRejectsTooManyDigits(t *testing.T) {
	cache := &fakeCache{}
	h := newTestHandler(cache, infra.NewMemoryStore())

	w := do(t, h, http.MethodGet, "/count/"+strings.Repeat("9", domain.MaxCountDigits))
	assert.Equal(t, http.StatusOK, w.Code)

	for _, in := range []string{"1" + strings.Repeat("0", domain.MaxCountDigits), strings.Repeat("9", 20000)} {
		w = do(t, h, http.MethodGet, "/count/"+in)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%d digits", len(in))
	}
	assert.Len(t, cache.asked, 1, "oversized counts must never reach the cache")
}

func TestHandler_CountRenderFailure(t *testing.T) {
	cache := &fakeCache{err: domain.ErrEncodeImage}
	h := newTestHandler(cache, infra.NewMemoryStore())

	w := do(t, h, http.MethodGet, "/count/7")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEqual(t, "image/png", w.Header().Get("Content-Type"))
}

func TestHandler_Add(t *testing.T) {
	store := infra.NewMemoryStore("Neko Bot", "web")
	h := newTestHandler(&fakeCache{}, store)

	w := do(t, h, http.MethodPost, "/add/neko_bot/200")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = do(t, h, http.MethodPost, "/add/web/255")
	assert.Equal(t, http.StatusOK, w.Code)

	got, ok := store.Count("Neko Bot")
	require.True(t, ok)
	assert.Equal(t, "200", got.String())

	sum, err := store.Sum(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "455", sum.String())
}

func TestHandler_AddErrors(t *testing.T) {
	store := infra.NewMemoryStore("Neko Bot", "web")
	h := newTestHandler(&fakeCache{}, store)

	cases := []struct {
		method string
		target string
		status int
		body   string
	}{
		{http.MethodPost, "/add/neko_bot/256", http.StatusNotAcceptable, "Number to large"},
		{http.MethodPost, "/add/neko_bot/-1", http.StatusNotAcceptable, "Number to large"},
		{http.MethodPost, "/add/neko_bot", http.StatusNotAcceptable, "Number to large"},
		{http.MethodPost, "/add/Neko%20Bot/1", http.StatusNotAcceptable, "Unknown Source"},
		{http.MethodPost, "/add/cats/1", http.StatusNotAcceptable, "Unknown Source"},
		{http.MethodPost, "/add/cats", http.StatusNotAcceptable, "Unknown Source"},
		{http.MethodPost, "/add/", http.StatusNotAcceptable, "Unknown Source"},
		{http.MethodPost, "/add/web/1/2", http.StatusNotAcceptable, "Unknown Source"},
		{http.MethodGet, "/add/web/1", http.StatusNotAcceptable, "Unknown Source"},
	}
	for _, tc := range cases {
		w := do(t, h, tc.method, tc.target)
		assert.Equal(t, tc.status, w.Code, "%s %s", tc.method, tc.target)
		assert.Equal(t, tc.body, w.Body.String(), "%s %s", tc.method, tc.target)
	}

	sum, err := store.Sum(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0", sum.String(), "no rejected request may change the counts")
}

func TestHandler_AddStoreFailure(t *testing.T) {
	h := newTestHandler(&fakeCache{}, failingCounter{})

	w := do(t, h, http.MethodPost, "/add/web/1")
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandler_LimitsWrapTheirRoutes(t *testing.T) {
	var adds, renders int
	counting := func(n *int) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				*n++
				next.ServeHTTP(w, r)
			})
		}
	}

	h := NewHandler(HandlerOptions{
		Cache:       &fakeCache{total: domain.NewImage([]byte("t"))},
		Store:       infra.NewMemoryStore("web"),
		Sources:     []string{"web"},
		AddLimit:    counting(&adds),
		RenderLimit: counting(&renders),
	})

	do(t, h, http.MethodGet, "/count_total")
	do(t, h, http.MethodGet, "/count/1")
	do(t, h, http.MethodPost, "/add/web/1")
	do(t, h, http.MethodPost, "/add/web")

	assert.Equal(t, 2, adds)
	assert.Equal(t, 1, renders)
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "neko_bot", SnakeCase("Neko Bot"))
	assert.Equal(t, "a__b", SnakeCase("A  B"))
	assert.Equal(t, "web", SnakeCase("web"))
}

// fluxo completo com os assets embutidos: add -> refresh -> imagens PNG válidas
func TestHandler_EndToEnd(t *testing.T) {
	glyphs, err := infra.LoadGlyphs(assets.FS)
	require.NoError(t, err)
	templates, err := infra.LoadTemplates(assets.FS)
	require.NoError(t, err)

	compositor := application.NewCompositor(glyphs, templates, nil)
	initial, err := compositor.Encode(infra.InitialTotal("does-not-exist.png"))
	require.NoError(t, err)

	store := infra.NewMemoryStore("neko")
	cache := application.NewImageCache(compositor, initial, application.WithCapacity(4))
	h := NewHandler(HandlerOptions{Cache: cache, Store: store, Sources: []string{"neko"}})

	w := do(t, h, http.MethodGet, "/count_total")
	require.Equal(t, http.StatusOK, w.Code)
	cfg, err := png.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Width)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/add/neko/42").Code)

	refresher := application.NewRefresher(store, cache, application.DefaultRefreshInterval)
	require.NoError(t, refresher.Tick(context.Background()))

	w = do(t, h, http.MethodGet, "/count_total")
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	cfg, err = png.DecodeConfig(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 160, cfg.Height)

	w = do(t, h, http.MethodGet, "/count/1234")
	require.Equal(t, http.StatusOK, w.Code)
	cfg, err = png.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 4*48, cfg.Width)
	assert.Equal(t, 80, cfg.Height)
	assert.Equal(t, 1, cache.Len())
}
