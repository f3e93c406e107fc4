package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli"

	"neko-counter/assets"
	"neko-counter/counter"
	"neko-counter/counter/application"
	"neko-counter/counter/domain"
	"neko-counter/counter/infra"
)

func runServe(c *cli.Context) error {
	cfg, err := readConfig(c)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if err := startLogging(cfg.log); err != nil {
		return err
	}
	defer logger.Finalise()

	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)

	compositor, err := loadCompositor(cfg.assetsDir)
	if err != nil {
		log.Criticalf("assets: %s", err)
		return err
	}

	initial, err := compositor.Encode(infra.InitialTotal(cfg.initialTotal))
	if err != nil {
		return err
	}
	cache := application.NewImageCache(compositor, initial, application.WithCapacity(cfg.cacheCapacity))

	store, err := openStore(cfg)
	if err != nil {
		log.Criticalf("%s store: %s", cfg.backend, err)
		return err
	}
	// o store fecha por último, depois do servidor e do refresher
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorf("close store: %s", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := store.Ensure(ctx, cfg.sources); err != nil {
		log.Criticalf("create sources: %s", err)
		return err
	}
	sources, err := store.Sources(ctx)
	if err != nil {
		return err
	}

	limiters := infra.NewLimiterStore(cfg.addRPS, cfg.addBurst)
	h := counter.NewHandler(counter.HandlerOptions{
		Cache:   cache,
		Store:   store,
		Sources: sources,
		AddLimit: counter.RateLimit(counter.RateLimitOptions{
			Store:              limiters,
			TrustXForwardedFor: cfg.trustXFF,
			RejectStatus:       http.StatusTooManyRequests,
			RetryAfter:         1 * time.Second,
		}),
		RenderLimit: counter.RenderLimit(counter.RenderLimitOptions{
			Max:            cfg.renderMax,
			RejectStatus:   http.StatusServiceUnavailable,
			AcquireTimeout: cfg.renderTimeout,
		}),
	})

	refresher := application.NewRefresher(store, cache, cfg.refreshInterval)
	refresher.FetchTimeout = cfg.fetchTimeout

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		refresher.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	log.Infof("listening on %s", cfg.listenAddr)
	log.Infof("store: backend=%s sources=%q", cfg.backend, sources)
	log.Infof("cache: capacity=%d refresh=%s fetchTimeout=%s", cfg.cacheCapacity, cfg.refreshInterval, cfg.fetchTimeout)
	log.Infof("add: rps=%.3f burst=%d trustXFF=%v", cfg.addRPS, cfg.addBurst, cfg.trustXFF)
	log.Infof("render: max=%d acquireTimeout=%s", cfg.renderMax, cfg.renderTimeout)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-serveErr:
		// falhou antes de qualquer sinal (ex: porta em uso)
		cancel()
	}
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %s", err)
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Criticalf("server error: %s", err)
		return err
	}
	return nil
}

// assetsFS escolhe entre os assets embutidos e um diretório externo.
func assetsFS(dir string) fs.FS {
	if dir == "" {
		return assets.FS
	}
	return os.DirFS(dir)
}

func loadCompositor(dir string) (*application.Compositor, error) {
	fsys := assetsFS(dir)
	glyphs, err := infra.LoadGlyphs(fsys)
	if err != nil {
		return nil, err
	}
	templates, err := infra.LoadTemplates(fsys)
	if err != nil {
		return nil, err
	}
	return application.NewCompositor(glyphs, templates, domain.DefaultCalendar()), nil
}

func openStore(cfg serveConfig) (domain.CounterStore, error) {
	switch cfg.backend {
	case backendMemory:
		return infra.NewMemoryStore(), nil

	case backendLevelDB:
		return infra.OpenLevelDBStore(cfg.dbPath)

	case backendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return infra.NewRedisStore(rdb, infra.WithRedisPrefix(cfg.redisPrefix)), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.backend)
}
