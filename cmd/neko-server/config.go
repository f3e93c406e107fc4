package main

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"

	"neko-counter/counter/application"
)

const (
	backendMemory  = "memory"
	backendLevelDB = "leveldb"
	backendRedis   = "redis"
)

const (
	defaultLogFile  = "neko-server.log"
	defaultLogCount = 10          // número de arquivos de log mantidos
	defaultLogSize  = 1024 * 1024 // rotaciona quando passa desse tamanho
)

// flags comuns a serve e render
func logFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "log-dir",
			Value:  "log",
			Usage:  "log `DIR`",
			EnvVar: "LOG_DIR",
		},
		cli.StringFlag{
			Name:   "log-level",
			Value:  "info",
			Usage:  "default log `LEVEL` [trace|debug|info|warn|error|critical]",
			EnvVar: "LOG_LEVEL",
		},
		cli.BoolFlag{
			Name:   "log-console",
			Usage:  "also log to the console",
			EnvVar: "LOG_CONSOLE",
		},
		cli.StringFlag{
			Name:   "assets",
			Value:  "",
			Usage:  "read glyphs and templates from `DIR` instead of the embedded assets",
			EnvVar: "ASSETS_DIR",
		},
	}
}

// serveFlags devolve flags novas a cada chamada: o Value de um StringSliceFlag
// é um ponteiro e acumularia valores entre dois parses.
func serveFlags() []cli.Flag {
	return append([]cli.Flag{
		cli.StringFlag{
			Name:   "listen, l",
			Value:  ":8080",
			Usage:  "listen on `HOST:PORT`",
			EnvVar: "LISTEN_ADDR",
		},
		cli.IntFlag{
			Name:   "port, p",
			Value:  0,
			Usage:  "override the listen `PORT`",
			EnvVar: "PORT",
		},
		cli.StringFlag{
			Name:   "backend, b",
			Value:  backendLevelDB,
			Usage:  "counter store `NAME` [memory|leveldb|redis]",
			EnvVar: "COUNTER_BACKEND",
		},
		cli.StringFlag{
			Name:   "db",
			Value:  "neko.leveldb",
			Usage:  "LevelDB `DIR`",
			EnvVar: "DB_PATH",
		},
		cli.StringFlag{
			Name:   "redis-addr",
			Value:  "",
			Usage:  "redis `HOST:PORT`",
			EnvVar: "REDIS_ADDR",
		},
		cli.StringFlag{
			Name:   "redis-password",
			Value:  "",
			Usage:  "redis `PASSWORD`",
			EnvVar: "REDIS_PASSWORD",
		},
		cli.IntFlag{
			Name:   "redis-db",
			Value:  0,
			Usage:  "redis database `N`",
			EnvVar: "REDIS_DB",
		},
		cli.StringFlag{
			Name:   "redis-prefix",
			Value:  "neko",
			Usage:  "redis key `PREFIX`",
			EnvVar: "REDIS_PREFIX",
		},
		cli.StringSliceFlag{
			Name:   "source, s",
			Value:  &cli.StringSlice{},
			Usage:  "counter source `NAME` created at start (repeatable, default: neko)",
			EnvVar: "COUNTER_SOURCES",
		},
		cli.StringFlag{
			Name:   "initial-total",
			Value:  "total.png",
			Usage:  "image served before the first refresh `FILE`",
			EnvVar: "INITIAL_TOTAL",
		},
		cli.IntFlag{
			Name:   "cache-capacity",
			Value:  application.DefaultCapacity,
			Usage:  "count images kept before the cache is cleared `N`",
			EnvVar: "CACHE_CAPACITY",
		},
		cli.DurationFlag{
			Name:   "refresh-interval",
			Value:  application.DefaultRefreshInterval,
			Usage:  "total image refresh `INTERVAL`",
			EnvVar: "REFRESH_INTERVAL",
		},
		cli.DurationFlag{
			Name:   "fetch-timeout",
			Value:  application.DefaultFetchTimeout,
			Usage:  "timeout for reading the counter sum `DURATION`",
			EnvVar: "FETCH_TIMEOUT",
		},
		cli.Float64Flag{
			Name:   "add-rps",
			Value:  1,
			Usage:  "increments per second per client `RPS`",
			EnvVar: "ADD_RPS",
		},
		cli.IntFlag{
			Name:   "add-burst",
			Value:  5,
			Usage:  "increment burst per client `N`",
			EnvVar: "ADD_BURST",
		},
		cli.BoolFlag{
			Name:   "trust-xff",
			Usage:  "identify clients by the first X-Forwarded-For address",
			EnvVar: "TRUST_XFF",
		},
		cli.IntFlag{
			Name:   "render-max",
			Value:  32,
			Usage:  "concurrent count image requests `N` (0 = unlimited)",
			EnvVar: "RENDER_MAX",
		},
		cli.DurationFlag{
			Name:   "render-timeout",
			Value:  2 * time.Second,
			Usage:  "wait for a render slot `DURATION`",
			EnvVar: "RENDER_TIMEOUT",
		},
	}, logFlags()...)
}

type logConfig struct {
	dir     string
	level   string
	console bool
}

type serveConfig struct {
	listenAddr string
	backend    string
	dbPath     string

	redisAddr     string
	redisPassword string
	redisDB       int
	redisPrefix   string

	sources      []string
	assetsDir    string
	initialTotal string

	cacheCapacity   int
	refreshInterval time.Duration
	fetchTimeout    time.Duration

	addRPS        float64
	addBurst      int
	trustXFF      bool
	renderMax     int
	renderTimeout time.Duration

	log logConfig
}

func readLogConfig(c *cli.Context) logConfig {
	return logConfig{
		dir:     c.String("log-dir"),
		level:   strings.ToLower(strings.TrimSpace(c.String("log-level"))),
		console: c.Bool("log-console"),
	}
}

func readConfig(c *cli.Context) (serveConfig, error) {
	cfg := serveConfig{
		listenAddr:      c.String("listen"),
		backend:         strings.ToLower(strings.TrimSpace(c.String("backend"))),
		dbPath:          c.String("db"),
		redisAddr:       strings.TrimSpace(c.String("redis-addr")),
		redisPassword:   c.String("redis-password"),
		redisDB:         c.Int("redis-db"),
		redisPrefix:     c.String("redis-prefix"),
		assetsDir:       c.String("assets"),
		initialTotal:    c.String("initial-total"),
		cacheCapacity:   c.Int("cache-capacity"),
		refreshInterval: c.Duration("refresh-interval"),
		fetchTimeout:    c.Duration("fetch-timeout"),
		addRPS:          c.Float64("add-rps"),
		addBurst:        c.Int("add-burst"),
		trustXFF:        c.Bool("trust-xff"),
		renderMax:       c.Int("render-max"),
		renderTimeout:   c.Duration("render-timeout"),
		log:             readLogConfig(c),
	}

	// --port substitui só a porta do --listen
	if port := c.Int("port"); port != 0 {
		host, _, err := net.SplitHostPort(cfg.listenAddr)
		if err != nil {
			host = ""
		}
		cfg.listenAddr = net.JoinHostPort(host, fmt.Sprint(port))
	}

	// COUNTER_SOURCES chega como "a,b"; nomes podem ter espaço ("Neko Bot")
	for _, s := range c.StringSlice("source") {
		if s = strings.TrimSpace(s); s != "" {
			cfg.sources = append(cfg.sources, s)
		}
	}
	if len(cfg.sources) == 0 {
		cfg.sources = []string{"neko"}
	}

	if err := cfg.validate(); err != nil {
		return serveConfig{}, err
	}
	return cfg, nil
}

func (cfg serveConfig) validate() error {
	switch cfg.backend {
	case backendMemory:
	case backendLevelDB:
		if strings.TrimSpace(cfg.dbPath) == "" {
			return errors.New("DB_PATH is required for the leveldb backend")
		}
	case backendRedis:
		if cfg.redisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown COUNTER_BACKEND %q", cfg.backend)
	}

	if cfg.cacheCapacity <= 0 {
		return errors.New("CACHE_CAPACITY must be > 0")
	}
	if cfg.refreshInterval <= 0 {
		return errors.New("REFRESH_INTERVAL must be > 0")
	}
	if cfg.fetchTimeout <= 0 {
		return errors.New("FETCH_TIMEOUT must be > 0")
	}
	if cfg.addRPS <= 0 {
		return errors.New("ADD_RPS must be > 0")
	}
	if cfg.addBurst <= 0 {
		return errors.New("ADD_BURST must be > 0")
	}
	if cfg.renderMax < 0 {
		return errors.New("RENDER_MAX must be >= 0")
	}
	return cfg.log.validate()
}

var logLevels = map[string]bool{
	"trace":    true,
	"debug":    true,
	"info":     true,
	"warn":     true,
	"error":    true,
	"critical": true,
}

func (l logConfig) validate() error {
	if !logLevels[l.level] {
		return fmt.Errorf("unknown LOG_LEVEL %q", l.level)
	}
	if strings.TrimSpace(l.dir) == "" {
		return errors.New("LOG_DIR is required")
	}
	return nil
}

func (l logConfig) configuration() logger.Configuration {
	return logger.Configuration{
		Directory: l.dir,
		File:      defaultLogFile,
		Size:      defaultLogSize,
		Count:     defaultLogCount,
		Console:   l.console,
		Levels: map[string]string{
			logger.DefaultTag: l.level,
		},
	}
}
