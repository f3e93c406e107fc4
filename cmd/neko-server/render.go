package main

import (
	"errors"
	"math/big"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"

	"neko-counter/counter/domain"
)

const dateLayout = "2006-01-02"

func renderFlags() []cli.Flag {
	return append([]cli.Flag{
		cli.StringFlag{
			Name:  "count, c",
			Value: "",
			Usage: "*number to draw `N`",
		},
		cli.BoolFlag{
			Name:  "total, t",
			Usage: " draw the number on the seasonal template",
		},
		cli.StringFlag{
			Name:  "date, d",
			Value: "",
			Usage: " template date `YYYY-MM-DD` (default: today, UTC)",
		},
		cli.StringFlag{
			Name:  "out, o",
			Value: "",
			Usage: "*output `FILE`",
		},
	}, logFlags()...)
}

type renderConfig struct {
	count *big.Int
	total bool
	date  time.Time
	out   string
	log   logConfig
}

func readRenderConfig(c *cli.Context, now time.Time) (renderConfig, error) {
	cfg := renderConfig{
		total: c.Bool("total"),
		out:   strings.TrimSpace(c.String("out")),
		date:  now.UTC(),
		log:   readLogConfig(c),
	}

	raw := strings.TrimSpace(c.String("count"))
	if raw == "" {
		return renderConfig{}, errors.New("--count is required")
	}
	n, err := domain.ParseCount(raw)
	if err != nil {
		return renderConfig{}, fmt.Errorf("--count %q: %w", raw, err)
	}
	cfg.count = n

	if cfg.out == "" {
		return renderConfig{}, errors.New("--out is required")
	}

	if d := strings.TrimSpace(c.String("date")); d != "" {
		if !cfg.total {
			return renderConfig{}, errors.New("--date only applies with --total")
		}
		cfg.date, err = time.Parse(dateLayout, d)
		if err != nil {
			return renderConfig{}, fmt.Errorf("--date %q: %w", d, err)
		}
	}

	if err := cfg.log.validate(); err != nil {
		return renderConfig{}, err
	}
	return cfg, nil
}

func runRender(c *cli.Context) error {
	cfg, err := readRenderConfig(c, time.Now())
	if err != nil {
		return err
	}

	if err := startLogging(cfg.log); err != nil {
		return err
	}
	defer logger.Finalise()
	log := logger.New("main")

	compositor, err := loadCompositor(c.String("assets"))
	if err != nil {
		return err
	}

	var img domain.Image
	if cfg.total {
		img, err = compositor.RenderTotal(cfg.count, cfg.date)
	} else {
		img, err = compositor.RenderCount(cfg.count)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(cfg.out, img.Bytes(), 0o644); err != nil {
		return err
	}
	log.Infof("wrote %s (%d bytes)", cfg.out, img.Len())
	fmt.Fprintf(c.App.Writer, "%s\n", cfg.out)
	return nil
}
