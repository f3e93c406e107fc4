package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"
)

// definido pelo linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero"

func main() {
	app := cli.NewApp()
	app.Name = "neko-server"
	app.Usage = "serve counter images as PNG"
	app.Version = version

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "run the HTTP server",
			Flags:  serveFlags(),
			Action: runServe,
		},
		{
			Name:      "render",
			Usage:     "render a single image to a file",
			ArgsUsage: "\n   (* = required)",
			Flags:     renderFlags(),
			Action:    runRender,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", app.Name, err)
		os.Exit(1)
	}
}

// startLogging cria o diretório de log e inicializa o logger.
// O chamador deve chamar logger.Finalise.
func startLogging(cfg logConfig) error {
	dir, err := filepath.Abs(cfg.dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("log directory: %w", err)
	}

	lc := cfg.configuration()
	lc.Directory = dir
	if err := logger.Initialise(lc); err != nil {
		return fmt.Errorf("logger setup failed: %w", err)
	}
	return nil
}
