package counter

import (
	"fmt"
	"os"
	"testing"

	"github.com/bitmark-inc/logger"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "counter-test")
	if err != nil {
		panic(err)
	}

	logConfig := logger.Configuration{
		Directory: dir,
		File:      "counter.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}
	if err := logger.Initialise(logConfig); err != nil {
		panic(fmt.Sprintf("logger initialization failed: %s", err))
	}

	code := m.Run()

	logger.Finalise()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}
