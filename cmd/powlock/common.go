package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/grinding"
	"github.com/powlock/powlock/infrastructure/logger"
	"github.com/powlock/powlock/infrastructure/os/signal"
	"github.com/powlock/powlock/util/panics"
	"github.com/powlock/powlock/util/profiling"
)

const logHashRateInterval = 10 * time.Second

// printErrorAndExit logs err when the logger is running, then prints it to
// stderr and exits.
func printErrorAndExit(err error) {
	panics.Exit(log, err.Error())
}

// initLog starts the logger backend as configured by logFlags. The returned
// function flushes and closes it.
func initLog(logFlags *LogFlags) (func(), error) {
	logDir := logFlags.LogDir
	if logDir == "" {
		logDir = defaultLogDir
	}
	logLevel := logFlags.LogLevel
	if logLevel == "" {
		logLevel = "info"
	}
	err := logger.ParseAndSetLogLevels(logLevel)
	if err != nil {
		return nil, err
	}
	err = logger.InitLog(filepath.Join(logDir, defaultLogFilename), filepath.Join(logDir, defaultErrLogFilename))
	if err != nil {
		return nil, err
	}
	if logFlags.Profile != "" {
		profiling.Start(logFlags.Profile, log)
	}
	return logger.BackendLog().Close, nil
}

// interruptibleContext returns a context cancelled on SIGINT or SIGTERM.
func interruptibleContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	interrupt := signal.InterruptListener()
	spawn("interruptibleContext", func() {
		select {
		case <-interrupt:
			cancel()
		case <-ctx.Done():
		}
	})
	return ctx, cancel
}

func newSearcher(workers int) grinding.Searcher {
	if workers <= 1 {
		return grinding.SequentialSearcher{}
	}
	return grinding.ParallelSearcher{Workers: workers}
}

func serializeTransaction(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	err := tx.Serialize(&buf)
	if err != nil {
		return "", errors.Wrapf(err, "serializing transaction %s", tx.TxHash())
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

func writeFile(dir, name, content string) error {
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte(content), 0600)
	if err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
