/*
lumen opens a window and renders the configured scene with WebGPU.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/lumen/engine"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to a .toml or .yaml configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		core.LogFatal("%s", err)
	}
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		core.LogFatal("%s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	e := engine.New(cfg)
	if err := e.Initialize(ctx); err != nil {
		core.LogFatal("initialization failed: %s", err)
	}

	// A signal only flips the exit flag, the loop tears everything down on
	// its own thread.
	go func() {
		<-ctx.Done()
		e.RequestExit()
	}()

	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		core.LogFatal("%s", runErr)
	}
}

// loadConfig falls back to the defaults when the default file is absent.
// An explicitly named file must exist.
func loadConfig(path string) (*config.ApplicationConfig, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && path == config.DefaultPath {
		core.LogInfo("No %s found, using the default configuration.", path)
		return config.Default(), nil
	}
	return cfg, err
}
