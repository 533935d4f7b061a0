package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/retrogate/retrogate/internal/config"
	"github.com/retrogate/retrogate/internal/gateway"
	"github.com/retrogate/retrogate/internal/logger"
	"github.com/retrogate/retrogate/internal/pidfile"
	"github.com/retrogate/retrogate/internal/provider"
	"github.com/retrogate/retrogate/internal/securemem"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flag.StringVar(&cfg.Host, "host", cfg.Host, "address to listen on")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "port to listen on")
	flag.StringVar(&cfg.Platform, "platform", cfg.Platform, "backend platform: google, openai or anthropic")
	flag.StringVar(&cfg.Model, "model", cfg.Model, "model identifier (empty selects the platform default)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error, none")
	flag.StringVar(&cfg.PidPath, "pidfile", cfg.PidPath, "path to write a pidfile (empty disables)")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err != nil {
			logger.Error("fatal error: %v", err)
		}
		if closeErr := logger.Global().Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", closeErr)
		}
	}()

	defer securemem.Shutdown()

	// A platform without a usable credential is a fatal startup condition;
	// the gateway must not start listening without a backend.
	mgr, err := provider.NewManager(cfg.Platform, cfg.Model)
	if err != nil {
		return err
	}
	cfg.Model = mgr.DefaultModel()

	if cfg.PidPath != "" {
		pf := pidfile.New(cfg.PidPath)
		if err := pf.Write(); err != nil {
			return err
		}
		defer func() {
			if removeErr := pf.Remove(); removeErr != nil {
				logger.Warn("%v", removeErr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := gateway.NewServer(cfg, mgr)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	logger.Info("press Ctrl+C to stop the gateway")
	<-ctx.Done()

	return srv.Stop()
}
