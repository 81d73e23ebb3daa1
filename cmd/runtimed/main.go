package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"runtimed/internal/config"
	"runtimed/internal/httpapi"
	"runtimed/internal/ports"
	"runtimed/internal/queue"
	"runtimed/internal/store"
	"runtimed/internal/supervisor"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var configPath string
	cfg := config.Config{}

	root := &cobra.Command{
		Use:           "runtimed",
		Short:         "Local daemon managing inference runtime and bridge server processes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				fileCfg, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config %s: %w", configPath, err)
				}
				// Flags set explicitly on the command line win over
				// file values.
				mergeConfig(cmd, &fileCfg, cfg)
				cfg = fileCfg
			}
			applyDefaults(&cfg)
			return runDaemon(cfg)
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "Config file (.yaml/.yml/.json/.toml)")
	root.Flags().StringVar(&cfg.Addr, "addr", "", "HTTP listen address, e.g. :8090 (defaults RUNTIMED_ADDR or :8090)")
	root.Flags().StringVar(&cfg.StateFile, "state-file", "", "Path to the server config store (default ~/.runtimed/servers.json)")
	root.Flags().StringVar(&cfg.RuntimeBin, "runtime-bin", "", "Inference runtime binary (default runtime-server)")
	root.Flags().StringVar(&cfg.BridgeBin, "bridge-bin", "", "Bridge server binary (default bridge-server)")
	root.Flags().IntVar(&cfg.StopTimeoutSec, "stop-timeout-sec", 0, "Seconds to wait for a stopping process before killing it (default 5)")
	root.Flags().IntVar(&cfg.MaxConcurrent, "max-concurrent", 0, "Queue processing concurrency bound (default 2)")
	root.Flags().IntVar(&cfg.MaxQueueSize, "max-queue-size", 0, "Bound on waiting + processing queue items (default 100)")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", "", "Log level: debug|info|warn|error (default info)")
	root.Flags().StringVar(&cfg.LogFile, "log-file", "", "Log file with rotation; empty logs to stderr")

	return root
}

// mergeConfig overwrites fileCfg fields with flag values the user set
// explicitly.
func mergeConfig(cmd *cobra.Command, fileCfg *config.Config, flagCfg config.Config) {
	if cmd.Flags().Changed("addr") {
		fileCfg.Addr = flagCfg.Addr
	}
	if cmd.Flags().Changed("state-file") {
		fileCfg.StateFile = flagCfg.StateFile
	}
	if cmd.Flags().Changed("runtime-bin") {
		fileCfg.RuntimeBin = flagCfg.RuntimeBin
	}
	if cmd.Flags().Changed("bridge-bin") {
		fileCfg.BridgeBin = flagCfg.BridgeBin
	}
	if cmd.Flags().Changed("stop-timeout-sec") {
		fileCfg.StopTimeoutSec = flagCfg.StopTimeoutSec
	}
	if cmd.Flags().Changed("max-concurrent") {
		fileCfg.MaxConcurrent = flagCfg.MaxConcurrent
	}
	if cmd.Flags().Changed("max-queue-size") {
		fileCfg.MaxQueueSize = flagCfg.MaxQueueSize
	}
	if cmd.Flags().Changed("log-level") {
		fileCfg.LogLevel = flagCfg.LogLevel
	}
	if cmd.Flags().Changed("log-file") {
		fileCfg.LogFile = flagCfg.LogFile
	}
}

func applyDefaults(cfg *config.Config) {
	if cfg.Addr == "" {
		cfg.Addr = os.Getenv("RUNTIMED_ADDR")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8090"
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "~/.runtimed/servers.json"
	}
	if cfg.RuntimeBin == "" {
		cfg.RuntimeBin = "runtime-server"
	}
	if cfg.BridgeBin == "" {
		cfg.BridgeBin = "bridge-server"
	}
	if cfg.StopTimeoutSec <= 0 {
		cfg.StopTimeoutSec = 5
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func runDaemon(cfg config.Config) error {
	logger := newLogger(cfg)
	httpapi.SetLogger(logger)

	st, err := store.Open(cfg.StateFile)
	if err != nil {
		return fmt.Errorf("open state file %s: %w", cfg.StateFile, err)
	}

	sup := supervisor.New(supervisor.Config{
		Store:       st,
		Ports:       &ports.Allocator{},
		RuntimeBin:  cfg.RuntimeBin,
		BridgeBin:   cfg.BridgeBin,
		StopTimeout: time.Duration(cfg.StopTimeoutSec) * time.Second,
		Logger:      logger,
	})

	q := queue.NewWithConfig(queue.Config{
		MaxConcurrent: cfg.MaxConcurrent,
		MaxQueueSize:  cfg.MaxQueueSize,
	})

	mux := httpapi.NewMux(sup, q)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("state_file", cfg.StateFile).Msg("runtimed listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown error")
	}
	// Managed processes outlive nothing; stop them all before exit.
	sup.Shutdown()
	return nil
}
