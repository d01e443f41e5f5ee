package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/seantiz/vaultchain/internal/config"
	"github.com/seantiz/vaultchain/internal/dispatch"
	"github.com/seantiz/vaultchain/internal/simulator"
	"github.com/seantiz/vaultchain/internal/store"
	"github.com/seantiz/vaultchain/internal/task"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "vaultchain",
		Short:         "VaultChain vault dashboard backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDispatchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "vaultchain:", err)
		os.Exit(1)
	}
}

// app holds the wired components shared by every subcommand.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	store      store.Store
	sim        *simulator.Simulator
	tasks      *task.Registry
	dispatcher *dispatch.Dispatcher
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)

	var st store.Store
	if cfg.DBPath == "" {
		st = store.NewMemoryStore()
	} else {
		db, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		st = db
	}

	sim := simulator.New(st, logger)
	reg := task.NewRegistry(logger, task.WithStrict(cfg.StrictTasks))
	sim.Register(reg)

	d := dispatch.NewDispatcher(reg, dispatch.Config{
		ExecutorURL: cfg.ExecutorURL,
		Timeout:     cfg.DispatchTimeout,
	}, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		sim:        sim,
		tasks:      reg,
		dispatcher: d,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
