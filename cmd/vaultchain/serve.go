package main

import (
	"github.com/spf13/cobra"

	"github.com/seantiz/vaultchain/internal/api"
	"github.com/seantiz/vaultchain/internal/dispatch"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	executor := a.dispatcher.Remote()
	if executor == "" {
		executor = dispatch.InternalExecutor
	}
	a.logger.Info("vaultchain: starting",
		"listen_addr", a.cfg.ListenAddr,
		"db_path", a.cfg.DBPath,
		"executor", executor,
		"strict_tasks", a.cfg.StrictTasks,
	)

	srv := api.NewServer(a.cfg.ListenAddr, a.dispatcher, a.tasks, a.sim.Broker(), a.store, a.logger)
	return srv.Run()
}
