// testserver runs a stand-alone task executor backed by its own in-memory
// simulator, for exercising the remote dispatch path end to end.
// Usage: go run ./cmd/testserver
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/seantiz/vaultchain/internal/config"
	"github.com/seantiz/vaultchain/internal/executor"
	"github.com/seantiz/vaultchain/internal/simulator"
	"github.com/seantiz/vaultchain/internal/store"
	"github.com/seantiz/vaultchain/internal/task"
)

func main() {
	addr := ":9090"
	if v := os.Getenv("VAULTCHAIN_EXECUTOR_ADDR"); v != "" {
		addr = v
	}

	var opts []executor.Option
	if v := os.Getenv("VAULTCHAIN_EXECUTOR_DELAY_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			log.Fatalf("invalid VAULTCHAIN_EXECUTOR_DELAY_MS %q", v)
		}
		opts = append(opts, executor.WithDelay(time.Duration(ms)*time.Millisecond))
	}

	logger := config.NewLogger(os.Stdout, slog.LevelInfo)

	st := store.NewMemoryStore()
	defer st.Close()

	reg := task.NewRegistry(logger, task.WithStrict(os.Getenv("VAULTCHAIN_STRICT_TASKS") == "true"))
	simulator.New(st, logger).Register(reg)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           executor.NewHandler(reg, logger, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("testserver: starting", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
