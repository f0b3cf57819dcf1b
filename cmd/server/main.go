package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/server"
	"github.com/tallyhq/tally/internal/service"
	"github.com/tallyhq/tally/internal/storage/sqlite"
	"github.com/tallyhq/tally/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	groups := service.NewGroupService(store)
	ledger := service.NewLedgerService(store, cfg.Rates)
	srv := server.New(groups, ledger)

	slog.Info("Server starting", "address", cfg.Addr, "fx_pairs", len(cfg.Rates))
	if err := http.ListenAndServe(cfg.Addr, srv.Routes()); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
