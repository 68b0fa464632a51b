package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"geointel/internal/intel"
	"geointel/internal/output"
	"geointel/internal/service/web"
	"geointel/internal/shared/config"
	"geointel/internal/shared/logger"
	"geointel/internal/shared/types"
)

func main() {
	configDir := flag.String("configdir", "configs", "Path to config directory")
	target := flag.String("target", "", "Target IP or hostname (empty auto-detects own IP)")
	serve := flag.Bool("serve", false, "Keep running with the status web service and background re-verification")
	flag.Parse()

	iniPath := filepath.Join(*configDir, "geointel.ini")

	cfg := new(types.Config)
	if err := config.LoadIni(cfg, iniPath); err != nil {
		// Use standard fmt before logger is initialized.
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", iniPath, err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	output.PrintBanner(os.Stdout)

	app := intel.New(cfg)
	defer app.Close()

	ctx := context.Background()
	stats := app.Refresh(ctx)
	output.PrintRefreshSummary(os.Stdout, stats)

	if *serve {
		runServe(cfg, app)
		return
	}

	report, geocode, err := app.Lookup(ctx, *target)
	if err != nil {
		logger.Error().Err(err).Msg("Lookup failed.")
		os.Exit(1)
	}
	output.PrintReport(os.Stdout, report, geocode)
}

// runServe keeps the process alive with the background scheduler and the
// status web service until interrupted.
func runServe(cfg *types.Config, app *intel.App) {
	hub := web.NewHub()
	app.Pool().SetOnChange(func() {
		hub.BroadcastPoolUpdate(app.Pool().Len())
	})
	web.StartServer(cfg.WebConf, app, hub)
	app.StartScheduler()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("Shutting down.")
}
