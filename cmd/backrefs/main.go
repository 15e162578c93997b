// # cmd/backrefs/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"backrefs/internal/core/app"
	"backrefs/internal/core/config"
	"backrefs/internal/core/ports"
	"backrefs/internal/shared/observability"
)

var (
	configPath = flag.String("config", "./backrefs.toml", "Path to config file")
	once       = flag.Bool("once", false, "Run single scan and exit")
	impact     = flag.String("impact", "", "List units referencing a qualified symbol")
	supers     = flag.String("supers", "", "Print the recorded supertypes of a class")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("backrefs v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) && *configPath == "./backrefs.toml" {
			cfg = config.Default()
		} else {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}
	config.ApplyEnvOverrides(cfg)

	if flag.NArg() > 0 {
		cfg.WatchPaths = flag.Args()
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to resolve working directory", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.Enabled && cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(ctx, "backrefs", cfg.Observability.OTLPEndpoint)
		if err != nil {
			slog.Error("failed to initialize tracing", "error", err)
			os.Exit(1)
		}
		defer func() {
			_ = shutdown(context.Background())
		}()
	}

	a, err := app.New(cfg, cwd)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	var obs *app.ObservabilityServer
	if cfg.Observability.Enabled && cfg.Observability.EnableMetrics {
		obs = app.NewObservabilityServer(fmt.Sprintf(":%d", cfg.Observability.Port), a)
		if err := obs.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			os.Exit(1)
		}
		defer func() {
			_ = obs.Stop(context.Background())
		}()
	}

	svc := app.NewScanService(a)

	result, err := svc.RunScan(ctx, ports.ScanRequest{})
	if err != nil {
		slog.Error("initial scan failed", "error", err)
		os.Exit(1)
	}
	printScanResult(result)

	if *impact != "" {
		report, err := svc.AnalyzeImpact(ctx, *impact)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Print(formatImpactResult(report))
		return
	}
	if *supers != "" {
		names, err := svc.SupersOf(ctx, *supers)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Print(formatSupers(*supers, names))
		return
	}

	if *once {
		return
	}

	if err := svc.WatchService().Start(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}
	slog.Info("watching for changes", "paths", cfg.WatchPaths)

	cfgWatcher := config.NewWatcher(*configPath, func(newCfg *config.Config) {
		config.ApplyEnvOverrides(newCfg)
		a.ApplyRuntimeConfig(newCfg)
	})
	if err := cfgWatcher.Start(ctx); err != nil {
		slog.Warn("config watcher unavailable", "error", err)
	} else {
		defer cfgWatcher.Stop()
	}

	err = svc.WatchService().Subscribe(ctx, func(update ports.WatchUpdate) {
		slog.Info("rescan complete",
			"units", update.UnitsScanned,
			"references", update.References,
			"last_unit", update.LastUnit,
			"warnings", len(update.Warnings))
	})
	if err != nil && ctx.Err() == nil {
		slog.Error("watch subscription failed", "error", err)
		os.Exit(1)
	}
}

func printScanResult(result ports.ScanResult) {
	slog.Info("scan complete",
		"units", result.UnitsScanned,
		"classes", result.Classes,
		"members", result.Members,
		"references", result.References)
	for _, warning := range result.Warnings {
		slog.Warn("scan warning", "detail", warning)
	}
}

func formatImpactResult(result ports.ImpactResult) string {
	var b strings.Builder

	b.WriteString("Impact Analysis\n")
	b.WriteString("==============\n")
	b.WriteString(fmt.Sprintf("Symbol: %s\n\n", result.Symbol))
	b.WriteString(fmt.Sprintf("Referencing units (%d)\n", len(result.Units)))
	for _, unit := range result.Units {
		b.WriteString(fmt.Sprintf("- %s\n", unit))
	}
	return b.String()
}

func formatSupers(className string, supers []string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Supertypes of %s (%d)\n", className, len(supers)))
	for _, name := range supers {
		b.WriteString(fmt.Sprintf("- %s\n", name))
	}
	return b.String()
}
