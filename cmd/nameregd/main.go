// Copyright 2026 Subspace Registry Project
//
// nameregd is a thin demonstration binary: it wires pkg/config,
// pkg/store, pkg/ledger, pkg/metrics and pkg/prover together and keeps
// a commitment ledger current, the same composition-root shape as the
// validator codebase's own main.go (config.Load, database.NewClient
// with graceful degradation, signal-driven shutdown) narrowed to this
// registry's own components. It is not a full operator CLI.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/certen/subspace-registry/pkg/config"
	"github.com/certen/subspace-registry/pkg/ledger"
	"github.com/certen/subspace-registry/pkg/metrics"
	"github.com/certen/subspace-registry/pkg/prover"
	"github.com/certen/subspace-registry/pkg/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var (
		configPath = flag.String("config", "authority.yaml", "path to the authority YAML config")
		showHelp   = flag.Bool("help", false, "show help message")
	)
	flag.Parse()

	if *showHelp {
		flag.Usage()
		return
	}

	log.Printf("starting nameregd, config=%s", *configPath)

	cfg, err := config.LoadAuthorityConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load authority config: %v", err)
	}
	log.Printf("authority for space %q, store at %s", cfg.Space.Name, cfg.Store.DataDir)

	db, err := dbm.NewDB(cfg.Space.Name, dbm.BackendType(cfg.Store.Backend), cfg.Store.DataDir)
	if err != nil {
		log.Fatalf("failed to open store backend %s: %v", cfg.Store.Backend, err)
	}
	defer db.Close()

	registrySt, err := store.Open(db, cfg.Store.LockFile)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	_ = m

	var commitmentLedger *ledger.Ledger
	if cfg.Ledger.DatabaseURL != "" {
		commitmentLedger, err = ledger.Open(
			cfg.Ledger.DatabaseURL,
			cfg.Ledger.MaxOpenConns,
			cfg.Ledger.MaxIdleConns,
			cfg.Ledger.ConnMaxLifetime.Duration(),
		)
		if err != nil {
			log.Printf("commitment ledger unavailable, running without audit persistence: %v", err)
		} else {
			defer commitmentLedger.Close()
			if err := commitmentLedger.MigrateUp(context.Background()); err != nil {
				log.Printf("commitment ledger migration failed: %v", err)
			}
		}
	} else {
		log.Println("no ledger.database_url configured, running without audit persistence")
	}

	srv := &batchServer{
		space:   cfg.Space.Name,
		store:   registrySt,
		prover:  prover.NewLocalProver(),
		ledger:  commitmentLedger,
		metrics: m,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	metricsServer := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: metricsMux}
	go func() {
		log.Printf("metrics listening on %s", cfg.Server.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	apiMux := http.NewServeMux()
	apiMux.Handle("/batches", srv)
	apiServer := &http.Server{Addr: cfg.Server.ListenAddr, Handler: apiMux}
	go func() {
		log.Printf("api listening on %s", cfg.Server.ListenAddr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("api server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("api server shutdown error: %v", err)
	}
}
