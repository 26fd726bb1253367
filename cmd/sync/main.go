package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"innpilot/reservation-sync/internal/api"
	"innpilot/reservation-sync/internal/common"
	"innpilot/reservation-sync/internal/config"
	"innpilot/reservation-sync/internal/db"
	"innpilot/reservation-sync/internal/logging"
	"innpilot/reservation-sync/internal/metrics"
	"innpilot/reservation-sync/internal/models/dtos"
	"innpilot/reservation-sync/internal/stream"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Runs a reservation sync from the command line. With -tenant, progress
// frames are written to stdout as NDJSON; logs go to stderr.
func main() {
	tenantID := flag.String("tenant", "", "tenant to sync")
	all := flag.Bool("all", false, "sync every tenant with an active MotoPress integration")
	every := flag.Duration("every", 0, "with -all, repeat on this interval until interrupted")
	flag.Parse()

	if (*tenantID == "") == !*all {
		fmt.Fprintln(os.Stderr, "usage: sync -tenant <id> | -all [-every 30m]")
		os.Exit(2)
	}

	os.Exit(run(*tenantID, *all, *every))
}

func run(tenantID string, all bool, every time.Duration) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}
	// the CLI drives its own schedule
	cfg.SyncInterval = 0

	if err := logging.Init(cfg.AppEnv); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.InitPostgres(cfg.DatabaseURL); err != nil {
		logging.Error("Failed to connect to Postgres (sqlx)", "error", err.Error())
		return 1
	}
	pgDB, err := db.InitPostgresORM(cfg.DatabaseURL)
	if err != nil {
		logging.Error("Failed to connect to Postgres (GORM)", "error", err.Error())
		return 1
	}

	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb = common.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		defer rdb.Close()
	}

	deps, err := api.InitDependencies(ctx, cfg, pgDB, db.DB, rdb, metrics.NewMetricsRegistry(prometheus.NewRegistry()))
	if err != nil {
		logging.Error("Failed to initialize dependencies", "error", err.Error())
		return 1
	}
	job := deps.SyncJob

	if all {
		if every > 0 {
			job.RunScheduled(ctx, every)
			return 0
		}
		if err := job.Run(ctx); err != nil {
			logging.Error("Sync finished with failures", "error", err.Error())
			return 1
		}
		return 0
	}

	s := stream.New(os.Stdout, false)
	err = stream.Run(ctx, s, cfg.HeartbeatInterval, func(ctx context.Context) (*dtos.SyncStats, error) {
		return job.SyncTenant(ctx, tenantID, s)
	})
	if err != nil {
		return 1
	}
	return 0
}
