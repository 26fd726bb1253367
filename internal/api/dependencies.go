package api

import (
	"context"
	"fmt"
	"time"

	"innpilot/reservation-sync/internal/common"
	"innpilot/reservation-sync/internal/config"
	"innpilot/reservation-sync/internal/db/repositories"
	"innpilot/reservation-sync/internal/events"
	"innpilot/reservation-sync/internal/jobs"
	"innpilot/reservation-sync/internal/logging"
	"innpilot/reservation-sync/internal/metrics"
	"innpilot/reservation-sync/internal/models/dtos"
	"innpilot/reservation-sync/internal/providers"
	"innpilot/reservation-sync/internal/services"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// syncLockTTL bounds how long a crashed instance can block a tenant
const syncLockTTL = 30 * time.Minute

type Repositories struct {
	Config       *repositories.IntegrationConfigRepo
	Reservations *repositories.ReservationRepo
	Units        *repositories.AccommodationUnitRepo
	SyncRuns     *repositories.SyncRunRepo
}

type Services struct {
	Cache     common.CacheInterface
	Vault     common.CredentialVault
	Lock      common.SyncLock
	Publisher events.Publisher
	Resolver  *services.AccommodationResolver
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services
	SyncJob  *jobs.ReservationSyncJob
	Metrics  *metrics.MetricsRegistry
	Redis    *redis.Client
}

// InitDependencies wires repositories, services and the sync job. rdb may be
// nil, in which case locking falls back to the process-local lock.
func InitDependencies(ctx context.Context, cfg *config.Config, pgDB *gorm.DB, sqlxDB *sqlx.DB, rdb *redis.Client, metricsReg *metrics.MetricsRegistry) (*Dependencies, error) {
	repos := &Repositories{
		Config:       repositories.NewIntegrationConfigRepo(pgDB),
		Reservations: repositories.NewReservationRepo(pgDB),
		Units:        repositories.NewAccommodationUnitRepo(pgDB),
		SyncRuns:     repositories.NewSyncRunRepo(sqlxDB),
	}

	vault, err := common.NewSecretBoxVault(cfg.CredentialsKey)
	if err != nil {
		return nil, fmt.Errorf("credential vault: %w", err)
	}

	cacheSvc := common.NewCacheService(int(cfg.ResolverCacheTTL.Seconds()), 600)

	var lock common.SyncLock = common.NewLocalSyncLock()
	if rdb != nil {
		lock = common.NewRedisSyncLock(rdb, syncLockTTL)
		logging.Info("Using Redis sync lock")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		publisher = events.NewAMQPPublisher(cfg.AMQPURL)
		logging.Info("Publishing sync events to RabbitMQ")
	}

	svcs := &Services{
		Cache:     cacheSvc,
		Vault:     vault,
		Lock:      lock,
		Publisher: publisher,
		Resolver:  services.NewAccommodationResolver(repos.Units, cacheSvc, cfg.ResolverCacheTTL),
	}

	providerOpts := providers.MotoPressOptions{
		Timeout:      cfg.PMSTimeout,
		PageSize:     cfg.PMSPageSize,
		PageInterval: cfg.PMSPageInterval,
		Metrics:      metricsReg,
	}

	syncJob := jobs.InitializeJobs(ctx, jobs.ReservationSyncDeps{
		ConfigRepo:      repos.Config,
		ReservationRepo: repos.Reservations,
		UnitRepo:        repos.Units,
		SyncRunRepo:     repos.SyncRuns,
		Resolver:        svcs.Resolver,
		Vault:           vault,
		Lock:            lock,
		NewProvider: func(creds dtos.PMSCredentials) providers.PMSProvider {
			return providers.NewMotoPressProvider(creds, providerOpts)
		},
		Publisher: publisher,
		Metrics:   metricsReg,
	}, jobs.SyncOptions{
		Workers:        cfg.SyncWorkers,
		Location:       cfg.SyncLocation,
		PastMonths:     cfg.PastMonths,
		FutureYears:    cfg.FutureYears,
		ChannelMarkers: cfg.ChannelMarkers,
	}, cfg.SyncInterval)

	return &Dependencies{
		Repo:     repos,
		Services: svcs,
		SyncJob:  syncJob,
		Metrics:  metricsReg,
		Redis:    rdb,
	}, nil
}
