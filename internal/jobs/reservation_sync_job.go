package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"innpilot/reservation-sync/internal/common"
	"innpilot/reservation-sync/internal/constants"
	"innpilot/reservation-sync/internal/db/repositories"
	"innpilot/reservation-sync/internal/events"
	"innpilot/reservation-sync/internal/logging"
	"innpilot/reservation-sync/internal/mapping"
	"innpilot/reservation-sync/internal/metrics"
	"innpilot/reservation-sync/internal/models/dtos"
	gormModels "innpilot/reservation-sync/internal/models/gorm"
	"innpilot/reservation-sync/internal/providers"
	"innpilot/reservation-sync/internal/services"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	tracerScope     = "innpilot/reservation-sync/jobs"
	syncMethod      = "_embed"
	progressEvery   = 10
	finalizeTimeout = 15 * time.Second
)

// Orchestrator states, logged at every transition
const (
	stateIdle                  = "idle"
	stateWarmingUp             = "warming_up"
	stateSyncingAccommodations = "syncing_accommodations"
	stateFetchingBookings      = "fetching_bookings"
	stateMapping               = "mapping"
	statePersisting            = "persisting"
	stateFinalizing            = "finalizing"
	stateDone                  = "done"
	stateFailed                = "failed"
)

// ProgressReporter receives human-readable milestones. current/total are 0
// when the milestone has no ratio.
type ProgressReporter interface {
	Progress(message string, current, total int)
}

type nopReporter struct{}

func (nopReporter) Progress(string, int, int) {}

// ProviderFactory builds a PMS client for one tenant's credentials
type ProviderFactory func(creds dtos.PMSCredentials) providers.PMSProvider

// SyncOptions tunes exclusion and persistence
type SyncOptions struct {
	Workers        int
	Location       *time.Location
	PastMonths     int
	FutureYears    int
	ChannelMarkers []string
}

// ReservationSyncDeps groups the collaborators of ReservationSyncJob.
// Lock, Publisher and Metrics are optional.
type ReservationSyncDeps struct {
	ConfigRepo      *repositories.IntegrationConfigRepo
	ReservationRepo *repositories.ReservationRepo
	UnitRepo        *repositories.AccommodationUnitRepo
	SyncRunRepo     *repositories.SyncRunRepo
	Resolver        *services.AccommodationResolver
	Vault           common.CredentialVault
	Lock            common.SyncLock
	NewProvider     ProviderFactory
	Publisher       events.Publisher
	Metrics         *metrics.MetricsRegistry
}

// ReservationSyncJob pulls every booking of a tenant from the PMS and
// reconciles it into guest_reservations
type ReservationSyncJob struct {
	configRepo       *repositories.IntegrationConfigRepo
	reservationRepo  *repositories.ReservationRepo
	syncRunRepo      *repositories.SyncRunRepo
	resolver         *services.AccommodationResolver
	vault            common.CredentialVault
	lock             common.SyncLock
	newProvider      ProviderFactory
	publisher        events.Publisher
	metrics          *metrics.MetricsRegistry
	accommodationJob *AccommodationSyncJob
	linkingJob       *AccommodationLinkingJob
	mapper           *mapping.BookingMapper
	opts             SyncOptions
	tracer           trace.Tracer
	now              func() time.Time
}

// NewReservationSyncJob creates a new reservation sync job instance
func NewReservationSyncJob(deps ReservationSyncDeps, opts SyncOptions) *ReservationSyncJob {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	lock := deps.Lock
	if lock == nil {
		lock = common.NewLocalSyncLock()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &ReservationSyncJob{
		configRepo:       deps.ConfigRepo,
		reservationRepo:  deps.ReservationRepo,
		syncRunRepo:      deps.SyncRunRepo,
		resolver:         deps.Resolver,
		vault:            deps.Vault,
		lock:             lock,
		newProvider:      deps.NewProvider,
		publisher:        publisher,
		metrics:          deps.Metrics,
		accommodationJob: NewAccommodationSyncJob(deps.UnitRepo),
		linkingJob:       NewAccommodationLinkingJob(deps.ConfigRepo, deps.ReservationRepo, deps.Resolver),
		mapper:           mapping.NewBookingMapper(deps.Resolver, opts.ChannelMarkers),
		opts:             opts,
		tracer:           otel.Tracer(tracerScope),
		now:              time.Now,
	}
}

// LinkingJob exposes the linking pass for on-demand triggering
func (j *ReservationSyncJob) LinkingJob() *AccommodationLinkingJob {
	return j.linkingJob
}

// syncRun is the mutable state of one invocation
type syncRun struct {
	tenantID       string
	configID       string
	state          string
	record         *gormModels.SyncRun
	log            *zap.SugaredLogger
	reporter       ProgressReporter
	stats          dtos.SyncStats
	fetched        int
	statusExcluded int
	unresolved     int
	duplicates     map[string][]string
}

// Run syncs every tenant with an active MotoPress integration
func (j *ReservationSyncJob) Run(ctx context.Context) error {
	start := time.Now()
	logging.Info("[ReservationSyncJob] Starting scheduled sync", "at", start.Format(time.RFC3339))

	tenantIDs, err := j.configRepo.ListActiveTenants(ctx, constants.IntegrationMotoPress)
	if err != nil {
		return err
	}

	if len(tenantIDs) == 0 {
		logging.Info("[ReservationSyncJob] No tenants with an active MotoPress integration")
		return nil
	}

	errorCount := 0
	for _, tenantID := range tenantIDs {
		if _, err := j.SyncTenant(ctx, tenantID, nil); err != nil {
			logging.Error("[ReservationSyncJob] Tenant sync failed", "tenant_id", tenantID, "error", err.Error())
			// Continue with other tenants even if one fails
			errorCount++
			continue
		}
	}

	logging.Info("[ReservationSyncJob] Completed scheduled sync",
		"tenants", len(tenantIDs),
		"errors", errorCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if errorCount > 0 {
		return fmt.Errorf("%d of %d tenant syncs failed", errorCount, len(tenantIDs))
	}
	return nil
}

// RunScheduled runs the sync for all tenants immediately, then on every tick
func (j *ReservationSyncJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := j.Run(ctx); err != nil {
		logging.Error("[ReservationSyncJob] Error in initial run", "error", err.Error())
	}

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				logging.Error("[ReservationSyncJob] Error in scheduled run", "error", err.Error())
			}
		case <-ctx.Done():
			logging.Info("[ReservationSyncJob] Shutting down scheduled sync")
			return
		}
	}
}

// TestConnection loads the tenant's credentials and runs the PMS self-test
func (j *ReservationSyncJob) TestConnection(ctx context.Context, tenantID string) (*providers.ConnectionResult, error) {
	provider, _, err := j.loadProvider(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result, err := provider.TestConnection(ctx)
	if err != nil {
		return nil, &SyncError{Kind: KindConnectivity, Stage: stateWarmingUp, Message: "Connection to MotoPress failed", Err: err}
	}
	return result, nil
}

// SyncTenant runs one complete sync for a tenant. Fatal failures come back
// as *SyncError after the run has been recorded; per-booking failures only
// show up in the returned stats.
func (j *ReservationSyncJob) SyncTenant(ctx context.Context, tenantID string, reporter ProgressReporter) (*dtos.SyncStats, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	start := time.Now()

	ctx, span := j.tracer.Start(ctx, "sync.run", trace.WithAttributes(attribute.String("tenant.id", tenantID)))
	defer span.End()

	run := &syncRun{
		tenantID:   tenantID,
		reporter:   reporter,
		log:        logging.With("tenant_id", tenantID),
		duplicates: make(map[string][]string),
	}
	j.transition(run, stateIdle)

	release, err := j.lock.Acquire(ctx, tenantID)
	if err != nil {
		message := constants.MsgSyncInProgress
		if !errors.Is(err, common.ErrSyncInProgress) {
			message = "Failed to acquire the sync lock"
		}
		syncErr := &SyncError{Kind: KindConfiguration, Stage: stateIdle, Message: message, Err: err}
		run.log.Warnw("[ReservationSyncJob] Sync not started", "error", err.Error())
		span.RecordError(syncErr)
		span.SetStatus(codes.Error, syncErr.Error())
		return nil, syncErr
	}
	defer release()

	run.record = &gormModels.SyncRun{
		TenantID:        tenantID,
		IntegrationType: constants.IntegrationMotoPress,
		SyncType:        constants.SyncTypeReservationsComplete,
	}
	if err := j.syncRunRepo.Start(ctx, run.record); err != nil {
		span.RecordError(err)
		return nil, err
	}
	run.log = run.log.With("run_id", run.record.ID)
	reporter.Progress("Starting sync...", 0, 0)

	execErr := j.execute(ctx, run)
	j.finalize(ctx, run, execErr, time.Since(start))

	span.SetAttributes(
		attribute.Int("sync.fetched", run.fetched),
		attribute.Int("sync.total", run.stats.Total),
		attribute.Int("sync.created", run.stats.Created),
		attribute.Int("sync.updated", run.stats.Updated),
		attribute.Int("sync.errors", run.stats.Errors),
	)
	if execErr != nil {
		span.RecordError(execErr)
		span.SetStatus(codes.Error, execErr.Error())
		return nil, execErr
	}

	stats := run.stats
	return &stats, nil
}

func (j *ReservationSyncJob) execute(ctx context.Context, run *syncRun) error {
	j.transition(run, stateWarmingUp)
	provider, configID, err := j.loadProvider(ctx, run.tenantID)
	if err != nil {
		return err
	}
	run.configID = configID

	run.reporter.Progress("Testing connection to MotoPress...", 0, 0)
	conn, err := provider.TestConnection(ctx)
	if err != nil {
		return &SyncError{Kind: KindConnectivity, Stage: stateWarmingUp, Message: "Connection to MotoPress failed", Err: err}
	}
	run.reporter.Progress(fmt.Sprintf("Connected to MotoPress (%d accommodation types)", conn.AccommodationCount), 0, 0)

	j.transition(run, stateSyncingAccommodations)
	if err := j.syncInventory(ctx, run, provider); err != nil {
		return err
	}

	j.transition(run, stateFetchingBookings)
	bookings, err := j.fetchBookings(ctx, run, provider)
	if err != nil {
		return err
	}

	j.transition(run, stateMapping)
	drafts := j.mapBookings(ctx, run, bookings)

	j.transition(run, statePersisting)
	j.persist(ctx, run, drafts)
	return nil
}

// loadProvider resolves the tenant's active config into a PMS client.
// Every failure here happens before any network call.
func (j *ReservationSyncJob) loadProvider(ctx context.Context, tenantID string) (providers.PMSProvider, string, error) {
	config, err := j.configRepo.GetActiveConfig(ctx, tenantID, constants.IntegrationMotoPress)
	if err != nil {
		message := "Failed to load the MotoPress configuration"
		switch {
		case errors.Is(err, repositories.ErrConfigNotFound):
			message = constants.GetErrorMessage(constants.ErrCodeConfigNotFound)
		case errors.Is(err, repositories.ErrConfigInactive):
			message = constants.GetErrorMessage(constants.ErrCodeConfigNotActive)
		}
		return nil, "", &SyncError{Kind: KindConfiguration, Stage: stateWarmingUp, Message: message, Err: err}
	}

	creds, err := j.vault.Decrypt(config.ConfigData)
	if err != nil {
		logging.Warn("[ReservationSyncJob] Stored credentials unreadable", "tenant_id", tenantID, "error", err.Error())
		return nil, "", &SyncError{
			Kind:    KindConfiguration,
			Stage:   stateWarmingUp,
			Message: constants.GetErrorMessage(constants.ErrCodeCredentialsInvalid),
			Err:     err,
		}
	}

	return j.newProvider(*creds), config.ID, nil
}

func (j *ReservationSyncJob) syncInventory(ctx context.Context, run *syncRun, provider providers.PMSProvider) error {
	ctx, span := j.tracer.Start(ctx, "sync.inventory")
	defer span.End()

	run.reporter.Progress("Syncing accommodations...", 0, 0)
	count, err := j.accommodationJob.SyncTenant(ctx, run.tenantID, provider)
	if err != nil {
		span.RecordError(err)
		return &SyncError{Kind: KindInventory, Stage: stateSyncingAccommodations, Message: "Accommodation sync failed", Err: err}
	}
	span.SetAttributes(attribute.Int("sync.accommodation_types", count))

	j.resolver.Invalidate(run.tenantID)
	if _, err := j.linkingJob.LinkTenant(ctx, run.tenantID); err != nil {
		run.log.Warnw("[ReservationSyncJob] Accommodation linking failed", "error", err.Error())
	}

	run.reporter.Progress(fmt.Sprintf("Synced %d accommodation types", count), 0, 0)
	return nil
}

func (j *ReservationSyncJob) fetchBookings(ctx context.Context, run *syncRun, provider providers.PMSProvider) ([]dtos.PMSBooking, error) {
	ctx, span := j.tracer.Start(ctx, "sync.fetch")
	defer span.End()

	run.reporter.Progress("Fetching bookings from MotoPress...", 0, 0)
	bookings, err := provider.FetchAllBookingsEmbedded(ctx, func(current, total int, message string) {
		run.reporter.Progress(message, current, total)
	})
	if err != nil {
		span.RecordError(err)
		return nil, &SyncError{Kind: KindFetch, Stage: stateFetchingBookings, Message: "Failed to fetch bookings", Err: err}
	}

	run.fetched = len(bookings)
	span.SetAttributes(attribute.Int("sync.bookings", run.fetched))
	run.log.Infow("[ReservationSyncJob] Bookings fetched", "count", run.fetched)
	return bookings, nil
}

// mapBookings applies the exclusion policy, then maps what is left.
// Status is checked before the date window, so a booking excluded for both
// reasons is counted only as status-excluded.
func (j *ReservationSyncJob) mapBookings(ctx context.Context, run *syncRun, bookings []dtos.PMSBooking) []*mapping.MappedReservation {
	window := mapping.NewDateWindow(j.now(), j.opts.Location, j.opts.PastMonths, j.opts.FutureYears)
	run.log.Infow("[ReservationSyncJob] Applying exclusion policy", "window", window.String())

	byCode := make(map[string][]string)
	drafts := make([]*mapping.MappedReservation, 0, len(bookings))

	for i := range bookings {
		b := &bookings[i]

		if mapping.IsCancelled(b.Status) {
			run.statusExcluded++
			continue
		}

		if checkIn, err := mapping.ParseStayDate(b.CheckInDate); err == nil && !window.Contains(checkIn) {
			if j.mapper.IsImported(b) {
				run.stats.BlocksExcluded++
			} else {
				run.stats.PastExcluded++
			}
			continue
		}

		run.stats.Total++
		mapped, err := j.mapper.Map(ctx, run.tenantID, b)
		if err != nil {
			run.stats.Errors++
			run.log.Warnw("[ReservationSyncJob] Failed to map booking", "external_booking_id", b.ID, "error", err.Error())
			continue
		}

		run.unresolved += mapped.Unresolved
		if mapped.Imported && mapped.ReservationCode != "" {
			byCode[mapped.ReservationCode] = append(byCode[mapped.ReservationCode], mapped.Reservation.ExternalBookingID)
		}
		drafts = append(drafts, mapped)
	}

	dupCodes := make([]string, 0)
	for code, ids := range byCode {
		if len(ids) > 1 {
			dupCodes = append(dupCodes, code)
		}
	}
	sort.Strings(dupCodes)
	for _, code := range dupCodes {
		run.duplicates[code] = byCode[code]
		run.log.Warnw("[ReservationSyncJob] Duplicate reservation code from imported calendar",
			"reservation_code", code,
			"external_booking_ids", byCode[code],
		)
	}

	run.reporter.Progress(fmt.Sprintf(
		"%d bookings to sync (%d cancelled, %d imported blocks and %d bookings outside the date window)",
		run.stats.Total, run.statusExcluded, run.stats.BlocksExcluded, run.stats.PastExcluded,
	), 0, 0)
	return drafts
}

// persist upserts every draft. With more than one worker the upserts run
// concurrently; reported progress never goes backwards.
func (j *ReservationSyncJob) persist(ctx context.Context, run *syncRun, drafts []*mapping.MappedReservation) {
	ctx, span := j.tracer.Start(ctx, "sync.persist")
	defer span.End()

	total := len(drafts)
	var created, updated, failed, done atomic.Int64

	var mu sync.Mutex
	reported := 0
	report := func(n int) {
		mu.Lock()
		defer mu.Unlock()
		if n <= reported {
			return
		}
		reported = n
		run.reporter.Progress(fmt.Sprintf("Saved %d of %d reservations", n, total), n, total)
	}

	save := func(ctx context.Context, m *mapping.MappedReservation) {
		result, err := j.reservationRepo.Upsert(ctx, m.Reservation, m.Accommodations)
		switch {
		case err != nil:
			failed.Add(1)
			run.log.Warnw("[ReservationSyncJob] Failed to save reservation",
				"external_booking_id", m.Reservation.ExternalBookingID,
				"error", err.Error(),
			)
		case result.Action == repositories.ActionCreated:
			created.Add(1)
		default:
			updated.Add(1)
		}

		n := int(done.Add(1))
		if n%progressEvery == 0 || n == total {
			report(n)
		}
	}

	if j.opts.Workers == 1 {
		for _, m := range drafts {
			save(ctx, m)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(j.opts.Workers)
		for _, m := range drafts {
			m := m
			g.Go(func() error {
				save(ctx, m)
				return nil
			})
		}
		_ = g.Wait()
	}

	run.stats.Created = int(created.Load())
	run.stats.Updated = int(updated.Load())
	run.stats.Errors += int(failed.Load())

	span.SetAttributes(
		attribute.Int("sync.created", run.stats.Created),
		attribute.Int("sync.updated", run.stats.Updated),
		attribute.Int("sync.persist_errors", int(failed.Load())),
	)
}

// finalize closes the audit row exactly once, whatever happened before
func (j *ReservationSyncJob) finalize(ctx context.Context, run *syncRun, execErr error, elapsed time.Duration) {
	j.transition(run, stateFinalizing)

	// the run must be recorded even when the caller's context is gone
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	rec := run.record
	rec.RecordsProcessed = run.stats.Total
	rec.RecordsCreated = run.stats.Created
	rec.RecordsUpdated = run.stats.Updated
	rec.RecordsErrored = run.stats.Errors
	rec.Metadata = run.metadata()

	outcome := metrics.OutcomeSuccess
	rec.Status = constants.SyncStatusSuccess
	switch {
	case execErr != nil:
		outcome = metrics.OutcomeError
		rec.Status = constants.SyncStatusError
		message := execErr.Error()
		rec.ErrorMessage = &message
	case run.stats.Errors > 0:
		outcome = metrics.OutcomePartial
		rec.Status = constants.SyncStatusPartial
	}

	if err := j.syncRunRepo.Finalize(ctx, rec); err != nil {
		run.log.Errorw("[ReservationSyncJob] Failed to finalize sync run", "error", err.Error())
	}

	completedAt := time.Now().UTC()
	if execErr == nil {
		if err := j.configRepo.TouchLastSync(ctx, run.configID, completedAt); err != nil {
			run.log.Warnw("[ReservationSyncJob] Failed to update last sync time", "error", err.Error())
		}
	}

	event := events.SyncCompletedEvent{
		RunID:                    rec.ID,
		TenantID:                 run.tenantID,
		Status:                   rec.Status,
		Created:                  run.stats.Created,
		Updated:                  run.stats.Updated,
		Errors:                   run.stats.Errors,
		UnresolvedAccommodations: run.unresolved,
		CompletedAt:              completedAt,
	}
	if err := j.publisher.PublishSyncCompleted(ctx, event); err != nil {
		run.log.Warnw("[ReservationSyncJob] Failed to publish sync event", "error", err.Error())
	}

	excluded := run.statusExcluded + run.stats.BlocksExcluded + run.stats.PastExcluded
	j.metrics.ObserveSync(outcome, elapsed.Seconds(), run.stats.Created, run.stats.Updated, run.stats.Errors, excluded)

	if execErr != nil {
		j.transition(run, stateFailed)
		run.log.Errorw("[ReservationSyncJob] Sync failed", "error", execErr.Error(), "duration_ms", elapsed.Milliseconds())
		return
	}

	j.transition(run, stateDone)
	run.log.Infow("[ReservationSyncJob] Sync completed",
		"status", rec.Status,
		"fetched", run.fetched,
		"total", run.stats.Total,
		"created", run.stats.Created,
		"updated", run.stats.Updated,
		"errors", run.stats.Errors,
		"excluded", excluded,
		"unresolved_accommodations", run.unresolved,
		"duration_ms", elapsed.Milliseconds(),
	)
}

func (j *ReservationSyncJob) transition(run *syncRun, state string) {
	from := run.state
	run.state = state
	run.log.Infow("[ReservationSyncJob] Sync state changed", "from", from, "to", state)
}

func (r *syncRun) metadata() datatypes.JSON {
	meta := map[string]interface{}{
		"total_bookings":            r.fetched,
		"status_excluded":           r.statusExcluded,
		"past_excluded":             r.stats.PastExcluded,
		"blocks_excluded":           r.stats.BlocksExcluded,
		"unresolved_accommodations": r.unresolved,
		"sync_method":               syncMethod,
	}
	if len(r.duplicates) > 0 {
		meta["duplicate_reservation_codes"] = r.duplicates
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
