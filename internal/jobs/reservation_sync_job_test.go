package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"innpilot/reservation-sync/internal/common"
	"innpilot/reservation-sync/internal/constants"
	"innpilot/reservation-sync/internal/db/dbtest"
	"innpilot/reservation-sync/internal/db/repositories"
	"innpilot/reservation-sync/internal/events"
	"innpilot/reservation-sync/internal/logging"
	"innpilot/reservation-sync/internal/models/dtos"
	gormModels "innpilot/reservation-sync/internal/models/gorm"
	"innpilot/reservation-sync/internal/providers"
	"innpilot/reservation-sync/internal/services"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const testTenant = "tenant-1"

func init() {
	logging.InitNop()
}

type fakePMS struct {
	mu               sync.Mutex
	bookings         []map[string]interface{}
	types            []map[string]interface{}
	failConnection   bool
	failInventory    bool
	failBookings     bool
	connectionCalled bool
}

func (f *fakePMS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/accommodation_types"):
		if f.failConnection {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":"rest_forbidden","message":"Invalid consumer key."}`))
			return
		}
		if r.URL.Query().Get("page") == "" {
			f.connectionCalled = true
		} else if f.failInventory {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"code":"internal","message":"inventory boom"}`))
			return
		}
		w.Header().Set("X-WP-Total", "2")
		json.NewEncoder(w).Encode(f.types)

	case strings.HasSuffix(r.URL.Path, "/bookings"):
		if !f.connectionCalled {
			// bulk reads before the warm-up return nothing
			json.NewEncoder(w).Encode([]interface{}{})
			return
		}
		if f.failBookings {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"code":"upstream","message":"Upstream database unavailable"}`))
			return
		}
		w.Header().Set("X-WP-Total", "7")
		json.NewEncoder(w).Encode(f.bookings)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakePMS) setBookings(b []map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = b
}

type recordingReporter struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingReporter) Progress(message string, current, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

type mockPublisher struct {
	publishFunc func(ctx context.Context, event events.SyncCompletedEvent) error
}

func (m *mockPublisher) PublishSyncCompleted(ctx context.Context, event events.SyncCompletedEvent) error {
	return m.publishFunc(ctx, event)
}

type testEnv struct {
	db        *gorm.DB
	pms       *fakePMS
	job       *ReservationSyncJob
	runRepo   *repositories.SyncRunRepo
	resRepo   *repositories.ReservationRepo
	published []events.SyncCompletedEvent
}

func sampleBookings() []map[string]interface{} {
	booking := func(id int, status, checkIn, checkOut string, typeID int, extra map[string]interface{}) map[string]interface{} {
		b := map[string]interface{}{
			"id":             id,
			"status":         status,
			"check_in_date":  checkIn,
			"check_out_date": checkOut,
			"reserved_accommodations": []map[string]interface{}{
				{"accommodation": typeID*10 + 1, "accommodation_type": typeID, "adults": 2},
			},
		}
		for k, v := range extra {
			b[k] = v
		}
		return b
	}

	airbnb := func(code string) map[string]interface{} {
		return map[string]interface{}{
			"imported":         true,
			"ical_description": "Reservation URL: https://www.airbnb.com/hosting/reservations/details/" + code + "\nPhone Number (Last 4 Digits): 4321",
		}
	}

	direct := map[string]interface{}{
		"customer": map[string]interface{}{"first_name": "Ana", "last_name": "Ruiz", "phone": "+57 300 555 0199"},
	}

	return []map[string]interface{}{
		booking(1001, "confirmed", "2026-11-01", "2026-11-04", 30, direct),
		booking(1002, "cancelled", "2026-11-10", "2026-11-12", 30, direct),
		booking(1003, "confirmed", "2026-01-10", "2026-01-12", 30, direct),
		booking(1004, "confirmed", "2029-01-01", "2029-01-05", 40, airbnb("HMFARAWAY001")),
		booking(1005, "confirmed", "2026-12-20", "2026-12-27", 40, airbnb("HMDUPLICATE1")),
		booking(1006, "confirmed", "2027-01-05", "2027-01-08", 99, airbnb("HMDUPLICATE1")),
		booking(1007, "confirmed", "2026-11-20", "", 30, direct),
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, sqlxDB := dbtest.Open(t)

	pms := &fakePMS{
		bookings: sampleBookings(),
		types: []map[string]interface{}{
			{"id": 30, "title": "Cabaña 3", "adults": 2, "children": 1},
			{"id": 40, "title": map[string]string{"rendered": "Suite Mar"}, "adults": 4},
		},
	}
	server := httptest.NewServer(pms)
	t.Cleanup(server.Close)

	vault, err := common.NewSecretBoxVault(bytes.Repeat([]byte{9}, 32))
	if err != nil {
		t.Fatalf("Failed to create vault: %v", err)
	}
	sealedKey, _ := vault.Seal("ck_test")
	sealedSecret, _ := vault.Seal("cs_test")

	configRepo := repositories.NewIntegrationConfigRepo(db)
	err = configRepo.Create(context.Background(), &gormModels.IntegrationConfig{
		TenantID:        testTenant,
		IntegrationType: constants.IntegrationMotoPress,
		IsActive:        true,
		ConfigData: map[string]interface{}{
			"api_key":         sealedKey,
			"consumer_secret": sealedSecret,
			"site_url":        server.URL,
		},
	})
	if err != nil {
		t.Fatalf("Failed to seed config: %v", err)
	}

	unitRepo := repositories.NewAccommodationUnitRepo(db)
	env := &testEnv{
		db:      db,
		pms:     pms,
		runRepo: repositories.NewSyncRunRepo(sqlxDB),
		resRepo: repositories.NewReservationRepo(db),
	}

	publisher := &mockPublisher{
		publishFunc: func(ctx context.Context, event events.SyncCompletedEvent) error {
			env.published = append(env.published, event)
			return nil
		},
	}

	env.job = NewReservationSyncJob(ReservationSyncDeps{
		ConfigRepo:      configRepo,
		ReservationRepo: env.resRepo,
		UnitRepo:        unitRepo,
		SyncRunRepo:     env.runRepo,
		Resolver:        services.NewAccommodationResolver(unitRepo, common.NewCacheService(60, 120), time.Minute),
		Vault:           vault,
		NewProvider: func(creds dtos.PMSCredentials) providers.PMSProvider {
			return providers.NewMotoPressProvider(creds, providers.MotoPressOptions{PageInterval: time.Millisecond})
		},
		Publisher: publisher,
	}, SyncOptions{
		Workers:        1,
		PastMonths:     2,
		FutureYears:    2,
		ChannelMarkers: []string{"airbnb.com"},
	})
	env.job.now = func() time.Time {
		return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	}

	return env
}

func (e *testEnv) latestRun(t *testing.T) gormModels.SyncRun {
	t.Helper()
	runs, err := e.runRepo.ListRecent(context.Background(), testTenant, 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("Expected one sync run, got %d (%v)", len(runs), err)
	}
	return runs[0]
}

func TestReservationSyncJob_SyncTenant_FullRun(t *testing.T) {
	env := newTestEnv(t)
	reporter := &recordingReporter{}

	stats, err := env.job.SyncTenant(context.Background(), testTenant, reporter)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	expected := dtos.SyncStats{Total: 4, Created: 3, Updated: 0, Errors: 1, BlocksExcluded: 1, PastExcluded: 1}
	if *stats != expected {
		t.Errorf("Expected stats %+v, got %+v", expected, *stats)
	}

	count, _ := env.resRepo.CountByTenant(context.Background(), testTenant)
	if count != 3 {
		t.Errorf("Expected 3 stored reservations, got %d", count)
	}

	direct, _ := env.resRepo.FindByExternalID(context.Background(), testTenant, "1001")
	if direct == nil || direct.AccommodationUnitID == nil {
		t.Fatal("Expected direct booking stored with a resolved accommodation")
	}
	if direct.BookingSource != constants.BookingSourceDirect || direct.PhoneLast4 != "0199" {
		t.Errorf("Expected direct source and phone 0199, got %s/%s", direct.BookingSource, direct.PhoneLast4)
	}

	unresolved, _ := env.resRepo.FindByExternalID(context.Background(), testTenant, "1006")
	if unresolved == nil || unresolved.AccommodationUnitID != nil {
		t.Error("Expected booking with unknown room type stored without accommodation")
	}

	run := env.latestRun(t)
	if run.Status != constants.SyncStatusPartial {
		t.Errorf("Expected partial run, got %s", run.Status)
	}
	if run.CompletedAt == nil {
		t.Error("Expected run to be finalized")
	}
	if run.RecordsProcessed != 4 || run.RecordsCreated != 3 || run.RecordsErrored != 1 {
		t.Errorf("Expected processed=4 created=3 errored=1, got %d/%d/%d",
			run.RecordsProcessed, run.RecordsCreated, run.RecordsErrored)
	}

	var meta map[string]interface{}
	if err := json.Unmarshal(run.Metadata, &meta); err != nil {
		t.Fatalf("Expected JSON metadata, got %v", err)
	}
	if meta["total_bookings"] != float64(7) || meta["status_excluded"] != float64(1) {
		t.Errorf("Expected total_bookings=7 status_excluded=1, got %v", meta)
	}
	dups, ok := meta["duplicate_reservation_codes"].(map[string]interface{})
	if !ok || dups["HMDUPLICATE1"] == nil {
		t.Errorf("Expected duplicate code HMDUPLICATE1 in metadata, got %v", meta["duplicate_reservation_codes"])
	}

	if len(env.published) != 1 || env.published[0].Status != constants.SyncStatusPartial {
		t.Errorf("Expected one partial sync event, got %+v", env.published)
	}
	if env.published[0].UnresolvedAccommodations != 1 {
		t.Errorf("Expected 1 unresolved accommodation in event, got %d", env.published[0].UnresolvedAccommodations)
	}

	if len(reporter.messages) == 0 || reporter.messages[0] != "Starting sync..." {
		t.Errorf("Expected first progress message to be Starting sync..., got %v", reporter.messages)
	}
}

func TestReservationSyncJob_SyncTenant_SecondRunUpdates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.job.SyncTenant(ctx, testTenant, nil); err != nil {
		t.Fatalf("Expected first run to succeed, got %v", err)
	}

	// guest fills in compliance data between syncs
	err := env.db.Model(&gormModels.Reservation{}).
		Where("tenant_id = ? AND external_booking_id = ?", testTenant, "1001").
		Update("document_number", "CC123456").Error
	if err != nil {
		t.Fatalf("Failed to set compliance field: %v", err)
	}

	stats, err := env.job.SyncTenant(ctx, testTenant, nil)
	if err != nil {
		t.Fatalf("Expected second run to succeed, got %v", err)
	}
	if stats.Created != 0 || stats.Updated != 3 {
		t.Errorf("Expected 0 created 3 updated, got %d/%d", stats.Created, stats.Updated)
	}

	count, _ := env.resRepo.CountByTenant(ctx, testTenant)
	if count != 3 {
		t.Errorf("Expected still 3 reservations, got %d", count)
	}

	res, _ := env.resRepo.FindByExternalID(ctx, testTenant, "1001")
	if res.DocumentNumber == nil || *res.DocumentNumber != "CC123456" {
		t.Errorf("Expected compliance field to survive re-sync, got %v", res.DocumentNumber)
	}

	lines, _ := env.resRepo.GetAccommodations(ctx, res.ID)
	if len(lines) != 1 {
		t.Errorf("Expected line items replaced not duplicated, got %d", len(lines))
	}
}

func TestReservationSyncJob_SyncTenant_CleanRunIsSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.pms.setBookings(sampleBookings()[:1])

	stats, err := env.job.SyncTenant(context.Background(), testTenant, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if stats.Errors != 0 || stats.Created != 1 {
		t.Errorf("Expected 1 created 0 errors, got %+v", *stats)
	}

	if run := env.latestRun(t); run.Status != constants.SyncStatusSuccess {
		t.Errorf("Expected success run, got %s", run.Status)
	}

	var config gormModels.IntegrationConfig
	env.db.Where("tenant_id = ?", testTenant).First(&config)
	if config.LastSyncAt == nil {
		t.Error("Expected last_sync_at to be set")
	}
}

func TestReservationSyncJob_SyncTenant_ConnectivityFailure(t *testing.T) {
	env := newTestEnv(t)
	env.pms.failConnection = true

	_, err := env.job.SyncTenant(context.Background(), testTenant, nil)

	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("Expected SyncError, got %v", err)
	}
	if syncErr.Kind != KindConnectivity {
		t.Errorf("Expected connectivity error, got %s", syncErr.Kind)
	}
	if !strings.Contains(err.Error(), "Invalid consumer key.") {
		t.Errorf("Expected remote message in error, got %q", err.Error())
	}

	run := env.latestRun(t)
	if run.Status != constants.SyncStatusError || run.ErrorMessage == nil {
		t.Errorf("Expected error run with message, got %s", run.Status)
	}

	count, _ := env.resRepo.CountByTenant(context.Background(), testTenant)
	if count != 0 {
		t.Errorf("Expected nothing stored, got %d", count)
	}
}

func TestReservationSyncJob_SyncTenant_FetchFailureIsFatal(t *testing.T) {
	env := newTestEnv(t)
	env.pms.failBookings = true

	_, err := env.job.SyncTenant(context.Background(), testTenant, nil)

	var syncErr *SyncError
	if !errors.As(err, &syncErr) || syncErr.Kind != KindFetch {
		t.Fatalf("Expected fetch SyncError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Upstream database unavailable") {
		t.Errorf("Expected remote message in error, got %q", err.Error())
	}
	if env.latestRun(t).Status != constants.SyncStatusError {
		t.Error("Expected error run")
	}
}

func TestReservationSyncJob_SyncTenant_InventoryFailureIsFatal(t *testing.T) {
	env := newTestEnv(t)
	env.pms.failInventory = true

	_, err := env.job.SyncTenant(context.Background(), testTenant, nil)

	var syncErr *SyncError
	if !errors.As(err, &syncErr) || syncErr.Kind != KindInventory {
		t.Fatalf("Expected inventory SyncError, got %v", err)
	}
	if !strings.Contains(err.Error(), "inventory boom") {
		t.Errorf("Expected remote message in error, got %q", err.Error())
	}

	count, err := env.resRepo.CountByTenant(context.Background(), testTenant)
	if err != nil {
		t.Fatalf("Failed to count reservations: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no reservations stored, got %d", count)
	}

	run := env.latestRun(t)
	if run.Status != constants.SyncStatusError {
		t.Errorf("Expected error run, got %s", run.Status)
	}
	if run.CompletedAt == nil {
		t.Error("Expected the failed run to be finalized")
	}
}

func TestReservationSyncJob_SyncTenant_UndecryptableCredentials(t *testing.T) {
	env := newTestEnv(t)

	otherVault, err := common.NewSecretBoxVault(bytes.Repeat([]byte{3}, 32))
	if err != nil {
		t.Fatalf("Failed to create vault: %v", err)
	}
	wrongKey, _ := otherVault.Seal("ck_test")
	wrongSecret, _ := otherVault.Seal("cs_test")
	env.db.Model(&gormModels.IntegrationConfig{}).Where("tenant_id = ?", testTenant).Update("config_data", datatypes.JSONMap{
		"api_key":         wrongKey,
		"consumer_secret": wrongSecret,
		"site_url":        "https://hotel.invalid",
	})

	_, err = env.job.SyncTenant(context.Background(), testTenant, nil)

	var syncErr *SyncError
	if !errors.As(err, &syncErr) || syncErr.Kind != KindConfiguration {
		t.Fatalf("Expected configuration SyncError, got %v", err)
	}
	if !errors.Is(err, common.ErrDecryptFailed) {
		t.Errorf("Expected ErrDecryptFailed in chain, got %v", err)
	}
	if err.Error() != constants.GetErrorMessage(constants.ErrCodeCredentialsInvalid) {
		t.Errorf("Expected operator message, got %q", err.Error())
	}
	if env.pms.connectionCalled {
		t.Error("Expected no PMS call with unreadable credentials")
	}
	if env.latestRun(t).Status != constants.SyncStatusError {
		t.Error("Expected error run")
	}
}

func TestReservationSyncJob_SyncTenant_InactiveConfig(t *testing.T) {
	env := newTestEnv(t)
	env.db.Model(&gormModels.IntegrationConfig{}).Where("tenant_id = ?", testTenant).Update("is_active", false)

	_, err := env.job.SyncTenant(context.Background(), testTenant, nil)

	var syncErr *SyncError
	if !errors.As(err, &syncErr) || syncErr.Kind != KindConfiguration {
		t.Fatalf("Expected configuration SyncError, got %v", err)
	}
	if !errors.Is(err, repositories.ErrConfigInactive) {
		t.Errorf("Expected ErrConfigInactive in chain, got %v", err)
	}
	if err.Error() != constants.GetErrorMessage(constants.ErrCodeConfigNotActive) {
		t.Errorf("Expected operator message, got %q", err.Error())
	}
	if env.pms.connectionCalled {
		t.Error("Expected no PMS call for an inactive config")
	}
}

func TestReservationSyncJob_SyncTenant_LockBusy(t *testing.T) {
	env := newTestEnv(t)
	lock := common.NewLocalSyncLock()
	env.job.lock = lock

	release, err := lock.Acquire(context.Background(), testTenant)
	if err != nil {
		t.Fatalf("Failed to take lock: %v", err)
	}
	defer release()

	_, err = env.job.SyncTenant(context.Background(), testTenant, nil)
	if !errors.Is(err, common.ErrSyncInProgress) {
		t.Fatalf("Expected ErrSyncInProgress, got %v", err)
	}
	if err.Error() != constants.MsgSyncInProgress {
		t.Errorf("Expected operator message %q, got %q", constants.MsgSyncInProgress, err.Error())
	}
}

func TestReservationSyncJob_SyncTenant_ConcurrentWorkers(t *testing.T) {
	env := newTestEnv(t)
	env.job.opts.Workers = 4

	var many []map[string]interface{}
	for i := 0; i < 25; i++ {
		many = append(many, map[string]interface{}{
			"id":             5000 + i,
			"status":         "confirmed",
			"check_in_date":  "2026-12-01",
			"check_out_date": "2026-12-03",
			"reserved_accommodations": []map[string]interface{}{
				{"accommodation": 301, "accommodation_type": 30, "adults": 1},
			},
		})
	}
	env.pms.setBookings(many)

	reporter := &recordingReporter{}
	stats, err := env.job.SyncTenant(context.Background(), testTenant, reporter)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if stats.Created != 25 || stats.Errors != 0 {
		t.Errorf("Expected 25 created 0 errors, got %+v", *stats)
	}

	var saved []int
	for i, msg := range reporter.messages {
		if strings.HasPrefix(msg, "Saved ") {
			saved = append(saved, i)
		}
	}
	if len(saved) == 0 {
		t.Fatal("Expected persistence progress messages")
	}
	last := reporter.messages[saved[len(saved)-1]]
	if last != "Saved 25 of 25 reservations" {
		t.Errorf("Expected final progress Saved 25 of 25 reservations, got %q", last)
	}
}
