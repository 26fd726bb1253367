package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"innpilot/reservation-sync/internal/constants"
	"innpilot/reservation-sync/internal/logging"
	"innpilot/reservation-sync/internal/models/dtos"
)

func init() {
	logging.InitNop()
}

func newTestProvider(serverURL string, pageSize int) *MotoPressProvider {
	return NewMotoPressProvider(
		dtos.PMSCredentials{APIKey: "ck_test", APISecret: "cs_test", SiteURL: serverURL + "/"},
		MotoPressOptions{Timeout: 5 * time.Second, PageSize: pageSize, PageInterval: time.Millisecond},
	)
}

func TestMotoPressProvider_TestConnection_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/mphb/v1/accommodation_types" {
			t.Errorf("Expected accommodation_types path, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("per_page") != "1" {
			t.Errorf("Expected per_page=1, got %s", r.URL.Query().Get("per_page"))
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ck_test" || pass != "cs_test" {
			t.Errorf("Expected basic auth ck_test/cs_test, got %s/%s", user, pass)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("Expected a User-Agent header")
		}

		w.Header().Set("X-WP-Total", "7")
		json.NewEncoder(w).Encode([]map[string]interface{}{{"id": 11, "title": "Suite"}})
	}))
	defer server.Close()

	provider := newTestProvider(server.URL, 100)
	result, err := provider.TestConnection(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !result.OK {
		t.Error("Expected OK result")
	}
	if result.AccommodationCount != 7 {
		t.Errorf("Expected accommodation count 7, got %d", result.AccommodationCount)
	}
}

func TestMotoPressProvider_TestConnection_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"rest_forbidden","message":"Sorry, you are not allowed to do that."}`))
	}))
	defer server.Close()

	provider := newTestProvider(server.URL, 100)
	_, err := provider.TestConnection(context.Background())
	if err == nil {
		t.Fatal("Expected error for 401 response")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if provErr.Code != constants.ErrCodeInvalidCredentials {
		t.Errorf("Expected code %s, got %s", constants.ErrCodeInvalidCredentials, provErr.Code)
	}
	if provErr.Details != "Sorry, you are not allowed to do that." {
		t.Errorf("Expected remote message in details, got %q", provErr.Details)
	}
	if !strings.Contains(provErr.Error(), "not allowed") {
		t.Errorf("Expected error text to carry remote message, got %q", provErr.Error())
	}
}

func TestMotoPressProvider_FetchAllBookingsEmbedded_PaginatesUntilShortPage(t *testing.T) {
	const totalBookings = 5
	requests := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/wp-json/mphb/v1/bookings" {
			t.Errorf("Expected bookings path, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("_embed") == "" {
			t.Error("Expected _embed query parameter")
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

		var batch []map[string]interface{}
		for id := (page-1)*perPage + 1; id <= page*perPage && id <= totalBookings; id++ {
			batch = append(batch, map[string]interface{}{
				"id":             id,
				"status":         "confirmed",
				"check_in_date":  "2030-01-01",
				"check_out_date": "2030-01-03",
				"_embedded": map[string]interface{}{
					"accommodations": []map[string]interface{}{
						{"id": 1, "title": map[string]string{"rendered": "Room 101"}},
					},
				},
			})
		}

		w.Header().Set("X-WP-Total", strconv.Itoa(totalBookings))
		json.NewEncoder(w).Encode(batch)
	}))
	defer server.Close()

	var progress []string
	provider := newTestProvider(server.URL, 2)
	bookings, err := provider.FetchAllBookingsEmbedded(context.Background(), func(current, total int, message string) {
		progress = append(progress, fmt.Sprintf("%d/%d", current, total))
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(bookings) != totalBookings {
		t.Fatalf("Expected %d bookings, got %d", totalBookings, len(bookings))
	}
	if requests != 3 {
		t.Errorf("Expected 3 page requests, got %d", requests)
	}
	if bookings[0].Embedded == nil || bookings[0].Embedded.Accommodations[0].Title.String() != "Room 101" {
		t.Errorf("Expected embedded accommodation title Room 101, got %+v", bookings[0].Embedded)
	}

	expected := []string{"2/5", "4/5", "5/5"}
	if strings.Join(progress, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected progress %v, got %v", expected, progress)
	}
}

func TestMotoPressProvider_FetchAllBookingsEmbedded_StopsOnTotalPages(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("X-WP-TotalPages", "1")
		json.NewEncoder(w).Encode([]map[string]interface{}{{"id": 1}, {"id": 2}})
	}))
	defer server.Close()

	provider := newTestProvider(server.URL, 2)
	bookings, err := provider.FetchAllBookingsEmbedded(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(bookings) != 2 {
		t.Errorf("Expected 2 bookings, got %d", len(bookings))
	}
	if requests != 1 {
		t.Errorf("Expected 1 request, got %d", requests)
	}
}

func TestMotoPressProvider_FetchAllBookingsEmbedded_FollowsTotalPagesWhenServerCapsPageSize(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Header().Set("X-WP-Total", "6")
		w.Header().Set("X-WP-TotalPages", "3")
		json.NewEncoder(w).Encode([]map[string]interface{}{{"id": page*10 + 1}, {"id": page*10 + 2}})
	}))
	defer server.Close()

	provider := newTestProvider(server.URL, 5)
	bookings, err := provider.FetchAllBookingsEmbedded(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(bookings) != 6 {
		t.Errorf("Expected 6 bookings, got %d", len(bookings))
	}
	if requests != 3 {
		t.Errorf("Expected 3 requests, got %d", requests)
	}
}

func TestMotoPressProvider_FetchAllBookingsEmbedded_ServerErrorIsNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("database went away"))
	}))
	defer server.Close()

	provider := newTestProvider(server.URL, 100)
	_, err := provider.FetchAllBookingsEmbedded(context.Background(), nil)
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if provErr.Status != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", provErr.Status)
	}
	if provErr.Details != "database went away" {
		t.Errorf("Expected remote body in details, got %q", provErr.Details)
	}
	if requests != 1 {
		t.Errorf("Expected exactly 1 request, got %d", requests)
	}
}

func TestMotoPressProvider_FetchAccommodationTypes_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	provider := newTestProvider(server.URL, 100)
	_, err := provider.FetchAccommodationTypes(context.Background())

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if provErr.Code != constants.ErrCodeDecodeError {
		t.Errorf("Expected code %s, got %s", constants.ErrCodeDecodeError, provErr.Code)
	}
}
