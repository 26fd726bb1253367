package jobs

import (
	"errors"
	"testing"

	"innpilot/reservation-sync/internal/providers"
)

func TestSyncError_Error(t *testing.T) {
	remote := &providers.ProviderError{Code: "INVALID_CREDENTIALS", Message: "Rejected", Details: "bad key"}

	tests := []struct {
		name     string
		err      *SyncError
		expected string
	}{
		{"remote failure keeps remote text", &SyncError{Kind: KindConnectivity, Message: "Connection failed", Err: remote}, "Connection failed: Rejected: bad key"},
		{"configuration hides cause", &SyncError{Kind: KindConfiguration, Message: "Not configured", Err: errors.New("record not found")}, "Not configured"},
		{"other kinds append cause", &SyncError{Kind: KindInventory, Message: "Inventory failed", Err: errors.New("disk full")}, "Inventory failed: disk full"},
		{"no message", &SyncError{Kind: KindFetch, Err: errors.New("boom")}, "boom"},
		{"no cause", &SyncError{Kind: KindFetch, Message: "Fetch failed"}, "Fetch failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
