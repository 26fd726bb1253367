package common

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"innpilot/reservation-sync/internal/logging"
)

func init() {
	logging.InitNop()
}

func newTestVault(t *testing.T) *SecretBoxVault {
	vault, err := NewSecretBoxVault(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("Failed to create vault: %v", err)
	}
	return vault
}

func TestSecretBoxVault_RoundTrip(t *testing.T) {
	vault := newTestVault(t)

	key, _ := vault.Seal("ck_live")
	secret, _ := vault.Seal("cs_live")

	creds, err := vault.Decrypt(map[string]interface{}{
		"api_key":         key,
		"consumer_secret": secret,
		"site_url":        "https://hotel.example.com/",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if creds.APIKey != "ck_live" || creds.APISecret != "cs_live" {
		t.Errorf("Expected ck_live/cs_live, got %s/%s", creds.APIKey, creds.APISecret)
	}
	if creds.SiteURL != "https://hotel.example.com" {
		t.Errorf("Expected trailing slash trimmed, got %s", creds.SiteURL)
	}
}

func TestSecretBoxVault_LegacyPlaintextAndConsumerKey(t *testing.T) {
	vault := newTestVault(t)

	creds, err := vault.Decrypt(map[string]interface{}{
		"consumer_key":    "ck_plain",
		"consumer_secret": "cs_plain",
		"site_url":        "https://hotel.example.com",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if creds.APIKey != "ck_plain" {
		t.Errorf("Expected consumer_key fallback, got %s", creds.APIKey)
	}
}

func TestSecretBoxVault_WrongKeyIsTypedError(t *testing.T) {
	vault := newTestVault(t)
	sealed, _ := vault.Seal("ck_live")

	other, _ := NewSecretBoxVault(bytes.Repeat([]byte{9}, 32))
	_, err := other.Decrypt(map[string]interface{}{
		"api_key":         sealed,
		"consumer_secret": "cs",
		"site_url":        "https://hotel.example.com",
	})

	if !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("Expected ErrDecryptFailed, got %v", err)
	}
	var decErr *DecryptError
	if !errors.As(err, &decErr) || decErr.Field != "api_key" {
		t.Errorf("Expected DecryptError for api_key, got %v", err)
	}
}

func TestSecretBoxVault_MissingField(t *testing.T) {
	vault := newTestVault(t)

	_, err := vault.Decrypt(map[string]interface{}{"api_key": "ck"})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("Expected ErrMissingCredential, got %v", err)
	}
	if !strings.Contains(err.Error(), "consumer_secret") {
		t.Errorf("Expected error to name consumer_secret, got %v", err)
	}
}
