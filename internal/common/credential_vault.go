package common

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"innpilot/reservation-sync/internal/logging"
	"innpilot/reservation-sync/internal/models/dtos"

	"golang.org/x/crypto/nacl/secretbox"
)

const encryptedPrefix = "enc:v1:"

var (
	// ErrDecryptFailed is matched by every DecryptError
	ErrDecryptFailed = errors.New("credential decryption failed")
	// ErrMissingCredential means a required field is absent from config_data
	ErrMissingCredential = errors.New("missing credential field")
)

// DecryptError names the config_data field that could not be decrypted
type DecryptError struct {
	Field  string
	Reason string
}

func (e *DecryptError) Error() string {
	return fmt.Sprintf("cannot decrypt %s: %s", e.Field, e.Reason)
}

func (e *DecryptError) Unwrap() error {
	return ErrDecryptFailed
}

// CredentialVault turns a stored integration config blob into usable PMS credentials
type CredentialVault interface {
	Decrypt(configData map[string]interface{}) (*dtos.PMSCredentials, error)
}

// SecretBoxVault decrypts values sealed with NaCl secretbox under a 32-byte key.
// Values stored without the "enc:v1:" prefix are legacy plaintext and pass
// through with a warning.
type SecretBoxVault struct {
	key [32]byte
}

var _ CredentialVault = (*SecretBoxVault)(nil)

func NewSecretBoxVault(key []byte) (*SecretBoxVault, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("credential key must be 32 bytes, got %d", len(key))
	}
	v := &SecretBoxVault{}
	copy(v.key[:], key)
	return v, nil
}

// Decrypt reads api_key (or consumer_key), consumer_secret and site_url
func (v *SecretBoxVault) Decrypt(configData map[string]interface{}) (*dtos.PMSCredentials, error) {
	keyField := "api_key"
	if stringField(configData, keyField) == "" {
		keyField = "consumer_key"
	}

	apiKey, err := v.open(configData, keyField)
	if err != nil {
		return nil, err
	}
	apiSecret, err := v.open(configData, "consumer_secret")
	if err != nil {
		return nil, err
	}
	siteURL, err := v.open(configData, "site_url")
	if err != nil {
		return nil, err
	}

	return &dtos.PMSCredentials{
		APIKey:    apiKey,
		APISecret: apiSecret,
		SiteURL:   strings.TrimRight(siteURL, "/"),
	}, nil
}

// Seal encrypts a value into the stored format
func (v *SecretBoxVault) Seal(plaintext string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &v.key)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (v *SecretBoxVault) open(configData map[string]interface{}, field string) (string, error) {
	raw := stringField(configData, field)
	if raw == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingCredential, field)
	}

	if !strings.HasPrefix(raw, encryptedPrefix) {
		logging.Warn("Using legacy plaintext credential", "field", field)
		return raw, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(raw, encryptedPrefix))
	if err != nil {
		return "", &DecryptError{Field: field, Reason: "invalid encoding"}
	}
	if len(data) < 24+secretbox.Overhead {
		return "", &DecryptError{Field: field, Reason: "ciphertext too short"}
	}

	var nonce [24]byte
	copy(nonce[:], data[:24])
	plain, ok := secretbox.Open(nil, data[24:], &nonce, &v.key)
	if !ok {
		return "", &DecryptError{Field: field, Reason: "authentication failed"}
	}
	return string(plain), nil
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
