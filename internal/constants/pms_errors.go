package constants

// PMS error codes
// These constants define specific failure scenarios when talking to the property-management API

// Credential-related errors
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccessDenied       = "ACCESS_DENIED"
	ErrCodeSiteNotFound       = "SITE_NOT_FOUND"
)

// Transport errors
const (
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeNetworkError = "NETWORK_ERROR"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeRemoteError  = "REMOTE_ERROR"
	ErrCodeDecodeError  = "DECODE_ERROR"
)

// Configuration errors
const (
	ErrCodeConfigNotFound     = "CONFIG_NOT_FOUND"
	ErrCodeConfigNotActive    = "CONFIG_NOT_ACTIVE"
	ErrCodeCredentialsInvalid = "CREDENTIALS_UNREADABLE"
)

// PMSErrorMessages holds the operator-facing text for each error code
var PMSErrorMessages = map[string]string{
	ErrCodeInvalidCredentials: "The PMS rejected the API key or secret",
	ErrCodeAccessDenied:       "The PMS API key does not have permission for this resource",
	ErrCodeSiteNotFound:       "The PMS endpoint was not found. Check the site URL and that the booking plugin REST API is enabled",

	ErrCodeRateLimited:  "The PMS is rate limiting requests. Please try again later",
	ErrCodeNetworkError: "Unable to reach the PMS. Please check the site URL",
	ErrCodeTimeout:      "The PMS did not answer in time",
	ErrCodeRemoteError:  "The PMS returned an unexpected error",
	ErrCodeDecodeError:  "The PMS returned a response that could not be read",

	ErrCodeConfigNotFound:     "PMS integration is not configured for this property",
	ErrCodeConfigNotActive:    "PMS integration is not active",
	ErrCodeCredentialsInvalid: "Stored PMS credentials could not be read. Reconfigure the integration",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := PMSErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
