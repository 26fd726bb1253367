package dtos

// PMSCredentials are the decrypted connection details for one tenant's PMS.
type PMSCredentials struct {
	APIKey    string
	APISecret string
	SiteURL   string
}
