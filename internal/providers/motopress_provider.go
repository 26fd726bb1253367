package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"innpilot/reservation-sync/internal/constants"
	"innpilot/reservation-sync/internal/logging"
	"innpilot/reservation-sync/internal/metrics"
	"innpilot/reservation-sync/internal/models/dtos"

	"golang.org/x/time/rate"
)

const (
	motoPressAPIPath   = "/wp-json/mphb/v1"
	motoPressUserAgent = "InnPilot-ReservationSync/1.0"
	maxErrorBodyBytes  = 4096
)

// MotoPressOptions tunes the client. Zero values fall back to defaults.
type MotoPressOptions struct {
	Timeout      time.Duration
	PageSize     int
	PageInterval time.Duration
	Metrics      *metrics.MetricsRegistry
}

// MotoPressProvider implements PMSProvider for the MotoPress Hotel Booking plugin
type MotoPressProvider struct {
	baseURL   string
	apiKey    string
	apiSecret string
	pageSize  int
	client    *http.Client
	limiter   *rate.Limiter
	metrics   *metrics.MetricsRegistry
}

var _ PMSProvider = (*MotoPressProvider)(nil)

// NewMotoPressProvider creates a client bound to one tenant's credentials
func NewMotoPressProvider(creds dtos.PMSCredentials, opts MotoPressOptions) *MotoPressProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.PageInterval <= 0 {
		opts.PageInterval = 250 * time.Millisecond
	}

	return &MotoPressProvider{
		baseURL:   strings.TrimRight(creds.SiteURL, "/") + motoPressAPIPath,
		apiKey:    creds.APIKey,
		apiSecret: creds.APISecret,
		pageSize:  opts.PageSize,
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter: rate.NewLimiter(rate.Every(opts.PageInterval), 1),
		metrics: opts.Metrics,
	}
}

// ProviderType returns the provider type identifier
func (p *MotoPressProvider) ProviderType() string {
	return constants.IntegrationMotoPress
}

// TestConnection requests a single accommodation type
func (p *MotoPressProvider) TestConnection(ctx context.Context) (*ConnectionResult, error) {
	var types []dtos.PMSAccommodationType
	header, err := p.getJSON(ctx, "/accommodation_types", url.Values{"per_page": {"1"}}, &types)
	if err != nil {
		return nil, err
	}

	count := len(types)
	if total, ok := headerInt(header, "X-WP-Total"); ok {
		count = total
	}

	return &ConnectionResult{OK: true, AccommodationCount: count}, nil
}

// FetchAccommodationTypes pages through the room-type inventory
func (p *MotoPressProvider) FetchAccommodationTypes(ctx context.Context) ([]dtos.PMSAccommodationType, error) {
	var all []dtos.PMSAccommodationType
	for page := 1; ; page++ {
		var batch []dtos.PMSAccommodationType
		header, err := p.getPage(ctx, "/accommodation_types", page, nil, &batch)
		if err != nil {
			return nil, fmt.Errorf("accommodation types page %d: %w", page, err)
		}
		all = append(all, batch...)
		if p.lastPage(header, page, len(batch)) {
			break
		}
	}
	return all, nil
}

// FetchAllBookingsEmbedded pages through all bookings with _embed until a short page
func (p *MotoPressProvider) FetchAllBookingsEmbedded(ctx context.Context, onProgress ProgressFunc) ([]dtos.PMSBooking, error) {
	var all []dtos.PMSBooking
	extra := url.Values{"_embed": {"1"}}

	for page := 1; ; page++ {
		var batch []dtos.PMSBooking
		header, err := p.getPage(ctx, "/bookings", page, extra, &batch)
		if err != nil {
			return nil, fmt.Errorf("bookings page %d: %w", page, err)
		}
		all = append(all, batch...)

		total, _ := headerInt(header, "X-WP-Total")
		if onProgress != nil {
			onProgress(len(all), total, fmt.Sprintf("Fetched page %d (%d bookings)", page, len(all)))
		}

		if p.lastPage(header, page, len(batch)) {
			break
		}
	}

	logging.Debug("MotoPress bookings fetched", "count", len(all))
	return all, nil
}

// lastPage trusts X-WP-TotalPages when the server sends it, since a site
// may cap per_page below the requested size. Without it a short page ends.
func (p *MotoPressProvider) lastPage(header http.Header, page, got int) bool {
	if totalPages, ok := headerInt(header, "X-WP-TotalPages"); ok {
		return got == 0 || page >= totalPages
	}
	return got < p.pageSize
}

func (p *MotoPressProvider) getPage(ctx context.Context, path string, page int, extra url.Values, out interface{}) (http.Header, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeTimeout,
			Message: constants.GetErrorMessage(constants.ErrCodeTimeout),
			Err:     err,
		}
	}

	query := url.Values{
		"per_page": {strconv.Itoa(p.pageSize)},
		"page":     {strconv.Itoa(page)},
	}
	for k, v := range extra {
		query[k] = v
	}
	return p.getJSON(ctx, path, query, out)
}

func (p *MotoPressProvider) getJSON(ctx context.Context, path string, query url.Values, out interface{}) (http.Header, error) {
	endpoint := p.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(p.apiKey, p.apiSecret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", motoPressUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		p.metrics.ObservePMSRequest(path, "network_error")
		code := constants.ErrCodeNetworkError
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			code = constants.ErrCodeTimeout
		}
		return nil, &ProviderError{
			Code:    code,
			Message: constants.GetErrorMessage(code),
			Err:     err,
		}
	}
	defer resp.Body.Close()
	p.metrics.ObservePMSRequest(path, strconv.Itoa(resp.StatusCode))

	if err := p.handleHTTPError(resp); err != nil {
		return nil, err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeDecodeError,
			Message: constants.GetErrorMessage(constants.ErrCodeDecodeError),
			Status:  resp.StatusCode,
			Err:     err,
		}
	}

	return resp.Header, nil
}

// handleHTTPError converts HTTP errors to ProviderError
func (p *MotoPressProvider) handleHTTPError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	details := remoteMessage(body)

	code := constants.ErrCodeRemoteError
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		code = constants.ErrCodeInvalidCredentials
	case http.StatusForbidden:
		code = constants.ErrCodeAccessDenied
	case http.StatusNotFound:
		code = constants.ErrCodeSiteNotFound
	case http.StatusTooManyRequests:
		code = constants.ErrCodeRateLimited
	default:
		return &ProviderError{
			Code:    code,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, constants.GetErrorMessage(code)),
			Details: details,
			Status:  resp.StatusCode,
		}
	}

	return &ProviderError{
		Code:    code,
		Message: constants.GetErrorMessage(code),
		Details: details,
		Status:  resp.StatusCode,
	}
}

// remoteMessage pulls "message" out of a WordPress REST error body, falling
// back to the raw text.
func remoteMessage(body []byte) string {
	var wpErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wpErr); err == nil && wpErr.Message != "" {
		return wpErr.Message
	}
	return strings.TrimSpace(string(body))
}

func headerInt(h http.Header, name string) (int, bool) {
	raw := h.Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
