package entities

import "time"

const (
	HealthOK   = "ok"
	HealthDown = "down"
)

// ServiceStatus is the reachability of one backing service
type ServiceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

// HealthCheckResponse is served on /healthCheck. Status is down when any
// configured service is down.
type HealthCheckResponse struct {
	Status   string                   `json:"status"`
	Services map[string]ServiceStatus `json:"services"`
	UpSince  time.Time                `json:"up_since"`
	Uptime   string                   `json:"uptime"`
}
