package responses

import "time"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse is the JSON envelope of every non-streaming endpoint
type APIResponse[T any] struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
	Data      *T        `json:"data,omitempty"`
}
