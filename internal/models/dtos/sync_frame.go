package dtos

// Frame types of the sync progress stream
const (
	FrameProgress  = "progress"
	FrameHeartbeat = "heartbeat"
	FrameComplete  = "complete"
	FrameError     = "error"
)

// SyncFrame is one line of the progress stream.
type SyncFrame struct {
	Type    string     `json:"type"`
	Message string     `json:"message,omitempty"`
	Current *int       `json:"current,omitempty"`
	Total   *int       `json:"total,omitempty"`
	Stats   *SyncStats `json:"stats,omitempty"`
}

// SyncStats is the summary carried by the complete frame.
type SyncStats struct {
	Total          int `json:"total"`
	Created        int `json:"created"`
	Updated        int `json:"updated"`
	Errors         int `json:"errors"`
	BlocksExcluded int `json:"blocksExcluded"`
	PastExcluded   int `json:"pastExcluded"`
}
