// Package stream writes sync progress as newline-delimited JSON frames (or
// SSE "data:" events) to a long-lived HTTP response.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"innpilot/reservation-sync/internal/logging"
	"innpilot/reservation-sync/internal/models/dtos"

	"golang.org/x/sync/errgroup"
)

const heartbeatMessage = "Sync in progress..."

// DefaultHeartbeatInterval is used when Run is given a non-positive interval
const DefaultHeartbeatInterval = 30 * time.Second

var (
	// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush
	ErrStreamingUnsupported = errors.New("response writer does not support flushing")
	// ErrWorkPanicked wraps a panic recovered from a WorkFunc
	ErrWorkPanicked = errors.New("sync aborted unexpectedly")
)

// Stream is safe for concurrent use. After the first failed write the
// client is considered gone: further frames are dropped silently and the
// caller's work carries on. After a terminal frame nothing else is written.
type Stream struct {
	mu       sync.Mutex
	w        io.Writer
	flusher  http.Flusher
	sse      bool
	detached bool
	finished bool
}

// New wraps any writer. Flushing happens only if w is an http.Flusher.
func New(w io.Writer, sse bool) *Stream {
	s := &Stream{w: w, sse: sse}
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
	}
	return s
}

// NewHTTP prepares a streaming response. SSE framing is used when the client
// asked for text/event-stream, NDJSON otherwise.
func NewHTTP(w http.ResponseWriter, r *http.Request) (*Stream, error) {
	if _, ok := w.(http.Flusher); !ok {
		return nil, ErrStreamingUnsupported
	}

	sse := strings.Contains(r.Header.Get("Accept"), "text/event-stream")
	if sse {
		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/x-ndjson; charset=utf-8")
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	return New(w, sse), nil
}

// Progress emits a milestone. current/total are included when positive.
func (s *Stream) Progress(message string, current, total int) {
	frame := dtos.SyncFrame{Type: dtos.FrameProgress, Message: message}
	if current > 0 || total > 0 {
		frame.Current = &current
	}
	if total > 0 {
		frame.Total = &total
	}
	s.send(frame, false)
}

func (s *Stream) Heartbeat() {
	s.send(dtos.SyncFrame{Type: dtos.FrameHeartbeat, Message: heartbeatMessage}, false)
}

// Complete emits the terminal success frame
func (s *Stream) Complete(stats dtos.SyncStats) {
	s.send(dtos.SyncFrame{Type: dtos.FrameComplete, Stats: &stats}, true)
}

// Fail emits the terminal error frame
func (s *Stream) Fail(message string) {
	s.send(dtos.SyncFrame{Type: dtos.FrameError, Message: message}, true)
}

// Detached reports whether the client stopped accepting writes
func (s *Stream) Detached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detached
}

func (s *Stream) send(frame dtos.SyncFrame, terminal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return
	}
	if terminal {
		s.finished = true
	}
	if s.detached {
		return
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		logging.Error("Failed to encode stream frame", "type", frame.Type, "error", err.Error())
		return
	}

	var line []byte
	if s.sse {
		line = append(append([]byte("data: "), payload...), '\n', '\n')
	} else {
		line = append(payload, '\n')
	}

	if _, err := s.w.Write(line); err != nil {
		s.detached = true
		logging.Warn("Progress stream detached, sync continues", "error", err.Error())
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// WorkFunc is the long-running task observed by the stream
type WorkFunc func(ctx context.Context) (*dtos.SyncStats, error)

// Run executes work while a heartbeat ticks every interval, then writes
// exactly one terminal frame. The heartbeat is stopped before the terminal
// frame on every exit path. A panic in work is recovered and reported as an
// error frame wrapping ErrWorkPanicked.
func Run(ctx context.Context, s *Stream, interval time.Duration, work WorkFunc) error {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}

	stats, err := withHeartbeat(ctx, s, interval, work)
	if errors.Is(err, ErrWorkPanicked) {
		s.Fail(ErrWorkPanicked.Error())
		return err
	}
	if err != nil {
		s.Fail(err.Error())
		return err
	}

	if stats == nil {
		stats = &dtos.SyncStats{}
	}
	s.Complete(*stats)
	return nil
}

func withHeartbeat(ctx context.Context, s *Stream, interval time.Duration, work WorkFunc) (*dtos.SyncStats, error) {
	hbCtx, stop := context.WithCancel(ctx)

	var g errgroup.Group
	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return nil
			case <-ticker.C:
				s.Heartbeat()
			}
		}
	})

	defer func() {
		stop()
		_ = g.Wait()
	}()

	return callWork(ctx, work)
}

func callWork(ctx context.Context, work WorkFunc) (stats *dtos.SyncStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Sync work panicked", "panic", fmt.Sprint(r))
			stats, err = nil, fmt.Errorf("%w: %v", ErrWorkPanicked, r)
		}
	}()
	return work(ctx)
}
