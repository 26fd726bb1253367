package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"innpilot/reservation-sync/internal/logging"
	"innpilot/reservation-sync/internal/models/dtos"
)

func init() {
	logging.InitNop()
}

// syncBuffer guards a bytes.Buffer so the heartbeat goroutine and the test can share it
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) frames(t *testing.T) []dtos.SyncFrame {
	b.mu.Lock()
	defer b.mu.Unlock()

	var frames []dtos.SyncFrame
	scanner := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for scanner.Scan() {
		var f dtos.SyncFrame
		if err := json.Unmarshal(scanner.Bytes(), &f); err != nil {
			t.Fatalf("Invalid frame %q: %v", scanner.Text(), err)
		}
		frames = append(frames, f)
	}
	return frames
}

type failingWriter struct {
	writes int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, errors.New("broken pipe")
}

func TestRun_HeartbeatsThenSingleComplete(t *testing.T) {
	buf := &syncBuffer{}
	s := New(buf, false)

	err := Run(context.Background(), s, 5*time.Millisecond, func(ctx context.Context) (*dtos.SyncStats, error) {
		s.Progress("Fetching bookings", 10, 20)
		time.Sleep(30 * time.Millisecond)
		return &dtos.SyncStats{Total: 3, Created: 2, Updated: 1}, nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// anything after the terminal frame is dropped
	s.Heartbeat()
	s.Fail("late")

	frames := buf.frames(t)
	if len(frames) < 3 {
		t.Fatalf("Expected progress, heartbeat and complete frames, got %d", len(frames))
	}

	heartbeats := 0
	for _, f := range frames[:len(frames)-1] {
		if f.Type == dtos.FrameComplete || f.Type == dtos.FrameError {
			t.Errorf("Expected terminal frame only at the end, found %s earlier", f.Type)
		}
		if f.Type == dtos.FrameHeartbeat {
			heartbeats++
		}
	}
	if heartbeats == 0 {
		t.Error("Expected at least one heartbeat frame")
	}

	last := frames[len(frames)-1]
	if last.Type != dtos.FrameComplete {
		t.Fatalf("Expected last frame complete, got %s", last.Type)
	}
	if last.Stats == nil || last.Stats.Created != 2 || last.Stats.Updated != 1 {
		t.Errorf("Expected stats created=2 updated=1, got %+v", last.Stats)
	}

	if frames[0].Current == nil || *frames[0].Current != 10 || frames[0].Total == nil || *frames[0].Total != 20 {
		t.Errorf("Expected progress 10/20, got %+v", frames[0])
	}
}

func TestRun_ErrorFrameAndHeartbeatStops(t *testing.T) {
	buf := &syncBuffer{}
	s := New(buf, false)

	err := Run(context.Background(), s, time.Millisecond, func(ctx context.Context) (*dtos.SyncStats, error) {
		time.Sleep(5 * time.Millisecond)
		return nil, errors.New("connection failed: invalid key")
	})
	if err == nil {
		t.Fatal("Expected work error to be returned")
	}

	countAfterRun := len(buf.frames(t))
	time.Sleep(10 * time.Millisecond)
	if got := len(buf.frames(t)); got != countAfterRun {
		t.Errorf("Expected no frames after Run returned, got %d more", got-countAfterRun)
	}

	frames := buf.frames(t)
	last := frames[len(frames)-1]
	if last.Type != dtos.FrameError || last.Message != "connection failed: invalid key" {
		t.Errorf("Expected error frame with message, got %+v", last)
	}
}

func TestRun_NonPositiveIntervalUsesDefault(t *testing.T) {
	buf := &syncBuffer{}
	s := New(buf, false)

	err := Run(context.Background(), s, 0, func(ctx context.Context) (*dtos.SyncStats, error) {
		return &dtos.SyncStats{Total: 1, Created: 1}, nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	frames := buf.frames(t)
	if len(frames) != 1 {
		t.Fatalf("Expected a single complete frame, got %d", len(frames))
	}
	if frames[0].Type != dtos.FrameComplete {
		t.Errorf("Expected complete frame, got %q", frames[0].Type)
	}
}

func TestRun_PanicInWorkSendsErrorFrame(t *testing.T) {
	buf := &syncBuffer{}
	s := New(buf, false)

	err := Run(context.Background(), s, 5*time.Millisecond, func(ctx context.Context) (*dtos.SyncStats, error) {
		s.Progress("Fetching bookings", 10, 20)
		var stats *dtos.SyncStats
		stats.Total++
		return stats, nil
	})
	if !errors.Is(err, ErrWorkPanicked) {
		t.Fatalf("Expected ErrWorkPanicked, got %v", err)
	}

	countAfterRun := len(buf.frames(t))
	time.Sleep(20 * time.Millisecond)
	if got := len(buf.frames(t)); got != countAfterRun {
		t.Errorf("Expected no frames after the terminal frame, got %d more", got-countAfterRun)
	}

	frames := buf.frames(t)
	last := frames[len(frames)-1]
	if last.Type != dtos.FrameError {
		t.Fatalf("Expected final frame error, got %q", last.Type)
	}
	if last.Message != ErrWorkPanicked.Error() {
		t.Errorf("Expected message %q, got %q", ErrWorkPanicked.Error(), last.Message)
	}
	for _, f := range frames[:len(frames)-1] {
		if f.Type == dtos.FrameComplete || f.Type == dtos.FrameError {
			t.Errorf("Expected exactly one terminal frame, found %q before the end", f.Type)
		}
	}
}

func TestStream_WriteFailureDetachesWithoutFailingWork(t *testing.T) {
	w := &failingWriter{}
	s := New(w, false)

	workRan := false
	err := Run(context.Background(), s, time.Hour, func(ctx context.Context) (*dtos.SyncStats, error) {
		s.Progress("one", 0, 0)
		s.Progress("two", 0, 0)
		workRan = true
		return &dtos.SyncStats{Created: 1}, nil
	})

	if err != nil {
		t.Fatalf("Expected detached stream not to fail the work, got %v", err)
	}
	if !workRan {
		t.Error("Expected work to run to completion")
	}
	if !s.Detached() {
		t.Error("Expected stream to be detached")
	}
	if w.writes != 1 {
		t.Errorf("Expected a single write attempt before detaching, got %d", w.writes)
	}
}

func TestNewHTTP_SSEFraming(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sync", nil)
	req.Header.Set("Accept", "text/event-stream")

	s, err := NewHTTP(rec, req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	s.Progress("Starting sync...", 0, 0)
	s.Complete(dtos.SyncStats{})

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Expected SSE content type, got %s", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, `data: {"type":"progress","message":"Starting sync..."}`+"\n\n") {
		t.Errorf("Expected SSE data framing, got %q", body)
	}
	if !rec.Flushed {
		t.Error("Expected response to be flushed")
	}
}
