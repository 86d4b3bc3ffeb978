package influxdb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-door/internal/door"
	"github.com/nerrad567/gray-logic-door/internal/infrastructure/config"
)

type fakeWriter struct {
	mu      sync.Mutex
	points  []*write.Point
	flushes int
}

func (f *fakeWriter) WritePoint(p *write.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, p)
}

func (f *fakeWriter) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
}

func tagMap(p *write.Point) map[string]string {
	m := make(map[string]string)
	for _, tag := range p.TagList() {
		m[tag.Key] = tag.Value
	}
	return m
}

func fieldMap(p *write.Point) map[string]any {
	m := make(map[string]any)
	for _, field := range p.FieldList() {
		m[field.Key] = field.Value
	}
	return m
}

// =============================================================================
// Connect
// =============================================================================

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false}, "site", "door1")
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Org:     "graylogic",
		Bucket:  "door",
	}, "site", "door1")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

// =============================================================================
// Points
// =============================================================================

func TestWriteTransition(t *testing.T) {
	w := &fakeWriter{}
	c := newClient(w, "lab", "door1")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.WriteTransition(door.Transition{
		From: door.StateIdle,
		To:   door.StateOpening,
		At:   at,
		Hold: 1500 * time.Millisecond,
	})

	if len(w.points) != 1 {
		t.Fatalf("points = %d, want 1", len(w.points))
	}
	p := w.points[0]
	if p.Name() != MeasurementTransitions {
		t.Errorf("Name() = %q, want %q", p.Name(), MeasurementTransitions)
	}

	tags := tagMap(p)
	if tags["site"] != "lab" || tags["door"] != "door1" || tags["state"] != "opening" {
		t.Errorf("tags = %v", tags)
	}
	fields := fieldMap(p)
	if fields["from"] != "idle" {
		t.Errorf("from field = %v, want idle", fields["from"])
	}
	if !p.Time().Equal(at) {
		t.Errorf("Time() = %v, want %v", p.Time(), at)
	}
}

func TestWriteTransition_CooldownRecordsCycle(t *testing.T) {
	w := &fakeWriter{}
	c := newClient(w, "lab", "door1")

	c.WriteTransition(door.Transition{
		From:  door.StateClosing,
		To:    door.StateCooldown,
		At:    time.Now(),
		Hold:  2 * time.Second,
		Cycle: 7,
	})

	if len(w.points) != 2 {
		t.Fatalf("points = %d, want 2", len(w.points))
	}
	cycle := w.points[1]
	if cycle.Name() != MeasurementCycles {
		t.Fatalf("second point = %q, want %q", cycle.Name(), MeasurementCycles)
	}
	fields := fieldMap(cycle)
	if fields["hold_ms"] != int64(2000) {
		t.Errorf("hold_ms = %v (%T), want 2000", fields["hold_ms"], fields["hold_ms"])
	}
	if fields["cycle_count"] != int64(7) {
		t.Errorf("cycle_count = %v, want 7", fields["cycle_count"])
	}
	if _, ok := tagMap(cycle)["state"]; ok {
		t.Error("cycle point carries a state tag")
	}
}

func TestWriteCommand(t *testing.T) {
	w := &fakeWriter{}
	c := newClient(w, "lab", "door1")

	c.WriteCommand("accepted", "", time.Now())
	c.WriteCommand("rejected", "token_mismatch", time.Time{})

	if len(w.points) != 2 {
		t.Fatalf("points = %d, want 2", len(w.points))
	}

	accepted := tagMap(w.points[0])
	if accepted["outcome"] != "accepted" {
		t.Errorf("outcome = %q", accepted["outcome"])
	}
	if _, ok := accepted["reason"]; ok {
		t.Error("accepted command carries a reason tag")
	}

	rejected := tagMap(w.points[1])
	if rejected["reason"] != "token_mismatch" {
		t.Errorf("reason = %q, want token_mismatch", rejected["reason"])
	}
	if w.points[1].Time().IsZero() {
		t.Error("zero time was not replaced with now")
	}
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	c := newClient(w, "lab", "door1")

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if w.flushes != 1 {
		t.Errorf("flushes = %d, want 1", w.flushes)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}

	c.WriteCommand("accepted", "", time.Now())
	if len(w.points) != 0 {
		t.Error("write after Close reached the writer")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	if err := c.Close(); err != nil || w.flushes != 1 {
		t.Errorf("second Close() error = %v, flushes = %d", err, w.flushes)
	}
}

func TestWriteErrorsCallback(t *testing.T) {
	c := newClient(&fakeWriter{}, "lab", "door1")

	got := make(chan error, 1)
	c.SetOnError(func(err error) { got <- err })

	errs := make(chan error, 1)
	go c.handleWriteErrors(errs)
	errs <- errors.New("bucket not found")
	close(errs)

	select {
	case err := <-got:
		if !errors.Is(err, ErrWriteFailed) {
			t.Errorf("callback error = %v, want ErrWriteFailed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error callback not invoked")
	}
}
