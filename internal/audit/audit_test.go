package audit

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-door/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-door/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-door/migrations"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "door.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

// ============================================================================
// Repository
// ============================================================================

func TestRepository_CreateAndList(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []Event{
		{Kind: KindCommand, Outcome: OutcomeAccepted, Topic: "access/door1/cmd", Form: "structured", HoldMs: 1500, CreatedAt: base},
		{Kind: KindTransition, Outcome: "holding", HoldMs: 1500, CreatedAt: base.Add(time.Millisecond)},
		{Kind: KindCommand, Outcome: OutcomeRejected, Reason: "token_mismatch", CreatedAt: base.Add(2 * time.Millisecond)},
	}
	for i := range events {
		if err := repo.Create(ctx, &events[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if events[i].ID == "" {
			t.Error("Create() did not assign an ID")
		}
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 3 || len(result.Events) != 3 {
		t.Fatalf("List() total = %d, len = %d; want 3, 3", result.Total, len(result.Events))
	}
	if result.Limit != DefaultLimit {
		t.Errorf("Limit = %d, want %d", result.Limit, DefaultLimit)
	}

	newest := result.Events[0]
	if newest.Reason != "token_mismatch" {
		t.Errorf("newest event reason = %q, want token_mismatch", newest.Reason)
	}
	if !newest.CreatedAt.Equal(base.Add(2 * time.Millisecond)) {
		t.Errorf("newest CreatedAt = %v", newest.CreatedAt)
	}

	oldest := result.Events[2]
	if oldest.Form != "structured" || oldest.HoldMs != 1500 || oldest.Topic != "access/door1/cmd" {
		t.Errorf("oldest event = %+v", oldest)
	}
}

func TestRepository_ListFilterAndPaging(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		kind := KindCommand
		if i%2 == 1 {
			kind = KindTransition
		}
		e := Event{Kind: kind, Outcome: "x", CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := repo.Create(ctx, &e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	result, err := repo.List(ctx, Filter{Kind: KindCommand})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 3 {
		t.Errorf("command total = %d, want 3", result.Total)
	}
	for _, e := range result.Events {
		if e.Kind != KindCommand {
			t.Errorf("filtered list contains %s", e.Kind)
		}
	}

	page, err := repo.List(ctx, Filter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page.Events) != 2 || page.Total != 5 {
		t.Fatalf("page len = %d, total = %d; want 2, 5", len(page.Events), page.Total)
	}
	if !page.Events[0].CreatedAt.Equal(base.Add(2 * time.Second)) {
		t.Errorf("page starts at %v, want third newest", page.Events[0].CreatedAt)
	}

	clamped, err := repo.List(ctx, Filter{Limit: 1000, Offset: -3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if clamped.Limit != MaxLimit || clamped.Offset != 0 {
		t.Errorf("clamped limit/offset = %d/%d", clamped.Limit, clamped.Offset)
	}
}

func TestRepository_InvalidKind(t *testing.T) {
	repo := openTestRepo(t)
	err := repo.Create(context.Background(), &Event{Kind: "login", Outcome: "x"})
	if !errors.Is(err, ErrInvalidKind) {
		t.Errorf("Create() error = %v, want ErrInvalidKind", err)
	}
}

// ============================================================================
// Recorder
// ============================================================================

type mockRepo struct {
	mu      sync.Mutex
	events  []Event
	err     error
	release chan struct{}
}

func (m *mockRepo) Create(_ context.Context, e *Event) error {
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, *e)
	return nil
}

func (m *mockRepo) List(context.Context, Filter) (*ListResult, error) {
	return &ListResult{}, nil
}

func (m *mockRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestRecorder_QueueFull(t *testing.T) {
	r := NewRecorder(&mockRepo{}, 2)

	for i := 0; i < 2; i++ {
		if err := r.Record(Event{Kind: KindCommand}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := r.Record(Event{Kind: KindCommand}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Record() on full queue error = %v, want ErrQueueFull", err)
	}
	if _, dropped, _ := r.Stats(); dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestRecorder_RunFlushesOnCancel(t *testing.T) {
	repo := &mockRepo{}
	r := NewRecorder(repo, 8)

	for i := 0; i < 5; i++ {
		if err := r.Record(Event{Kind: KindTransition, Outcome: "idle"}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if repo.count() != 5 {
		t.Errorf("written = %d, want 5", repo.count())
	}
	if written, _, _ := r.Stats(); written != 5 {
		t.Errorf("Stats written = %d, want 5", written)
	}
}

func TestRecorder_RecordDoesNotBlockOnSlowWrites(t *testing.T) {
	repo := &mockRepo{release: make(chan struct{})}
	r := NewRecorder(repo, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	// The first event is taken by Run and stalls in Create; further
	// events fill the queue and then drop.
	returned := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = r.Record(Event{Kind: KindCommand})
		}
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Record() blocked behind a slow repository")
	}

	close(repo.release)
	cancel()
	<-done

	if _, dropped, _ := r.Stats(); dropped == 0 {
		t.Error("expected dropped events with a stalled repository")
	}
}

func TestRecorder_WriteFailureCounted(t *testing.T) {
	repo := &mockRepo{err: errors.New("disk full")}
	r := NewRecorder(repo, 4)

	_ = r.Record(Event{Kind: KindCommand})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx)

	if _, _, failed := r.Stats(); failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}

func TestRecorder_StampsCreatedAt(t *testing.T) {
	repo := &mockRepo{}
	r := NewRecorder(repo, 1)
	_ = r.Record(Event{Kind: KindCommand})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx)

	if repo.count() != 1 || repo.events[0].CreatedAt.IsZero() {
		t.Error("Record() did not stamp CreatedAt")
	}
}
