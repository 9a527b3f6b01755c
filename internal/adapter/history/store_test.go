package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"reelist/internal/domain"
)

func newTestStore(t *testing.T, keep int) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"), keep)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func record(id string, state domain.BuildJobState, finished time.Time) domain.BuildRecord {
	return domain.BuildRecord{
		ID:         id,
		State:      state,
		Total:      1000,
		Processed:  1000,
		StartedAt:  finished.Add(-4 * time.Minute),
		FinishedAt: finished,
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	if err := store.Record(ctx, record("run-1", domain.BuildComplete, base)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, record("run-2", domain.BuildPartial, base.Add(time.Hour))); err != nil {
		t.Fatalf("Record: %v", err)
	}

	records, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0].ID != "run-2" || records[1].ID != "run-1" {
		t.Errorf("order = %s, %s; want newest first", records[0].ID, records[1].ID)
	}

	got := records[1]
	if got.State != domain.BuildComplete || got.Total != 1000 || got.Processed != 1000 {
		t.Errorf("fields = %+v", got)
	}
	if !got.FinishedAt.Equal(base) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, base)
	}
	if got.Duration() != 4*time.Minute {
		t.Errorf("Duration = %v, want 4m", got.Duration())
	}
}

func TestRecordMintsID(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	r := record("", domain.BuildComplete, time.Now())
	if err := store.Record(ctx, r); err != nil {
		t.Fatalf("Record: %v", err)
	}

	records, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 1 || len(records[0].ID) != 26 {
		t.Errorf("records = %+v, want one row with a ULID", records)
	}
}

func TestLastCompletedIgnoresSkippedAndFailed(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	good := record("good", domain.BuildComplete, base)
	if err := store.Record(ctx, good); err != nil {
		t.Fatal(err)
	}
	failed := record("failed", domain.BuildError, base.Add(time.Hour))
	if err := store.Record(ctx, failed); err != nil {
		t.Fatal(err)
	}
	skipped := record("skipped", domain.BuildComplete, base.Add(2*time.Hour))
	skipped.Skipped = true
	if err := store.Record(ctx, skipped); err != nil {
		t.Fatal(err)
	}

	last, err := store.LastCompleted(ctx)
	if err != nil {
		t.Fatalf("LastCompleted: %v", err)
	}
	if last == nil || last.ID != "good" {
		t.Errorf("LastCompleted = %+v, want the completed run", last)
	}
}

func TestLastCompletedEmpty(t *testing.T) {
	store := newTestStore(t, 10)

	last, err := store.LastCompleted(context.Background())
	if err != nil {
		t.Fatalf("LastCompleted: %v", err)
	}
	if last != nil {
		t.Errorf("LastCompleted = %+v, want nil", last)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	store := newTestStore(t, 3)
	ctx := context.Background()
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		r := record("", domain.BuildComplete, base.Add(time.Duration(i)*time.Hour))
		if err := store.Record(ctx, r); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	records, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3 after pruning", len(records))
	}
	if !records[0].FinishedAt.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("newest = %v, want the latest run kept", records[0].FinishedAt)
	}
	if !records[2].FinishedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("oldest kept = %v, want runs 2..4", records[2].FinishedAt)
	}
}
