package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/piyanatk/mapsim"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func testRecord(id, name string, started time.Time) mapsim.RunRecord {
	return mapsim.RunRecord{
		ID:        id,
		Name:      name,
		Image:     "eor0.fits",
		Site:      "MWA_128",
		Mode:      "host",
		Phase:     mapsim.RunRunning,
		StartedAt: started,
	}
}

func TestInsertAndFind(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	if err := s.Insert(ctx, testRecord("01AAA", "eor0", started)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(ctx, testRecord("01ABB", "eor1", started.Add(time.Minute))); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	t.Run("exact id", func(t *testing.T) {
		rec, err := s.Find(ctx, "01AAA")
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if rec.Name != "eor0" || rec.Site != "MWA_128" || rec.Mode != "host" {
			t.Errorf("record = %+v", rec)
		}
		if rec.Phase != mapsim.RunRunning {
			t.Errorf("phase = %v, want running", rec.Phase)
		}
		if !rec.StartedAt.Equal(started) {
			t.Errorf("started = %v, want %v", rec.StartedAt, started)
		}
		if !rec.FinishedAt.IsZero() {
			t.Errorf("finished = %v, want zero", rec.FinishedAt)
		}
	})

	t.Run("unique prefix", func(t *testing.T) {
		rec, err := s.Find(ctx, "01AB")
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if rec.ID != "01ABB" {
			t.Errorf("id = %q, want 01ABB", rec.ID)
		}
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		if _, err := s.Find(ctx, "01A"); !errors.Is(err, ErrAmbiguous) {
			t.Errorf("Find error = %v, want ErrAmbiguous", err)
		}
	})

	t.Run("by name", func(t *testing.T) {
		rec, err := s.Find(ctx, "eor1")
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if rec.ID != "01ABB" {
			t.Errorf("id = %q, want 01ABB", rec.ID)
		}
	})

	t.Run("name picks newest", func(t *testing.T) {
		if err := s.Insert(ctx, testRecord("01ZZZ", "eor0", started.Add(2*time.Hour))); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		rec, err := s.Find(ctx, "eor0")
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if rec.ID != "01ZZZ" {
			t.Errorf("id = %q, want the rerun 01ZZZ", rec.ID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := s.Find(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Find error = %v, want ErrNotFound", err)
		}
	})
}

func TestFinish(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)

	if err := s.Insert(ctx, testRecord("01AAA", "eor0", started)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Finish(ctx, "01AAA", mapsim.RunFailed, mapsim.StageVisgen, "visgen: boom", finished); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	rec, err := s.Find(ctx, "01AAA")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if rec.Phase != mapsim.RunFailed {
		t.Errorf("phase = %v, want failed", rec.Phase)
	}
	if rec.Stage != mapsim.StageVisgen {
		t.Errorf("stage = %v, want visgen", rec.Stage)
	}
	if rec.Error != "visgen: boom" {
		t.Errorf("error = %q", rec.Error)
	}
	if got, want := rec.Duration(), 90*time.Second; got != want {
		t.Errorf("duration = %v, want %v", got, want)
	}

	if err := s.Finish(ctx, "nope", mapsim.RunSucceeded, mapsim.StageLog, "", finished); !errors.Is(err, ErrNotFound) {
		t.Errorf("Finish error = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"01AAA", "01BBB", "01CCC"} {
		if err := s.Insert(ctx, testRecord(id, "scan", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}

	records, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, want := range []string{"01CCC", "01BBB", "01AAA"} {
		if records[i].ID != want {
			t.Errorf("records[%d].ID = %q, want %q", i, records[i].ID, want)
		}
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "01CCC" {
		t.Errorf("limited list = %+v", limited)
	}
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	cutoff := base.Add(48 * time.Hour)

	old1 := testRecord("01AAA", "a", base)
	old2 := testRecord("01BBB", "b", base.Add(time.Hour))
	oldRunning := testRecord("01CCC", "c", base.Add(2*time.Hour))
	fresh := testRecord("01DDD", "d", cutoff.Add(time.Hour))
	for _, rec := range []mapsim.RunRecord{old1, old2, oldRunning, fresh} {
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert %s: %v", rec.ID, err)
		}
	}
	for _, id := range []string{"01AAA", "01DDD"} {
		if err := s.Finish(ctx, id, mapsim.RunSucceeded, mapsim.StageLog, "", cutoff.Add(2*time.Hour)); err != nil {
			t.Fatalf("Finish %s: %v", id, err)
		}
	}
	if err := s.Finish(ctx, "01BBB", mapsim.RunFailed, mapsim.StageGrid, "boom", base.Add(2*time.Hour)); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	n, err := s.Prune(ctx, cutoff)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 2 {
		t.Errorf("pruned %d rows, want 2", n)
	}

	records, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var left []string
	for _, rec := range records {
		left = append(left, rec.ID)
	}
	if len(left) != 2 || left[0] != "01DDD" || left[1] != "01CCC" {
		t.Errorf("remaining = %v, want [01DDD 01CCC]", left)
	}
}
