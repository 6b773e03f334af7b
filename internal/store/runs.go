package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/piyanatk/mapsim"
)

var (
	// ErrNotFound is returned when no run matches a reference.
	ErrNotFound = errors.New("run not found")
	// ErrAmbiguous is returned when an id prefix matches several runs.
	ErrAmbiguous = errors.New("run reference is ambiguous")
)

const runColumns = `id, name, image, site, mode, phase, stage, error, started_at, finished_at`

// Insert records a newly started run.
func (s *Store) Insert(ctx context.Context, rec mapsim.RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Image, rec.Site, rec.Mode,
		rec.Phase.String(), rec.Stage.String(), rec.Error,
		formatTime(rec.StartedAt), formatTime(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.ID, err)
	}
	return nil
}

// Finish finalizes a run: its phase, the stage it reached, the error
// text when it failed, and the finish time.
func (s *Store) Finish(ctx context.Context, id string, phase mapsim.RunPhase, stage mapsim.Stage, runErr string, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET phase = ?, stage = ?, error = ?, finished_at = ? WHERE id = ?`,
		phase.String(), stage.String(), runErr, formatTime(finishedAt), id,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrNotFound)
	}
	return nil
}

// List returns runs newest first. A limit of zero returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]mapsim.RunRecord, error) {
	clause := `ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		clause += ` LIMIT ?`
		args = append(args, limit)
	}
	records, err := s.selectRuns(ctx, clause, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return records, nil
}

// Find resolves a run by exact id, unique id prefix, or name. For names
// the newest run wins, so "mapsim runs show <scan>" follows a rerun.
func (s *Store) Find(ctx context.Context, ref string) (mapsim.RunRecord, error) {
	records, err := s.selectRuns(ctx, `WHERE id = ?`, ref)
	if err != nil {
		return mapsim.RunRecord{}, fmt.Errorf("find run %q: %w", ref, err)
	}
	if len(records) == 1 {
		return records[0], nil
	}

	records, err = s.selectRuns(ctx, `WHERE id LIKE ?`, ref+"%")
	if err != nil {
		return mapsim.RunRecord{}, fmt.Errorf("find run %q: %w", ref, err)
	}
	switch {
	case len(records) == 1:
		return records[0], nil
	case len(records) > 1:
		return mapsim.RunRecord{}, fmt.Errorf("find run %q: %w", ref, ErrAmbiguous)
	}

	records, err = s.selectRuns(ctx, `WHERE name = ? ORDER BY started_at DESC, id DESC LIMIT 1`, ref)
	if err != nil {
		return mapsim.RunRecord{}, fmt.Errorf("find run %q: %w", ref, err)
	}
	if len(records) == 1 {
		return records[0], nil
	}
	return mapsim.RunRecord{}, fmt.Errorf("find run %q: %w", ref, ErrNotFound)
}

// Prune deletes finished runs started before the cutoff and reports how
// many rows went away. Running rows are never pruned.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE phase != ? AND started_at < ?`,
		mapsim.RunRunning.String(), formatTime(before),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return n, nil
}

func (s *Store) selectRuns(ctx context.Context, clause string, args ...any) ([]mapsim.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []mapsim.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func scanRun(rows *sql.Rows) (mapsim.RunRecord, error) {
	var (
		rec                             mapsim.RunRecord
		phase, stage, started, finished string
	)
	if err := rows.Scan(&rec.ID, &rec.Name, &rec.Image, &rec.Site, &rec.Mode,
		&phase, &stage, &rec.Error, &started, &finished); err != nil {
		return mapsim.RunRecord{}, fmt.Errorf("scan run row: %w", err)
	}
	rec.Phase = mapsim.ParseRunPhase(phase)
	rec.Stage = mapsim.ParseStage(stage)

	var err error
	if rec.StartedAt, err = parseTime(started); err != nil {
		return mapsim.RunRecord{}, fmt.Errorf("parse started_at for %s: %w", rec.ID, err)
	}
	if rec.FinishedAt, err = parseTime(finished); err != nil {
		return mapsim.RunRecord{}, fmt.Errorf("parse finished_at for %s: %w", rec.ID, err)
	}
	return rec, nil
}

// formatTime stores UTC RFC 3339 text, which sorts and compares
// chronologically as a string; the zero time stores as empty so running
// rows have no finish time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
