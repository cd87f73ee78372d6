package library

import (
	"database/sql"
	"errors"
	"fmt"
)

const runColumns = "run_id, story, pages, path, status, error, progress, created_at, finished_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var status string
	var finished sql.NullTime
	if err := row.Scan(&run.ID, &run.Story, &run.Pages, &run.Path, &status,
		&run.Error, &run.Progress, &run.CreatedAt, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("library: scan run: %w", err)
	}
	run.Status = Status(status)
	if finished.Valid {
		at := finished.Time
		run.FinishedAt = &at
	}
	return run, nil
}
