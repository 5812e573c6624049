package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"lecturesync/internal/services"
	"lecturesync/internal/syncfix"
)

// timeLayout is fixed-width so started_at sorts lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one journal row.
type Run struct {
	ID           int64
	RunID        string
	Mode         string
	Args         []string
	Presenter    string
	Presentation string
	Output       string
	// Probed is false when the run aborted before both durations were known.
	Probed              bool
	PresenterSeconds    float64
	PresentationSeconds float64
	// SyncStatus, SyncVideo, and OffsetSeconds are set only for evaluated runs.
	SyncStatus    string
	SyncVideo     string
	OffsetSeconds float64
	FinalState    string
	OutputBytes   int64
	ErrorKind     string
	ErrorMessage  string
	StartedAt     time.Time
	Elapsed       time.Duration
}

// Failed reports whether the run aborted.
func (r Run) Failed() bool {
	return r.FinalState == string(syncfix.StateAborted)
}

// FromResult builds a journal row from a pipeline result, the error Run
// returned, and the command-line arguments that started it.
func FromResult(res syncfix.Result, runErr error, args []string) Run {
	run := Run{
		RunID:        res.RunID,
		Mode:         string(res.Mode),
		Args:         append([]string(nil), args...),
		Presenter:    res.Presenter.Path,
		Presentation: res.Presentation.Path,
		Output:       res.Output,
		FinalState:   string(res.State()),
		OutputBytes:  res.OutputBytes,
		StartedAt:    res.StartedAt,
		Elapsed:      res.Elapsed,
	}
	for _, state := range res.States {
		if state == syncfix.StateProbed {
			run.Probed = true
			run.PresenterSeconds = res.Presenter.Duration
			run.PresentationSeconds = res.Presentation.Duration
		}
	}
	if res.Evaluated {
		run.SyncStatus = string(res.Decision.Status)
		run.SyncVideo = string(res.Decision.Defective)
		run.OffsetSeconds = res.Decision.Offset
	}
	if runErr != nil {
		run.ErrorKind = services.Kind(runErr)
		run.ErrorMessage = runErr.Error()
	}
	return run
}

// Record appends run to the journal and returns its row id.
func (s *Store) Record(ctx context.Context, run Run) (int64, error) {
	argsJSON, err := json.Marshal(run.Args)
	if err != nil {
		return 0, fmt.Errorf("marshal args: %w", err)
	}
	if run.Args == nil {
		argsJSON = []byte("[]")
	}
	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	var id int64
	err = retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx,
			`INSERT INTO runs (
                run_id, mode, argv_json, presenter_path, presentation_path, output_path,
                presenter_seconds, presentation_seconds, sync_status, sync_video, offset_seconds,
                final_state, output_bytes, error_kind, error_message, started_at, elapsed_ms
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID,
			run.Mode,
			string(argsJSON),
			run.Presenter,
			run.Presentation,
			run.Output,
			nullableFloat(run.Probed, run.PresenterSeconds),
			nullableFloat(run.Probed, run.PresentationSeconds),
			nullableString(run.SyncStatus),
			nullableString(run.SyncVideo),
			nullableFloat(run.SyncStatus != "", run.OffsetSeconds),
			run.FinalState,
			run.OutputBytes,
			nullableString(run.ErrorKind),
			nullableString(run.ErrorMessage),
			startedAt.UTC().Format(timeLayout),
			run.Elapsed.Milliseconds(),
		)
		if execErr != nil {
			return execErr
		}
		id, execErr = res.LastInsertId()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Recent returns up to limit runs, newest first. A limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, run_id, mode, argv_json, presenter_path, presentation_path, output_path,
        presenter_seconds, presentation_seconds, sync_status, sync_video, offset_seconds,
        final_state, output_bytes, error_kind, error_message, started_at, elapsed_ms
        FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run                 Run
		argsJSON            string
		presenterSeconds    sql.NullFloat64
		presentationSeconds sql.NullFloat64
		syncStatus          sql.NullString
		syncVideo           sql.NullString
		offset              sql.NullFloat64
		errorKind           sql.NullString
		errorMessage        sql.NullString
		startedAt           string
		elapsedMillis       int64
	)
	if err := rows.Scan(
		&run.ID, &run.RunID, &run.Mode, &argsJSON, &run.Presenter, &run.Presentation, &run.Output,
		&presenterSeconds, &presentationSeconds, &syncStatus, &syncVideo, &offset,
		&run.FinalState, &run.OutputBytes, &errorKind, &errorMessage, &startedAt, &elapsedMillis,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(argsJSON), &run.Args); err != nil {
		return Run{}, fmt.Errorf("decode args for run %s: %w", run.RunID, err)
	}
	run.Probed = presenterSeconds.Valid && presentationSeconds.Valid
	run.PresenterSeconds = presenterSeconds.Float64
	run.PresentationSeconds = presentationSeconds.Float64
	run.SyncStatus = syncStatus.String
	run.SyncVideo = syncVideo.String
	run.OffsetSeconds = offset.Float64
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMessage.String
	run.Elapsed = time.Duration(elapsedMillis) * time.Millisecond
	parsed, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at for run %s: %w", run.RunID, err)
	}
	run.StartedAt = parsed
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(valid bool, value float64) any {
	if !valid {
		return nil
	}
	return value
}
