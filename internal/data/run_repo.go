package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/target/opsrelay/internal/core"
	"github.com/target/opsrelay/internal/data/database"
	"github.com/target/opsrelay/internal/domain/model"
	apperrors "github.com/target/opsrelay/internal/errors"
)

const (
	runsTable        = "reconcile_runs"
	defaultRunsLimit = 20
	maxRunsLimit     = 500
)

var runColumns = []string{
	"id", "job_id", "target_kind", "target_id", "outcome", "status", "operation_id",
	"polls", "elapsed_ms", "error", "exit_code", "started_at", "finished_at",
}

// ErrRunIDRequired is returned when a history row has no id.
var ErrRunIDRequired = errors.New("run id is required")

// RunRepo implements core.RunRepository on PostgreSQL.
type RunRepo struct {
	DB *sql.DB
}

var _ core.RunRepository = (*RunRepo)(nil)

// NewRunRepo creates a new RunRepo instance.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{DB: db}
}

// Record inserts one finished run. A second row for the same job and target
// comes back as a conflict error.
func (r *RunRepo) Record(ctx context.Context, rec model.RunRecord) error {
	if rec.ID == "" {
		return ErrRunIDRequired
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO reconcile_runs (
			id, job_id, target_kind, target_id, outcome, status, operation_id,
			polls, elapsed_ms, error, exit_code, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.ID, rec.JobID, string(rec.TargetKind), rec.TargetID, string(rec.Kind), rec.Status, rec.OperationID,
		rec.Polls, rec.Elapsed.Milliseconds(), rec.Error, rec.ExitCode, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// List returns the most recent runs first, optionally filtered by target.
func (r *RunRepo) List(ctx context.Context, opts model.RunListOptions) ([]model.RunRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	limit = min(limit, maxRunsLimit)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(runColumns...),
		database.WithOrderBy("finished_at", "DESC"),
		database.WithLimit(limit),
	}
	if opts.TargetKind != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("target_kind", database.Equal, string(opts.TargetKind))))
	}
	if opts.TargetID != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("target_id", database.Equal, opts.TargetID)))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions(runsTable, queryOpts...))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	var out []model.RunRecord
	for rows.Next() {
		rec, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan run: %w", scanErr)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

func scanRun(rows *sql.Rows) (model.RunRecord, error) {
	var (
		rec               model.RunRecord
		kind, outcome     string
		elapsedMS         int64
		started, finished time.Time
	)
	if err := rows.Scan(
		&rec.ID, &rec.JobID, &kind, &rec.TargetID, &outcome, &rec.Status, &rec.OperationID,
		&rec.Polls, &elapsedMS, &rec.Error, &rec.ExitCode, &started, &finished,
	); err != nil {
		return model.RunRecord{}, err
	}
	rec.TargetKind = model.TargetKind(kind)
	rec.Kind = model.OutcomeKind(outcome)
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	rec.StartedAt = started.UTC()
	rec.FinishedAt = finished.UTC()
	return rec, nil
}
