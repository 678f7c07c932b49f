package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
)

const (
	pollTaskColumns = "id, name, every_seconds, last_run, next_run, last_success, last_error, enabled"
	pollRunColumns  = "task_id, started_at, ended_at, ok, error, applied"
)

// pollStore keeps the update-poll schedule and the outcome of each poll
// run, so a restarted watch resumes the schedule instead of polling at once.
type pollStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*pollStore)(nil)

// GetTask returns nil and no error for an unknown task.
func (p *pollStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	row := p.store.db.QueryRowContext(ctx,
		"SELECT "+pollTaskColumns+" FROM poll_tasks WHERE id = ?", taskID)

	task, err := scanPollTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

// ListTasks returns every poll task ordered by ID.
func (p *pollStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	rows, err := p.store.db.QueryContext(ctx,
		"SELECT "+pollTaskColumns+" FROM poll_tasks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing poll tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.ScheduledTask //nolint:prealloc // size unknown from query
	for rows.Next() {
		task, err := scanPollTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing poll tasks: %w", err)
	}
	return tasks, nil
}

// SaveTask inserts the task or replaces the stored schedule for its ID.
func (p *pollStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return domain.ErrInvalidInput
	}

	_, err := p.store.db.ExecContext(ctx, `
		INSERT INTO poll_tasks (`+pollTaskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			every_seconds = excluded.every_seconds,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_success = excluded.last_success,
			last_error = excluded.last_error,
			enabled = excluded.enabled
	`, task.ID, task.Name, int64(task.Interval/time.Second),
		unixOrNull(task.LastRun), unixOrNull(task.NextRun), unixOrNull(task.LastSuccess),
		sql.NullString{String: task.LastError, Valid: task.LastError != ""},
		task.Enabled)
	if err != nil {
		return fmt.Errorf("saving poll task %s: %w", task.ID, err)
	}
	return nil
}

// DeleteTask removes a task; its run history is kept until pruned.
func (p *pollStore) DeleteTask(ctx context.Context, taskID string) error {
	if _, err := p.store.db.ExecContext(ctx, "DELETE FROM poll_tasks WHERE id = ?", taskID); err != nil {
		return fmt.Errorf("deleting poll task %s: %w", taskID, err)
	}
	return nil
}

// RecordResult stores one poll run. ItemsProcessed is the number of remote
// updates the run applied.
func (p *pollStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	_, err := p.store.db.ExecContext(ctx,
		"INSERT INTO poll_runs ("+pollRunColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		result.TaskID, result.StartedAt.Unix(), result.EndedAt.Unix(), result.Success,
		sql.NullString{String: result.Error, Valid: result.Error != ""},
		result.ItemsProcessed)
	if err != nil {
		return fmt.Errorf("recording poll run for %s: %w", result.TaskID, err)
	}
	return nil
}

// GetTaskHistory returns up to limit runs of a task, newest first.
func (p *pollStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	rows, err := p.store.db.QueryContext(ctx,
		"SELECT "+pollRunColumns+" FROM poll_runs WHERE task_id = ? ORDER BY started_at DESC, seq DESC LIMIT ?",
		taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("reading poll history for %s: %w", taskID, err)
	}
	defer rows.Close()

	var runs []domain.TaskResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			run            domain.TaskResult
			started, ended int64
			errMsg         sql.NullString
		)
		if err := rows.Scan(&run.TaskID, &started, &ended, &run.Success, &errMsg, &run.ItemsProcessed); err != nil {
			return nil, fmt.Errorf("scanning poll run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0).UTC()
		run.EndedAt = time.Unix(ended, 0).UTC()
		run.Error = errMsg.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading poll history for %s: %w", taskID, err)
	}
	return runs, nil
}

// PruneHistory keeps the newest keep runs of every task.
func (p *pollStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := p.store.db.ExecContext(ctx, `
		DELETE FROM poll_runs
		WHERE (
			SELECT COUNT(*) FROM poll_runs newer
			WHERE newer.task_id = poll_runs.task_id
			  AND (newer.started_at > poll_runs.started_at
			       OR (newer.started_at = poll_runs.started_at AND newer.seq > poll_runs.seq))
		) >= ?
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning poll history: %w", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPollTask passes sql.ErrNoRows through unwrapped.
func scanPollTask(row rowScanner) (*domain.ScheduledTask, error) {
	var (
		task                     domain.ScheduledTask
		every                    int64
		lastRun, nextRun, lastOK sql.NullInt64
		lastError                sql.NullString
	)
	err := row.Scan(&task.ID, &task.Name, &every, &lastRun, &nextRun, &lastOK, &lastError, &task.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning poll task: %w", err)
	}

	task.Interval = time.Duration(every) * time.Second
	task.LastRun = timeOrZero(lastRun)
	task.NextRun = timeOrZero(nextRun)
	task.LastSuccess = timeOrZero(lastOK)
	task.LastError = lastError.String
	return &task, nil
}

// unixOrNull stores the zero time as NULL.
func unixOrNull(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timeOrZero(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.Unix(v.Int64, 0).UTC()
}
