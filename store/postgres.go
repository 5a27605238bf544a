package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docConverter/models"
)

// Postgres is the shared-deployment Store. The status machine is enforced
// with conditional single-row updates, so concurrent claimers race on the
// WHERE clause instead of a process-local lock.
//
// Expected schema:
//
//	CREATE TABLE conversion_tasks (
//	    id            TEXT PRIMARY KEY,
//	    source_kind   TEXT NOT NULL,
//	    target_format TEXT NOT NULL,
//	    inputs        JSONB NOT NULL,
//	    status        TEXT NOT NULL,
//	    error_message TEXT NOT NULL DEFAULT '',
//	    result_key    TEXT NOT NULL DEFAULT '',
//	    content_type  TEXT NOT NULL DEFAULT '',
//	    swept         BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    started_at    TIMESTAMPTZ,
//	    completed_at  TIMESTAMPTZ,
//	    fetched_at    TIMESTAMPTZ
//	);
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Create(ctx context.Context, task *models.Task) error {
	inputs, err := json.Marshal(task.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}

	query := `
		INSERT INTO conversion_tasks (id, source_kind, target_format, inputs, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = p.pool.Exec(ctx, query,
		task.ID, task.SourceKind, task.TargetFormat, inputs, task.Status, task.CreatedAt)
	return err
}

const taskColumns = `
	id, source_kind, target_format, inputs, status, error_message,
	result_key, content_type, swept, created_at, started_at, completed_at, fetched_at
`

func (p *Postgres) Get(ctx context.Context, id string) (*models.Task, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM conversion_tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func (p *Postgres) Transition(ctx context.Context, id string, to models.TaskStatus, payload TransitionPayload) error {
	from, ok := allowedFrom[to]
	if !ok {
		return ErrInvalidTransition
	}

	query := `UPDATE conversion_tasks SET status = $1`
	args := []any{to}

	switch to {
	case models.StatusProcessing:
		query += `, started_at = NOW()`
	case models.StatusCompleted:
		query += fmt.Sprintf(`, result_key = $%d, content_type = $%d, completed_at = NOW()`, len(args)+1, len(args)+2)
		args = append(args, payload.ResultKey, payload.ContentType)
	case models.StatusFailed:
		query += fmt.Sprintf(`, error_message = $%d, completed_at = NOW()`, len(args)+1)
		args = append(args, payload.ErrorMessage)
	}

	query += fmt.Sprintf(` WHERE id = $%d AND status = $%d`, len(args)+1, len(args)+2)
	args = append(args, id, from)

	result, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		if _, err := p.Get(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

func (p *Postgres) MarkFetched(ctx context.Context, id string, at time.Time) error {
	result, err := p.pool.Exec(ctx,
		`UPDATE conversion_tasks SET fetched_at = $2 WHERE id = $1 AND fetched_at IS NULL`, id, at)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		if _, err := p.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) MarkSwept(ctx context.Context, id string) error {
	result, err := p.pool.Exec(ctx,
		`UPDATE conversion_tasks SET swept = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM conversion_tasks WHERE id = $1`, id)
	return err
}

func (p *Postgres) List(ctx context.Context) ([]*models.Task, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+taskColumns+` FROM conversion_tasks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	var inputs []byte
	err := row.Scan(
		&task.ID,
		&task.SourceKind,
		&task.TargetFormat,
		&inputs,
		&task.Status,
		&task.ErrorMessage,
		&task.ResultKey,
		&task.ContentType,
		&task.Swept,
		&task.CreatedAt,
		&task.StartedAt,
		&task.CompletedAt,
		&task.FetchedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(inputs, &task.Inputs); err != nil {
		return nil, fmt.Errorf("decode inputs: %w", err)
	}
	return &task, nil
}
