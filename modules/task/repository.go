package task

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTaskNotFound is returned when no task row matches the requested id.
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository defines the interface for task data access.
type TaskRepository interface {
	// Create saves a new task and returns the stored row including generated fields.
	Create(ctx context.Context, title, description string, status domain.Status, priority domain.Priority) (*domain.Task, error)
	// FindByID retrieves a task by id.
	FindByID(ctx context.Context, id int64) (*domain.Task, error)
	// FindAll retrieves tasks newest-first, optionally restricted to one status.
	FindAll(ctx context.Context, status string) ([]domain.Task, error)
	// Update merges the non-nil fields into the row and returns the merged row.
	Update(ctx context.Context, id int64, title, description, status, priority *string) (*domain.Task, error)
	// Delete removes a task and reports whether a row was actually removed.
	Delete(ctx context.Context, id int64) (bool, error)
	// Count returns the total number of tasks.
	Count(ctx context.Context) (int64, error)
	// EnsureTable creates the tasks table if it doesn't exist.
	EnsureTable(ctx context.Context) error
}

// PostgresRepository provides PostgreSQL-based task storage using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// Compile-time interface check.
var _ TaskRepository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL task repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const taskColumns = "id, title, description, status, priority, created_at, updated_at"

// EnsureTable creates the tasks table and its status index if they don't exist.
func (r *PostgresRepository) EnsureTable(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id          BIGSERIAL PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'todo',
			priority    TEXT NOT NULL DEFAULT 'medium',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	_, err = r.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`)
	if err != nil {
		return fmt.Errorf("create status index: %w", err)
	}
	return nil
}

// Create saves a new task to the database.
func (r *PostgresRepository) Create(ctx context.Context, title, description string, status domain.Status, priority domain.Priority) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, status, priority)
		VALUES ($1, $2, $3, $4)
		RETURNING `+taskColumns,
		title, description, status, priority)
	return scanTask(row)
}

// FindByID retrieves a task by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// FindAll retrieves tasks ordered by created_at descending.
// A non-empty status restricts the result to tasks with exactly that status.
func (r *PostgresRepository) FindAll(ctx context.Context, status string) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}

// Update merges the non-nil fields into the existing row via COALESCE and
// refreshes updated_at. Fields passed as nil are left unchanged.
func (r *PostgresRepository) Update(ctx context.Context, id int64, title, description, status, priority *string) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title       = COALESCE($1, title),
		    description = COALESCE($2, description),
		    status      = COALESCE($3, status),
		    priority    = COALESCE($4, priority),
		    updated_at  = NOW()
		WHERE id = $5
		RETURNING `+taskColumns,
		title, description, status, priority, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// Delete removes a task by id. The boolean distinguishes a removed row from
// an id that was already absent.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete task %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Count returns the total number of tasks.
func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	return n, err
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
