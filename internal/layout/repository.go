package layout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// Repository defines layout persistence operations.
type Repository interface {
	// Save inserts s when s.ID is empty (assigning a new ID) and updates
	// the existing row otherwise.
	Save(ctx context.Context, s *SavedLayout) error
	Get(ctx context.Context, id string) (*SavedLayout, error)
	GetByName(ctx context.Context, name string) (*SavedLayout, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository on the layouts table.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a SQLite-backed layout repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

const selectColumns = `SELECT id, name, description, layout, created_at, updated_at FROM layouts`

// Save creates or updates a layout.
func (r *SQLiteRepository) Save(ctx context.Context, s *SavedLayout) error {
	if err := s.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(s.Layout)
	if err != nil {
		return fmt.Errorf("encoding layout %q: %w", s.Name, err)
	}

	now := r.now().UTC()
	if s.ID == "" {
		return r.insert(ctx, s, data, now)
	}
	return r.update(ctx, s, data, now)
}

func (r *SQLiteRepository) insert(ctx context.Context, s *SavedLayout, data []byte, now time.Time) error {
	const query = `INSERT INTO layouts (id, name, description, width, height, depth,
		assignment_count, requires_user_position, layout, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id := uuid.NewString()
	d := s.Layout.Dimensions
	_, err := r.db.ExecContext(ctx, query,
		id, s.Name, s.Description, d.Width, d.Height, d.Depth,
		s.Layout.AssignmentCount(), boolToInt(s.Layout.RequiresUserPosition), string(data),
		formatTime(now), formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrLayoutExists, s.Name)
		}
		return fmt.Errorf("inserting layout %q: %w", s.Name, err)
	}

	s.ID = id
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

func (r *SQLiteRepository) update(ctx context.Context, s *SavedLayout, data []byte, now time.Time) error {
	const query = `UPDATE layouts SET name = ?, description = ?, width = ?, height = ?, depth = ?,
		assignment_count = ?, requires_user_position = ?, layout = ?, updated_at = ?
		WHERE id = ?`

	d := s.Layout.Dimensions
	result, err := r.db.ExecContext(ctx, query,
		s.Name, s.Description, d.Width, d.Height, d.Depth,
		s.Layout.AssignmentCount(), boolToInt(s.Layout.RequiresUserPosition), string(data),
		formatTime(now), s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrLayoutExists, s.Name)
		}
		return fmt.Errorf("updating layout %s: %w", s.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrLayoutNotFound
	}
	s.UpdatedAt = now
	return nil
}

// Get returns the layout with the given ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*SavedLayout, error) {
	return scanLayout(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
}

// GetByName returns the layout with the given name.
func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*SavedLayout, error) {
	return scanLayout(r.db.QueryRowContext(ctx, selectColumns+` WHERE name = ?`, name))
}

// List returns summaries of all layouts, most recently updated first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Summary, error) {
	const query = `SELECT id, name, description, width, height, depth,
		assignment_count, requires_user_position, updated_at
		FROM layouts ORDER BY updated_at DESC, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying layouts: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var s Summary
		var requires int
		var updatedAt string
		if err := rows.Scan(&s.ID, &s.Name, &s.Description,
			&s.Dimensions.Width, &s.Dimensions.Height, &s.Dimensions.Depth,
			&s.AssignmentCount, &requires, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning layout row: %w", err)
		}
		s.RequiresUserPosition = requires != 0
		s.UpdatedAt = parseTime(updatedAt)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating layout rows: %w", err)
	}
	return summaries, nil
}

// Delete removes a layout by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM layouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting layout %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrLayoutNotFound
	}
	return nil
}

func scanLayout(row *sql.Row) (*SavedLayout, error) {
	var s SavedLayout
	var data, createdAt, updatedAt string

	if err := row.Scan(&s.ID, &s.Name, &s.Description, &data, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLayoutNotFound
		}
		return nil, fmt.Errorf("scanning layout: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &s.Layout); err != nil {
		return nil, fmt.Errorf("decoding layout %s: %w", s.ID, err)
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
