package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository"
)

// ProjectRepository implements repository.ProjectRepository for SQLite
type ProjectRepository struct {
	db  querier
	now func() time.Time
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db, now: time.Now}
}

// Save upserts the singleton record. The stored copy gets meta.updatedAt set
// to now; doc itself is left untouched.
func (r *ProjectRepository) Save(ctx context.Context, doc *project.Document) error {
	if doc == nil {
		return fmt.Errorf("failed to save project: %w", repository.ErrInvalidInput)
	}

	now := r.now().UTC()
	stored := doc.Clone()
	stored.Meta.UpdatedAt = project.Timestamp(now)

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}

	query := `
		INSERT INTO projects (id, title, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			data = excluded.data,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		project.SingletonID,
		stored.Meta.Title,
		string(data),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	return nil
}

// Load returns the stored document, or repository.ErrNotFound when none exists
func (r *ProjectRepository) Load(ctx context.Context) (*project.Document, error) {
	rec, err := r.Record(ctx)
	if err != nil {
		return nil, err
	}
	return &rec.Data, nil
}

// Record returns the full singleton row
func (r *ProjectRepository) Record(ctx context.Context) (*project.Record, error) {
	query := `
		SELECT id, title, data, updated_at
		FROM projects
		WHERE id = ?
	`

	var (
		rec  project.Record
		data string
	)
	err := r.db.QueryRowContext(ctx, query, project.SingletonID).Scan(
		&rec.ID,
		&rec.Title,
		&data,
		&rec.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}

	return &rec, nil
}

// Delete removes the singleton row. Images are not touched.
func (r *ProjectRepository) Delete(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, project.SingletonID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
