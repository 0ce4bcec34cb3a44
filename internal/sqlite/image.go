package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository"
)

// ImageRepository implements repository.ImageRepository for SQLite
type ImageRepository struct {
	db  querier
	now func() time.Time
}

// NewImageRepository creates a new ImageRepository
func NewImageRepository(db *DB) *ImageRepository {
	return &ImageRepository{db: db, now: time.Now}
}

// Save stores img under img.ID, replacing any existing blob with that ID.
// A zero CreatedAt is stored as now; img itself is not modified.
func (r *ImageRepository) Save(ctx context.Context, img *project.ImageRecord) error {
	if img == nil || img.ID == "" {
		return fmt.Errorf("failed to save image: %w", repository.ErrInvalidInput)
	}
	createdAt := img.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	query := `
		INSERT INTO images (id, blob, mime_type, file_name, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			blob = excluded.blob,
			mime_type = excluded.mime_type,
			file_name = excluded.file_name,
			created_at = excluded.created_at
	`

	_, err := r.db.ExecContext(ctx, query,
		img.ID,
		img.Blob.Data,
		img.Blob.Type,
		nullString(img.FileName),
		createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}

	return nil
}

// Get retrieves an image by ID
func (r *ImageRepository) Get(ctx context.Context, id string) (*project.ImageRecord, error) {
	query := `
		SELECT id, blob, mime_type, file_name, created_at
		FROM images
		WHERE id = ?
	`

	img, err := scanImage(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return img, nil
}

// Delete removes an image. Deleting an unknown ID is not an error.
func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// GetMany returns one entry per requested ID, in request order. Missing
// images have a nil Image.
func (r *ImageRepository) GetMany(ctx context.Context, ids []string) ([]repository.ImageEntry, error) {
	entries := make([]repository.ImageEntry, len(ids))
	if len(ids) == 0 {
		return entries, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(`
		SELECT id, blob, mime_type, file_name, created_at
		FROM images
		WHERE id IN (%s)
	`, placeholders)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get images: %w", err)
	}
	defer rows.Close()

	found := make(map[string]*project.ImageRecord, len(ids))
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		found[img.ID] = img
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}

	for i, id := range ids {
		entries[i] = repository.ImageEntry{ID: id, Image: found[id]}
	}

	return entries, nil
}

// List returns metadata for every stored image, newest first
func (r *ImageRepository) List(ctx context.Context) ([]project.ImageSummary, error) {
	query := `
		SELECT id, mime_type, file_name, length(blob), created_at
		FROM images
		ORDER BY created_at DESC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	summaries := []project.ImageSummary{}
	for rows.Next() {
		var (
			s        project.ImageSummary
			fileName sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.MIMEType, &fileName, &s.Size, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		s.FileName = fileName.String
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}

	return summaries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImage(row scanner) (*project.ImageRecord, error) {
	var (
		img      project.ImageRecord
		fileName sql.NullString
	)
	if err := row.Scan(&img.ID, &img.Blob.Data, &img.Blob.Type, &fileName, &img.CreatedAt); err != nil {
		return nil, err
	}
	img.FileName = fileName.String
	return &img, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
