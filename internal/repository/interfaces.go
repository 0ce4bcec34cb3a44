package repository

import (
	"context"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
)

// ProjectRepository persists the singleton project record
type ProjectRepository interface {
	Save(ctx context.Context, doc *project.Document) error
	Load(ctx context.Context) (*project.Document, error)
	Delete(ctx context.Context) error
}

// ImageRepository persists image blobs keyed by generated ID
type ImageRepository interface {
	Save(ctx context.Context, img *project.ImageRecord) error
	Get(ctx context.Context, id string) (*project.ImageRecord, error)
	Delete(ctx context.Context, id string) error
	GetMany(ctx context.Context, ids []string) ([]ImageEntry, error)
	List(ctx context.Context) ([]project.ImageSummary, error)
}

// ImageEntry is one result of a bulk image read. Image is nil when the ID is absent.
type ImageEntry struct {
	ID    string
	Image *project.ImageRecord
}

// Tables are the repositories bound to one transaction
type Tables struct {
	Projects ProjectRepository
	Images   ImageRepository
}

// Transactor runs fn so that either all of its writes become visible or none do
type Transactor interface {
	Transaction(ctx context.Context, fn func(tables Tables) error) error
}
