package library

import (
	"context"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
)

// ImageRepository provides image persistence for the library.
type ImageRepository interface {
	Save(ctx context.Context, img *project.ImageRecord) error
	Get(ctx context.Context, id string) (*project.ImageRecord, error)
	List(ctx context.Context) ([]project.ImageSummary, error)
}

// ReferenceClearer detaches an image from the live document before deleting it.
type ReferenceClearer interface {
	DeleteImageAndClearReferences(ctx context.Context, imageID string) error
}
