package editor

import "context"

// ProjectRepository removes the persisted project record.
type ProjectRepository interface {
	Delete(ctx context.Context) error
}

// ImageRepository removes stored image blobs.
type ImageRepository interface {
	Delete(ctx context.Context, id string) error
}
