package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/resolver"
	"github.com/google/uuid"
)

// DefaultMaxUploadBytes is the upload ceiling used when none is configured.
const DefaultMaxUploadBytes = 20 << 20

// Service manages the user's image library.
type Service struct {
	images   ImageRepository
	clearer  ReferenceClearer
	maxBytes int64
	logger   *slog.Logger

	newID func() string
	now   func() time.Time
}

// NewService creates a new library service. maxBytes <= 0 selects DefaultMaxUploadBytes.
func NewService(images ImageRepository, clearer ReferenceClearer, maxBytes int64, logger *slog.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		images:   images,
		clearer:  clearer,
		maxBytes: maxBytes,
		logger:   logger,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Upload validates and stores an image under a fresh ID.
func (s *Service) Upload(ctx context.Context, fileName string, data []byte) (*project.ImageSummary, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(data), s.maxBytes)
	}

	mimeType := resolver.DetectMIME(data)
	if !resolver.IsAllowedImageType(mimeType) || !resolver.IsValidImage(data) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImageType, mimeType)
	}

	if fileName != "" {
		fileName = filepath.Base(fileName)
	}

	img := &project.ImageRecord{
		ID:        s.newID(),
		Blob:      project.Blob{Data: data, Type: mimeType},
		FileName:  fileName,
		CreatedAt: s.now(),
	}
	if err := s.images.Save(ctx, img); err != nil {
		return nil, fmt.Errorf("storing image: %w", err)
	}

	s.logger.Info("image uploaded", "id", img.ID, "type", mimeType, "size", len(data))

	return &project.ImageSummary{
		ID:        img.ID,
		MIMEType:  mimeType,
		FileName:  fileName,
		Size:      int64(img.Blob.Size()),
		CreatedAt: img.CreatedAt,
	}, nil
}

// Get returns a stored image.
func (s *Service) Get(ctx context.Context, id string) (*project.ImageRecord, error) {
	img, err := s.images.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("loading image: %w", err)
	}
	return img, nil
}

// List returns metadata for every stored image, newest first.
func (s *Service) List(ctx context.Context) ([]project.ImageSummary, error) {
	images, err := s.images.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	return images, nil
}

// Delete removes an image after clearing every card that shows it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" || resolver.IsCatalogID(id) {
		return ErrImageNotFound
	}
	if err := s.clearer.DeleteImageAndClearReferences(ctx, id); err != nil {
		return err
	}
	s.logger.Info("image deleted", "id", id)
	return nil
}
