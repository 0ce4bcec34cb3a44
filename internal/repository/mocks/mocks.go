package mocks

import (
	"context"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for repository.ProjectRepository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Save(ctx context.Context, doc *project.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *ProjectRepository) Load(ctx context.Context) (*project.Document, error) {
	args := m.Called(ctx)
	if doc, ok := args.Get(0).(*project.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Delete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ImageRepository is a mock for repository.ImageRepository.
type ImageRepository struct {
	mock.Mock
}

func (m *ImageRepository) Save(ctx context.Context, img *project.ImageRecord) error {
	args := m.Called(ctx, img)
	return args.Error(0)
}

func (m *ImageRepository) Get(ctx context.Context, id string) (*project.ImageRecord, error) {
	args := m.Called(ctx, id)
	if img, ok := args.Get(0).(*project.ImageRecord); ok {
		return img, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ImageRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ImageRepository) GetMany(ctx context.Context, ids []string) ([]repository.ImageEntry, error) {
	args := m.Called(ctx, ids)
	if entries, ok := args.Get(0).([]repository.ImageEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ImageRepository) List(ctx context.Context) ([]project.ImageSummary, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.ImageSummary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Transactor is a mock for repository.Transactor. When the expectation
// returns a nil error, fn runs against Tables.
type Transactor struct {
	mock.Mock
	Tables repository.Tables
}

func (m *Transactor) Transaction(ctx context.Context, fn func(tables repository.Tables) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.Tables)
}
