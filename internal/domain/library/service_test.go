package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testPNG = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}

type stubClearer struct {
	fn func(ctx context.Context, id string) error
}

func (s stubClearer) DeleteImageAndClearReferences(ctx context.Context, id string) error {
	return s.fn(ctx, id)
}

func newTestService(t *testing.T, clearer ReferenceClearer) (*Service, *mocks.ImageRepository) {
	t.Helper()
	images := &mocks.ImageRepository{}
	t.Cleanup(func() { images.AssertExpectations(t) })

	svc := NewService(images, clearer, 64, nil)
	svc.newID = func() string { return "img-1" }
	svc.now = func() time.Time { return time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC) }
	return svc, images
}

func TestUpload(t *testing.T) {
	svc, images := newTestService(t, nil)

	images.On("Save", mock.Anything, mock.MatchedBy(func(img *project.ImageRecord) bool {
		return img.ID == "img-1" && img.Blob.Type == "image/png" && img.FileName == "knee.png"
	})).Return(nil).Once()

	summary, err := svc.Upload(context.Background(), "/tmp/photos/knee.png", testPNG)
	require.NoError(t, err)
	require.Equal(t, "img-1", summary.ID)
	require.Equal(t, "image/png", summary.MIMEType)
	require.Equal(t, int64(len(testPNG)), summary.Size)
	require.Equal(t, "knee.png", summary.FileName)
}

func TestUpload_Rejects(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "a.png", nil)
	require.ErrorIs(t, err, ErrEmptyImage)

	_, err = svc.Upload(ctx, "a.png", make([]byte, 65))
	require.ErrorIs(t, err, ErrImageTooLarge)

	_, err = svc.Upload(ctx, "a.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`))
	require.ErrorIs(t, err, ErrUnsupportedImageType)
}

func TestUpload_StorageError(t *testing.T) {
	svc, images := newTestService(t, nil)
	images.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	_, err := svc.Upload(context.Background(), "", testPNG)
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
}

func TestGet_NotFound(t *testing.T) {
	svc, images := newTestService(t, nil)
	images.On("Get", mock.Anything, "nope").Return(nil, repository.ErrNotFound).Once()

	_, err := svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrImageNotFound)
}

func TestList(t *testing.T) {
	svc, images := newTestService(t, nil)
	want := []project.ImageSummary{{ID: "a"}, {ID: "b"}}
	images.On("List", mock.Anything).Return(want, nil).Once()

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestDelete(t *testing.T) {
	var cleared []string
	svc, _ := newTestService(t, stubClearer{fn: func(_ context.Context, id string) error {
		cleared = append(cleared, id)
		return nil
	}})
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "img-1"))
	require.ErrorIs(t, svc.Delete(ctx, "sample_lying_01"), ErrImageNotFound)
	require.ErrorIs(t, svc.Delete(ctx, ""), ErrImageNotFound)
	require.Equal(t, []string{"img-1"}, cleared)
}
