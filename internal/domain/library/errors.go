package library

import "errors"

var (
	// ErrEmptyImage indicates an upload with no bytes.
	ErrEmptyImage = errors.New("image is empty")
	// ErrImageTooLarge indicates an upload over the size ceiling.
	ErrImageTooLarge = errors.New("image too large")
	// ErrUnsupportedImageType indicates bytes that are not JPEG, PNG, GIF or WebP.
	ErrUnsupportedImageType = errors.New("unsupported image type")
	// ErrImageNotFound indicates an unknown image ID.
	ErrImageNotFound = errors.New("image not found")
)
