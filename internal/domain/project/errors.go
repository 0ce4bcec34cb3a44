package project

import "errors"

var (
	// ErrInvalidLayout indicates a layout outside grid1..grid4.
	ErrInvalidLayout = errors.New("invalid layout type")
)
