package mcp

import (
	"errors"
	"fmt"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/codec"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/library"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
)

var (
	// ErrItemNotFound indicates an unknown card ID.
	ErrItemNotFound = errors.New("item not found")
	// ErrItemLimit indicates the document already holds the maximum number of cards.
	ErrItemLimit = errors.New("item limit reached")
	// ErrInvalidInput indicates malformed tool arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotReady indicates a tool call before the stored project was loaded.
	ErrNotReady = errors.New("project not loaded yet")
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, codec.ErrValidation):
		return &APIError{Code: "VALIDATION_ERROR", Message: codec.UserMessage(err), Details: err.Error()}
	case errors.Is(err, codec.ErrFormat):
		return &APIError{Code: "FORMAT_ERROR", Message: codec.UserMessage(err), Details: err.Error()}
	case errors.Is(err, codec.ErrSizeLimit):
		return &APIError{Code: "SIZE_LIMIT_EXCEEDED", Message: codec.UserMessage(err), Details: err.Error()}
	case errors.Is(err, codec.ErrTemplateNotFound):
		return &APIError{Code: "TEMPLATE_NOT_FOUND", Message: codec.MsgTemplateNotFound, RecoveryHint: "Call list_templates for valid IDs"}
	case errors.Is(err, codec.ErrTemplateLoad):
		return &APIError{Code: "TEMPLATE_LOAD_FAILED", Message: codec.MsgTemplateLoad, Details: err.Error()}
	case errors.Is(err, library.ErrEmptyImage):
		return &APIError{Code: "INVALID_INPUT", Message: "image is empty"}
	case errors.Is(err, library.ErrImageTooLarge):
		return &APIError{Code: "IMAGE_TOO_LARGE", Message: "画像サイズが大きすぎます", Details: err.Error()}
	case errors.Is(err, library.ErrUnsupportedImageType):
		return &APIError{Code: "UNSUPPORTED_IMAGE_TYPE", Message: "対応していない画像形式です", RecoveryHint: "Use JPEG, PNG, GIF or WebP"}
	case errors.Is(err, library.ErrImageNotFound):
		return &APIError{Code: "IMAGE_NOT_FOUND", Message: "image not found", RecoveryHint: "Call list_images for valid IDs"}
	case errors.Is(err, ErrItemNotFound):
		return &APIError{Code: "ITEM_NOT_FOUND", Message: "item not found", RecoveryHint: "Call get_document for valid IDs"}
	case errors.Is(err, ErrItemLimit):
		return &APIError{Code: "ITEM_LIMIT_REACHED", Message: fmt.Sprintf("カードは最大%d枚までです", project.MaxItemCount)}
	case errors.Is(err, project.ErrInvalidLayout):
		return &APIError{Code: "INVALID_LAYOUT", Message: "invalid layout type", RecoveryHint: "Use grid1, grid2, grid3 or grid4"}
	case errors.Is(err, ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, ErrNotReady):
		return &APIError{Code: "NOT_READY", Message: "project not loaded yet", RecoveryHint: "Retry shortly"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
