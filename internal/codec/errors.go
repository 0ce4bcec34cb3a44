package codec

import (
	"errors"
	"fmt"
)

// Messages shown to the user when an import fails.
const (
	MsgInvalidFormat     = "対応していないファイル形式です"
	MsgValidation        = "ファイル形式が正しくありません"
	MsgCorruptedZIP      = "ZIPファイルが破損しています"
	MsgNoProject         = "ZIPファイルにプロジェクトデータがありません"
	MsgFileTooLarge      = "ファイルサイズが大きすぎます"
	MsgTooManyImages     = "ZIPファイル内の画像数が多すぎます"
	MsgExtractedTooLarge = "ZIPファイルの展開後サイズが大きすぎます"
	MsgTemplateNotFound  = "テンプレートが見つかりません"
	MsgTemplateLoad      = "テンプレートの読み込みに失敗しました"
	MsgTemplateInvalid   = "テンプレートのデータが不正です"
	MsgImportFailed      = "インポートに失敗しました"
)

var (
	// ErrValidation matches every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrFormat matches every FormatError.
	ErrFormat = errors.New("unsupported or corrupted file")
	// ErrSizeLimit matches every SizeLimitError.
	ErrSizeLimit = errors.New("size limit exceeded")
	// ErrTemplateNotFound indicates an unknown template ID.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrTemplateLoad indicates the template manifest could not be fetched.
	ErrTemplateLoad = errors.New("template load failed")
	// ErrNoDocument is returned when exporting a nil document.
	ErrNoDocument = errors.New("no document to export")
)

// ValidationError reports a payload with missing or mistyped required fields.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrValidation, e.Err)
	}
	return ErrValidation.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// FormatError reports an unsupported file type, a corrupted archive or an
// archive without a manifest.
type FormatError struct {
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrFormat, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrFormat, e.Message)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// SizeLimitError reports an input over one of the import ceilings.
type SizeLimitError struct {
	Message string
	Limit   int64
	Actual  int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("%s: %s (%d > %d)", ErrSizeLimit, e.Message, e.Actual, e.Limit)
}

func (e *SizeLimitError) Is(target error) bool { return target == ErrSizeLimit }

// UserMessage returns the single summarized message for an import failure.
func UserMessage(err error) string {
	var (
		ve *ValidationError
		fe *FormatError
		se *SizeLimitError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &fe):
		return fe.Message
	case errors.As(err, &se):
		return se.Message
	case errors.Is(err, ErrTemplateNotFound):
		return MsgTemplateNotFound
	case errors.Is(err, ErrTemplateLoad):
		return MsgTemplateLoad
	default:
		return MsgImportFailed
	}
}
