package codec

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/resolver"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/sanitize"
)

// FileType is the detected format of an import.
type FileType string

const (
	FileTypeJSON    FileType = "json"
	FileTypeZIP     FileType = "zip"
	FileTypeUnknown FileType = "unknown"
)

// DetectFileType uses the file extension and falls back to the ZIP magic bytes.
func DetectFileType(fileName string, data []byte) FileType {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")) {
	case "json":
		return FileTypeJSON
	case "zip":
		return FileTypeZIP
	}
	if len(data) >= 2 && data[0] == 'P' && data[1] == 'K' {
		return FileTypeZIP
	}
	return FileTypeUnknown
}

// Import parses an exported file into an ImportResult. Nothing is persisted.
// Every item and precaution gets a fresh ID.
func (c *Codec) Import(ctx context.Context, fileName string, data []byte) (*project.ImportResult, error) {
	var (
		result *project.ImportResult
		err    error
	)

	switch typ := DetectFileType(fileName, data); typ {
	case FileTypeJSON:
		if err := checkSize(int64(len(data)), c.limits.MaxJSONBytes); err != nil {
			return nil, err
		}
		result, err = c.importJSON(data)
	case FileTypeZIP:
		if err := checkSize(int64(len(data)), c.limits.MaxZIPBytes); err != nil {
			return nil, err
		}
		result, err = c.importZIP(ctx, data)
	default:
		return nil, &FormatError{Message: MsgInvalidFormat}
	}
	if err != nil {
		c.logger.Warn("import rejected", "file", fileName, "error", err)
		return nil, err
	}

	c.logger.Info("import parsed",
		"file", fileName,
		"items", len(result.Project.Items),
		"images", len(result.Images),
	)
	return result, nil
}

func checkSize(size, limit int64) error {
	if size > limit {
		return &SizeLimitError{Message: MsgFileTooLarge, Limit: limit, Actual: size}
	}
	return nil
}

func (c *Codec) importJSON(data []byte) (*project.ImportResult, error) {
	doc, err := sanitize.Document(data)
	if err != nil {
		return nil, &ValidationError{Message: MsgValidation, Err: err}
	}

	c.restamp(doc)
	for i := range doc.Items {
		doc.Items[i].ImageSource = ""
	}
	c.regenerateIDs(doc.Items)

	return &project.ImportResult{Project: *doc, Images: []project.NamedBlob{}}, nil
}

func (c *Codec) importZIP(ctx context.Context, data []byte) (*project.ImportResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &FormatError{Message: MsgCorruptedZIP, Err: err}
	}

	var (
		manifest *zip.File
		images   []*zip.File
		declared uint64
	)
	for _, f := range zr.File {
		switch {
		case f.Name == ManifestName:
			manifest = f
		case isImageEntry(f):
			images = append(images, f)
			declared += f.UncompressedSize64
		}
	}
	if manifest == nil {
		return nil, &FormatError{Message: MsgNoProject}
	}

	// ceilings are checked against the central directory before decoding
	if len(images) > c.limits.MaxArchiveImages {
		return nil, &SizeLimitError{
			Message: MsgTooManyImages,
			Limit:   int64(c.limits.MaxArchiveImages),
			Actual:  int64(len(images)),
		}
	}
	if declared > uint64(c.limits.MaxExtractedBytes) {
		return nil, &SizeLimitError{
			Message: MsgExtractedTooLarge,
			Limit:   c.limits.MaxExtractedBytes,
			Actual:  int64(declared),
		}
	}

	raw, err := readEntry(manifest, c.limits.MaxJSONBytes)
	if err != nil {
		return nil, err
	}
	doc, err := sanitize.Document(raw)
	if err != nil {
		return nil, &ValidationError{Message: MsgValidation, Err: err}
	}

	blobs := make([]project.NamedBlob, 0, len(images))
	pathToID := make(map[string]string, len(images))
	remaining := c.limits.MaxExtractedBytes
	for _, f := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, n, err := readImage(f, remaining)
		remaining -= n
		if remaining < 0 {
			return nil, &SizeLimitError{
				Message: MsgExtractedTooLarge,
				Limit:   c.limits.MaxExtractedBytes,
				Actual:  c.limits.MaxExtractedBytes - remaining,
			}
		}
		if err != nil || !resolver.IsValidImage(content) {
			c.logger.Debug("skipping archive image", "name", f.Name, "error", err)
			continue
		}

		id := c.newID()
		blobs = append(blobs, project.NamedBlob{
			ID:   id,
			Blob: project.Blob{Data: content, Type: resolver.DetectMIME(content)},
		})
		pathToID[f.Name] = id
	}

	c.restamp(doc)
	for i := range doc.Items {
		doc.Items[i].ImageSource = pathToID[doc.Items[i].ImageSource]
	}
	c.regenerateIDs(doc.Items)

	return &project.ImportResult{Project: *doc, Images: blobs}, nil
}

func isImageEntry(f *zip.File) bool {
	return strings.HasPrefix(f.Name, resolver.ArchiveImageDir) &&
		len(f.Name) > len(resolver.ArchiveImageDir) &&
		!f.FileInfo().IsDir()
}

// readEntry reads the manifest, refusing more than limit bytes.
func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, &FormatError{Message: MsgCorruptedZIP, Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, &FormatError{Message: MsgCorruptedZIP, Err: err}
	}
	if int64(len(data)) > limit {
		return nil, &SizeLimitError{Message: MsgFileTooLarge, Limit: limit, Actual: int64(len(data))}
	}
	return data, nil
}

// readImage reads at most budget+1 bytes of an image entry and reports how
// many were read, so the caller can detect an archive lying about its sizes.
func readImage(f *zip.File, budget int64) ([]byte, int64, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, budget+1))
	return data, int64(len(data)), err
}
