package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/codec"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/editor"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/library"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/resolver"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/sanitize"
	"github.com/google/uuid"
)

// EditorStore defines the live document operations needed by MCP.
type EditorStore interface {
	Snapshot() editor.State
	Document() *project.Document
	Ready() bool
	AddItem(item project.Item) bool
	UpdateItem(id string, patch editor.ItemPatch) bool
	DeleteItem(id string) bool
	ReorderItems(items []project.Item)
	SetLayoutType(layout project.LayoutType) bool
	SetThemeColor(color string) bool
	SetProjectTitle(title string)
	SetSelectedItemID(id string)
	InitializeFromDB(doc *project.Document)
	DeleteProject(ctx context.Context) error
}

// ProjectCodec defines import, export and template operations needed by MCP.
type ProjectCodec interface {
	ExportJSON(doc *project.Document) ([]byte, error)
	ExportZIP(ctx context.Context, doc *project.Document) ([]byte, error)
	Import(ctx context.Context, fileName string, data []byte) (*project.ImportResult, error)
	ApplyImportResult(ctx context.Context, result *project.ImportResult, initialize func(doc *project.Document)) error
	LoadTemplate(ctx context.Context, templateID string) (*project.ImportResult, error)
	Templates() []resolver.Template
	Limits() codec.Limits
}

// ImageLibrary defines image library operations needed by MCP.
type ImageLibrary interface {
	Upload(ctx context.Context, fileName string, data []byte) (*project.ImageSummary, error)
	Get(ctx context.Context, id string) (*project.ImageRecord, error)
	List(ctx context.Context) ([]project.ImageSummary, error)
	Delete(ctx context.Context, id string) error
}

// SampleCatalog lists the built-in sample images.
type SampleCatalog interface {
	Samples() []resolver.Sample
	SamplePath(id string) (string, bool)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Store   EditorStore
	Codec   ProjectCodec
	Images  ImageLibrary
	Samples SampleCatalog
	// MaxUploadBytes caps files read for upload_image. Zero selects the library default.
	MaxUploadBytes int64
}

var themeColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Handler dispatches MCP commands.
type Handler struct {
	store     EditorStore
	codec     ProjectCodec
	images    ImageLibrary
	samples   SampleCatalog
	uploadCap int64

	newID func() string
	now   func() time.Time
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services) *Handler {
	uploadCap := services.MaxUploadBytes
	if uploadCap <= 0 {
		uploadCap = library.DefaultMaxUploadBytes
	}
	return &Handler{
		store:     services.Store,
		codec:     services.Codec,
		images:    services.Images,
		samples:   services.Samples,
		uploadCap: uploadCap,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Handle dispatches MCP requests to domain services.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "get_document":
		return h.documentResponse(), nil
	case "add_item":
		var req AddItemParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.addItem(ctx, req)
	case "update_item":
		var req UpdateItemParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.updateItem(ctx, req)
	case "delete_item":
		var req ItemIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if !h.store.DeleteItem(req.ID) {
			return nil, mapError(ErrItemNotFound)
		}
		return h.documentResponse(), nil
	case "reorder_items":
		var req ReorderItemsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		items, err := permute(h.store.Snapshot().Items, req.IDs)
		if err != nil {
			return nil, mapError(err)
		}
		h.store.ReorderItems(items)
		return h.documentResponse(), nil
	case "set_layout":
		var req SetLayoutParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		layout := project.LayoutType(req.Layout)
		if err := project.ValidateLayoutType(layout); err != nil {
			return nil, mapError(err)
		}
		h.store.SetLayoutType(layout)
		return h.documentResponse(), nil
	case "set_theme_color":
		var req SetThemeColorParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if !themeColorPattern.MatchString(req.Color) {
			return nil, mapError(invalidInput("color must be a hex colour like #3b82f6"))
		}
		h.store.SetThemeColor(strings.ToLower(req.Color))
		return h.documentResponse(), nil
	case "set_project_title":
		var req SetProjectTitleParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		title := sanitize.Field(req.Title, fieldLimit("meta.title"))
		if strings.TrimSpace(title) == "" {
			title = project.DefaultTitle
		}
		h.store.SetProjectTitle(title)
		return h.documentResponse(), nil
	case "select_item":
		var req SelectItemParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.ID != "" {
			if _, ok := findItem(h.store.Snapshot().Items, req.ID); !ok {
				return nil, mapError(ErrItemNotFound)
			}
		}
		h.store.SetSelectedItemID(req.ID)
		return h.documentResponse(), nil
	case "export_json":
		var req ExportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		data, err := h.codec.ExportJSON(h.store.Document())
		if err != nil {
			return nil, mapError(err)
		}
		return h.writeExport(req.OutputPath, codec.ExportFileName("json", h.now()), data, false)
	case "export_zip":
		var req ExportParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		data, err := h.codec.ExportZIP(ctx, h.store.Document())
		if err != nil {
			return nil, mapError(err)
		}
		return h.writeExport(req.OutputPath, codec.ExportFileName("zip", h.now()), data, true)
	case "import_project":
		var req ImportProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		limits := h.codec.Limits()
		name, data, err := readInput(req.Path, req.FileName, req.ContentBase64, max(limits.MaxZIPBytes, limits.MaxJSONBytes))
		if err != nil {
			return nil, mapError(err)
		}
		result, err := h.codec.Import(ctx, name, data)
		if err != nil {
			return nil, mapError(err)
		}
		return h.apply(ctx, result)
	case "list_templates":
		templates := h.codec.Templates()
		if templates == nil {
			templates = []resolver.Template{}
		}
		return TemplateListResponse{Templates: templates}, nil
	case "apply_template":
		var req ApplyTemplateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		result, err := h.codec.LoadTemplate(ctx, req.ID)
		if err != nil {
			return nil, mapError(err)
		}
		return h.apply(ctx, result)
	case "upload_image":
		var req UploadImageParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		name, data, err := readInput(req.Path, req.FileName, req.ContentBase64, h.uploadCap)
		if err != nil {
			return nil, mapError(err)
		}
		summary, err := h.images.Upload(ctx, name, data)
		if err != nil {
			return nil, mapError(err)
		}
		if req.AssignTo != "" {
			source := summary.ID
			if !h.store.UpdateItem(req.AssignTo, editor.ItemPatch{ImageSource: &source}) {
				return nil, mapError(ErrItemNotFound)
			}
		}
		return summary, nil
	case "list_images":
		images, err := h.images.List(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		if images == nil {
			images = []project.ImageSummary{}
		}
		return ImageListResponse{Images: images}, nil
	case "list_samples":
		return h.listSamples(), nil
	case "delete_image":
		var req DeleteImageParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.images.Delete(ctx, req.ID); err != nil {
			return nil, mapError(err)
		}
		return StatusResponse{Status: "deleted"}, nil
	case "delete_project":
		if err := h.store.DeleteProject(ctx); err != nil {
			return nil, mapError(err)
		}
		return h.documentResponse(), nil
	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return mapError(invalidInput("%v", err))
	}
	return nil
}

func (h *Handler) documentResponse() DocumentResponse {
	st := h.store.Snapshot()
	return DocumentResponse{
		Document:       st.Document(),
		SelectedItemID: st.SelectedItemID,
		Ready:          st.Ready,
	}
}

func (h *Handler) addItem(ctx context.Context, req AddItemParams) (*ItemResponse, error) {
	if err := h.checkImageSource(ctx, req.ImageSource); err != nil {
		return nil, mapError(err)
	}
	title := sanitize.Field(req.Title, fieldLimit("items[].title"))
	if title == "" {
		title = project.DefaultItemTitle
	}
	item := project.Item{
		ID:          h.newID(),
		Title:       title,
		ImageSource: req.ImageSource,
		Description: sanitize.Field(req.Description, fieldLimit("items[].description")),
		Dosages:     sanitizeDosages(req.Dosages),
		Precautions: h.precautions(req.Precautions),
	}
	if !h.store.AddItem(item) {
		return nil, mapError(ErrItemLimit)
	}
	if req.Select {
		h.store.SetSelectedItemID(item.ID)
	}

	st := h.store.Snapshot()
	added, _ := findItem(st.Items, item.ID)
	return &ItemResponse{Item: added, Count: len(st.Items)}, nil
}

func (h *Handler) updateItem(ctx context.Context, req UpdateItemParams) (*ItemResponse, error) {
	if req.ID == "" {
		return nil, mapError(invalidInput("id is required"))
	}
	if req.ImageSource != nil {
		if err := h.checkImageSource(ctx, *req.ImageSource); err != nil {
			return nil, mapError(err)
		}
	}

	var patch editor.ItemPatch
	if req.Title != nil {
		title := sanitize.Field(*req.Title, fieldLimit("items[].title"))
		patch.Title = &title
	}
	if req.ImageSource != nil {
		source := *req.ImageSource
		patch.ImageSource = &source
	}
	if req.Description != nil {
		description := sanitize.Field(*req.Description, fieldLimit("items[].description"))
		patch.Description = &description
	}
	patch.Dosages = sanitizeDosages(req.Dosages)
	if req.Precautions != nil {
		patch.Precautions = h.precautions(req.Precautions)
	}

	if !h.store.UpdateItem(req.ID, patch) {
		return nil, mapError(ErrItemNotFound)
	}

	st := h.store.Snapshot()
	updated, _ := findItem(st.Items, req.ID)
	return &ItemResponse{Item: updated, Count: len(st.Items)}, nil
}

// checkImageSource accepts an empty source, a known sample ID or the ID of a
// stored library image. Paths and unknown IDs never reach the live document.
func (h *Handler) checkImageSource(ctx context.Context, source string) error {
	if source == "" {
		return nil
	}
	if resolver.IsCatalogID(source) {
		if h.samples != nil {
			if _, ok := h.samples.SamplePath(source); ok {
				return nil
			}
		}
		return invalidInput("unknown sample image: %s", source)
	}
	if _, err := h.images.Get(ctx, source); err != nil {
		if errors.Is(err, library.ErrImageNotFound) {
			return invalidInput("image_source must be empty, a sample ID or a library image ID: %s", source)
		}
		return err
	}
	return nil
}

func (h *Handler) listSamples() SampleListResponse {
	resp := SampleListResponse{Samples: []SampleEntry{}}
	if h.samples == nil {
		return resp
	}
	for _, s := range h.samples.Samples() {
		resp.Samples = append(resp.Samples, SampleEntry{
			ID:       s.ID,
			Name:     resolver.DisplayFileName(s.FileName),
			FileName: s.FileName,
			Path:     s.Path,
		})
	}
	return resp
}

func (h *Handler) precautions(values []string) []project.Precaution {
	if values == nil {
		return nil
	}
	limit := fieldLimit("items[].precautions[].value")
	out := make([]project.Precaution, 0, len(values))
	for _, v := range values {
		if len(out) == project.MaxPrecautionsCount {
			break
		}
		out = append(out, project.Precaution{ID: h.newID(), Value: sanitize.Field(v, limit)})
	}
	return out
}

func (h *Handler) apply(ctx context.Context, result *project.ImportResult) (*ImportResponse, error) {
	if err := h.codec.ApplyImportResult(ctx, result, h.store.InitializeFromDB); err != nil {
		return nil, mapError(err)
	}
	return &ImportResponse{
		Title:      result.Project.Meta.Title,
		ItemCount:  len(result.Project.Items),
		ImageCount: len(result.Images),
	}, nil
}

func (h *Handler) writeExport(outputPath, fileName string, data []byte, binary bool) (*ExportResponse, error) {
	resp := &ExportResponse{FileName: fileName, Size: len(data)}
	if outputPath == "" {
		if binary {
			resp.ContentBase64 = base64.StdEncoding.EncodeToString(data)
		} else {
			resp.Content = string(data)
		}
		return resp, nil
	}

	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		outputPath = filepath.Join(outputPath, fileName)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	resp.Path = outputPath
	return resp, nil
}

// readInput returns the file named by path, or the decoded inline content.
// At most limit+1 bytes are read so oversized files still fail the size check.
func readInput(path, fileName, contentBase64 string, limit int64) (string, []byte, error) {
	switch {
	case path != "" && contentBase64 != "":
		return "", nil, invalidInput("pass either path or content_base64, not both")
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return "", nil, invalidInput("cannot open %s: %v", path, err)
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, limit+1))
		if err != nil {
			return "", nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if fileName == "" {
			fileName = filepath.Base(path)
		}
		return fileName, data, nil
	case contentBase64 != "":
		data, err := base64.StdEncoding.DecodeString(contentBase64)
		if err != nil {
			return "", nil, invalidInput("content_base64 is not valid base64")
		}
		return fileName, data, nil
	default:
		return "", nil, invalidInput("path or content_base64 is required")
	}
}

// permute orders items by ids, which must name every item exactly once.
func permute(items []project.Item, ids []string) ([]project.Item, error) {
	if len(ids) != len(items) {
		return nil, invalidInput("ids must list all %d items", len(items))
	}
	byID := make(map[string]project.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	out := make([]project.Item, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, invalidInput("unknown or repeated item id %q", id)
		}
		delete(byID, id)
		out = append(out, item)
	}
	return project.Renumber(out), nil
}

func findItem(items []project.Item, id string) (project.Item, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return project.Item{}, false
}

func sanitizeDosages(d *DosagesParams) *project.Dosages {
	if d == nil {
		return nil
	}
	return &project.Dosages{
		Reps:      sanitize.Field(d.Reps, fieldLimit("items[].dosages.reps")),
		Sets:      sanitize.Field(d.Sets, fieldLimit("items[].dosages.sets")),
		Frequency: sanitize.Field(d.Frequency, fieldLimit("items[].dosages.frequency")),
	}
}

func fieldLimit(field string) int {
	rule, _ := sanitize.Lookup(field)
	return rule.Limit
}
