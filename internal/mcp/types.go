package mcp

import (
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/resolver"
)

type DosagesParams struct {
	Reps      string `json:"reps"`
	Sets      string `json:"sets"`
	Frequency string `json:"frequency"`
}

type AddItemParams struct {
	Title       string         `json:"title,omitempty"`
	ImageSource string         `json:"image_source,omitempty"`
	Description string         `json:"description,omitempty"`
	Dosages     *DosagesParams `json:"dosages,omitempty"`
	Precautions []string       `json:"precautions,omitempty"`
	Select      bool           `json:"select,omitempty"`
}

type UpdateItemParams struct {
	ID          string         `json:"id"`
	Title       *string        `json:"title,omitempty"`
	ImageSource *string        `json:"image_source,omitempty"`
	Description *string        `json:"description,omitempty"`
	Dosages     *DosagesParams `json:"dosages,omitempty"`
	Precautions []string       `json:"precautions,omitempty"`
}

type ItemIDParams struct {
	ID string `json:"id"`
}

type ReorderItemsParams struct {
	IDs []string `json:"ids"`
}

type SetLayoutParams struct {
	Layout string `json:"layout"`
}

type SetThemeColorParams struct {
	Color string `json:"color"`
}

type SetProjectTitleParams struct {
	Title string `json:"title"`
}

type SelectItemParams struct {
	ID string `json:"id"`
}

type ExportParams struct {
	OutputPath string `json:"output_path,omitempty"`
}

type ImportProjectParams struct {
	Path          string `json:"path,omitempty"`
	FileName      string `json:"file_name,omitempty"`
	ContentBase64 string `json:"content_base64,omitempty"`
}

type ApplyTemplateParams struct {
	ID string `json:"id"`
}

type UploadImageParams struct {
	Path          string `json:"path,omitempty"`
	FileName      string `json:"file_name,omitempty"`
	ContentBase64 string `json:"content_base64,omitempty"`
	AssignTo      string `json:"assign_to,omitempty"`
}

type DeleteImageParams struct {
	ID string `json:"id"`
}

type DocumentResponse struct {
	Document       *project.Document `json:"document"`
	SelectedItemID string            `json:"selected_item_id,omitempty"`
	Ready          bool              `json:"ready"`
}

type ItemResponse struct {
	Item  project.Item `json:"item"`
	Count int          `json:"count"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ExportResponse struct {
	FileName      string `json:"file_name"`
	Path          string `json:"path,omitempty"`
	Size          int    `json:"size"`
	Content       string `json:"content,omitempty"`
	ContentBase64 string `json:"content_base64,omitempty"`
}

type ImportResponse struct {
	Title      string `json:"title"`
	ItemCount  int    `json:"item_count"`
	ImageCount int    `json:"image_count"`
}

type TemplateListResponse struct {
	Templates []resolver.Template `json:"templates"`
}

type ImageListResponse struct {
	Images []project.ImageSummary `json:"images"`
}

type SampleEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FileName string `json:"file_name"`
	Path     string `json:"path"`
}

type SampleListResponse struct {
	Samples []SampleEntry `json:"samples"`
}
