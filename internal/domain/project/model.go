package project

import "time"

// LayoutType is the grid column layout of the printed sheet.
type LayoutType string

const (
	LayoutGrid1 LayoutType = "grid1"
	LayoutGrid2 LayoutType = "grid2"
	LayoutGrid3 LayoutType = "grid3"
	LayoutGrid4 LayoutType = "grid4"
)

// TypeTraining is the only supported project type.
const TypeTraining = "training"

// Meta holds document metadata. Timestamps are ISO-8601 strings.
type Meta struct {
	Version     string  `json:"version"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
	Title       string  `json:"title"`
	Author      *string `json:"author,omitempty"`
	ProjectType string  `json:"projectType"`
}

// Settings holds layout settings.
type Settings struct {
	LayoutType LayoutType `json:"layoutType"`
	ThemeColor string     `json:"themeColor"`
}

// Dosages describes the load of an exercise.
type Dosages struct {
	Reps      string `json:"reps"`
	Sets      string `json:"sets"`
	Frequency string `json:"frequency"`
}

// Precaution is a single caution line on a card.
type Precaution struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Item is one exercise card.
//
// ImageSource is empty, a library image ID or a catalog (sample) ID while the
// item lives in the editor. Archive manifests carry relative paths instead.
type Item struct {
	ID          string       `json:"id"`
	Order       int          `json:"order"`
	Title       string       `json:"title"`
	ImageSource string       `json:"imageSource"`
	Description string       `json:"description"`
	Dosages     *Dosages     `json:"dosages,omitempty"`
	Precautions []Precaution `json:"precautions,omitempty"`
}

// Document is the full editable state of the current project.
type Document struct {
	Meta     Meta     `json:"meta"`
	Settings Settings `json:"settings"`
	Items    []Item   `json:"items"`
}

// Record is the persisted form of the singleton document.
type Record struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Data      Document  `json:"data"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Blob is raw image bytes with their MIME type.
type Blob struct {
	Data []byte
	Type string
}

// Size returns the blob length in bytes.
func (b Blob) Size() int {
	return len(b.Data)
}

// ImageRecord is a stored image.
type ImageRecord struct {
	ID        string
	Blob      Blob
	FileName  string
	CreatedAt time.Time
}

// ImageSummary is image metadata without the bytes.
type ImageSummary struct {
	ID        string    `json:"id"`
	MIMEType  string    `json:"mimeType"`
	FileName  string    `json:"fileName,omitempty"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// NamedBlob pairs a blob with the ID it is stored under.
type NamedBlob struct {
	ID   string
	Blob Blob
}

// ImportResult is a parsed import ready to be applied.
type ImportResult struct {
	Project Document
	Images  []NamedBlob
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	if d.Meta.Author != nil {
		author := *d.Meta.Author
		out.Meta.Author = &author
	}
	out.Items = CloneItems(d.Items)
	return &out
}

// CloneItems deep copies a slice of items. A nil slice stays nil.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	out := it
	if it.Dosages != nil {
		d := *it.Dosages
		out.Dosages = &d
	}
	if it.Precautions != nil {
		out.Precautions = append([]Precaution(nil), it.Precautions...)
	}
	return out
}
