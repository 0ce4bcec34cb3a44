// Package codec converts between the live document and its two file formats:
// a lightweight JSON file without images and a ZIP archive with them.
package codec

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/resolver"
	"github.com/google/uuid"
)

// DefaultTemplateRoot is the asset directory holding the templates.
const DefaultTemplateRoot = "templates"

// Limits are the import ceilings.
type Limits struct {
	MaxJSONBytes      int64
	MaxZIPBytes       int64
	MaxArchiveImages  int
	MaxExtractedBytes int64
}

// DefaultLimits returns the standard import ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxJSONBytes:      10 << 20,
		MaxZIPBytes:       50 << 20,
		MaxArchiveImages:  15,
		MaxExtractedBytes: 100 << 20,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxJSONBytes <= 0 {
		l.MaxJSONBytes = d.MaxJSONBytes
	}
	if l.MaxZIPBytes <= 0 {
		l.MaxZIPBytes = d.MaxZIPBytes
	}
	if l.MaxArchiveImages <= 0 {
		l.MaxArchiveImages = d.MaxArchiveImages
	}
	if l.MaxExtractedBytes <= 0 {
		l.MaxExtractedBytes = d.MaxExtractedBytes
	}
	return l
}

// ImageReader bulk-reads library images for archive export.
type ImageReader interface {
	GetMany(ctx context.Context, ids []string) ([]repository.ImageEntry, error)
}

// Options configures a Codec. Zero values select the defaults.
type Options struct {
	Limits       Limits
	TemplateRoot string
	Logger       *slog.Logger
}

// Codec exports and imports project files.
type Codec struct {
	images       ImageReader
	tx           repository.Transactor
	catalog      *resolver.Catalog
	assets       resolver.Fetcher
	limits       Limits
	templateRoot string
	logger       *slog.Logger

	newID func() string
	now   func() time.Time
}

// New creates a codec. assets serves sample images and templates.
func New(images ImageReader, tx repository.Transactor, catalog *resolver.Catalog, assets resolver.Fetcher, opts Options) *Codec {
	if opts.TemplateRoot == "" {
		opts.TemplateRoot = DefaultTemplateRoot
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Codec{
		images:       images,
		tx:           tx,
		catalog:      catalog,
		assets:       assets,
		limits:       opts.Limits.withDefaults(),
		templateRoot: opts.TemplateRoot,
		logger:       opts.Logger,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// Limits returns the configured import ceilings.
func (c *Codec) Limits() Limits {
	return c.limits
}

// Templates lists the built-in templates.
func (c *Codec) Templates() []resolver.Template {
	return c.catalog.Templates()
}

// restamp sets the version and updatedAt of a document about to leave or
// enter the editor.
func (c *Codec) restamp(doc *project.Document) {
	doc.Meta.Version = project.AppVersion
	doc.Meta.UpdatedAt = project.Timestamp(c.now())
}

// regenerateIDs gives every item and precaution a fresh ID.
func (c *Codec) regenerateIDs(items []project.Item) {
	for i := range items {
		items[i].ID = c.newID()
		for j := range items[i].Precautions {
			items[i].Precautions[j].ID = c.newID()
		}
	}
}
