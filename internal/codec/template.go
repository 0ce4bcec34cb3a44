package codec

import (
	"context"
	"fmt"
	"path"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/resolver"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/sanitize"
)

// LoadTemplate reads a built-in template into an ImportResult.
//
// Sample image IDs are kept as they are. Every other image is fetched once
// and stored under a fresh ID; images that cannot be fetched leave their
// items without an image.
func (c *Codec) LoadTemplate(ctx context.Context, templateID string) (*project.ImportResult, error) {
	tmpl, ok := c.catalog.TemplateByID(templateID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}

	base := path.Join(c.templateRoot, tmpl.Path)
	manifest, err := c.assets.Fetch(ctx, path.Join(base, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateLoad, templateID, err)
	}

	doc, err := sanitize.Document(manifest.Data)
	if err != nil {
		return nil, &ValidationError{Message: MsgTemplateInvalid, Err: err}
	}

	var sources, paths []string
	seen := make(map[string]bool)
	for _, item := range doc.Items {
		src := item.ImageSource
		if src == "" || resolver.IsCatalogID(src) || seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
		paths = append(paths, path.Join(base, src))
	}

	blobs := make([]project.NamedBlob, 0, len(sources))
	sourceToID := make(map[string]string, len(sources))
	for i, r := range resolver.FetchAll(ctx, c.assets, paths) {
		if r.Err != nil {
			c.logger.Warn("template image unavailable", "template", templateID, "path", r.Path, "error", r.Err)
			continue
		}
		id := c.newID()
		blobs = append(blobs, project.NamedBlob{ID: id, Blob: r.Blob})
		sourceToID[sources[i]] = id
	}

	ts := project.Timestamp(c.now())
	doc.Meta.Version = project.AppVersion
	doc.Meta.CreatedAt = ts
	doc.Meta.UpdatedAt = ts
	for i := range doc.Items {
		src := doc.Items[i].ImageSource
		if !resolver.IsCatalogID(src) {
			doc.Items[i].ImageSource = sourceToID[src]
		}
	}
	c.regenerateIDs(doc.Items)

	c.logger.Info("template loaded", "template", templateID, "items", len(doc.Items), "images", len(blobs))
	return &project.ImportResult{Project: *doc, Images: blobs}, nil
}
