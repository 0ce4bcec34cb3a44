package codec

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/resolver"
)

// ManifestName is the document entry of an archive.
const ManifestName = "project.json"

// ExportFileName returns the download name for an export made at t, e.g.
// rehab-grid-2025-01-31.zip.
func ExportFileName(ext string, t time.Time) string {
	return fmt.Sprintf("rehab-grid-%s.%s", t.Format("2006-01-02"), ext)
}

// ExportJSON serializes doc without images. Every imageSource is emptied.
func (c *Codec) ExportJSON(doc *project.Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	out := doc.Clone()
	c.restamp(out)
	if out.Items == nil {
		out.Items = []project.Item{}
	}
	for i := range out.Items {
		out.Items[i].ImageSource = ""
	}
	return marshalDocument(out)
}

// ExportZIP bundles doc with every image it references. Images that cannot
// be read are dropped and their items get an empty imageSource.
func (c *Codec) ExportZIP(ctx context.Context, doc *project.Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	out := doc.Clone()
	c.restamp(out)
	if out.Items == nil {
		out.Items = []project.Item{}
	}

	sources := make([]string, 0, len(out.Items))
	for _, item := range out.Items {
		if item.ImageSource != "" {
			sources = append(sources, item.ImageSource)
		}
	}
	catalogIDs, blobIDs := resolver.PartitionImageIDs(sources)

	var blobs []project.NamedBlob
	if len(blobIDs) > 0 {
		entries, err := c.images.GetMany(ctx, blobIDs)
		if err != nil {
			return nil, fmt.Errorf("reading images: %w", err)
		}
		for _, e := range entries {
			if e.Image != nil {
				blobs = append(blobs, project.NamedBlob{ID: e.ID, Blob: e.Image.Blob})
			}
		}
	}
	if len(catalogIDs) > 0 {
		blobs = append(blobs, c.catalog.FetchSamples(ctx, c.assets, catalogIDs)...)
	}

	paths := make(map[string]string, len(blobs))
	for i, b := range blobs {
		paths[b.ID] = resolver.ArchivePath(i+1, b.Blob.Type)
	}
	for i := range out.Items {
		out.Items[i].ImageSource = paths[out.Items[i].ImageSource]
	}

	manifest, err := marshalDocument(out)
	if err != nil {
		return nil, err
	}

	modified := c.now()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := writeEntry(zw, ManifestName, zip.Deflate, modified, manifest); err != nil {
		return nil, err
	}
	for _, b := range blobs {
		// images are already compressed
		if err := writeEntry(zw, paths[b.ID], zip.Store, modified, b.Blob.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finishing archive: %w", err)
	}

	c.logger.Debug("archive exported", "items", len(out.Items), "images", len(blobs), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func marshalDocument(doc *project.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding project: %w", err)
	}
	return data, nil
}

func writeEntry(zw *zip.Writer, name string, method uint16, modified time.Time, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method, Modified: modified})
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
