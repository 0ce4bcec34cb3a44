package codec

import (
	"context"
	"fmt"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository"
)

// ApplyImportResult stores the images and the project of result in one
// transaction. initialize runs with the stored document only after the
// transaction commits; on any error it is not called.
func (c *Codec) ApplyImportResult(ctx context.Context, result *project.ImportResult, initialize func(doc *project.Document)) error {
	if result == nil {
		return ErrNoDocument
	}

	now := c.now()
	doc := result.Project.Clone()
	doc.Meta.UpdatedAt = project.Timestamp(now)
	if doc.Items == nil {
		doc.Items = []project.Item{}
	}

	err := c.tx.Transaction(ctx, func(tables repository.Tables) error {
		for _, img := range result.Images {
			rec := &project.ImageRecord{ID: img.ID, Blob: img.Blob, CreatedAt: now}
			if err := tables.Images.Save(ctx, rec); err != nil {
				return err
			}
		}
		return tables.Projects.Save(ctx, doc)
	})
	if err != nil {
		return fmt.Errorf("applying import: %w", err)
	}

	c.logger.Info("import applied", "items", len(doc.Items), "images", len(result.Images))
	if initialize != nil {
		initialize(doc)
	}
	return nil
}
