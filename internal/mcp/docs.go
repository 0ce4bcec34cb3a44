package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/sanitize"
	"github.com/invopop/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `rehab-grid edits one rehabilitation exercise sheet: a project of up to 10 exercise cards printed on a grid.

Core concepts:
- Project: meta (title, timestamps), settings (layoutType grid1..grid4, themeColor) and ordered items.
- Item (card): title, imageSource, description, optional dosages (reps/sets/frequency) and up to 5 precautions.
- imageSource is empty, a library image ID (upload_image) or a sample ID (sample_*).
- Every change is saved automatically about two seconds after the last edit.

Workflow:
1) get_document to see the current sheet.
2) add_item / update_item / delete_item / reorder_items to edit cards.
3) set_layout, set_theme_color, set_project_title for the sheet.
4) export_json (no images) or export_zip (with images) to back up.
5) import_project or apply_template replace the whole project.

Text is stripped of markup and clamped to the field limits; see rehab-grid://docs/field-limits.

Docs:
- rehab-grid://docs/index
- rehab-grid://docs/import-export
- rehab-grid://docs/field-limits
- rehab-grid://schema/project
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	MIMEType    string
	Content     string
}

func buildDocResources() []docResource {
	return []docResource{
		{
			URI:         "rehab-grid://docs/index",
			Name:        "docs_index",
			Title:       "rehab-grid docs index",
			Description: "Entry point: what the tools do and which docs to read.",
			MIMEType:    "text/markdown",
			Content: `# rehab-grid

## Quick start

1. ` + "`get_document`" + ` returns the sheet, the selected card and whether the saved project is loaded.
2. ` + "`add_item`" + ` appends a card. The sheet holds at most 10 cards.
3. ` + "`update_item`" + ` merges the given fields into a card; omitted fields are unchanged.
4. ` + "`list_templates`" + ` / ` + "`apply_template`" + ` start from a ready-made sheet.

## Images

- ` + "`upload_image`" + ` stores JPEG, PNG, GIF or WebP (max 20MB) and returns its ID.
- ` + "`list_samples`" + ` lists the built-in sample images. They are referenced by ID (` + "`sample_*`" + `) and are never stored.
- A card's ` + "`image_source`" + ` must be empty, a sample ID or a library image ID. File paths are rejected.
- ` + "`delete_image`" + ` clears every card that shows the image before removing it.

## Limitations

- ` + "`delete_project`" + ` keeps library images.
- Images are not compressed on upload.
`,
		},
		{
			URI:         "rehab-grid://docs/import-export",
			Name:        "docs_import_export",
			Title:       "Import and export",
			Description: "File formats, size limits and error codes of import and export.",
			MIMEType:    "text/markdown",
			Content: `# Import and export

## Formats

- JSON: the project document only. Every imageSource is exported empty.
- ZIP: ` + "`project.json`" + ` plus ` + "`images/img_NNN.<ext>`" + `. imageSource holds the relative path inside the archive.

## Import

Import replaces the whole project. Every card and precaution gets a new ID.
Invalid text is clamped; a missing required field or an unknown layout or
project type rejects the whole file. Images that fail validation are skipped.

## Limits

- JSON file: 10MB
- ZIP file: 50MB
- Images in an archive: 15
- Total extracted size: 100MB

## Error codes

- ` + "`VALIDATION_ERROR`" + `: missing or mistyped fields
- ` + "`FORMAT_ERROR`" + `: unsupported or corrupted file, or no project.json in the archive
- ` + "`SIZE_LIMIT_EXCEEDED`" + `: one of the limits above
`,
		},
		{
			URI:         "rehab-grid://docs/field-limits",
			Name:        "field_limits",
			Title:       "Field limits",
			Description: "Clamp-versus-reject policy of every document field.",
			MIMEType:    "text/markdown",
			Content:     fieldLimitsMarkdown(),
		},
		{
			URI:         "rehab-grid://schema/project",
			Name:        "project_schema",
			Title:       "Project file schema",
			Description: "JSON Schema of an exported project document.",
			MIMEType:    "application/schema+json",
			Content:     projectSchema(),
		},
	}
}

func fieldLimitsMarkdown() string {
	var b strings.Builder
	b.WriteString("# Field limits\n\n")
	b.WriteString("| Field | Policy | Limit | Allowed |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, rule := range sanitize.Policies {
		limit := ""
		if rule.Limit > 0 {
			limit = fmt.Sprint(rule.Limit)
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", rule.Field, rule.Policy, limit, strings.Join(rule.Allowed, ", "))
	}
	b.WriteString("\nClamp and strip fields never fail an import. Require and enum fields reject the whole file.\n")
	return b.String()
}

func projectSchema() string {
	r := &jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	schema := r.Reflect(&project.Document{})
	schema.Title = "rehab-grid project"
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range buildDocResources() {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    doc.MIMEType,
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: doc.MIMEType,
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
