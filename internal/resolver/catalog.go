package resolver

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SampleIDPrefix marks catalog image IDs.
const SampleIDPrefix = "sample_"

//go:embed samples.yaml
var samplesYAML []byte

//go:embed templates.yaml
var templatesYAML []byte

// Sample is a built-in image served from a static path.
type Sample struct {
	ID       string `yaml:"id" json:"id"`
	FileName string `yaml:"fileName" json:"fileName"`
	Path     string `yaml:"path" json:"path"`
}

// Template describes a ready-made project.
type Template struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	CardCount   int    `yaml:"cardCount" json:"cardCount"`
	Path        string `yaml:"path" json:"path"`
}

// Catalog indexes the built-in samples and templates.
type Catalog struct {
	samples   []Sample
	byID      map[string]Sample
	templates []Template
}

// DefaultCatalog parses the embedded sample and template manifests.
func DefaultCatalog() (*Catalog, error) {
	var s struct {
		Samples []Sample `yaml:"samples"`
	}
	if err := yaml.Unmarshal(samplesYAML, &s); err != nil {
		return nil, fmt.Errorf("parse sample catalog: %w", err)
	}
	var t struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(templatesYAML, &t); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}
	return NewCatalog(s.Samples, t.Templates)
}

// NewCatalog builds a catalog. Sample IDs must carry SampleIDPrefix and be unique.
func NewCatalog(samples []Sample, templates []Template) (*Catalog, error) {
	c := &Catalog{
		samples:   samples,
		byID:      make(map[string]Sample, len(samples)),
		templates: templates,
	}
	for _, s := range samples {
		if !IsCatalogID(s.ID) {
			return nil, fmt.Errorf("sample %q: missing %s prefix", s.ID, SampleIDPrefix)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("sample %q: duplicate id", s.ID)
		}
		c.byID[s.ID] = s
	}
	return c, nil
}

// Samples returns the samples in display order.
func (c *Catalog) Samples() []Sample {
	return append([]Sample(nil), c.samples...)
}

// SamplePath returns the static path of a sample image.
func (c *Catalog) SamplePath(id string) (string, bool) {
	s, ok := c.byID[id]
	return s.Path, ok
}

// Templates returns all templates.
func (c *Catalog) Templates() []Template {
	return append([]Template(nil), c.templates...)
}

// TemplateByID looks up a template.
func (c *Catalog) TemplateByID(id string) (Template, bool) {
	for _, t := range c.templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// IsCatalogID reports whether id names a built-in sample rather than a stored blob.
func IsCatalogID(id string) bool {
	return strings.HasPrefix(id, SampleIDPrefix)
}

// PartitionImageIDs splits image sources into catalog IDs and library blob
// IDs. Empty sources are skipped and duplicates collapse to their first
// occurrence.
func PartitionImageIDs(ids []string) (catalogIDs, blobIDs []string) {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if IsCatalogID(id) {
			catalogIDs = append(catalogIDs, id)
		} else {
			blobIDs = append(blobIDs, id)
		}
	}
	return catalogIDs, blobIDs
}
