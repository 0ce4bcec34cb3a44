package sanitize

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
)

type rawDocument struct {
	Meta     *rawMeta     `json:"meta"`
	Settings *rawSettings `json:"settings"`
	Items    []rawItem    `json:"items"`
}

type rawMeta struct {
	Version     *string `json:"version"`
	CreatedAt   *string `json:"createdAt"`
	UpdatedAt   *string `json:"updatedAt"`
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	ProjectType *string `json:"projectType"`
}

type rawSettings struct {
	LayoutType *string `json:"layoutType"`
	ThemeColor *string `json:"themeColor"`
}

type rawItem struct {
	ID          *string         `json:"id"`
	Order       *float64        `json:"order"`
	Title       *string         `json:"title"`
	ImageSource *string         `json:"imageSource"`
	Description *string         `json:"description"`
	Dosages     *rawDosages     `json:"dosages"`
	Precautions []rawPrecaution `json:"precautions"`
}

type rawDosages struct {
	Reps      *string `json:"reps"`
	Sets      *string `json:"sets"`
	Frequency *string `json:"frequency"`
}

type rawPrecaution struct {
	ID    *string `json:"id"`
	Value *string `json:"value"`
}

// Document validates an untrusted JSON payload and returns a bounded copy.
// Structural problems are rejected with an error wrapping ErrInvalidDocument;
// oversized fields and arrays are clamped silently.
//
// Every element is validated before arrays are cut to their limits, so a
// malformed element past the limit still rejects the document. Only keys
// spelled exactly like a known field are read.
func Document(data []byte) (*project.Document, error) {
	exact, err := documentShape.exactKeys(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	var raw rawDocument
	if err := json.Unmarshal(exact, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return raw.build()
}

func (r *rawDocument) build() (*project.Document, error) {
	if r.Meta == nil {
		return nil, missing("meta")
	}
	if r.Settings == nil {
		return nil, missing("settings")
	}
	if r.Items == nil {
		return nil, missing("items")
	}

	meta, err := r.Meta.build()
	if err != nil {
		return nil, err
	}
	settings, err := r.Settings.build()
	if err != nil {
		return nil, err
	}

	type ordered struct {
		item  project.Item
		order float64
	}
	built := make([]ordered, 0, len(r.Items))
	for _, ri := range r.Items {
		item, order, err := ri.build()
		if err != nil {
			return nil, err
		}
		built = append(built, ordered{item: item, order: order})
	}
	if limit := mustRule("items").Limit; len(built) > limit {
		built = built[:limit]
	}
	sort.SliceStable(built, func(i, j int) bool { return built[i].order < built[j].order })

	items := make([]project.Item, len(built))
	for i, b := range built {
		items[i] = b.item
	}

	return &project.Document{
		Meta:     meta,
		Settings: settings,
		Items:    project.Renumber(items),
	}, nil
}

func (m *rawMeta) build() (project.Meta, error) {
	required := []struct {
		field string
		value *string
	}{
		{"meta.version", m.Version},
		{"meta.createdAt", m.CreatedAt},
		{"meta.updatedAt", m.UpdatedAt},
		{"meta.title", m.Title},
		{"meta.projectType", m.ProjectType},
	}
	for _, f := range required {
		if f.value == nil {
			return project.Meta{}, missing(f.field)
		}
	}

	rule := mustRule("meta.projectType")
	if !rule.allows(*m.ProjectType) {
		return project.Meta{}, notAllowed(rule.Field, *m.ProjectType)
	}

	meta := project.Meta{
		Version:     *m.Version,
		CreatedAt:   *m.CreatedAt,
		UpdatedAt:   *m.UpdatedAt,
		Title:       apply("meta.title", *m.Title),
		ProjectType: *m.ProjectType,
	}
	if m.Author != nil {
		author := apply("meta.author", *m.Author)
		meta.Author = &author
	}
	return meta, nil
}

func (s *rawSettings) build() (project.Settings, error) {
	if s.LayoutType == nil {
		return project.Settings{}, missing("settings.layoutType")
	}
	if s.ThemeColor == nil {
		return project.Settings{}, missing("settings.themeColor")
	}
	rule := mustRule("settings.layoutType")
	if !rule.allows(*s.LayoutType) {
		return project.Settings{}, notAllowed(rule.Field, *s.LayoutType)
	}
	return project.Settings{
		LayoutType: project.LayoutType(*s.LayoutType),
		ThemeColor: apply("settings.themeColor", *s.ThemeColor),
	}, nil
}

func (ri *rawItem) build() (project.Item, float64, error) {
	switch {
	case ri.ID == nil:
		return project.Item{}, 0, missing("items[].id")
	case ri.Order == nil:
		return project.Item{}, 0, missing("items[].order")
	case ri.Title == nil:
		return project.Item{}, 0, missing("items[].title")
	case ri.ImageSource == nil:
		return project.Item{}, 0, missing("items[].imageSource")
	case ri.Description == nil:
		return project.Item{}, 0, missing("items[].description")
	}

	item := project.Item{
		ID:          *ri.ID,
		Title:       apply("items[].title", *ri.Title),
		ImageSource: *ri.ImageSource,
		Description: apply("items[].description", *ri.Description),
	}

	if d := ri.Dosages; d != nil {
		if d.Reps == nil || d.Sets == nil || d.Frequency == nil {
			return project.Item{}, 0, missing("items[].dosages")
		}
		item.Dosages = &project.Dosages{
			Reps:      apply("items[].dosages.reps", *d.Reps),
			Sets:      apply("items[].dosages.sets", *d.Sets),
			Frequency: apply("items[].dosages.frequency", *d.Frequency),
		}
	}

	if len(ri.Precautions) > 0 {
		item.Precautions = make([]project.Precaution, 0, len(ri.Precautions))
		for _, rp := range ri.Precautions {
			if rp.ID == nil {
				return project.Item{}, 0, missing("items[].precautions[].id")
			}
			if rp.Value == nil {
				return project.Item{}, 0, missing("items[].precautions[].value")
			}
			item.Precautions = append(item.Precautions, project.Precaution{
				ID:    *rp.ID,
				Value: apply("items[].precautions[].value", *rp.Value),
			})
		}
		if limit := mustRule("items[].precautions").Limit; len(item.Precautions) > limit {
			item.Precautions = item.Precautions[:limit]
		}
	}

	return item, *ri.Order, nil
}

// apply runs the Strip or Clamp rule of field on value.
func apply(field, value string) string {
	r := mustRule(field)
	switch r.Policy {
	case Clamp:
		return Field(value, r.Limit)
	case Strip:
		return Text(value)
	default:
		return value
	}
}
