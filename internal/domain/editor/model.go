package editor

import "github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"

// State is the live editor state: the document plus selection.
type State struct {
	Meta           project.Meta
	Settings       project.Settings
	Items          []project.Item
	SelectedItemID string
	Ready          bool
}

func (s State) clone() State {
	out := s
	if s.Meta.Author != nil {
		author := *s.Meta.Author
		out.Meta.Author = &author
	}
	out.Items = project.CloneItems(s.Items)
	return out
}

// Document returns the persistable part of the state.
func (s State) Document() *project.Document {
	doc := &project.Document{
		Meta:     s.Meta,
		Settings: s.Settings,
		Items:    s.Items,
	}
	return doc.Clone()
}

// ItemPatch holds the fields UpdateItem merges into an item. Nil fields are
// left as they are.
type ItemPatch struct {
	Title       *string
	ImageSource *string
	Description *string
	Dosages     *project.Dosages
	Precautions []project.Precaution
}

func (p ItemPatch) apply(item *project.Item) {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.ImageSource != nil {
		item.ImageSource = *p.ImageSource
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Dosages != nil {
		d := *p.Dosages
		item.Dosages = &d
	}
	if p.Precautions != nil {
		item.Precautions = clampPrecautions(p.Precautions)
	}
}

// Listener observes committed state changes. It runs synchronously after the
// store lock is released and must not call mutating store actions.
type Listener func(state, prev State)
