package project

import "time"

const (
	// SingletonID is the key of the only persisted project record.
	SingletonID = "current"
	// AppVersion is stamped into exported and saved documents.
	AppVersion = "0.1.0"
	// DefaultTitle is used when a new project has no title.
	DefaultTitle = "無題のプロジェクト"
	// DefaultItemTitle is the title of a card created from scratch.
	DefaultItemTitle = "新しい運動"
	// DefaultThemeColor is the accent colour of a new project.
	DefaultThemeColor = "#3b82f6"
	// DefaultLayout is the layout of a new project.
	DefaultLayout = LayoutGrid2

	// MaxItemCount bounds the number of cards in a document.
	MaxItemCount = 10
	// MaxPrecautionsCount bounds the precautions of a single card.
	MaxPrecautionsCount = 5
)

// timestampLayout matches JavaScript's Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t the way document timestamps are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// New returns an empty training document created now.
func New(title string) *Document {
	return NewAt(title, time.Now())
}

// NewAt returns an empty training document created at now.
func NewAt(title string, now time.Time) *Document {
	if title == "" {
		title = DefaultTitle
	}
	ts := Timestamp(now)
	return &Document{
		Meta: Meta{
			Version:     AppVersion,
			CreatedAt:   ts,
			UpdatedAt:   ts,
			Title:       title,
			ProjectType: TypeTraining,
		},
		Settings: Settings{
			LayoutType: DefaultLayout,
			ThemeColor: DefaultThemeColor,
		},
		Items: []Item{},
	}
}

// Renumber assigns order 0..N-1 following slice position.
func Renumber(items []Item) []Item {
	for i := range items {
		items[i].Order = i
	}
	return items
}
