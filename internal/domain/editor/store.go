package editor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/google/uuid"
)

// Store holds the single live document and applies editor actions to it.
// Each action replaces the state atomically; listeners see changes in the
// order actions were applied.
type Store struct {
	projects ProjectRepository
	images   ImageRepository
	logger   *slog.Logger

	// commitMu serializes commit and notification so listeners observe
	// mutation order. mu guards state and listeners.
	commitMu sync.Mutex
	mu       sync.Mutex
	state    State

	listeners    map[int]Listener
	nextListener int

	newID func() string
	now   func() time.Time
}

// NewStore creates a store holding a fresh default document. It is not ready
// until InitializeFromDB or MarkReady is called.
func NewStore(projects ProjectRepository, images ImageRepository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{
		projects:  projects,
		images:    images,
		logger:    logger,
		listeners: make(map[int]Listener),
		newID:     uuid.NewString,
		now:       time.Now,
	}
	s.state = freshState(project.NewAt("", s.now()), false)
	return s
}

func freshState(doc *project.Document, ready bool) State {
	return State{
		Meta:     doc.Meta,
		Settings: doc.Settings,
		Items:    doc.Items,
		Ready:    ready,
	}
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Document returns a copy of the current document.
func (s *Store) Document() *project.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Document()
}

// Persist passes the current document to save while holding the commit lock.
// No action, DeleteProject included, can run until save returns, so a save
// never writes a document that a concurrent delete has already discarded.
func (s *Store) Persist(ctx context.Context, save func(ctx context.Context, doc *project.Document) error) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	return save(ctx, s.Document())
}

// Ready reports whether the store has been initialized.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Ready
}

// commit applies fn to a copy of the state. When fn reports a change the copy
// replaces the state and listeners are notified.
func (s *Store) commit(fn func(st *State) bool) bool {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next := prev.clone()
	if !fn(&next) {
		s.mu.Unlock()
		return false
	}
	s.state = next
	listeners := s.listenerList()
	s.mu.Unlock()

	s.notify(listeners, next, prev)
	return true
}

func (s *Store) listenerList() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextListener; i++ {
		if fn, ok := s.listeners[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (s *Store) notify(listeners []Listener, state, prev State) {
	for _, fn := range listeners {
		fn(state.clone(), prev.clone())
	}
}

// InitializeFromDB replaces the whole document with doc and marks the store ready.
func (s *Store) InitializeFromDB(doc *project.Document) {
	if doc == nil {
		return
	}
	loaded := doc.Clone()
	s.commit(func(st *State) bool {
		st.Meta = loaded.Meta
		st.Settings = loaded.Settings
		st.Items = clampItems(loaded.Items)
		if st.Items == nil {
			st.Items = []project.Item{}
		}
		st.Ready = true
		return true
	})
}

// MarkReady sets the ready flag without touching the document.
func (s *Store) MarkReady() {
	s.commit(func(st *State) bool {
		if st.Ready {
			return false
		}
		st.Ready = true
		return true
	})
}

// AddItem appends item at the end. It returns false when the document is full.
// An item without an ID gets a fresh one.
func (s *Store) AddItem(item project.Item) bool {
	added := item.Clone()
	if added.ID == "" {
		added.ID = s.newID()
	}
	added.Precautions = clampPrecautions(added.Precautions)

	return s.commit(func(st *State) bool {
		if len(st.Items) >= project.MaxItemCount {
			return false
		}
		added.Order = len(st.Items)
		st.Items = append(st.Items, added)
		return true
	})
}

// AddNewItem appends an empty card and selects it. An empty title falls back
// to the default card title.
func (s *Store) AddNewItem(title string) (string, bool) {
	if title == "" {
		title = project.DefaultItemTitle
	}
	id := s.newID()

	ok := s.commit(func(st *State) bool {
		if len(st.Items) >= project.MaxItemCount {
			return false
		}
		st.Items = append(st.Items, project.Item{
			ID:    id,
			Order: len(st.Items),
			Title: title,
		})
		st.SelectedItemID = id
		return true
	})
	if !ok {
		s.logger.Debug("item limit reached", "max", project.MaxItemCount)
		return "", false
	}
	return id, true
}

// UpdateItem merges patch into the item with the given ID. Unknown IDs are ignored.
func (s *Store) UpdateItem(id string, patch ItemPatch) bool {
	return s.commit(func(st *State) bool {
		for i := range st.Items {
			if st.Items[i].ID == id {
				patch.apply(&st.Items[i])
				return true
			}
		}
		return false
	})
}

// DeleteItem removes the item and renumbers the rest.
func (s *Store) DeleteItem(id string) bool {
	return s.commit(func(st *State) bool {
		kept := make([]project.Item, 0, len(st.Items))
		for _, item := range st.Items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		if len(kept) == len(st.Items) {
			return false
		}
		st.Items = project.Renumber(kept)
		if st.SelectedItemID == id {
			st.SelectedItemID = ""
		}
		return true
	})
}

// ReorderItems replaces the items with an already renumbered permutation.
func (s *Store) ReorderItems(items []project.Item) {
	s.SetItems(items)
}

// SetItems replaces the items wholesale. The item count is bounded and
// orders that are not 0..N-1 in slice order are renumbered.
func (s *Store) SetItems(items []project.Item) {
	replaced := clampItems(project.CloneItems(items))
	if replaced == nil {
		replaced = []project.Item{}
	}
	if !project.HasDenseOrder(replaced) {
		s.logger.Debug("renumbering items", "count", len(replaced))
		replaced = project.Renumber(replaced)
	}
	s.commit(func(st *State) bool {
		st.Items = replaced
		return true
	})
}

// SetLayoutType changes the grid layout. Unknown layouts are ignored.
func (s *Store) SetLayoutType(layout project.LayoutType) bool {
	if project.ValidateLayoutType(layout) != nil {
		return false
	}
	return s.commit(func(st *State) bool {
		if st.Settings.LayoutType == layout {
			return false
		}
		st.Settings.LayoutType = layout
		return true
	})
}

// SetThemeColor changes the accent colour.
func (s *Store) SetThemeColor(color string) bool {
	return s.commit(func(st *State) bool {
		if st.Settings.ThemeColor == color {
			return false
		}
		st.Settings.ThemeColor = color
		return true
	})
}

// SetSelectedItemID selects an item. An empty ID clears the selection.
func (s *Store) SetSelectedItemID(id string) {
	s.commit(func(st *State) bool {
		if st.SelectedItemID == id {
			return false
		}
		st.SelectedItemID = id
		return true
	})
}

// SetProjectTitle renames the project.
func (s *Store) SetProjectTitle(title string) {
	s.commit(func(st *State) bool {
		if st.Meta.Title == title {
			return false
		}
		st.Meta.Title = title
		return true
	})
}

// DeleteProject deletes the persisted record and then resets the live
// document to a fresh default. The reset happens before DeleteProject returns,
// and no read of the document can observe the old state in between. On a
// delete failure the live document is left unchanged.
func (s *Store) DeleteProject(ctx context.Context) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	if err := s.projects.Delete(ctx); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to delete project: %w", err)
	}

	prev := s.state
	s.state = freshState(project.NewAt("", s.now()), true)
	next := s.state
	listeners := s.listenerList()
	s.mu.Unlock()

	s.logger.Info("project deleted")
	s.notify(listeners, next, prev)
	return nil
}

// DeleteImageAndClearReferences detaches imageID from every item, then
// deletes the blob. Listeners see the cleared references before the blob is
// removed.
func (s *Store) DeleteImageAndClearReferences(ctx context.Context, imageID string) error {
	if imageID == "" {
		return nil
	}

	s.commit(func(st *State) bool {
		changed := false
		for i := range st.Items {
			if st.Items[i].ImageSource == imageID {
				st.Items[i].ImageSource = ""
				changed = true
			}
		}
		return changed
	})

	if err := s.images.Delete(ctx, imageID); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

func clampItems(items []project.Item) []project.Item {
	if len(items) > project.MaxItemCount {
		items = items[:project.MaxItemCount]
	}
	for i := range items {
		items[i].Precautions = clampPrecautions(items[i].Precautions)
	}
	return items
}

func clampPrecautions(p []project.Precaution) []project.Precaution {
	if p == nil {
		return nil
	}
	if len(p) > project.MaxPrecautionsCount {
		p = p[:project.MaxPrecautionsCount]
	}
	return append([]project.Precaution{}, p...)
}
