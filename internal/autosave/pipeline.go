// Package autosave mirrors editor changes into durable storage.
package autosave

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/editor"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository"
)

// DefaultDelay is the debounce delay between the last change and the save.
const DefaultDelay = 2000 * time.Millisecond

// ErrAlreadyInitialized is returned by a second call to Init.
var ErrAlreadyInitialized = errors.New("autosave already initialized")

// State is the lifecycle state of a Pipeline.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateLoadFailed    State = "load_failed"
)

// Status is a point-in-time view of the pipeline.
type Status struct {
	State       State
	PendingSave bool
}

// Store is the editor state the pipeline observes.
type Store interface {
	InitializeFromDB(doc *project.Document)
	MarkReady()
	Persist(ctx context.Context, save func(ctx context.Context, doc *project.Document) error) error
	Subscribe(fn editor.Listener) func()
}

// ProjectRepository loads and saves the singleton project.
type ProjectRepository interface {
	Save(ctx context.Context, doc *project.Document) error
	Load(ctx context.Context) (*project.Document, error)
}

// Options configures a Pipeline. Zero values select the defaults.
type Options struct {
	Delay      time.Duration
	RetryDelay time.Duration
	Clock      Clock
	Logger     *slog.Logger
}

// Pipeline loads the project into the store once and then saves the store's
// document after every burst of changes.
type Pipeline struct {
	store      Store
	projects   ProjectRepository
	delay      time.Duration
	retryDelay time.Duration
	clock      Clock
	logger     *slog.Logger

	mu          sync.Mutex
	state       State
	gen         uint64
	pending     Timer
	retry       Timer
	unsubscribe func()
	disposed    bool
	ctx         context.Context
	saves       sync.WaitGroup
}

// New creates a pipeline. Nothing happens until Init is called.
func New(store Store, projects ProjectRepository, opts Options) *Pipeline {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		store:      store,
		projects:   projects,
		delay:      opts.Delay,
		retryDelay: opts.RetryDelay,
		clock:      opts.Clock,
		logger:     opts.Logger,
		state:      StateUninitialized,
	}
}

// Init subscribes to the store and loads the persisted project into it.
//
// A missing project initializes the store with a fresh default. A failed load
// marks the store ready without replacing its document and schedules a single
// retry; the retry only initializes the store if it finds a document.
func (p *Pipeline) Init(ctx context.Context) error {
	p.mu.Lock()
	if p.state != StateUninitialized || p.disposed {
		p.mu.Unlock()
		return ErrAlreadyInitialized
	}
	p.state = StateLoading
	p.ctx = context.WithoutCancel(ctx)
	p.unsubscribe = p.store.Subscribe(p.onChange)
	p.mu.Unlock()

	doc, err := p.projects.Load(ctx)
	switch {
	case err == nil:
		p.store.InitializeFromDB(doc)
		p.setState(StateReady)
		p.logger.Info("project loaded", "title", doc.Meta.Title, "items", len(doc.Items))
	case errors.Is(err, repository.ErrNotFound):
		p.store.InitializeFromDB(project.New(""))
		p.setState(StateReady)
		p.logger.Info("no saved project, starting empty")
	default:
		p.logger.Warn("project load failed, retrying once", "error", err)
		p.store.MarkReady()

		p.mu.Lock()
		p.state = StateLoadFailed
		if !p.disposed {
			p.retry = p.clock.AfterFunc(p.retryDelay, p.retryLoad)
		}
		p.mu.Unlock()
	}

	return nil
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

func (p *Pipeline) retryLoad() {
	p.mu.Lock()
	p.retry = nil
	if p.disposed {
		p.mu.Unlock()
		return
	}
	ctx := p.ctx
	p.mu.Unlock()

	doc, err := p.projects.Load(ctx)
	if err != nil || doc == nil {
		p.logger.Debug("project load retry gave up", "error", err)
		return
	}

	p.store.InitializeFromDB(doc)
	p.setState(StateReady)
	p.logger.Info("project loaded on retry", "title", doc.Meta.Title)
}

// onChange restarts the debounce timer when a persisted field changed.
// Selection changes and the transition into ready are ignored.
func (p *Pipeline) onChange(state, prev editor.State) {
	if !state.Ready || !prev.Ready {
		return
	}
	if samePersistedFields(state, prev) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}

	if p.pending != nil {
		p.pending.Stop()
	}
	p.gen++
	gen := p.gen
	p.pending = p.clock.AfterFunc(p.delay, func() { p.fire(gen) })
}

func samePersistedFields(a, b editor.State) bool {
	return a.Settings.LayoutType == b.Settings.LayoutType &&
		a.Settings.ThemeColor == b.Settings.ThemeColor &&
		reflect.DeepEqual(a.Meta, b.Meta) &&
		reflect.DeepEqual(a.Items, b.Items)
}

func (p *Pipeline) fire(gen uint64) {
	p.mu.Lock()
	// superseded by a later change, or already flushed
	if gen != p.gen || p.pending == nil {
		p.mu.Unlock()
		return
	}
	p.pending = nil
	ctx := p.ctx
	p.saves.Add(1)
	p.mu.Unlock()

	defer p.saves.Done()
	p.save(ctx)
}

func (p *Pipeline) save(ctx context.Context) error {
	err := p.store.Persist(ctx, func(ctx context.Context, doc *project.Document) error {
		if err := p.projects.Save(ctx, doc); err != nil {
			return err
		}
		p.logger.Debug("autosaved", "items", len(doc.Items))
		return nil
	})
	if err != nil {
		p.logger.Error("autosave failed", "error", err)
	}
	return err
}

// Dispose stops observing the store. A save that is still waiting for its
// timer is written immediately, and in-flight saves are awaited. Calling
// Dispose again does nothing.
func (p *Pipeline) Dispose(ctx context.Context) error {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return nil
	}
	p.disposed = true
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
	if p.retry != nil {
		p.retry.Stop()
		p.retry = nil
	}
	flush := p.pending != nil
	if flush {
		p.pending.Stop()
		p.pending = nil
	}
	p.gen++
	p.mu.Unlock()

	p.saves.Wait()

	if flush {
		return p.save(ctx)
	}
	return nil
}

// Status reports the lifecycle state and whether a save is waiting.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{State: p.state, PendingSave: p.pending != nil}
}
