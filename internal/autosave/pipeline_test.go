package autosave

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/editor"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs every timer that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

func newTestPipeline(t *testing.T) (*Pipeline, *editor.Store, *mocks.ProjectRepository, *fakeClock) {
	t.Helper()
	projects := &mocks.ProjectRepository{}
	t.Cleanup(func() { projects.AssertExpectations(t) })

	store := editor.NewStore(projects, nil, nil)
	clock := &fakeClock{}
	p := New(store, projects, Options{Clock: clock})
	return p, store, projects, clock
}

func titled(title string) interface{} {
	return mock.MatchedBy(func(doc *project.Document) bool { return doc.Meta.Title == title })
}

func TestInit_LoadsSavedProject(t *testing.T) {
	p, store, projects, clock := newTestPipeline(t)
	saved := project.New("保存済み")
	saved.Items = []project.Item{{ID: "a", Title: "a"}}
	projects.On("Load", mock.Anything).Return(saved, nil).Once()

	require.NoError(t, p.Init(context.Background()))

	require.Equal(t, StateReady, p.Status().State)
	require.Equal(t, "保存済み", store.Snapshot().Meta.Title)
	require.True(t, store.Ready())

	// loading does not itself schedule a save
	require.False(t, p.Status().PendingSave)
	clock.Advance(DefaultDelay)
}

func TestInit_AbsentProjectStartsFresh(t *testing.T) {
	p, store, projects, _ := newTestPipeline(t)
	projects.On("Load", mock.Anything).Return(nil, repository.ErrNotFound).Once()

	require.NoError(t, p.Init(context.Background()))

	snap := store.Snapshot()
	require.True(t, snap.Ready)
	require.Equal(t, project.DefaultTitle, snap.Meta.Title)
	require.Equal(t, StateReady, p.Status().State)
}

func TestInit_Twice(t *testing.T) {
	p, _, projects, _ := newTestPipeline(t)
	projects.On("Load", mock.Anything).Return(nil, repository.ErrNotFound).Once()

	require.NoError(t, p.Init(context.Background()))
	require.ErrorIs(t, p.Init(context.Background()), ErrAlreadyInitialized)
}

func TestInit_LoadFailureRetriesOnce(t *testing.T) {
	p, store, projects, clock := newTestPipeline(t)
	store.SetProjectTitle("in memory")

	saved := project.New("recovered")
	projects.On("Load", mock.Anything).Return(nil, errors.New("database is locked")).Once()
	projects.On("Load", mock.Anything).Return(saved, nil).Once()

	require.NoError(t, p.Init(context.Background()))

	require.Equal(t, StateLoadFailed, p.Status().State)
	require.True(t, store.Ready())
	require.Equal(t, "in memory", store.Snapshot().Meta.Title, "a failed load must not replace the document")

	clock.Advance(0)

	require.Equal(t, StateReady, p.Status().State)
	require.Equal(t, "recovered", store.Snapshot().Meta.Title)
}

func TestInit_RetryFailureGivesUp(t *testing.T) {
	p, store, projects, clock := newTestPipeline(t)
	projects.On("Load", mock.Anything).Return(nil, errors.New("io")).Twice()

	require.NoError(t, p.Init(context.Background()))
	clock.Advance(0)
	clock.Advance(time.Minute)

	require.Equal(t, StateLoadFailed, p.Status().State)
	require.Equal(t, project.DefaultTitle, store.Snapshot().Meta.Title)
	projects.AssertNumberOfCalls(t, "Load", 2)
}

func TestInit_RetryFindsNothing(t *testing.T) {
	p, store, projects, clock := newTestPipeline(t)
	store.SetProjectTitle("draft")
	projects.On("Load", mock.Anything).Return(nil, errors.New("io")).Once()
	projects.On("Load", mock.Anything).Return(nil, repository.ErrNotFound).Once()

	require.NoError(t, p.Init(context.Background()))
	clock.Advance(0)

	require.Equal(t, "draft", store.Snapshot().Meta.Title)
}

func TestDebounce_LastStateWins(t *testing.T) {
	p, store, projects, clock := newTestPipeline(t)
	projects.On("Load", mock.Anything).Return(nil, repository.ErrNotFound).Once()
	require.NoError(t, p.Init(context.Background()))

	projects.On("Save", mock.Anything, titled("b")).Return(nil).Once()

	store.SetProjectTitle("a")
	require.True(t, p.Status().PendingSave)
	clock.Advance(time.Second)
	store.SetProjectTitle("b")
	clock.Advance(1500 * time.Millisecond)
	projects.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	clock.Advance(500 * time.Millisecond)
	projects.AssertNumberOfCalls(t, "Save", 1)
	require.False(t, p.Status().PendingSave)
}

func TestDebounce_IgnoresSelection(t *testing.T) {
	p, store, projects, clock := newTestPipeline(t)
	doc := project.New("")
	doc.Items = []project.Item{{ID: "a"}}
	projects.On("Load", mock.Anything).Return(doc, nil).Once()
	require.NoError(t, p.Init(context.Background()))

	store.SetSelectedItemID("a")
	require.False(t, p.Status().PendingSave)
	clock.Advance(DefaultDelay)
}

func TestDebounce_SaveErrorNotRetried(t *testing.T) {
	p, store, projects, clock := newTestPipeline(t)
	projects.On("Load", mock.Anything).Return(nil, repository.ErrNotFound).Once()
	require.NoError(t, p.Init(context.Background()))

	projects.On("Save", mock.Anything, mock.Anything).Return(errors.New("quota exceeded")).Once()

	store.AddNewItem("")
	clock.Advance(DefaultDelay)
	clock.Advance(time.Minute)

	projects.AssertNumberOfCalls(t, "Save", 1)
}

func TestDispose_FlushesPendingSave(t *testing.T) {
	p, store, projects, clock := newTestPipeline(t)
	projects.On("Load", mock.Anything).Return(nil, repository.ErrNotFound).Once()
	require.NoError(t, p.Init(context.Background()))

	projects.On("Save", mock.Anything, titled("last edit")).Return(nil).Once()

	store.SetProjectTitle("last edit")
	require.NoError(t, p.Dispose(context.Background()))
	require.False(t, p.Status().PendingSave)

	// the superseded timer and later edits do nothing
	clock.Advance(DefaultDelay)
	store.SetProjectTitle("after dispose")
	clock.Advance(DefaultDelay)

	require.NoError(t, p.Dispose(context.Background()))
	projects.AssertNumberOfCalls(t, "Save", 1)
}

func TestDispose_WithoutPendingSave(t *testing.T) {
	p, _, projects, _ := newTestPipeline(t)
	projects.On("Load", mock.Anything).Return(nil, repository.ErrNotFound).Once()
	require.NoError(t, p.Init(context.Background()))

	require.NoError(t, p.Dispose(context.Background()))
	require.ErrorIs(t, p.Init(context.Background()), ErrAlreadyInitialized)
}

func TestDeleteProject_SupersedesPendingSave(t *testing.T) {
	p, store, projects, clock := newTestPipeline(t)
	projects.On("Load", mock.Anything).Return(nil, repository.ErrNotFound).Once()
	require.NoError(t, p.Init(context.Background()))

	store.SetProjectTitle("stale")
	projects.On("Delete", mock.Anything).Return(nil).Once()
	require.NoError(t, store.DeleteProject(context.Background()))

	projects.On("Save", mock.Anything, titled(project.DefaultTitle)).Return(nil).Once()
	clock.Advance(DefaultDelay)

	projects.AssertNotCalled(t, "Save", mock.Anything, titled("stale"))
}

func TestDeleteProject_WaitsForInFlightSave(t *testing.T) {
	p, store, projects, clock := newTestPipeline(t)
	projects.On("Load", mock.Anything).Return(nil, repository.ErrNotFound).Once()
	require.NoError(t, p.Init(context.Background()))

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(event string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, event)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	projects.On("Save", mock.Anything, titled("stale")).Run(func(mock.Arguments) {
		close(started)
		<-release
		record("save:stale")
	}).Return(nil).Once()
	projects.On("Delete", mock.Anything).Run(func(mock.Arguments) {
		record("delete")
	}).Return(nil).Once()

	store.SetProjectTitle("stale")

	fired := make(chan struct{})
	go func() {
		defer close(fired)
		clock.Advance(DefaultDelay)
	}()
	<-started

	deleted := make(chan error, 1)
	go func() { deleted <- store.DeleteProject(context.Background()) }()

	// the delete must not get ahead of the save that is already writing
	time.Sleep(50 * time.Millisecond)
	close(release)

	<-fired
	require.NoError(t, <-deleted)
	require.Equal(t, []string{"save:stale", "delete"}, order)
	require.Equal(t, project.DefaultTitle, store.Snapshot().Meta.Title)
}
