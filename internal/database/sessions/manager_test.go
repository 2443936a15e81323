package sessions

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/status"
	"github.com/mrlokans/bookshelf/internal/entities"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	db          *database.Database
	coordinator *status.Coordinator
	manager     *Manager
	clock       *testClock
}

func setupTestDB(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewQuietDatabase(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := &testClock{now: time.Date(2026, 5, 4, 20, 15, 0, 0, time.UTC)}
	coordinator := status.NewCoordinator(db.DB)
	coordinator.SetClock(clock.Now)
	manager := NewManager(db.DB, coordinator)
	manager.SetClock(clock.Now)

	return &testEnv{db: db, coordinator: coordinator, manager: manager, clock: clock}
}

// newManager simulates a process restart: no state shared with env.manager
// except the database.
func (e *testEnv) newManager() *Manager {
	m := NewManager(e.db.DB, status.NewCoordinator(e.db.DB))
	m.SetClock(e.clock.Now)
	return m
}

func (e *testEnv) createBook(t *testing.T, title string) *entities.Book {
	t.Helper()
	book, err := books.NewRepository(e.db.DB).CreateBook(context.Background(), books.NewBook{Title: title})
	require.NoError(t, err)
	return book
}

func TestActiveSessionID_None(t *testing.T) {
	env := setupTestDB(t)

	_, ok, err := env.manager.ActiveSessionID(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStartSession_ReturnsSameOpenSession(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	first, err := env.manager.StartSession(ctx)
	require.NoError(t, err)
	require.NotZero(t, first)

	for i := 0; i < 3; i++ {
		env.clock.Advance(time.Minute)
		id, err := env.manager.StartSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, id)
	}

	var open int64
	require.NoError(t, env.db.DB.Model(&entities.ReadingSession{}).Where("end_time IS NULL").Count(&open).Error)
	assert.Equal(t, int64(1), open)

	session, err := findSession(env.db.DB, first)
	require.NoError(t, err)
	assert.Nil(t, session.BookID)
	assert.Nil(t, session.EndTime)
	assert.Nil(t, session.Duration)
}

func TestStartSession_Concurrent(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]uint, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = env.manager.StartSession(ctx)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var open int64
	require.NoError(t, env.db.DB.Model(&entities.ReadingSession{}).Where("end_time IS NULL").Count(&open).Error)
	assert.Equal(t, int64(1), open)
}

func TestStartSession_ResumesAfterRestart(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	original, err := env.manager.StartSession(ctx)
	require.NoError(t, err)

	restarted := env.newManager()
	active, ok, err := restarted.ActiveSessionID(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, original, active)

	resumed, err := restarted.StartSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, resumed)
}

func TestStartSession_NewAfterEnd(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	first, err := env.manager.StartSession(ctx)
	require.NoError(t, err)
	_, err = env.manager.EndSession(ctx, first)
	require.NoError(t, err)

	second, err := env.manager.StartSession(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDurationAndEnd(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	id, err := env.manager.StartSession(ctx)
	require.NoError(t, err)

	env.clock.Advance(90 * time.Second)
	elapsed, err := env.manager.DurationToNow(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(90), elapsed)

	// reading the elapsed time does not change anything
	elapsed, err = env.manager.DurationToNow(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(90), elapsed)

	duration, err := env.manager.EndSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(90), duration)

	session, err := findSession(env.db.DB, id)
	require.NoError(t, err)
	require.NotNil(t, session.EndTime)
	assert.True(t, session.EndTime.Equal(env.clock.Now()))
	require.NotNil(t, session.Duration)
	assert.Equal(t, int64(90), *session.Duration)

	_, ok, err := env.manager.ActiveSessionID(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDurationToNow_FloorsToSeconds(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	id, err := env.manager.StartSession(ctx)
	require.NoError(t, err)

	env.clock.Advance(1999 * time.Millisecond)
	elapsed, err := env.manager.DurationToNow(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), elapsed)
}

func TestEndSession_Twice(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	id, err := env.manager.StartSession(ctx)
	require.NoError(t, err)
	env.clock.Advance(30 * time.Second)
	_, err = env.manager.EndSession(ctx, id)
	require.NoError(t, err)
	firstEnd := env.clock.Now()

	env.clock.Advance(time.Hour)
	_, err = env.manager.EndSession(ctx, id)
	assert.ErrorIs(t, err, ErrSessionAlreadyEnded)
	assert.ErrorIs(t, err, entities.ErrInvalidState)

	session, err := findSession(env.db.DB, id)
	require.NoError(t, err)
	require.NotNil(t, session.EndTime)
	assert.True(t, session.EndTime.Equal(firstEnd))
	assert.Equal(t, int64(30), *session.Duration)
}

func TestNotFound(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	_, err := env.manager.DurationToNow(ctx, 42)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, err, entities.ErrNotFound)

	_, err = env.manager.EndSession(ctx, 42)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	book := env.createBook(t, "Dune")
	err = env.manager.BindSessionToBook(ctx, 42, book.ID, false)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	id, err := env.manager.StartSession(ctx)
	require.NoError(t, err)
	err = env.manager.BindSessionToBook(ctx, id, 999, false)
	assert.ErrorIs(t, err, ErrBookNotFound)

	session, err := findSession(env.db.DB, id)
	require.NoError(t, err)
	assert.Nil(t, session.BookID)
}

func TestDeleteSession(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	open, err := env.manager.StartSession(ctx)
	require.NoError(t, err)
	require.NoError(t, env.manager.DeleteSession(ctx, open))

	_, ok, err := env.manager.ActiveSessionID(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	closed, err := env.manager.StartSession(ctx)
	require.NoError(t, err)
	_, err = env.manager.EndSession(ctx, closed)
	require.NoError(t, err)
	require.NoError(t, env.manager.DeleteSession(ctx, closed))

	_, err = findSession(env.db.DB, closed)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.NoError(t, env.manager.DeleteSession(ctx, 12345))
}

func TestBindSessionToBook(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name          string
		markCompleted bool
		want          entities.Status
	}{
		{"continue reading", false, entities.StatusReading},
		{"mark completed", true, entities.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := env.createBook(t, tt.name)
			id, err := env.manager.StartSession(ctx)
			require.NoError(t, err)
			env.clock.Advance(10 * time.Minute)
			_, err = env.manager.EndSession(ctx, id)
			require.NoError(t, err)

			require.NoError(t, env.manager.BindSessionToBook(ctx, id, book.ID, tt.markCompleted))

			session, err := findSession(env.db.DB, id)
			require.NoError(t, err)
			require.NotNil(t, session.BookID)
			assert.Equal(t, book.ID, *session.BookID)

			row, err := env.coordinator.GetStatus(ctx, book.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, row.Status)
		})
	}
}

func TestBindSessionToBook_KeepsCompletedBookCompleted(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	book := env.createBook(t, "Dune")

	first, err := env.manager.StartSession(ctx)
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	_, err = env.manager.FinishSession(ctx, first, book.ID, true)
	require.NoError(t, err)

	finished, err := env.coordinator.GetStatus(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, entities.StatusCompleted, finished.Status)
	require.NotNil(t, finished.EndTime)

	env.clock.Advance(24 * time.Hour)
	second, err := env.manager.StartSession(ctx)
	require.NoError(t, err)
	env.clock.Advance(10 * time.Minute)
	_, err = env.manager.FinishSession(ctx, second, book.ID, false)
	require.NoError(t, err)

	row, err := env.coordinator.GetStatus(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCompleted, row.Status)
	require.NotNil(t, row.EndTime)
	assert.True(t, finished.EndTime.Equal(*row.EndTime), "completion time is kept")

	session, err := findSession(env.db.DB, second)
	require.NoError(t, err)
	require.NotNil(t, session.BookID)
	assert.Equal(t, book.ID, *session.BookID)
}

func TestFinishSession(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	book := env.createBook(t, "Dune")

	id, err := env.manager.StartSession(ctx)
	require.NoError(t, err)
	env.clock.Advance(25 * time.Minute)

	duration, err := env.manager.FinishSession(ctx, id, book.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(25*60), duration)

	session, err := findSession(env.db.DB, id)
	require.NoError(t, err)
	assert.False(t, session.IsOpen())
	require.NotNil(t, session.BookID)
	assert.Equal(t, book.ID, *session.BookID)

	row, err := env.coordinator.GetStatus(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCompleted, row.Status)
}

func TestFinishSession_UnknownBookKeepsSessionOpen(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	id, err := env.manager.StartSession(ctx)
	require.NoError(t, err)
	env.clock.Advance(time.Minute)

	_, err = env.manager.FinishSession(ctx, id, 999, false)
	assert.ErrorIs(t, err, ErrBookNotFound)

	active, ok, err := env.manager.ActiveSessionID(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, active)
}

func TestEligibleBooks(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	zeta := env.createBook(t, "Zeta")
	alpha := env.createBook(t, "Alpha")
	done := env.createBook(t, "Middle")

	_, err := env.coordinator.SetStatus(ctx, zeta.ID, entities.StatusReading)
	require.NoError(t, err)
	_, err = env.coordinator.SetStatus(ctx, done.ID, entities.StatusCompleted)
	require.NoError(t, err)

	eligible, err := env.manager.EligibleBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []EligibleBook{
		{ID: alpha.ID, Title: "Alpha", Status: entities.StatusToRead},
		{ID: zeta.ID, Title: "Zeta", Status: entities.StatusReading},
	}, eligible)
}

func TestListSessions(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	book := env.createBook(t, "Dune")

	var ids []uint
	for i := 0; i < 3; i++ {
		id, err := env.manager.StartSession(ctx)
		require.NoError(t, err)
		env.clock.Advance(time.Hour)
		_, err = env.manager.EndSession(ctx, id)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, env.manager.BindSessionToBook(ctx, ids[0], book.ID, false))

	all, err := env.manager.ListSessions(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	limited, err := env.manager.ListSessions(ctx, nil, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	forBook, err := env.manager.ListSessions(ctx, &book.ID, 0)
	require.NoError(t, err)
	require.Len(t, forBook, 1)
	assert.Equal(t, ids[0], forBook[0].ID)
}
