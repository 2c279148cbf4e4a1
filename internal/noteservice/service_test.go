package noteservice_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/mnemo/internal/apperr"
	"github.com/starford/mnemo/internal/models"
	"github.com/starford/mnemo/internal/noteservice"
	"github.com/starford/mnemo/internal/seed"
	"github.com/starford/mnemo/internal/store"
	"github.com/starford/mnemo/internal/testutil"
)

var start = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(kind, id string) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+id)
	r.mu.Unlock()
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestCreateNote(t *testing.T) {
	clock := testutil.NewClock(start)
	svc := testutil.TestService(t, clock)
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, "Flask", "Intro #Flask #web #Python #Flask")
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, []string{"Flask", "web", "Python"}, n.Tags)
	assert.True(t, n.CreatedAt.Equal(start))
	assert.True(t, n.UpdatedAt.Equal(start))
	assert.Nil(t, n.NextReview)
	assert.Zero(t, n.ReviewCount)
	assert.False(t, n.Due)
	assert.NotEmpty(t, n.Checksum)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	var names []string
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"Flask", "Python", "web"}, names)
}

func TestCreateNote_ReusesTags(t *testing.T) {
	svc := testutil.TestService(t, testutil.NewClock(start))
	ctx := context.Background()

	_, err := svc.CreateNote(ctx, "a", "#go")
	require.NoError(t, err)
	_, err = svc.CreateNote(ctx, "b", "#go #Go")
	require.NoError(t, err)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestCreateNote_RequiresTitle(t *testing.T) {
	svc := testutil.TestService(t, testutil.NewClock(start))
	ctx := context.Background()

	for _, title := range []string{"", "   "} {
		_, err := svc.CreateNote(ctx, title, "#orphan")
		require.ErrorIs(t, err, apperr.ErrInvalidInput)
	}

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags, "rejected notes must not create tags")
}

func TestUpdateNote(t *testing.T) {
	clock := testutil.NewClock(start)
	svc := testutil.TestService(t, clock)
	ctx := context.Background()

	created, err := svc.CreateNote(ctx, "v1", "#old #keep")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	updated, err := svc.UpdateNote(ctx, created.ID, "v2", "#keep #new", created.Checksum)
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Title)
	assert.Equal(t, []string{"keep", "new"}, updated.Tags)
	assert.True(t, updated.CreatedAt.Equal(start))
	assert.True(t, updated.UpdatedAt.Equal(start.Add(time.Hour)))
	assert.NotEqual(t, created.Checksum, updated.Checksum)

	// Stale checksum.
	_, err = svc.UpdateNote(ctx, created.ID, "v3", "", created.Checksum)
	require.ErrorIs(t, err, apperr.ErrConflict)

	// Empty If-Match skips the check.
	_, err = svc.UpdateNote(ctx, created.ID, "v3", "", "")
	require.NoError(t, err)

	_, err = svc.UpdateNote(ctx, created.ID, "", "", "")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.UpdateNote(ctx, "missing", "t", "", "")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteNote(t *testing.T) {
	svc := testutil.TestService(t, testutil.NewClock(start))
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, "t", "#Python")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteNote(ctx, n.ID))

	_, err = svc.GetNote(ctx, n.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.ErrorIs(t, svc.DeleteNote(ctx, n.ID), apperr.ErrNotFound)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Python", tags[0].Name)

	got, err := svc.Search(ctx, "", "Python")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// pausingStore runs onGet once, after the next GetNote has read the note.
type pausingStore struct {
	store.Store
	onGet func()
}

func (p *pausingStore) GetNote(ctx context.Context, id string) (models.Note, error) {
	n, err := p.Store.GetNote(ctx, id)
	if fn := p.onGet; fn != nil {
		p.onGet = nil
		fn()
	}
	return n, err
}

func TestDeleteNote_WaitsForUpdate(t *testing.T) {
	st := &pausingStore{Store: store.NewMemory()}
	svc := noteservice.NewService(st, noteservice.WithClock(testutil.NewClock(start).Now))
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, "t", "body")
	require.NoError(t, err)

	deleted := make(chan error, 1)
	var deletedDuringUpdate bool
	st.onGet = func() {
		go func() { deleted <- svc.DeleteNote(ctx, n.ID) }()
		time.Sleep(50 * time.Millisecond)
		deletedDuringUpdate = len(deleted) > 0
	}

	_, err = svc.UpdateNote(ctx, n.ID, "t2", "body2", "")
	require.NoError(t, err)
	require.NoError(t, <-deleted)
	assert.False(t, deletedDuringUpdate, "delete ran inside the update")

	_, err = svc.GetNote(ctx, n.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSearch(t *testing.T) {
	clock := testutil.NewClock(start)
	svc := testutil.TestService(t, clock)
	ctx := context.Background()

	a, err := svc.CreateNote(ctx, "SQL basics", "select rows #SQL")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	b, err := svc.CreateNote(ctx, "Flask", "web apps #Python")
	require.NoError(t, err)

	ids := func(notes []noteservice.NoteDetail) []string {
		out := make([]string, len(notes))
		for i, n := range notes {
			out[i] = n.ID
		}
		return out
	}

	got, err := svc.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, ids(got))

	got, err = svc.Search(ctx, "  SQL ", "")
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids(got))

	got, err = svc.Search(ctx, "web", " Python ")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(got))

	got, err = svc.Search(ctx, "sql", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_MemoryStoreMatchesSQLite(t *testing.T) {
	ctx := context.Background()
	services := []*noteservice.Service{
		testutil.TestService(t, testutil.NewClock(start)),
		noteservice.NewService(store.NewMemory(), noteservice.WithClock(testutil.NewClock(start).Now)),
	}
	var titles [][]string
	for _, svc := range services {
		_, err := svc.CreateNote(ctx, "one", "alpha #x")
		require.NoError(t, err)
		_, err = svc.CreateNote(ctx, "two", "beta #x #y")
		require.NoError(t, err)

		got, err := svc.Search(ctx, "a", "x")
		require.NoError(t, err)
		var ts []string
		for _, n := range got {
			ts = append(ts, n.Title)
		}
		titles = append(titles, ts)
	}
	assert.ElementsMatch(t, titles[0], titles[1])
	assert.Len(t, titles[0], 2)
}

func TestReviewLifecycle(t *testing.T) {
	clock := testutil.NewClock(start)
	svc := testutil.TestService(t, clock)
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, "card", "")
	require.NoError(t, err)

	n, err = svc.SetReview(ctx, n.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, n.NextReview)
	assert.True(t, n.NextReview.Equal(start.Add(72*time.Hour)))
	assert.Zero(t, n.ReviewCount)
	assert.Nil(t, n.LastReviewed)

	_, err = svc.SetReview(ctx, n.ID, 0)
	require.ErrorIs(t, err, apperr.ErrInvalidInterval)

	wantDays := []int{1, 2, 4, 8, 16, 30, 30}
	for i, days := range wantDays {
		now := clock.Now()
		n, err = svc.MarkReviewed(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, i+1, n.ReviewCount)
		require.NotNil(t, n.LastReviewed)
		assert.True(t, n.LastReviewed.Equal(now))
		assert.True(t, n.NextReview.Equal(now.Add(time.Duration(days)*24*time.Hour)), "review %d", i+1)
		clock.Advance(time.Hour)
	}

	got, err := svc.GetNote(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, len(wantDays), got.ReviewCount)

	_, err = svc.MarkReviewed(ctx, "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDueReviews(t *testing.T) {
	clock := testutil.NewClock(start)
	svc := testutil.TestService(t, clock)
	ctx := context.Background()

	first, err := svc.CreateNote(ctx, "first", "")
	require.NoError(t, err)
	second, err := svc.CreateNote(ctx, "second", "")
	require.NoError(t, err)
	_, err = svc.CreateNote(ctx, "unscheduled", "")
	require.NoError(t, err)

	_, err = svc.SetReview(ctx, first.ID, 1)
	require.NoError(t, err)
	_, err = svc.SetReview(ctx, second.ID, 2)
	require.NoError(t, err)

	due, total, err := svc.DueReviews(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, due)
	assert.Zero(t, total)

	clock.Advance(3 * 24 * time.Hour)
	due, total, err = svc.DueReviews(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, due, 2)
	assert.Equal(t, first.ID, due[0].ID)
	assert.True(t, due[0].Due)

	due, total, err = svc.DueReviews(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, due, 1)
}

func TestEvents(t *testing.T) {
	rec := &recorder{}
	svc := testutil.TestService(t, testutil.NewClock(start), noteservice.WithEvents(rec.record))
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, "t", "")
	require.NoError(t, err)
	_, err = svc.UpdateNote(ctx, n.ID, "t2", "", "")
	require.NoError(t, err)
	_, err = svc.SetReview(ctx, n.ID, 1)
	require.NoError(t, err)
	_, err = svc.MarkReviewed(ctx, n.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteNote(ctx, n.ID))

	// Failed operations emit nothing.
	_, err = svc.CreateNote(ctx, "", "")
	require.Error(t, err)

	assert.Equal(t, []string{
		"created:" + n.ID,
		"updated:" + n.ID,
		"reviewed:" + n.ID,
		"reviewed:" + n.ID,
		"deleted:" + n.ID,
	}, rec.all())
}

func TestSeed(t *testing.T) {
	svc := testutil.TestService(t, testutil.NewClock(start))
	ctx := context.Background()

	entries, err := seed.Load("")
	require.NoError(t, err)

	created, err := svc.Seed(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, len(entries), created)

	again, err := svc.Seed(ctx, entries)
	require.NoError(t, err)
	assert.Zero(t, again, "seeding a non-empty store is a no-op")

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	var names []string
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"CSS", "Flask", "JavaScript", "Python", "SQL", "basics", "databases", "frontend", "web"}, names)

	python, err := svc.Search(ctx, "", "Python")
	require.NoError(t, err)
	assert.Len(t, python, 2)

	due, _, err := svc.DueReviews(ctx, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "JavaScript DOM tips", due[0].Title)
}

func TestConcurrentCreatesShareTags(t *testing.T) {
	svc := testutil.TestService(t, testutil.NewClock(start))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateNote(ctx, "n", "#shared")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	got, err := svc.Search(ctx, "", "shared")
	require.NoError(t, err)
	assert.Len(t, got, 8)
}
