package pagecontent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/stratacontent/internal/domain/defaults"
	"github.com/dalemusser/stratacontent/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const editorEmail = "editor@example.com"

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC)

func editor() *Principal {
	return &Principal{ID: "u1", Email: editorEmail, Name: "Editor"}
}

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	if opts.Policy == nil {
		opts.Policy = NewAllowList(editorEmail)
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return New(opts, zap.NewNop())
}

// failingRepo fails every call with err.
type failingRepo struct {
	err   error
	saves int
}

func (f *failingRepo) Load(ctx context.Context) (*models.PageContentSettings, error) {
	return nil, f.err
}

func (f *failingRepo) Save(ctx context.Context, s *models.PageContentSettings) error {
	f.saves++
	return f.err
}

// saveFailingRepo loads from an inner repo but fails saves.
type saveFailingRepo struct {
	*MemoryRepository
}

func (r saveFailingRepo) Save(ctx context.Context, s *models.PageContentSettings) error {
	return errors.New("write conflict")
}

// mapCache is an in-memory Cache that can be forced to fail.
type mapCache struct {
	doc    *models.PageContentSettings
	getErr error
	gets   int
	sets   int
}

func (c *mapCache) Get(ctx context.Context) (*models.PageContentSettings, bool, error) {
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	if c.doc == nil {
		return nil, false, nil
	}
	return c.doc.Clone(), true, nil
}

func (c *mapCache) Set(ctx context.Context, s *models.PageContentSettings) error {
	c.sets++
	if c.doc != nil && c.doc.Version > s.Version {
		return nil
	}
	c.doc = s.Clone()
	return nil
}

func TestGet_DefaultsOnEmptyStore(t *testing.T) {
	svc := newTestService(t, Options{Repository: NewMemoryRepository()})

	for _, id := range models.AllPageIDs() {
		t.Run(id, func(t *testing.T) {
			res, err := svc.Get(context.Background(), id)
			require.NoError(t, err)

			want, ok := defaults.Content(id)
			require.True(t, ok)

			assert.True(t, res.IsDefault)
			assert.False(t, res.Degraded)
			assert.Equal(t, want, res.Content)
			assert.Zero(t, res.Version)
			assert.Empty(t, res.LastUpdatedBy)
		})
	}
}

func TestGet_UnknownPage(t *testing.T) {
	repo := NewMemoryRepository()
	svc := newTestService(t, Options{Repository: repo})

	_, err := svc.Get(context.Background(), "pricing")
	assert.ErrorIs(t, err, ErrInvalidPageID)

	_, err = svc.Update(context.Background(), "pricing", map[string]any{"a": "b"}, editor())
	assert.ErrorIs(t, err, ErrInvalidPageID)

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc, "unknown page id must not create the document")
}

func TestGet_StoreNotConfigured(t *testing.T) {
	svc := newTestService(t, Options{})

	res, err := svc.Get(context.Background(), models.PageIDHome)
	require.NoError(t, err)
	assert.True(t, res.IsDefault)
	assert.True(t, res.Degraded)

	want, _ := defaults.Content(models.PageIDHome)
	assert.Equal(t, want, res.Content)
}

func TestGet_StoreFailureFallsBack(t *testing.T) {
	svc := newTestService(t, Options{Repository: &failingRepo{err: errors.New("connection refused")}})

	res, err := svc.Get(context.Background(), models.PageIDFAQs)
	require.NoError(t, err)
	assert.True(t, res.IsDefault)
	assert.True(t, res.Degraded)
	assert.NotNil(t, res.Content)
}

func TestGet_DocumentWithoutEntry(t *testing.T) {
	repo := NewMemoryRepository()
	svc := newTestService(t, Options{Repository: repo})

	_, err := svc.Update(context.Background(), models.PageIDHome, map[string]any{"hero": "h"}, editor())
	require.NoError(t, err)

	res, err := svc.Get(context.Background(), models.PageIDAbout)
	require.NoError(t, err)
	assert.True(t, res.IsDefault)
	assert.False(t, res.Degraded)
}

func TestUpdate_EndToEnd(t *testing.T) {
	svc := newTestService(t, Options{Repository: NewMemoryRepository()})
	ctx := context.Background()

	before, err := svc.Get(ctx, models.PageIDAbout)
	require.NoError(t, err)
	require.True(t, before.IsDefault)

	content := map[string]any{
		"hero": map[string]any{"title": "X", "subtitle": "Y"},
	}
	wr, err := svc.Update(ctx, models.PageIDAbout, content, editor())
	require.NoError(t, err)
	assert.Equal(t, int64(1), wr.Version)
	assert.Equal(t, editorEmail, wr.LastUpdatedBy)
	assert.Equal(t, fixedNow.Truncate(time.Millisecond), wr.LastUpdatedAt)

	after, err := svc.Get(ctx, models.PageIDAbout)
	require.NoError(t, err)
	assert.False(t, after.IsDefault)
	assert.Equal(t, int64(1), after.Version)
	assert.Equal(t, editorEmail, after.LastUpdatedBy)
	assert.Equal(t, content, after.Content)
}

func TestUpdate_VersionIncrementsPerWrite(t *testing.T) {
	svc := newTestService(t, Options{Repository: NewMemoryRepository()})
	ctx := context.Background()

	pages := []string{models.PageIDHome, models.PageIDAbout, models.PageIDHome, models.PageIDFAQs, models.PageIDForClients}
	for i, id := range pages {
		wr, err := svc.Update(ctx, id, map[string]any{"n": float64(i)}, editor())
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), wr.Version)
	}

	res, err := svc.Get(ctx, models.PageIDForClients)
	require.NoError(t, err)
	assert.Equal(t, int64(len(pages)), res.Version)
}

func TestUpdate_MergeIsolation(t *testing.T) {
	svc := newTestService(t, Options{Repository: NewMemoryRepository()})
	ctx := context.Background()

	home := map[string]any{"hero": map[string]any{"title": "Home"}}
	_, err := svc.Update(ctx, models.PageIDHome, home, editor())
	require.NoError(t, err)

	_, err = svc.Update(ctx, models.PageIDAbout, map[string]any{"hero": map[string]any{"title": "About"}}, editor())
	require.NoError(t, err)

	res, err := svc.Get(ctx, models.PageIDHome)
	require.NoError(t, err)
	assert.False(t, res.IsDefault)
	assert.Equal(t, home, res.Content)
	assert.Equal(t, int64(2), res.Version)
}

func TestUpdate_ReplacesWholesale(t *testing.T) {
	svc := newTestService(t, Options{Repository: NewMemoryRepository()})
	ctx := context.Background()

	_, err := svc.Update(ctx, models.PageIDHome, map[string]any{"hero": "a", "cta": "b"}, editor())
	require.NoError(t, err)
	_, err = svc.Update(ctx, models.PageIDHome, map[string]any{"hero": "c"}, editor())
	require.NoError(t, err)

	res, err := svc.Get(ctx, models.PageIDHome)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"hero": "c"}, res.Content)
}

func TestUpdate_IdempotentReread(t *testing.T) {
	svc := newTestService(t, Options{Repository: NewMemoryRepository()})
	ctx := context.Background()

	_, err := svc.Update(ctx, models.PageIDFAQs, map[string]any{"faqs": []any{"q"}}, editor())
	require.NoError(t, err)

	first, err := svc.Get(ctx, models.PageIDFAQs)
	require.NoError(t, err)
	second, err := svc.Get(ctx, models.PageIDFAQs)
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, first.LastUpdatedAt, second.LastUpdatedAt)
}

func TestUpdate_Validation(t *testing.T) {
	repo := NewMemoryRepository()
	svc := newTestService(t, Options{Repository: repo})
	ctx := context.Background()

	tests := []struct {
		name    string
		content any
		editor  *Principal
		wantErr error
	}{
		{name: "nil content", content: nil, editor: editor(), wantErr: ErrInvalidContent},
		{name: "blank string content", content: "   ", editor: editor(), wantErr: ErrInvalidContent},
		{name: "no principal", content: map[string]any{"a": 1.0}, editor: nil, wantErr: ErrUnauthorized},
		{name: "not on allow-list", content: map[string]any{"a": 1.0}, editor: &Principal{Email: "random@example.com"}, wantErr: ErrUnauthorized},
		{name: "principal without email", content: map[string]any{"a": 1.0}, editor: &Principal{ID: "u2"}, wantErr: ErrUnauthorized},
		{name: "invalid content checked before authorization", content: nil, editor: nil, wantErr: ErrInvalidContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, models.PageIDHome, tt.content, tt.editor)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	doc, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, doc, "rejected writes must not touch the store")
}

func TestUpdate_EmptyObjectIsContent(t *testing.T) {
	svc := newTestService(t, Options{Repository: NewMemoryRepository()})

	wr, err := svc.Update(context.Background(), models.PageIDHome, map[string]any{}, editor())
	require.NoError(t, err)
	assert.Equal(t, int64(1), wr.Version)
}

func TestUpdate_UnauthorizedLeavesPageUnchanged(t *testing.T) {
	svc := newTestService(t, Options{Repository: NewMemoryRepository()})
	ctx := context.Background()

	_, err := svc.Update(ctx, models.PageIDHome, map[string]any{"hero": "hacked"}, &Principal{Email: "random@example.com"})
	require.ErrorIs(t, err, ErrUnauthorized)

	res, err := svc.Get(ctx, models.PageIDHome)
	require.NoError(t, err)
	assert.True(t, res.IsDefault)
}

func TestUpdate_StoreNotConfigured(t *testing.T) {
	svc := newTestService(t, Options{})

	_, err := svc.Update(context.Background(), models.PageIDHome, map[string]any{"a": "b"}, editor())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestUpdate_LoadFailure(t *testing.T) {
	repo := &failingRepo{err: errors.New("timeout")}
	svc := newTestService(t, Options{Repository: repo})

	_, err := svc.Update(context.Background(), models.PageIDHome, map[string]any{"a": "b"}, editor())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, repo.saves, "save must not run after a failed load")
}

func TestUpdate_SaveFailure(t *testing.T) {
	inner := NewMemoryRepository()
	revs := NewMemoryRevisionLog()
	svc := newTestService(t, Options{Repository: saveFailingRepo{inner}, Revisions: revs})

	_, err := svc.Update(context.Background(), models.PageIDHome, map[string]any{"a": "b"}, editor())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write conflict")

	list, err := revs.List(context.Background(), models.PageIDHome, 10)
	require.NoError(t, err)
	assert.Empty(t, list, "no revision for a failed write")
}

func TestUpdate_SanitizerApplied(t *testing.T) {
	svc := newTestService(t, Options{
		Repository: NewMemoryRepository(),
		Sanitize: func(content any) any {
			return map[string]any{"sanitized": true}
		},
	})
	ctx := context.Background()

	_, err := svc.Update(ctx, models.PageIDHome, map[string]any{"raw": "<script>"}, editor())
	require.NoError(t, err)

	res, err := svc.Get(ctx, models.PageIDHome)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sanitized": true}, res.Content)
}

func TestGet_UsesCache(t *testing.T) {
	repo := NewMemoryRepository()
	cache := &mapCache{}
	svc := newTestService(t, Options{Repository: repo, Cache: cache})
	ctx := context.Background()

	_, err := svc.Update(ctx, models.PageIDHome, map[string]any{"v": "1"}, editor())
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets, "write goes through to cache")

	// Change the repository behind the cache's back; reads keep using the cache.
	other := models.NewPageContentSettings()
	other.Pages[models.PageIDHome] = map[string]any{"v": "stale"}
	other.Version = 99
	require.NoError(t, repo.Save(ctx, other))

	res, err := svc.Get(ctx, models.PageIDHome)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"v": "1"}, res.Content)
	assert.Equal(t, int64(1), res.Version)
}

func TestGet_CacheMissFillsCache(t *testing.T) {
	repo := NewMemoryRepository()
	doc := models.NewPageContentSettings()
	doc.Pages[models.PageIDAbout] = map[string]any{"v": "stored"}
	doc.Version = 7
	require.NoError(t, repo.Save(context.Background(), doc))

	cache := &mapCache{}
	svc := newTestService(t, Options{Repository: repo, Cache: cache})

	res, err := svc.Get(context.Background(), models.PageIDAbout)
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.Version)
	assert.Equal(t, 1, cache.sets)
	require.NotNil(t, cache.doc)
	assert.Equal(t, int64(7), cache.doc.Version)
}

func TestGet_CacheErrorFallsThrough(t *testing.T) {
	repo := NewMemoryRepository()
	doc := models.NewPageContentSettings()
	doc.Pages[models.PageIDAbout] = map[string]any{"v": "stored"}
	doc.Version = 3
	require.NoError(t, repo.Save(context.Background(), doc))

	svc := newTestService(t, Options{Repository: repo, Cache: &mapCache{getErr: errors.New("redis down")}})

	res, err := svc.Get(context.Background(), models.PageIDAbout)
	require.NoError(t, err)
	assert.False(t, res.IsDefault)
	assert.False(t, res.Degraded)
	assert.Equal(t, int64(3), res.Version)
}

func TestHistory(t *testing.T) {
	revs := NewMemoryRevisionLog()
	svc := newTestService(t, Options{Repository: NewMemoryRepository(), Revisions: revs, HistoryLimit: 2})
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.Update(ctx, models.PageIDAbout, map[string]any{"title": title}, editor())
		require.NoError(t, err)
	}
	_, err := svc.Update(ctx, models.PageIDHome, map[string]any{"title": "home"}, editor())
	require.NoError(t, err)

	list, err := svc.History(ctx, models.PageIDAbout, editor(), 10)
	require.NoError(t, err)
	require.Len(t, list, 2, "limit is clamped to HistoryLimit")
	assert.Equal(t, int64(3), list[0].Version)
	assert.Equal(t, map[string]any{"title": "three"}, list[0].Content)
	assert.Equal(t, int64(2), list[1].Version)
	assert.Equal(t, editorEmail, list[0].EditedBy)
	assert.NotEmpty(t, list[0].ID)

	_, err = svc.History(ctx, models.PageIDAbout, &Principal{Email: "random@example.com"}, 10)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.History(ctx, "nope", editor(), 10)
	assert.ErrorIs(t, err, ErrInvalidPageID)
}

func TestHistory_NoRevisionLog(t *testing.T) {
	svc := newTestService(t, Options{Repository: NewMemoryRepository()})

	_, err := svc.History(context.Background(), models.PageIDAbout, editor(), 10)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestUpdate_NilPolicyDeniesAll(t *testing.T) {
	svc := New(Options{Repository: NewMemoryRepository()}, zap.NewNop())

	_, err := svc.Update(context.Background(), models.PageIDHome, map[string]any{"a": "b"}, editor())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestWarmCache(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	cache := &mapCache{}
	svc := newTestService(t, Options{Repository: repo, Cache: cache})

	require.NoError(t, svc.WarmCache(ctx))
	assert.Equal(t, 0, cache.sets, "nothing stored, nothing cached")

	doc := models.NewPageContentSettings()
	doc.Pages[models.PageIDFAQs] = map[string]any{"items": []any{}}
	doc.Version = 4
	require.NoError(t, repo.Save(ctx, doc))

	require.NoError(t, svc.WarmCache(ctx))
	require.NotNil(t, cache.doc)
	assert.Equal(t, int64(4), cache.doc.Version)
}

func TestWarmCache_NotConfigured(t *testing.T) {
	assert.NoError(t, newTestService(t, Options{}).WarmCache(context.Background()))
	assert.NoError(t, newTestService(t, Options{Repository: NewMemoryRepository()}).WarmCache(context.Background()))
}

func TestWarmCache_LoadFailure(t *testing.T) {
	svc := newTestService(t, Options{Repository: &failingRepo{err: errors.New("boom")}, Cache: &mapCache{}})
	assert.Error(t, svc.WarmCache(context.Background()))
}
