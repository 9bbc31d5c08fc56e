package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/source"
	"jobsearch-engine/internal/store"
)

type fakeLoader struct {
	mu    sync.Mutex
	recs  []domain.JobRecord
	err   error
	calls atomic.Int32
	delay time.Duration
}

func (f *fakeLoader) Name() string { return "fake" }

func (f *fakeLoader) Load(ctx context.Context) ([]domain.JobRecord, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recs, f.err
}

func (f *fakeLoader) set(recs []domain.JobRecord, err error) {
	f.mu.Lock()
	f.recs, f.err = recs, err
	f.mu.Unlock()
}

func openDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoad_IsLoadOnce(t *testing.T) {
	l := &fakeLoader{recs: []domain.JobRecord{{ID: "1"}}}
	d := New(l, nil)
	ctx := context.Background()

	s1 := d.Load(ctx)
	s2 := d.Load(ctx)
	assert.Same(t, s1, s2)
	assert.Equal(t, int32(1), l.calls.Load())
	assert.Equal(t, OriginRemote, s1.Origin)

	r, ok := d.Get("1")
	assert.True(t, ok)
	assert.Equal(t, "1", r.ID)
}

func TestReload_ConcurrentCallsShareOneFetch(t *testing.T) {
	l := &fakeLoader{recs: []domain.JobRecord{{ID: "1"}}, delay: 50 * time.Millisecond}
	d := New(l, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.Reload(context.Background())
		}()
	}
	wg.Wait()
	assert.Less(t, l.calls.Load(), int32(8))
}

func TestReload_FailureKeepsCurrentSnapshot(t *testing.T) {
	l := &fakeLoader{recs: []domain.JobRecord{{ID: "1"}}}
	d := New(l, nil)
	ctx := context.Background()
	first := d.Load(ctx)

	l.set(nil, errors.New("boom"))
	s, err := d.Reload(ctx)
	assert.Error(t, err)
	assert.Same(t, first, s)
	assert.Equal(t, "boom", d.Status().LastError)

	l.set([]domain.JobRecord{{ID: "2"}, {ID: "3"}}, nil)
	s, err = d.Reload(ctx)
	require.NoError(t, err)
	assert.Len(t, s.Records, 2)
	assert.Empty(t, d.Status().LastError)
}

func TestReload_SheetServerErrorKeepsSnapshotAndStore(t *testing.T) {
	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("[]"))
			return
		}
		_, _ = w.Write([]byte(`[{"id": 1, "店舗名": "カフェ", "都道府県": "京都府"}]`))
	}))
	defer srv.Close()

	sh, err := source.NewSheet(srv.URL+"/exec", source.Options{Kind: source.KindJSON})
	require.NoError(t, err)
	db := openDB(t)
	d := New(sh, db)
	ctx := context.Background()
	first := d.Load(ctx)
	require.Len(t, first.Records, 1)

	failing.Store(true)
	s, err := d.Reload(ctx)
	assert.Error(t, err)
	assert.Same(t, first, s)
	assert.NotEmpty(t, d.Status().LastError)

	stored, _, err := store.LoadSnapshot(ctx, db.Pool)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestReload_FallsBackToStoredSnapshot(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	good := New(&fakeLoader{recs: []domain.JobRecord{{ID: "a", Prefecture: "京都府"}}}, db)
	good.Load(ctx)

	offline := New(&fakeLoader{err: errors.New("offline")}, db)
	s := offline.Load(ctx)
	assert.Equal(t, OriginCache, s.Origin)
	require.Len(t, s.Records, 1)
	assert.Equal(t, "京都府", s.Records[0].Prefecture)

	st := offline.Status()
	assert.Equal(t, 1, st.Count)
	assert.Equal(t, "offline", st.LastError)
}

func TestReload_EmptyWhenNothingAvailable(t *testing.T) {
	d := New(nil, openDB(t))
	s, err := d.Reload(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)
	assert.Equal(t, OriginEmpty, s.Origin)
	assert.NotNil(t, s.Records)
	assert.Empty(t, s.Records)
}

func TestRecords_BeforeLoad(t *testing.T) {
	d := New(nil, nil)
	assert.NotNil(t, d.Records())
	assert.Empty(t, d.Records())
	_, ok := d.Get("x")
	assert.False(t, ok)
}

func TestSetLoader(t *testing.T) {
	d := New(nil, nil)
	d.SetLoader(&fakeLoader{recs: []domain.JobRecord{{ID: "z"}}})
	s, err := d.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "z", s.Records[0].ID)
}
