// Package dataset owns the in-memory record snapshot shared by every reader.
package dataset

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/source"
	"jobsearch-engine/internal/store"
)

var ErrNoSource = errors.New("no source configured")

const (
	OriginRemote = "remote"
	OriginCache  = "cache"
	OriginEmpty  = "empty"
)

// Snapshot is immutable; a reload swaps in a new one.
type Snapshot struct {
	Records  []domain.JobRecord
	Origin   string
	LoadedAt time.Time
	byID     map[string]int
}

func newSnapshot(recs []domain.JobRecord, origin string, at time.Time) *Snapshot {
	if recs == nil {
		recs = []domain.JobRecord{}
	}
	idx := make(map[string]int, len(recs))
	for i, r := range recs {
		if _, dup := idx[r.ID]; !dup {
			idx[r.ID] = i
		}
	}
	return &Snapshot{Records: recs, Origin: origin, LoadedAt: at, byID: idx}
}

func (s *Snapshot) Get(id string) (domain.JobRecord, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.JobRecord{}, false
	}
	return s.Records[i], true
}

type Status struct {
	Count       int       `json:"count"`
	Origin      string    `json:"origin"`
	LoadedAt    time.Time `json:"loadedAt"`
	LastAttempt time.Time `json:"lastAttempt"`
	LastError   string    `json:"lastError,omitempty"`
}

type Dataset struct {
	loader source.Loader
	db     *store.DB
	now    func() time.Time

	snap atomic.Pointer[Snapshot]
	sf   singleflight.Group

	mu          sync.Mutex
	lastErr     string
	lastAttempt time.Time
}

// New builds a dataset. loader and db may be nil.
func New(loader source.Loader, db *store.DB) *Dataset {
	return &Dataset{loader: loader, db: db, now: time.Now}
}

// SetLoader swaps the loader used by the next reload (config hot reload).
func (d *Dataset) SetLoader(l source.Loader) {
	d.mu.Lock()
	d.loader = l
	d.mu.Unlock()
}

// Load returns the current snapshot, fetching it on first use.
func (d *Dataset) Load(ctx context.Context) *Snapshot {
	if s := d.snap.Load(); s != nil {
		return s
	}
	s, err := d.Reload(ctx)
	if err != nil {
		log.Printf("[dataset] initial load: %v (serving %s, %d records)", err, s.Origin, len(s.Records))
	}
	return s
}

// Records is the current record list, empty before the first load.
func (d *Dataset) Records() []domain.JobRecord {
	if s := d.snap.Load(); s != nil {
		return s.Records
	}
	return []domain.JobRecord{}
}

func (d *Dataset) Get(id string) (domain.JobRecord, bool) {
	if s := d.snap.Load(); s != nil {
		return s.Get(id)
	}
	return domain.JobRecord{}, false
}

// Reload fetches a fresh snapshot. Concurrent calls share one fetch. On
// failure the current snapshot is kept; without one the stored snapshot,
// then an empty one, is served. The returned snapshot is never nil.
func (d *Dataset) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, _ := d.sf.Do("reload", func() (any, error) {
		return d.reload(ctx)
	})
	return v.(*Snapshot), err
}

func (d *Dataset) reload(ctx context.Context) (*Snapshot, error) {
	d.mu.Lock()
	loader := d.loader
	d.lastAttempt = d.now()
	d.mu.Unlock()

	var recs []domain.JobRecord
	err := ErrNoSource
	if loader != nil {
		recs, err = loader.Load(ctx)
	}
	if err == nil {
		s := newSnapshot(recs, OriginRemote, d.now())
		d.snap.Store(s)
		d.setErr(nil)
		d.persist(ctx, loader.Name(), s)
		log.Printf("[dataset] loaded %d records from %s", len(s.Records), loader.Name())
		return s, nil
	}

	d.setErr(err)
	if cur := d.snap.Load(); cur != nil {
		return cur, err
	}
	s := d.fallback(ctx)
	d.snap.Store(s)
	return s, err
}

func (d *Dataset) persist(ctx context.Context, name string, s *Snapshot) {
	if d.db == nil {
		return
	}
	if err := store.SaveSnapshot(ctx, d.db.Pool, name, s.Records, s.LoadedAt); err != nil {
		log.Printf("[dataset] save snapshot: %v", err)
	}
}

func (d *Dataset) fallback(ctx context.Context) *Snapshot {
	if d.db != nil {
		recs, meta, err := store.LoadSnapshot(ctx, d.db.Pool)
		if err == nil {
			log.Printf("[dataset] using stored snapshot from %s (%d records)", meta.LoadedAt.Format(time.RFC3339), len(recs))
			return newSnapshot(recs, OriginCache, meta.LoadedAt)
		}
		if !errors.Is(err, store.ErrNoSnapshot) {
			log.Printf("[dataset] read stored snapshot: %v", err)
		}
	}
	return newSnapshot(nil, OriginEmpty, d.now())
}

func (d *Dataset) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		d.lastErr = ""
		return
	}
	d.lastErr = err.Error()
}

func (d *Dataset) Status() Status {
	d.mu.Lock()
	st := Status{LastError: d.lastErr, LastAttempt: d.lastAttempt}
	d.mu.Unlock()
	if s := d.snap.Load(); s != nil {
		st.Count = len(s.Records)
		st.Origin = s.Origin
		st.LoadedAt = s.LoadedAt
	}
	return st
}
