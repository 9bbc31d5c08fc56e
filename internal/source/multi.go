package source

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"jobsearch-engine/internal/domain"
)

// MultiLoader fans out over several sheets and concatenates their records
// in configuration order. A failing sheet is logged and skipped; Load only
// fails when every sheet failed. An id already seen in an earlier sheet is
// skipped; repeats within one sheet are kept.
type MultiLoader struct {
	loaders []Loader
	timeout time.Duration
}

func NewMultiLoader(timeout time.Duration, loaders ...Loader) *MultiLoader {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &MultiLoader{loaders: loaders, timeout: timeout}
}

func (m *MultiLoader) Name() string { return "multi" }

func (m *MultiLoader) Load(ctx context.Context) ([]domain.JobRecord, error) {
	results := make([][]domain.JobRecord, len(m.loaders))
	errs := make([]error, len(m.loaders))

	var g errgroup.Group
	for i, l := range m.loaders {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			log.Printf("[source:%s] loading...", l.Name())
			recs, err := l.Load(fctx)
			if err != nil {
				log.Printf("[source:%s] error: %v", l.Name(), err)
				errs[i] = err
				return nil
			}
			results[i] = recs
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if len(m.loaders) > 0 && failed == len(m.loaders) {
		return nil, errors.Join(errs...)
	}

	seen := map[string]bool{}
	var out []domain.JobRecord
	for i, recs := range results {
		var ids []string
		for _, r := range recs {
			if seen[r.ID] {
				log.Printf("[source:%s] duplicate id=%s skipped", m.loaders[i].Name(), r.ID)
				continue
			}
			ids = append(ids, r.ID)
			out = append(out, r)
		}
		for _, id := range ids {
			seen[id] = true
		}
	}
	return out, nil
}
