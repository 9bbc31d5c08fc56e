package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobsearch-engine/internal/form"
)

func newStore(max int) (*Store, *time.Time) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	st := NewStore(time.Minute, max, func() *form.Form { return form.New(nil, nil) })
	st.now = func() time.Time { return now }
	return st, &now
}

func TestCreateGetDelete(t *testing.T) {
	st, _ := newStore(10)
	s, err := st.Create()
	require.NoError(t, err)
	assert.Len(t, s.ID, 36)

	got, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	assert.True(t, st.Delete(s.ID))
	_, err = st.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, st.Delete(s.ID))
}

func TestExpiry(t *testing.T) {
	st, now := newStore(10)
	s, err := st.Create()
	require.NoError(t, err)

	*now = now.Add(2 * time.Minute)
	_, err = st.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, st.Len())
}

func TestCreate_LimitSweepsFirst(t *testing.T) {
	st, now := newStore(2)
	_, err := st.Create()
	require.NoError(t, err)
	_, err = st.Create()
	require.NoError(t, err)

	_, err = st.Create()
	assert.ErrorIs(t, err, ErrTooMany)

	*now = now.Add(time.Hour)
	_, err = st.Create()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())
}

func TestDo_IsolatesForms(t *testing.T) {
	st, _ := newStore(10)
	a, _ := st.Create()
	b, _ := st.Create()

	require.NoError(t, a.Do(func(f *form.Form) error {
		f.SetKeyword("cafe")
		return nil
	}))
	_ = b.Do(func(f *form.Form) error {
		assert.Empty(t, f.Committed().Keyword)
		return nil
	})
}
