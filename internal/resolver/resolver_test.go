package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/micaelgg/buutech/internal/catalog"
	"github.com/micaelgg/buutech/internal/domain"
	"github.com/micaelgg/buutech/internal/repository"
)

type countingLookup struct {
	ids   map[string]int64
	err   error
	calls int
}

func (l *countingLookup) SensorIDByTag(_ context.Context, tag string) (int64, error) {
	l.calls++
	if l.err != nil {
		return 0, l.err
	}
	if id, ok := l.ids[tag]; ok {
		return id, nil
	}
	return 0, repository.ErrNotFound
}

func TestResolve_FromIndex(t *testing.T) {
	idx := catalog.NewIndex([]domain.Sensor{{ID: 2, Tag: "temp_2"}})
	lookup := &countingLookup{}
	r := New(idx, lookup, zap.NewNop())

	for i := 0; i < 3; i++ {
		id, err := r.Resolve(context.Background(), "temp_2")
		require.NoError(t, err)
		assert.Equal(t, int64(2), id)
	}
	assert.Equal(t, 0, lookup.calls)
}

func TestResolve_FallbackDoesNotMutateIndex(t *testing.T) {
	idx := catalog.NewIndex(nil)
	lookup := &countingLookup{ids: map[string]int64{"temp_5": 5}}
	r := New(idx, lookup, zap.NewNop())

	id, err := r.Resolve(context.Background(), "temp_5")
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)

	_, ok := idx.Lookup("temp_5")
	assert.False(t, ok)
	assert.Equal(t, 0, idx.Len())
}

func TestResolve_Unknown(t *testing.T) {
	r := New(catalog.NewIndex(nil), &countingLookup{}, zap.NewNop())

	_, err := r.Resolve(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrUnknownSensorTag))

	r = New(nil, nil, nil)
	_, err = r.Resolve(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrUnknownSensorTag))
}

func TestResolve_StoreFailureIsNotUnknown(t *testing.T) {
	lookup := &countingLookup{err: repository.ErrStoreUnavailable}
	r := New(catalog.NewIndex(nil), lookup, zap.NewNop())

	_, err := r.Resolve(context.Background(), "temp_1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownSensorTag))
	assert.True(t, errors.Is(err, repository.ErrStoreUnavailable))
}

func TestResolve_MemoryCatalog(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	seed, err := catalog.DefaultSeed()
	require.NoError(t, err)
	_, err = catalog.Reconcile(ctx, repo, seed)
	require.NoError(t, err)
	idx, err := catalog.LoadIndex(ctx, repo)
	require.NoError(t, err)

	r := New(idx, repo, zap.NewNop())
	want, err := repo.SensorIDByTag(ctx, "3")
	require.NoError(t, err)
	got, err := r.Resolve(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
