package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-api/internal/models"
)

type flakyCacheRepo struct {
	*cacheRepoStub
	getErr error
	gets   int
}

func (f *flakyCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	f.gets++
	if f.getErr != nil {
		return f.getErr
	}
	return f.cacheRepoStub.Get(ctx, key, dest)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())

	svc := NewCacheService(newCacheRepoStub(), nil, 0, nil, false)
	hit, err := svc.Get(context.Background(), "k", &[]models.PrerequisiteEdge{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, svc.Set(context.Background(), "k", []models.PrerequisiteEdge{}, 0))
	assert.NoError(t, svc.Invalidate(context.Background(), "k"))
}

func TestCacheServiceBypassesBackendAfterFailure(t *testing.T) {
	repo := &flakyCacheRepo{cacheRepoStub: newCacheRepoStub(), getErr: errors.New("dial tcp: connection refused")}
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	clock := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	ctx := context.Background()
	var dest []models.PrerequisiteEdge
	hit, err := svc.Get(ctx, "k", &dest)
	require.Error(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, repo.gets)

	hit, err = svc.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, repo.gets, "backend must be skipped during cooldown")

	repo.getErr = nil
	clock = clock.Add(defaultCacheCooldown)
	_, err = svc.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.gets)
}

func TestCachedLoadDegradesToDirectLoad(t *testing.T) {
	repo := &flakyCacheRepo{cacheRepoStub: newCacheRepoStub(), getErr: errors.New("i/o timeout")}
	svc := NewCacheService(repo, nil, 0, zap.NewNop(), true)

	loads := 0
	edges, err := cachedLoad(context.Background(), svc, "prereq:S1", func(context.Context) ([]models.PrerequisiteEdge, error) {
		loads++
		return []models.PrerequisiteEdge{{ID: "e1", SubjectID: "S1", RequiredSubjectID: "S0"}}, nil
	})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, 1, loads)
	assert.Empty(t, repo.entries, "writes are skipped while the backend is tripped")
}

func TestCacheServiceInvalidateIgnoresCooldown(t *testing.T) {
	repo := &flakyCacheRepo{cacheRepoStub: newCacheRepoStub(), getErr: errors.New("broken pipe")}
	svc := NewCacheService(repo, nil, 0, zap.NewNop(), true)

	_, _ = svc.Get(context.Background(), "prereq:S1", &[]models.PrerequisiteEdge{})
	require.NoError(t, svc.Invalidate(context.Background(), "prereq:S1"))
	assert.Equal(t, int64(1), repo.generation("prereq:S1"))
	assert.Equal(t, []string{"prereq:S1:v*"}, repo.deleted)
}

func TestCachedLoadIgnoresWritesFromRetiredGeneration(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, 0, zap.NewNop(), true)
	ctx := context.Background()
	oldGraph := []models.PrerequisiteEdge{{ID: "e1", SubjectID: "S2", RequiredSubjectID: "S0"}}
	newGraph := append(oldGraph, models.PrerequisiteEdge{ID: "e2", SubjectID: "S2", RequiredSubjectID: "S1"})

	_, err := cachedLoad(ctx, svc, "prereq:S2", func(context.Context) ([]models.PrerequisiteEdge, error) {
		require.NoError(t, svc.Invalidate(ctx, "prereq:S2"))
		return oldGraph, nil
	})
	require.NoError(t, err)

	edges, err := cachedLoad(ctx, svc, "prereq:S2", func(context.Context) ([]models.PrerequisiteEdge, error) {
		return newGraph, nil
	})
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestCacheServiceInvalidateReportsBackendFailure(t *testing.T) {
	repo := newCacheRepoStub()
	repo.incrErr = errors.New("connection reset")
	svc := NewCacheService(repo, nil, 0, zap.NewNop(), true)

	require.Error(t, svc.Invalidate(context.Background(), "prereq:S1"))
	assert.False(t, svc.available())
}
