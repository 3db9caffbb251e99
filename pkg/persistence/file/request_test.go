package file

import (
	"context"
	"testing"
	"time"

	"github.com/counselops/matterflow/pkg/models"
	"github.com/counselops/matterflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *RequestRepository {
	t.Helper()

	return NewRequestRepository(t.TempDir())
}

func testRequest(id, title string) *models.LegalRequest {
	now := time.Now().UTC()

	return &models.LegalRequest{
		ID:          id,
		Title:       title,
		RequestType: models.RequestTypeGeneral,
		Status:      models.StatusDraft,
		Audience:    models.AudienceLegal,
		Submitter:   "avery.chen",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestRequestRepository_SaveAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	original := testRequest("req-1", "NDA for vendor onboarding")
	require.NoError(t, repo.Save(ctx, original))

	loaded, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, original.ID, loaded.ID)
	assert.Equal(t, original.Title, loaded.Title)
	assert.Equal(t, models.StatusDraft, loaded.Status)
}

func TestRequestRepository_GetMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), "nope")
	assert.True(t, persistence.IsRequestNotFound(err))
}

func TestRequestRepository_DeleteMissing(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Delete(context.Background(), "nope")
	assert.True(t, persistence.IsRequestNotFound(err))
}

func TestRequestRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testRequest("req-1", "NDA for vendor onboarding")))
	require.NoError(t, repo.Delete(ctx, "req-1"))

	_, err := repo.GetByID(ctx, "req-1")
	assert.True(t, persistence.IsRequestNotFound(err))
}

func TestRequestRepository_ListFiltersByStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	draft := testRequest("req-1", "Draft request")

	inReview := testRequest("req-2", "Reviewed request")
	inReview.Status = models.StatusInReview

	require.NoError(t, repo.Save(ctx, draft))
	require.NoError(t, repo.Save(ctx, inReview))

	status := models.StatusInReview
	result, err := repo.List(ctx, persistence.ListRequestsOptions{Status: &status})
	require.NoError(t, err)

	require.Len(t, result.Requests, 1)
	assert.Equal(t, "req-2", result.Requests[0].ID)
	assert.Equal(t, 1, result.TotalCount)
	assert.False(t, result.HasNextPage)
}

func TestRequestRepository_ListPagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"req-a", "req-b", "req-c"} {
		req := testRequest(id, "Request "+id)
		req.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Save(ctx, req))
	}

	result, err := repo.List(ctx, persistence.ListRequestsOptions{
		Limit:     2,
		SortBy:    "created_at",
		SortOrder: "asc",
	})
	require.NoError(t, err)

	require.Len(t, result.Requests, 2)
	assert.Equal(t, "req-a", result.Requests[0].ID)
	assert.Equal(t, "req-b", result.Requests[1].ID)
	assert.Equal(t, 3, result.TotalCount)
	assert.True(t, result.HasNextPage)

	result, err = repo.List(ctx, persistence.ListRequestsOptions{
		Limit:     2,
		Offset:    2,
		SortBy:    "created_at",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, result.Requests, 1)
	assert.Equal(t, "req-c", result.Requests[0].ID)
	assert.False(t, result.HasNextPage)
}

func TestRequestRepository_ListRejectsUnknownSortField(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.List(context.Background(), persistence.ListRequestsOptions{SortBy: "submitter; DROP TABLE"})
	assert.Error(t, err)
}

func TestRequestRepository_ListEmptyRoot(t *testing.T) {
	repo := newTestRepo(t)

	result, err := repo.List(context.Background(), persistence.ListRequestsOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Requests)
	assert.Equal(t, 0, result.TotalCount)
}

func TestPersistence_HealthCheck(t *testing.T) {
	dir := t.TempDir()

	p := NewPersistence(dir)
	assert.NoError(t, p.HealthCheck(context.Background()))
	assert.NoError(t, p.Close(context.Background()))

	missing := NewPersistence(dir + "/does-not-exist")
	assert.Error(t, missing.HealthCheck(context.Background()))
}
