// Package persistence provides the storage abstraction for legal review
// requests.
package persistence

import (
	"context"

	"github.com/counselops/matterflow/pkg/models"
)

// ListRequestsOptions controls filtering, sorting and pagination when
// listing requests.
type ListRequestsOptions struct {
	Limit       int
	Offset      int
	Submitter   string
	Status      *models.ReviewStatus
	RequestType *models.RequestType
	SortBy      string
	SortOrder   string
}

// RequestListResult carries one page of requests plus pagination metadata.
type RequestListResult struct {
	Requests    []*models.LegalRequest
	TotalCount  int
	HasNextPage bool
}

// RequestRepository is the storage contract for legal review requests.
type RequestRepository interface {
	List(ctx context.Context, opts ListRequestsOptions) (*RequestListResult, error)
	GetByID(ctx context.Context, id string) (*models.LegalRequest, error)
	Save(ctx context.Context, request *models.LegalRequest) error
	Delete(ctx context.Context, id string) error
}

// Persistence is the top-level storage handle a binary wires once at startup.
type Persistence interface {
	RequestRepository() RequestRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
