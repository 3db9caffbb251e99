package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/counselops/matterflow/pkg/models"
	"github.com/counselops/matterflow/pkg/persistence"
)

const requestsDir = "requests"

// RequestRepository stores each request as one JSON file under
// <root>/requests/<id>.json.
type RequestRepository struct {
	root string
}

// NewRequestRepository creates a new file-backed request repository.
func NewRequestRepository(root string) *RequestRepository {
	return &RequestRepository{root: root}
}

// List returns paginated and filtered requests with in-memory operations.
func (rr *RequestRepository) List(ctx context.Context, opts persistence.ListRequestsOptions) (*persistence.RequestListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	// Sort fields are allowlisted; anything else is rejected.
	allowedSorts := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"title":      true,
	}
	if !allowedSorts[opts.SortBy] {
		return nil, fmt.Errorf("invalid sort field: %s", opts.SortBy)
	}

	all, err := rr.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.LegalRequest, 0, len(all))

	for _, request := range all {
		if opts.Submitter != "" && request.Submitter != opts.Submitter {
			continue
		}

		if opts.Status != nil && request.Status != *opts.Status {
			continue
		}

		if opts.RequestType != nil && request.RequestType != *opts.RequestType {
			continue
		}

		filtered = append(filtered, request)
	}

	sortRequests(filtered, opts.SortBy, opts.SortOrder)

	total := len(filtered)

	start := opts.Offset
	if start > total {
		start = total
	}

	end := start + opts.Limit
	if end > total {
		end = total
	}

	return &persistence.RequestListResult{
		Requests:    filtered[start:end],
		TotalCount:  total,
		HasNextPage: end < total,
	}, nil
}

func (rr *RequestRepository) loadAll(ctx context.Context) ([]*models.LegalRequest, error) {
	dir := path.Join(rr.root, requestsDir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []*models.LegalRequest{}, nil
	}

	jsonFiles, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list request files: %w", err)
	}

	requests := make([]*models.LegalRequest, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := strings.TrimSuffix(file, ".json")

		request, err := rr.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load request %s: %w", id, err)
		}

		requests = append(requests, request)
	}

	return requests, nil
}

func sortRequests(requests []*models.LegalRequest, sortBy, sortOrder string) {
	sort.SliceStable(requests, func(i, j int) bool {
		var less bool

		switch sortBy {
		case "title":
			less = requests[i].Title < requests[j].Title
		case "updated_at":
			less = requests[i].UpdatedAt.Before(requests[j].UpdatedAt)
		default:
			less = requests[i].CreatedAt.Before(requests[j].CreatedAt)
		}

		if sortOrder == "desc" {
			return !less
		}

		return less
	})
}

// GetByID returns one request or ErrRequestNotFound.
func (rr *RequestRepository) GetByID(_ context.Context, id string) (*models.LegalRequest, error) {
	filePath := rr.filePath(id)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewRequestError("GetByID", id, persistence.ErrRequestNotFound)
		}

		return nil, persistence.NewRequestError("GetByID", id, err)
	}

	var request models.LegalRequest

	err = json.Unmarshal(data, &request)
	if err != nil {
		return nil, persistence.NewRequestError("GetByID", id, err)
	}

	if !request.Status.IsValid() {
		return nil, persistence.NewRequestError("GetByID", id, persistence.ErrInvalidReviewStatus)
	}

	return &request, nil
}

// Save writes the request to disk, creating the requests directory on first
// use.
func (rr *RequestRepository) Save(_ context.Context, request *models.LegalRequest) error {
	dir := path.Join(rr.root, requestsDir)

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	data, err := json.MarshalIndent(request, "", "  ")
	if err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	err = os.WriteFile(rr.filePath(request.ID), data, 0o600)
	if err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	return nil
}

// Delete removes the request file. Deleting a missing request returns
// ErrRequestNotFound.
func (rr *RequestRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(rr.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewRequestError("Delete", id, persistence.ErrRequestNotFound)
		}

		return persistence.NewRequestError("Delete", id, err)
	}

	return nil
}

func (rr *RequestRepository) filePath(id string) string {
	return path.Join(rr.root, requestsDir, id+".json")
}
