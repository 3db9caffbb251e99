package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/counselops/matterflow/pkg/models"
	"github.com/counselops/matterflow/pkg/persistence"
)

// RequestRepository handles request database operations.
type RequestRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRequestRepository creates a new request repository.
func NewRequestRepository(db *sql.DB, logger *slog.Logger) *RequestRepository {
	return &RequestRepository{db: db, logger: logger}
}

const requestColumns = `
	id
  , title
  , description
  , request_type
  , status
  , previous_status
  , audience
  , is_foreside_review_required
  , submitter
  , submitted_at
  , intake
  , assigned_attorney
  , attorney_assigned
  , legal_review
  , compliance_review
  , closeout_started_at
  , closeout
  , finra_completed
  , cancellation
  , hold
  , created_at
  , updated_at
`

var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
}

// List returns paginated and filtered requests.
func (r *RequestRepository) List(ctx context.Context, opts persistence.ListRequestsOptions) (*persistence.RequestListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	sortColumn, ok := sortColumns[opts.SortBy]
	if opts.SortBy == "" {
		sortColumn = "created_at"
	} else if !ok {
		return nil, fmt.Errorf("invalid sort field: %s", opts.SortBy)
	}

	direction := "DESC"
	if opts.SortOrder == "asc" {
		direction = "ASC"
	}

	where := "WHERE 1=1"
	args := make([]any, 0, 4)

	if opts.Submitter != "" {
		args = append(args, opts.Submitter)
		where += fmt.Sprintf(" AND submitter = $%d", len(args))
	}

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	if opts.RequestType != nil {
		args = append(args, string(*opts.RequestType))
		where += fmt.Sprintf(" AND request_type = $%d", len(args))
	}

	var total int

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM legal_requests "+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	query := fmt.Sprintf(
		"SELECT %s FROM legal_requests %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		requestColumns, where, sortColumn, direction, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	requests := make([]*models.LegalRequest, 0, opts.Limit)

	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}

		requests = append(requests, request)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}

	return &persistence.RequestListResult{
		Requests:    requests,
		TotalCount:  total,
		HasNextPage: opts.Offset+len(requests) < total,
	}, nil
}

// GetByID returns one request or ErrRequestNotFound.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.LegalRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM legal_requests WHERE id = $1", requestColumns)

	request, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRequestError("GetByID", id, persistence.ErrRequestNotFound)
		}

		return nil, persistence.NewRequestError("GetByID", id, err)
	}

	return request, nil
}

// Save upserts the request.
func (r *RequestRepository) Save(ctx context.Context, request *models.LegalRequest) error {
	intake, err := marshalNullable(request.Intake)
	if err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	attorneyAssigned, err := marshalNullable(request.AttorneyAssigned)
	if err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	legalReview, err := marshalNullable(request.LegalReview)
	if err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	complianceReview, err := marshalNullable(request.ComplianceReview)
	if err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	closeout, err := marshalNullable(request.Closeout)
	if err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	finraCompleted, err := marshalNullable(request.FINRACompleted)
	if err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	cancellation, err := marshalNullable(request.Cancellation)
	if err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	hold, err := marshalNullable(request.Hold)
	if err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	var previousStatus *string
	if request.PreviousStatus != nil {
		s := string(*request.PreviousStatus)
		previousStatus = &s
	}

	query := `
		INSERT INTO legal_requests (
			id, title, description, request_type, status, previous_status,
			audience, is_foreside_review_required, submitter, submitted_at,
			intake, assigned_attorney, attorney_assigned, legal_review,
			compliance_review, closeout_started_at, closeout, finra_completed,
			cancellation, hold, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22
		)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			previous_status = EXCLUDED.previous_status,
			audience = EXCLUDED.audience,
			is_foreside_review_required = EXCLUDED.is_foreside_review_required,
			submitted_at = EXCLUDED.submitted_at,
			intake = EXCLUDED.intake,
			assigned_attorney = EXCLUDED.assigned_attorney,
			attorney_assigned = EXCLUDED.attorney_assigned,
			legal_review = EXCLUDED.legal_review,
			compliance_review = EXCLUDED.compliance_review,
			closeout_started_at = EXCLUDED.closeout_started_at,
			closeout = EXCLUDED.closeout,
			finra_completed = EXCLUDED.finra_completed,
			cancellation = EXCLUDED.cancellation,
			hold = EXCLUDED.hold,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		request.ID, request.Title, request.Description, string(request.RequestType),
		string(request.Status), previousStatus, string(request.Audience),
		request.IsForesideReviewRequired, request.Submitter, request.SubmittedAt,
		intake, request.AssignedAttorney, attorneyAssigned, legalReview,
		complianceReview, request.CloseoutStartedAt, closeout, finraCompleted,
		cancellation, hold, request.CreatedAt, request.UpdatedAt,
	)
	if err != nil {
		return persistence.NewRequestError("Save", request.ID, err)
	}

	return nil
}

// Delete removes one request or returns ErrRequestNotFound.
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM legal_requests WHERE id = $1", id)
	if err != nil {
		return persistence.NewRequestError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewRequestError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewRequestError("Delete", id, persistence.ErrRequestNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.LegalRequest, error) {
	var (
		request           models.LegalRequest
		requestType       string
		status            string
		previousStatus    sql.NullString
		audience          string
		assignedAttorney  sql.NullString
		submittedAt       sql.NullTime
		closeoutStartedAt sql.NullTime
		intake            []byte
		attorneyAssigned []byte
		legalReview      []byte
		complianceReview []byte
		closeout         []byte
		finraCompleted   []byte
		cancellation     []byte
		hold             []byte
	)

	err := row.Scan(
		&request.ID, &request.Title, &request.Description, &requestType,
		&status, &previousStatus, &audience, &request.IsForesideReviewRequired,
		&request.Submitter, &submittedAt, &intake, &assignedAttorney,
		&attorneyAssigned, &legalReview, &complianceReview,
		&closeoutStartedAt, &closeout, &finraCompleted, &cancellation,
		&hold, &request.CreatedAt, &request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	request.RequestType = models.RequestType(requestType)
	request.Status = models.ReviewStatus(status)
	request.Audience = models.ReviewAudience(audience)
	request.AssignedAttorney = assignedAttorney.String

	if previousStatus.Valid {
		prev := models.ReviewStatus(previousStatus.String)
		request.PreviousStatus = &prev
	}

	if submittedAt.Valid {
		t := submittedAt.Time
		request.SubmittedAt = &t
	}

	if closeoutStartedAt.Valid {
		t := closeoutStartedAt.Time
		request.CloseoutStartedAt = &t
	}

	if err := unmarshalNullable(intake, &request.Intake); err != nil {
		return nil, err
	}

	if err := unmarshalNullable(attorneyAssigned, &request.AttorneyAssigned); err != nil {
		return nil, err
	}

	if err := unmarshalNullable(legalReview, &request.LegalReview); err != nil {
		return nil, err
	}

	if err := unmarshalNullable(complianceReview, &request.ComplianceReview); err != nil {
		return nil, err
	}

	if err := unmarshalNullable(closeout, &request.Closeout); err != nil {
		return nil, err
	}

	if err := unmarshalNullable(finraCompleted, &request.FINRACompleted); err != nil {
		return nil, err
	}

	if err := unmarshalNullable(cancellation, &request.Cancellation); err != nil {
		return nil, err
	}

	if err := unmarshalNullable(hold, &request.Hold); err != nil {
		return nil, err
	}

	return &request, nil
}

func marshalNullable(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	if string(data) == "null" {
		return nil, nil
	}

	return data, nil
}

func unmarshalNullable[T any](data []byte, target *T) error {
	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, target)
}
