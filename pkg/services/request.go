package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/counselops/matterflow/pkg/eventbus"
	"github.com/counselops/matterflow/pkg/events"
	"github.com/counselops/matterflow/pkg/models"
	"github.com/counselops/matterflow/pkg/otelhelper"
	"github.com/counselops/matterflow/pkg/persistence"
	"github.com/counselops/matterflow/pkg/registry"
	"github.com/counselops/matterflow/pkg/stepper"
)

// ErrRequestNotFound is returned when a request is not found.
var ErrRequestNotFound = persistence.ErrRequestNotFound

// Request is the lifecycle service for legal review requests. All status
// transitions go through it; the stepper layer stays a pure read model.
type Request struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	publisher   eventbus.EventPublisher
	validator   *validator.Validate
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewRequest creates a new request lifecycle service. The publisher may be
// nil; transitions then run without emitting events.
func NewRequest(
	persistence persistence.Persistence,
	reg *registry.Registry,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Request {
	return &Request{
		persistence: persistence,
		registry:    reg,
		publisher:   publisher,
		validator:   validator.New(),
		logger:      logger.With("module", "request-service"),
		tracer:      otel.Tracer("matterflow.services"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Request) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create validates a new request against its request type definition and
// stores it in Draft.
func (s *Request) Create(ctx context.Context, request *models.LegalRequest) (*models.LegalRequest, error) {
	if request == nil {
		return nil, ErrRequestNil
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "request.create",
		attribute.String(otelhelper.RequestTypeKey, string(request.RequestType)),
	)
	defer span.End()

	request.Status = models.StatusDraft
	request.PreviousStatus = nil

	if err := s.validator.Struct(request); err != nil {
		otelhelper.SetError(span, err)

		return nil, NewValidationError("Create", "INVALID_REQUEST", err.Error(), ErrInvalidRequest)
	}

	definition := s.registry.Get(request.RequestType)
	if definition == nil {
		return nil, NewValidationError(
			"Create",
			"UNKNOWN_REQUEST_TYPE",
			fmt.Sprintf("unknown request type '%s'", request.RequestType),
			ErrUnknownRequestType,
		)
	}

	if !definition.AllowsAudience(request.Audience) {
		return nil, NewValidationError(
			"Create",
			"AUDIENCE_NOT_ALLOWED",
			fmt.Sprintf("audience '%s' is not allowed for request type '%s'", request.Audience, request.RequestType),
			ErrAudienceNotAllowed,
		)
	}

	if request.IsForesideReviewRequired && !definition.ForesideEligible {
		return nil, NewValidationError(
			"Create",
			"FORESIDE_NOT_ELIGIBLE",
			fmt.Sprintf("request type '%s' is not eligible for Foreside review", request.RequestType),
			ErrInvalidRequest,
		)
	}

	now := s.now()
	request.ID = uuid.New().String()
	request.CreatedAt = now
	request.UpdatedAt = now

	if request.Audience.IncludesLegal() {
		request.LegalReview = &models.ReviewTrack{Status: models.TrackNotStarted}
	}

	if request.Audience.IncludesCompliance() {
		request.ComplianceReview = &models.ReviewTrack{Status: models.TrackNotStarted}
	}

	if err := s.persistence.RequestRepository().Save(ctx, request); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	created := events.RequestCreated{
		BaseEvent:   events.NewBaseEvent(events.RequestCreatedEvent, request.ID),
		Title:       request.Title,
		RequestType: request.RequestType,
		Submitter:   request.Submitter,
	}
	s.publish(ctx, request.ID, created)

	return request, nil
}

// Update edits a request's title and description. Only Draft requests are
// editable; everything after submission is append-only.
func (s *Request) Update(ctx context.Context, requestID, actor string, title, description *string) (*models.LegalRequest, error) {
	return s.transition(ctx, "Update", requestID, actor, func(request *models.LegalRequest) ([]eventbus.Event, error) {
		if request.Status != models.StatusDraft {
			return nil, NewConflictError(
				"Update",
				"INVALID_TRANSITION",
				fmt.Sprintf("cannot edit request in status '%s'", request.Status),
				ErrInvalidTransition,
			)
		}

		if title != nil {
			request.Title = *title
		}

		if description != nil {
			request.Description = *description
		}

		if err := s.validator.Struct(request); err != nil {
			return nil, NewValidationError("Update", "INVALID_REQUEST", err.Error(), ErrInvalidRequest)
		}

		return nil, nil
	})
}

// Submit moves a Draft request into legal intake.
func (s *Request) Submit(ctx context.Context, requestID, actor string) (*models.LegalRequest, error) {
	return s.transition(ctx, "Submit", requestID, actor, func(request *models.LegalRequest) ([]eventbus.Event, error) {
		if request.Status != models.StatusDraft {
			return nil, transitionConflict("Submit", request.Status, models.StatusLegalIntake)
		}

		now := s.now()
		request.Status = models.StatusLegalIntake
		request.SubmittedAt = &now

		return []eventbus.Event{events.RequestSubmitted{
			BaseEvent: events.NewBaseEvent(events.RequestSubmittedEvent, request.ID),
			Submitter: request.Submitter,
		}}, nil
	})
}

// AssignAttorney records intake acceptance and the assigned attorney.
func (s *Request) AssignAttorney(ctx context.Context, requestID, actor, attorney string) (*models.LegalRequest, error) {
	if strings.TrimSpace(attorney) == "" {
		return nil, NewValidationError("AssignAttorney", "INVALID_REQUEST", "attorney cannot be empty", ErrInvalidRequest)
	}

	return s.transition(ctx, "AssignAttorney", requestID, actor, func(request *models.LegalRequest) ([]eventbus.Event, error) {
		if request.Status != models.StatusLegalIntake && request.Status != models.StatusAssignAttorney {
			return nil, transitionConflict("AssignAttorney", request.Status, models.StatusAssignAttorney)
		}

		now := s.now()
		if request.Intake == nil {
			request.Intake = &models.ActionRecord{Actor: actor, At: now}
		}

		request.AssignedAttorney = attorney
		request.AttorneyAssigned = &models.ActionRecord{Actor: actor, At: now}
		request.Status = models.StatusAssignAttorney

		return nil, nil
	})
}

// StartReview opens the review tracks for the request's audience.
func (s *Request) StartReview(ctx context.Context, requestID, actor string) (*models.LegalRequest, error) {
	return s.transition(ctx, "StartReview", requestID, actor, func(request *models.LegalRequest) ([]eventbus.Event, error) {
		if request.Status != models.StatusLegalIntake && request.Status != models.StatusAssignAttorney {
			return nil, transitionConflict("StartReview", request.Status, models.StatusInReview)
		}

		now := s.now()
		if request.Intake == nil {
			request.Intake = &models.ActionRecord{Actor: actor, At: now}
		}

		if request.Audience.IncludesLegal() {
			request.LegalReview = startedTrack(request.LegalReview)
		}

		if request.Audience.IncludesCompliance() {
			request.ComplianceReview = startedTrack(request.ComplianceReview)
		}

		request.Status = models.StatusInReview

		return nil, nil
	})
}

// UpdateReviewTrack changes the working state of one review track while the
// request is in review, for example to flag it as waiting on the submitter.
// Completion goes through CompleteReview instead.
func (s *Request) UpdateReviewTrack(
	ctx context.Context,
	requestID, actor string,
	audience models.ReviewAudience,
	trackStatus models.ReviewTrackStatus,
) (*models.LegalRequest, error) {
	if trackStatus != models.TrackInProgress && trackStatus != models.TrackWaitingOnSubmitter {
		return nil, NewValidationError(
			"UpdateReviewTrack",
			"INVALID_REQUEST",
			fmt.Sprintf("track status '%s' cannot be set directly", trackStatus),
			ErrInvalidRequest,
		)
	}

	return s.transition(ctx, "UpdateReviewTrack", requestID, actor, func(request *models.LegalRequest) ([]eventbus.Event, error) {
		if request.Status != models.StatusInReview {
			return nil, transitionConflict("UpdateReviewTrack", request.Status, models.StatusInReview)
		}

		track, err := s.trackFor(request, audience, "UpdateReviewTrack")
		if err != nil {
			return nil, err
		}

		track.Status = trackStatus

		return nil, nil
	})
}

// CompleteReview records one track's outcome. When every track in the
// request's audience is done, the request moves to Closeout.
func (s *Request) CompleteReview(
	ctx context.Context,
	requestID, actor string,
	audience models.ReviewAudience,
	outcome models.ReviewOutcome,
) (*models.LegalRequest, error) {
	return s.transition(ctx, "CompleteReview", requestID, actor, func(request *models.LegalRequest) ([]eventbus.Event, error) {
		if request.Status != models.StatusInReview {
			return nil, transitionConflict("CompleteReview", request.Status, models.StatusCloseout)
		}

		track, err := s.trackFor(request, audience, "CompleteReview")
		if err != nil {
			return nil, err
		}

		now := s.now()
		track.Status = models.TrackCompleted
		track.Outcome = outcome
		track.Reviewer = actor
		track.CompletedAt = &now

		legalDone := !request.Audience.IncludesLegal() || request.LegalReview.Done()
		complianceDone := !request.Audience.IncludesCompliance() || request.ComplianceReview.Done()

		if legalDone && complianceDone {
			request.Status = models.StatusCloseout
			request.CloseoutStartedAt = &now
		}

		return nil, nil
	})
}

// CompleteCloseout finishes closeout. Requests requiring Foreside review move
// to AwaitingFINRADocuments, everything else completes.
func (s *Request) CompleteCloseout(ctx context.Context, requestID, actor string) (*models.LegalRequest, error) {
	return s.transition(ctx, "CompleteCloseout", requestID, actor, func(request *models.LegalRequest) ([]eventbus.Event, error) {
		if request.Status != models.StatusCloseout {
			return nil, transitionConflict("CompleteCloseout", request.Status, models.StatusCompleted)
		}

		now := s.now()
		request.Closeout = &models.ActionRecord{Actor: actor, At: now}

		if request.IsForesideReviewRequired {
			request.Status = models.StatusAwaitingFINRADocuments

			return nil, nil
		}

		request.Status = models.StatusCompleted

		return []eventbus.Event{events.RequestCompleted{
			BaseEvent:        events.NewBaseEvent(events.RequestCompletedEvent, request.ID),
			ForesideReviewed: false,
		}}, nil
	})
}

// CompleteFINRA records FINRA document receipt and completes the request.
func (s *Request) CompleteFINRA(ctx context.Context, requestID, actor string) (*models.LegalRequest, error) {
	return s.transition(ctx, "CompleteFINRA", requestID, actor, func(request *models.LegalRequest) ([]eventbus.Event, error) {
		if request.Status != models.StatusAwaitingFINRADocuments {
			return nil, transitionConflict("CompleteFINRA", request.Status, models.StatusCompleted)
		}

		request.FINRACompleted = &models.ActionRecord{Actor: actor, At: s.now()}
		request.Status = models.StatusCompleted

		return []eventbus.Event{events.RequestCompleted{
			BaseEvent:        events.NewBaseEvent(events.RequestCompletedEvent, request.ID),
			ForesideReviewed: true,
		}}, nil
	})
}

// Cancel cancels an in-flight request, remembering where it was.
func (s *Request) Cancel(ctx context.Context, requestID, actor, reason string) (*models.LegalRequest, error) {
	return s.transition(ctx, "Cancel", requestID, actor, func(request *models.LegalRequest) ([]eventbus.Event, error) {
		if request.Status.IsTerminal() || request.Status == models.StatusCompleted {
			return nil, NewConflictError(
				"Cancel",
				"REQUEST_TERMINAL",
				fmt.Sprintf("cannot cancel request in status '%s'", request.Status),
				ErrRequestTerminal,
			)
		}

		previous := request.Status
		request.PreviousStatus = &previous
		request.Status = models.StatusCancelled
		request.Cancellation = &models.ReasonRecord{Actor: actor, At: s.now(), Reason: reason}

		return []eventbus.Event{events.RequestCancelled{
			BaseEvent:      events.NewBaseEvent(events.RequestCancelledEvent, request.ID),
			PreviousStatus: previous,
			Reason:         reason,
		}}, nil
	})
}

// Hold pauses an in-flight request, remembering where it was.
func (s *Request) Hold(ctx context.Context, requestID, actor, reason string) (*models.LegalRequest, error) {
	return s.transition(ctx, "Hold", requestID, actor, func(request *models.LegalRequest) ([]eventbus.Event, error) {
		if request.Status.IsTerminal() || request.Status == models.StatusCompleted {
			return nil, NewConflictError(
				"Hold",
				"REQUEST_TERMINAL",
				fmt.Sprintf("cannot hold request in status '%s'", request.Status),
				ErrRequestTerminal,
			)
		}

		previous := request.Status
		request.PreviousStatus = &previous
		request.Status = models.StatusOnHold
		request.Hold = &models.ReasonRecord{Actor: actor, At: s.now(), Reason: reason}

		return []eventbus.Event{events.RequestHeld{
			BaseEvent:      events.NewBaseEvent(events.RequestHeldEvent, request.ID),
			PreviousStatus: previous,
			Reason:         reason,
		}}, nil
	})
}

// Resume puts an on-hold request back where it was. Requests held before a
// previous status was recorded resume in Draft.
func (s *Request) Resume(ctx context.Context, requestID, actor string) (*models.LegalRequest, error) {
	return s.transition(ctx, "Resume", requestID, actor, func(request *models.LegalRequest) ([]eventbus.Event, error) {
		if request.Status != models.StatusOnHold {
			return nil, NewConflictError(
				"Resume",
				"NOT_ON_HOLD",
				fmt.Sprintf("cannot resume request in status '%s'", request.Status),
				ErrNotOnHold,
			)
		}

		resumedTo := models.StatusDraft
		if request.PreviousStatus != nil {
			resumedTo = *request.PreviousStatus
		}

		request.Status = resumedTo
		request.PreviousStatus = nil
		request.Hold = nil

		return []eventbus.Event{events.RequestResumed{
			BaseEvent: events.NewBaseEvent(events.RequestResumedEvent, request.ID),
			ResumedTo: resumedTo,
		}}, nil
	})
}

// FetchByID retrieves a request by its ID.
func (s *Request) FetchByID(ctx context.Context, requestID string) (*models.LegalRequest, error) {
	request, err := s.persistence.RequestRepository().GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if request == nil {
		return nil, ErrRequestNotFound
	}

	return request, nil
}

// Delete removes a request by its ID.
func (s *Request) Delete(ctx context.Context, requestID string) error {
	if _, err := s.FetchByID(ctx, requestID); err != nil {
		return err
	}

	if err := s.persistence.RequestRepository().Delete(ctx, requestID); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}

	return nil
}

// Steps derives the visual steps for an existing request as seen by
// currentUser.
func (s *Request) Steps(ctx context.Context, requestID, currentUser string) ([]stepper.StepDisplayRecord, error) {
	request, err := s.FetchByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	meta := models.NewRequestMetadata(request, currentUser)

	return stepper.StepsForStepper(request.RequestType, request.Status, stepper.ModeProgress, meta), nil
}

// StepsForType previews the process for a request type before any request
// exists. Foreside-eligible types preview the FINRA step.
func (s *Request) StepsForType(requestType models.RequestType) ([]stepper.StepDisplayRecord, error) {
	definition := s.registry.Get(requestType)
	if definition == nil {
		return nil, NewValidationError(
			"StepsForType",
			"UNKNOWN_REQUEST_TYPE",
			fmt.Sprintf("unknown request type '%s'", requestType),
			ErrUnknownRequestType,
		)
	}

	meta := models.RequestMetadata{IsForesideReviewRequired: definition.ForesideEligible}

	return stepper.StepsForStepper(requestType, models.StatusDraft, stepper.ModeInformational, meta), nil
}

// SectionVisibility reports, for each workflow section, whether the request's
// form should still show it.
func (s *Request) SectionVisibility(ctx context.Context, requestID string) (map[models.ReviewStatus]bool, error) {
	request, err := s.FetchByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	sections := []models.ReviewStatus{
		models.StatusDraft,
		models.StatusLegalIntake,
		models.StatusAssignAttorney,
		models.StatusInReview,
		models.StatusCloseout,
		models.StatusAwaitingFINRADocuments,
		models.StatusCompleted,
	}

	visibility := make(map[models.ReviewStatus]bool, len(sections))
	for _, section := range sections {
		visibility[section] = stepper.ShouldShowFormSection(section, request.Status, request.PreviousStatus)
	}

	return visibility, nil
}

// ListRequestsRequest contains options for listing requests.
type ListRequestsRequest struct {
	// Pagination
	Limit  int `validate:"min=0,max=100"`
	Offset int `validate:"min=0"`

	// Filtering
	Submitter   string
	Status      *models.ReviewStatus
	RequestType *models.RequestType

	// Sorting
	SortBy    string `validate:"omitempty,oneof=created_at updated_at title"`
	SortOrder string `validate:"omitempty,oneof=asc desc"`
}

// ListRequestsResponse contains the result of listing requests.
type ListRequestsResponse struct {
	Requests    []*models.LegalRequest `json:"requests"`
	TotalCount  int                    `json:"total_count"`
	HasNextPage bool                   `json:"has_next_page"`
}

// List retrieves requests with filtering, sorting, and pagination.
func (s *Request) List(ctx context.Context, req ListRequestsRequest) (*ListRequestsResponse, error) {
	if err := s.validateListRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	opts := persistence.ListRequestsOptions{
		Limit:       req.Limit,
		Offset:      req.Offset,
		Submitter:   req.Submitter,
		Status:      req.Status,
		RequestType: req.RequestType,
		SortBy:      req.SortBy,
		SortOrder:   req.SortOrder,
	}

	result, err := s.persistence.RequestRepository().List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	return &ListRequestsResponse{
		Requests:    result.Requests,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

// validateListRequest validates and sets defaults for the request.
func (s *Request) validateListRequest(req *ListRequestsRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	allowedSorts := []string{"created_at", "updated_at", "title"}

	if !slices.Contains(allowedSorts, req.SortBy) {
		return NewValidationError(
			"validateListRequest",
			"INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field '%s', allowed: %s", req.SortBy, strings.Join(allowedSorts, ", ")),
			ErrInvalidSortField,
		)
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return NewValidationError(
			"validateListRequest",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	if req.Status != nil && !req.Status.IsValid() {
		return NewValidationError(
			"validateListRequest",
			"INVALID_STATUS",
			fmt.Sprintf("invalid status '%s'", *req.Status),
			ErrInvalidStatus,
		)
	}

	req.Submitter = strings.TrimSpace(req.Submitter)

	return nil
}

// transition loads a request, applies apply under a span, saves the result
// with a refreshed UpdatedAt, and publishes the returned events only after
// the save succeeded.
func (s *Request) transition(
	ctx context.Context,
	op, requestID, actor string,
	apply func(request *models.LegalRequest) ([]eventbus.Event, error),
) (*models.LegalRequest, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, NewValidationError(op, "EMPTY_ACTOR", "actor cannot be empty", ErrEmptyActor)
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "request."+strings.ToLower(op),
		attribute.String(otelhelper.RequestIDKey, requestID),
		attribute.String(otelhelper.ActorKey, actor),
	)
	defer span.End()

	request, err := s.FetchByID(ctx, requestID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	from := request.Status

	transitionEvents, err := apply(request)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	request.UpdatedAt = s.now()

	if err := s.persistence.RequestRepository().Save(ctx, request); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save request: %w", err)
	}

	for _, event := range transitionEvents {
		s.publish(ctx, request.ID, event)
	}

	if request.Status != from {
		s.publish(ctx, request.ID, events.RequestStatusChanged{
			BaseEvent: events.NewBaseEvent(events.RequestStatusChangedEvent, request.ID),
			From:      from,
			To:        request.Status,
		})

		s.logger.InfoContext(ctx, "request status changed",
			"request_id", request.ID, "from", from, "to", request.Status, "actor", actor)
	}

	return request, nil
}

func (s *Request) trackFor(request *models.LegalRequest, audience models.ReviewAudience, op string) (*models.ReviewTrack, error) {
	switch audience {
	case models.AudienceLegal:
		if !request.Audience.IncludesLegal() || request.LegalReview == nil {
			return nil, trackMissing(op, audience)
		}

		return request.LegalReview, nil
	case models.AudienceCompliance:
		if !request.Audience.IncludesCompliance() || request.ComplianceReview == nil {
			return nil, trackMissing(op, audience)
		}

		return request.ComplianceReview, nil
	default:
		return nil, NewValidationError(
			op,
			"INVALID_REQUEST",
			fmt.Sprintf("review track must be 'legal' or 'compliance', got '%s'", audience),
			ErrInvalidRequest,
		)
	}
}

func (s *Request) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event",
			"event_type", event.GetType(), "request_id", key, "error", err)
	}
}

func startedTrack(track *models.ReviewTrack) *models.ReviewTrack {
	if track == nil {
		track = &models.ReviewTrack{}
	}

	track.Status = models.TrackInProgress

	return track
}

func transitionConflict(op string, from, to models.ReviewStatus) error {
	return NewConflictError(
		op,
		"INVALID_TRANSITION",
		fmt.Sprintf("cannot move request from '%s' to '%s'", from, to),
		ErrInvalidTransition,
	)
}

func trackMissing(op string, audience models.ReviewAudience) error {
	return NewConflictError(
		op,
		"REVIEW_TRACK_MISSING",
		fmt.Sprintf("'%s' review is not part of this request's audience", audience),
		ErrReviewTrackMissing,
	)
}
