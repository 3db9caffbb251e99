package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counselops/matterflow/pkg/eventbus"
	"github.com/counselops/matterflow/pkg/events"
	"github.com/counselops/matterflow/pkg/models"
	"github.com/counselops/matterflow/pkg/persistence/file"
	"github.com/counselops/matterflow/pkg/registry"
	"github.com/counselops/matterflow/pkg/stepper"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	events []eventbus.Event
}

func (p *capturePublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.events = append(p.events, event)

	return nil
}

func (p *capturePublisher) types() []events.EventType {
	types := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.GetType())
	}

	return types
}

func newTestService(t *testing.T) (*Request, *capturePublisher) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	publisher := &capturePublisher{}
	service := NewRequest(file.NewPersistence(t.TempDir()), registry.NewRegistry(logger), publisher, logger)

	return service, publisher
}

func newDraft(t *testing.T, service *Request, audience models.ReviewAudience, foreside bool) *models.LegalRequest {
	t.Helper()

	requestType := models.RequestTypeGeneral
	if foreside {
		requestType = models.RequestTypeMarketingMaterial
	}

	created, err := service.Create(t.Context(), &models.LegalRequest{
		Title:                    "Fund launch materials",
		RequestType:              requestType,
		Audience:                 audience,
		IsForesideReviewRequired: foreside,
		Submitter:                "pat@example.com",
	})
	require.NoError(t, err)

	return created
}

func TestRequest_Create(t *testing.T) {
	service, publisher := newTestService(t)

	created := newDraft(t, service, models.AudienceBoth, false)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusDraft, created.Status)
	assert.Nil(t, created.PreviousStatus)
	assert.False(t, created.CreatedAt.IsZero())

	require.NotNil(t, created.LegalReview)
	require.NotNil(t, created.ComplianceReview)
	assert.Equal(t, models.TrackNotStarted, created.LegalReview.Status)

	assert.Equal(t, []events.EventType{events.RequestCreatedEvent}, publisher.types())
}

func TestRequest_CreateLegalOnlyHasNoComplianceTrack(t *testing.T) {
	service, _ := newTestService(t)

	created := newDraft(t, service, models.AudienceLegal, false)

	assert.NotNil(t, created.LegalReview)
	assert.Nil(t, created.ComplianceReview)
}

func TestRequest_CreateValidation(t *testing.T) {
	service, _ := newTestService(t)

	tests := []struct {
		name    string
		request *models.LegalRequest
	}{
		{
			name: "short title",
			request: &models.LegalRequest{
				Title:       "ab",
				RequestType: models.RequestTypeGeneral,
				Audience:    models.AudienceLegal,
				Submitter:   "pat@example.com",
			},
		},
		{
			name: "missing submitter",
			request: &models.LegalRequest{
				Title:       "Fund launch materials",
				RequestType: models.RequestTypeGeneral,
				Audience:    models.AudienceLegal,
			},
		},
		{
			name: "unknown request type",
			request: &models.LegalRequest{
				Title:       "Fund launch materials",
				RequestType: models.RequestType("mystery"),
				Audience:    models.AudienceLegal,
				Submitter:   "pat@example.com",
			},
		},
		{
			name: "audience not allowed for type",
			request: &models.LegalRequest{
				Title:       "Vendor agreement",
				RequestType: models.RequestTypeContract,
				Audience:    models.AudienceCompliance,
				Submitter:   "pat@example.com",
			},
		},
		{
			name: "foreside on ineligible type",
			request: &models.LegalRequest{
				Title:                    "Vendor agreement",
				RequestType:              models.RequestTypeContract,
				Audience:                 models.AudienceLegal,
				IsForesideReviewRequired: true,
				Submitter:                "pat@example.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(t.Context(), tt.request)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}

	_, err := service.Create(t.Context(), nil)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRequest_FullLifecycle(t *testing.T) {
	service, publisher := newTestService(t)

	created := newDraft(t, service, models.AudienceBoth, false)
	ctx := t.Context()

	submitted, err := service.Submit(ctx, created.ID, "pat@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusLegalIntake, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	assigned, err := service.AssignAttorney(ctx, created.ID, "intake@example.com", "avery@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssignAttorney, assigned.Status)
	assert.Equal(t, "avery@example.com", assigned.AssignedAttorney)
	require.NotNil(t, assigned.Intake)
	assert.Equal(t, "intake@example.com", assigned.Intake.Actor)

	inReview, err := service.StartReview(ctx, created.ID, "avery@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInReview, inReview.Status)
	assert.Equal(t, models.TrackInProgress, inReview.LegalReview.Status)
	assert.Equal(t, models.TrackInProgress, inReview.ComplianceReview.Status)

	afterLegal, err := service.CompleteReview(ctx, created.ID, "avery@example.com", models.AudienceLegal, models.OutcomeApproved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInReview, afterLegal.Status, "one of two tracks done keeps the request in review")
	assert.True(t, afterLegal.LegalReview.Done())

	afterBoth, err := service.CompleteReview(ctx, created.ID, "casey@example.com", models.AudienceCompliance, models.OutcomeApprovedWithComments)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCloseout, afterBoth.Status)
	require.NotNil(t, afterBoth.CloseoutStartedAt)

	completed, err := service.CompleteCloseout(ctx, created.ID, "avery@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	require.NotNil(t, completed.Closeout)

	assert.Contains(t, publisher.types(), events.RequestSubmittedEvent)
	assert.Contains(t, publisher.types(), events.RequestStatusChangedEvent)
	assert.Contains(t, publisher.types(), events.RequestCompletedEvent)
}

func TestRequest_ForesideGoesThroughFINRA(t *testing.T) {
	service, _ := newTestService(t)
	ctx := t.Context()

	created := newDraft(t, service, models.AudienceCompliance, true)

	_, err := service.Submit(ctx, created.ID, "pat@example.com")
	require.NoError(t, err)
	_, err = service.StartReview(ctx, created.ID, "intake@example.com")
	require.NoError(t, err)
	_, err = service.CompleteReview(ctx, created.ID, "casey@example.com", models.AudienceCompliance, models.OutcomeApproved)
	require.NoError(t, err)

	awaiting, err := service.CompleteCloseout(ctx, created.ID, "casey@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingFINRADocuments, awaiting.Status)

	completed, err := service.CompleteFINRA(ctx, created.ID, "casey@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	require.NotNil(t, completed.FINRACompleted)
}

func TestRequest_InvalidTransitions(t *testing.T) {
	service, _ := newTestService(t)
	ctx := t.Context()

	created := newDraft(t, service, models.AudienceLegal, false)

	_, err := service.CompleteCloseout(ctx, created.ID, "someone@example.com")
	require.Error(t, err)
	assert.True(t, IsConflictError(err))

	_, err = service.CompleteFINRA(ctx, created.ID, "someone@example.com")
	require.Error(t, err)
	assert.True(t, IsConflictError(err))

	_, err = service.Resume(ctx, created.ID, "someone@example.com")
	require.Error(t, err)
	assert.True(t, IsConflictError(err))

	// A compliance outcome on a legal-only request is a conflict.
	_, err = service.Submit(ctx, created.ID, "pat@example.com")
	require.NoError(t, err)
	_, err = service.StartReview(ctx, created.ID, "intake@example.com")
	require.NoError(t, err)
	_, err = service.CompleteReview(ctx, created.ID, "casey@example.com", models.AudienceCompliance, models.OutcomeApproved)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestRequest_UpdateOnlyWhileDraft(t *testing.T) {
	service, _ := newTestService(t)
	ctx := t.Context()

	created := newDraft(t, service, models.AudienceLegal, false)

	title := "Fund launch materials v2"
	updated, err := service.Update(ctx, created.ID, "pat@example.com", &title, nil)
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	short := "ab"
	_, err = service.Update(ctx, created.ID, "pat@example.com", &short, nil)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = service.Submit(ctx, created.ID, "pat@example.com")
	require.NoError(t, err)

	_, err = service.Update(ctx, created.ID, "pat@example.com", &title, nil)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestRequest_EmptyActorRejected(t *testing.T) {
	service, _ := newTestService(t)

	created := newDraft(t, service, models.AudienceLegal, false)

	_, err := service.Submit(t.Context(), created.ID, "  ")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRequest_CancelRemembersPreviousStatus(t *testing.T) {
	service, publisher := newTestService(t)
	ctx := t.Context()

	created := newDraft(t, service, models.AudienceLegal, false)
	_, err := service.Submit(ctx, created.ID, "pat@example.com")
	require.NoError(t, err)
	_, err = service.StartReview(ctx, created.ID, "intake@example.com")
	require.NoError(t, err)

	cancelled, err := service.Cancel(ctx, created.ID, "pat@example.com", "no longer needed")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.PreviousStatus)
	assert.Equal(t, models.StatusInReview, *cancelled.PreviousStatus)
	require.NotNil(t, cancelled.Cancellation)
	assert.Equal(t, "no longer needed", cancelled.Cancellation.Reason)

	// Terminal requests cannot be cancelled again.
	_, err = service.Cancel(ctx, created.ID, "pat@example.com", "again")
	require.Error(t, err)
	assert.True(t, IsConflictError(err))

	assert.Contains(t, publisher.types(), events.RequestCancelledEvent)
}

func TestRequest_HoldAndResume(t *testing.T) {
	service, publisher := newTestService(t)
	ctx := t.Context()

	created := newDraft(t, service, models.AudienceLegal, false)
	_, err := service.Submit(ctx, created.ID, "pat@example.com")
	require.NoError(t, err)

	held, err := service.Hold(ctx, created.ID, "intake@example.com", "awaiting outside counsel")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnHold, held.Status)
	require.NotNil(t, held.PreviousStatus)
	assert.Equal(t, models.StatusLegalIntake, *held.PreviousStatus)

	resumed, err := service.Resume(ctx, created.ID, "intake@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusLegalIntake, resumed.Status)
	assert.Nil(t, resumed.PreviousStatus)
	assert.Nil(t, resumed.Hold)

	assert.Contains(t, publisher.types(), events.RequestHeldEvent)
	assert.Contains(t, publisher.types(), events.RequestResumedEvent)
}

func TestRequest_UpdateReviewTrack(t *testing.T) {
	service, _ := newTestService(t)
	ctx := t.Context()

	created := newDraft(t, service, models.AudienceLegal, false)
	_, err := service.Submit(ctx, created.ID, "pat@example.com")
	require.NoError(t, err)
	_, err = service.StartReview(ctx, created.ID, "intake@example.com")
	require.NoError(t, err)

	updated, err := service.UpdateReviewTrack(ctx, created.ID, "avery@example.com", models.AudienceLegal, models.TrackWaitingOnSubmitter)
	require.NoError(t, err)
	assert.Equal(t, models.TrackWaitingOnSubmitter, updated.LegalReview.Status)

	// Completion cannot be set directly.
	_, err = service.UpdateReviewTrack(ctx, created.ID, "avery@example.com", models.AudienceLegal, models.TrackCompleted)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRequest_Steps(t *testing.T) {
	service, _ := newTestService(t)
	ctx := t.Context()

	created := newDraft(t, service, models.AudienceLegal, false)
	_, err := service.Submit(ctx, created.ID, "pat@example.com")
	require.NoError(t, err)

	steps, err := service.Steps(ctx, created.ID, "pat@example.com")
	require.NoError(t, err)
	require.Len(t, steps, 4)
	assert.Equal(t, stepper.StateCompleted, steps[0].State)
	assert.Equal(t, stepper.StateCurrent, steps[1].State)

	_, err = service.Steps(ctx, "missing", "pat@example.com")
	require.Error(t, err)
}

func TestRequest_StepsForType(t *testing.T) {
	service, _ := newTestService(t)

	steps, err := service.StepsForType(models.RequestTypeMarketingMaterial)
	require.NoError(t, err)
	require.Len(t, steps, 5, "foreside-eligible preview includes the FINRA step")

	for _, step := range steps {
		assert.Equal(t, stepper.StatePending, step.State)
		assert.True(t, step.Clickable)
	}

	_, err = service.StepsForType(models.RequestType("mystery"))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRequest_SectionVisibility(t *testing.T) {
	service, _ := newTestService(t)
	ctx := t.Context()

	created := newDraft(t, service, models.AudienceLegal, false)
	_, err := service.Submit(ctx, created.ID, "pat@example.com")
	require.NoError(t, err)
	_, err = service.Hold(ctx, created.ID, "intake@example.com", "pause")
	require.NoError(t, err)

	visibility, err := service.SectionVisibility(ctx, created.ID)
	require.NoError(t, err)

	assert.True(t, visibility[models.StatusDraft])
	assert.True(t, visibility[models.StatusLegalIntake])
	assert.False(t, visibility[models.StatusInReview])
	assert.False(t, visibility[models.StatusCloseout])
}

func TestRequest_List(t *testing.T) {
	service, _ := newTestService(t)
	ctx := t.Context()

	for range 3 {
		newDraft(t, service, models.AudienceLegal, false)
	}

	result, err := service.List(ctx, ListRequestsRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, result.Requests, 2)
	assert.Equal(t, 3, result.TotalCount)
	assert.True(t, result.HasNextPage)

	_, err = service.List(ctx, ListRequestsRequest{SortBy: "submitter"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRequest_Delete(t *testing.T) {
	service, _ := newTestService(t)
	ctx := t.Context()

	created := newDraft(t, service, models.AudienceLegal, false)

	require.NoError(t, service.Delete(ctx, created.ID))

	_, err := service.FetchByID(ctx, created.ID)
	require.Error(t, err)

	err = service.Delete(ctx, created.ID)
	require.Error(t, err)
}

func TestRequest_HealthCheck(t *testing.T) {
	service, _ := newTestService(t)

	msg, healthy := service.HealthCheck(t.Context())
	assert.True(t, healthy)
	assert.NotEmpty(t, msg)
}
