package stepper

import (
	"testing"
	"time"

	"github.com/counselops/matterflow/pkg/models"
	"github.com/stretchr/testify/assert"
)

func track(outcome models.ReviewOutcome, reviewer string, completedAt time.Time) *models.ReviewTrack {
	return &models.ReviewTrack{
		Status:      models.TrackCompleted,
		Outcome:     outcome,
		Reviewer:    reviewer,
		CompletedAt: &completedAt,
	}
}

func TestDescribeReviewOutcome_BothAudienceLaterTrackWins(t *testing.T) {
	legalDone := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	complianceDone := time.Date(2026, 2, 14, 16, 0, 0, 0, time.UTC)

	meta := metaWith(func(m *models.RequestMetadata) {
		m.LegalReview = track(models.OutcomeApproved, "j.ramirez", legalDone)
		m.ComplianceReview = track(models.OutcomeApprovedWithComments, "p.singh", complianceDone)
	})

	desc1, desc2 := describeReviewOutcome(meta)
	assert.Equal(t, "Approved with comments Feb 14, 2026", desc1)
	assert.Equal(t, "p.singh", desc2)
}

func TestDescribeReviewOutcome_SingleSidedCompletionUsed(t *testing.T) {
	legalDone := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	meta := metaWith(func(m *models.RequestMetadata) {
		m.LegalReview = track(models.OutcomeRejected, "j.ramirez", legalDone)
		m.ComplianceReview = &models.ReviewTrack{Status: models.TrackInProgress}
	})

	desc1, desc2 := describeReviewOutcome(meta)
	assert.Equal(t, "Rejected Feb 10, 2026", desc1)
	assert.Equal(t, "j.ramirez", desc2)
}

func TestDescribeReviewOutcome_NeitherTrackFallsBackToCloseoutStart(t *testing.T) {
	closeoutStart := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	meta := metaWith(func(m *models.RequestMetadata) {
		m.CloseoutStartedAt = &closeoutStart
	})

	desc1, desc2 := describeReviewOutcome(meta)
	assert.Equal(t, "Review completed Mar 1, 2026", desc1)
	assert.Empty(t, desc2)
}

func TestDescribeReviewOutcome_NoDatesAtAll(t *testing.T) {
	desc1, desc2 := describeReviewOutcome(metaWith(nil))
	assert.Equal(t, "Review completed", desc1)
	assert.Empty(t, desc2)
}

func TestDescribeStep_MissingMetadataDegradesGracefully(t *testing.T) {
	meta := metaWith(func(m *models.RequestMetadata) {
		m.Submitter = ""
	})

	for _, key := range []StepKey{StepDraft, StepLegalIntake, StepInReview, StepCloseout, StepFINRA} {
		for _, state := range []StepState{StateCompleted, StateCurrent, StatePending} {
			assert.NotPanics(t, func() {
				describeStep(key, state, meta)
			}, "key %s state %s", key, state)
		}
	}
}

func TestDescribeIntake_PrefersAssignedAttorney(t *testing.T) {
	meta := metaWith(func(m *models.RequestMetadata) {
		m.Intake = &models.ActionRecord{Actor: "ops.desk", At: time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC)}
		m.AssignedAttorney = "m.delacroix"
	})

	desc1, desc2 := describeIntake(StateCompleted, meta)
	assert.Equal(t, "Accepted Jan 5, 2026", desc1)
	assert.Equal(t, "m.delacroix", desc2)
}

func TestRelativeDate(t *testing.T) {
	now := time.Now().UTC()

	today := now.Add(-2 * time.Hour)
	assert.Equal(t, "today", relativeDate(&today))

	yesterday := now.Add(-30 * time.Hour)
	assert.Equal(t, "yesterday", relativeDate(&yesterday))

	lastWeek := now.Add(-7 * 24 * time.Hour)
	assert.Equal(t, "7 days ago", relativeDate(&lastWeek))

	old := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Jun 15, 2025", relativeDate(&old))

	assert.Empty(t, relativeDate(nil))
}

func TestToDisplayRecord_InformationalIgnoresState(t *testing.T) {
	meta := metaWith(nil)
	step := canonicalSteps[2]

	record := toDisplayRecord(step, models.StatusCompleted, ModeInformational, meta)
	assert.Equal(t, StatePending, record.State)
	assert.True(t, record.Clickable)
	assert.Equal(t, step.Detail, record.Description1)
}
