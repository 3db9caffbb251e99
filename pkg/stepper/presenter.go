package stepper

import (
	"fmt"
	"time"

	"github.com/counselops/matterflow/pkg/models"
)

// toDisplayRecord converts a descriptor plus its resolved state into what the
// rendering host shows.
func toDisplayRecord(step StepDescriptor, current models.ReviewStatus, mode Mode, meta models.RequestMetadata) StepDisplayRecord {
	if mode == ModeInformational {
		return StepDisplayRecord{
			ID:           string(step.Key),
			Title:        step.Label,
			Description1: step.Detail,
			State:        StatePending,
			Content:      step.Content,
			Clickable:    true,
		}
	}

	state := resolveStepState(step, current, meta)
	desc1, desc2 := describeStep(step.Key, state, meta)

	return StepDisplayRecord{
		ID:           string(step.Key),
		Title:        stepTitle(step, state),
		Description1: desc1,
		Description2: desc2,
		State:        state,
		Content:      step.Content,
		Clickable:    stepClickable(state),
	}
}

// stepClickable keeps pending steps unexplorable: they have no data yet.
// Warning counts as reached (a paused or waiting-on-submitter step carries
// data); the synthetic terminal records are built elsewhere and are never
// clickable.
func stepClickable(state StepState) bool {
	switch state {
	case StateCompleted, StateCurrent, StateWarning:
		return true
	default:
		return false
	}
}

// stepTitle renames the draft step once it has been submitted.
func stepTitle(step StepDescriptor, state StepState) string {
	if step.Key == StepDraft && state == StateCompleted {
		return "Request"
	}

	return step.Label
}

// describeStep derives the two description lines per step key and state.
// Missing metadata degrades to empty fragments, never an error.
func describeStep(key StepKey, state StepState, meta models.RequestMetadata) (string, string) {
	switch key {
	case StepDraft:
		return describeDraft(state, meta)
	case StepLegalIntake:
		return describeIntake(state, meta)
	case StepInReview:
		return describeReview(state, meta)
	case StepCloseout:
		return describeCloseout(state, meta)
	case StepFINRA:
		return describeFINRA(state, meta)
	default:
		return "", ""
	}
}

func describeDraft(state StepState, meta models.RequestMetadata) (string, string) {
	if state == StateCompleted {
		desc1 := "Submitted"
		if rel := relativeDate(meta.SubmittedAt); rel != "" {
			desc1 = "Submitted " + rel
		}

		return desc1, meta.Submitter
	}

	if state == StateCurrent {
		return "Not yet submitted", ""
	}

	return "", ""
}

func describeIntake(state StepState, meta models.RequestMetadata) (string, string) {
	switch state {
	case StateCompleted:
		desc1 := "Accepted"
		if meta.Intake != nil {
			desc1 = "Accepted " + shortDate(meta.Intake.At)
		}

		desc2 := meta.AssignedAttorney
		if desc2 == "" && meta.Intake != nil {
			desc2 = meta.Intake.Actor
		}

		return desc1, desc2
	case StateCurrent:
		return "Intake in progress", ""
	default:
		return "", ""
	}
}

func describeReview(state StepState, meta models.RequestMetadata) (string, string) {
	switch state {
	case StateCompleted:
		return describeReviewOutcome(meta)
	case StateWarning:
		return "Waiting on submitter", meta.Submitter
	case StateCurrent:
		return "Under review", ""
	default:
		return "", ""
	}
}

// describeReviewOutcome picks the review track whose completion supplies the
// displayed date and reviewer. For the Both audience the later-completed
// track wins; a single-sided completion uses that side; when neither track
// recorded a completion the closeout start date stands in.
func describeReviewOutcome(meta models.RequestMetadata) (string, string) {
	track := completedTrack(meta)
	if track == nil {
		if meta.CloseoutStartedAt != nil {
			return "Review completed " + shortDate(*meta.CloseoutStartedAt), ""
		}

		return "Review completed", ""
	}

	return fmt.Sprintf("%s %s", outcomePhrase(track.Outcome), shortDate(*track.CompletedAt)), track.Reviewer
}

func completedTrack(meta models.RequestMetadata) *models.ReviewTrack {
	legal := meta.LegalReview
	compliance := meta.ComplianceReview

	switch {
	case legal.Done() && compliance.Done():
		if compliance.CompletedAt.After(*legal.CompletedAt) {
			return compliance
		}

		return legal
	case legal.Done():
		return legal
	case compliance.Done():
		return compliance
	default:
		return nil
	}
}

func outcomePhrase(outcome models.ReviewOutcome) string {
	switch outcome {
	case models.OutcomeApproved:
		return "Approved"
	case models.OutcomeApprovedWithComments:
		return "Approved with comments"
	case models.OutcomeRejected:
		return "Rejected"
	default:
		return "Completed"
	}
}

func describeCloseout(state StepState, meta models.RequestMetadata) (string, string) {
	switch state {
	case StateCompleted:
		if meta.Closeout != nil {
			return "Closed out " + shortDate(meta.Closeout.At), meta.Closeout.Actor
		}

		return "Closed out", ""
	case StateCurrent:
		return "Closeout in progress", ""
	default:
		return "", ""
	}
}

func describeFINRA(state StepState, meta models.RequestMetadata) (string, string) {
	switch state {
	case StateCompleted:
		if meta.FINRACompleted != nil {
			return "Documents received " + shortDate(meta.FINRACompleted.At), meta.FINRACompleted.Actor
		}

		return "Documents received", ""
	case StateCurrent:
		return "Awaiting FINRA documents", ""
	default:
		return "", ""
	}
}

func shortDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// relativeDate phrases recent dates the way the stepper shows submissions.
func relativeDate(t *time.Time) string {
	if t == nil {
		return ""
	}

	days := int(time.Since(*t).Hours() / 24)

	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	case days < 30:
		return fmt.Sprintf("%d days ago", days)
	default:
		return shortDate(*t)
	}
}
