package stepper

import "github.com/counselops/matterflow/pkg/models"

// stepVisualOrder maps step keys to their slot in the stepper. LegalIntake
// and AssignAttorney collapse into slot 1, so statuses and slots are not 1:1.
var stepVisualOrder = map[StepKey]int{
	StepDraft:       0,
	StepLegalIntake: 1,
	StepInReview:    2,
	StepCloseout:    3,
	StepFINRA:       4,
}

// statusVisualOrder maps a request status onto the visual slot scale.
// Completed lands one past the last visible step so every step compares as
// completed; its slot therefore depends on whether the FINRA step is present.
// Unknown statuses map to -1, leaving every step pending.
func statusVisualOrder(status models.ReviewStatus, withFINRA bool) int {
	switch status {
	case models.StatusDraft:
		return 0
	case models.StatusLegalIntake, models.StatusAssignAttorney:
		return 1
	case models.StatusInReview:
		return 2
	case models.StatusCloseout:
		return 3
	case models.StatusAwaitingFINRADocuments:
		return 4
	case models.StatusCompleted:
		if withFINRA {
			return 5
		}

		return 4
	default:
		return -1
	}
}

// resolveStepState classifies one step given the request's current status.
// Total: unexpected inputs degrade to pending, never an error.
func resolveStepState(step StepDescriptor, current models.ReviewStatus, meta models.RequestMetadata) StepState {
	// Terminal overlays paint every step; the stepper assembly truncates the
	// list and repaints the kept steps afterwards.
	switch current {
	case models.StatusCancelled:
		return StateError
	case models.StatusOnHold:
		return StateWarning
	}

	withFINRA := finraStepPresent(current, meta)

	// Status-specific exceptions that a plain slot comparison gets wrong.
	switch {
	case current == models.StatusCompleted && (step.Key == StepCloseout || step.Key == StepFINRA):
		return StateCompleted
	case current == models.StatusAwaitingFINRADocuments && step.Key == StepCloseout:
		return StateCompleted
	case current == models.StatusAwaitingFINRADocuments && step.Key == StepFINRA:
		return StateCurrent
	}

	currentSlot := statusVisualOrder(current, withFINRA)
	stepSlot, known := stepVisualOrder[step.Key]

	if !known {
		return StatePending
	}

	var state StepState

	switch {
	case stepSlot < currentSlot:
		state = StateCompleted
	case stepSlot == currentSlot:
		state = StateCurrent
	default:
		state = StatePending
	}

	// When the ball is in the submitter's court, recolor their current review
	// step so they know reviewers are waiting on them.
	if state == StateCurrent && step.Key == StepInReview && meta.IsCurrentUserSubmitter && waitingOnSubmitter(meta) {
		state = StateWarning
	}

	return state
}

func waitingOnSubmitter(meta models.RequestMetadata) bool {
	if meta.LegalReview != nil && meta.LegalReview.Status == models.TrackWaitingOnSubmitter {
		return true
	}

	if meta.ComplianceReview != nil && meta.ComplianceReview.Status == models.TrackWaitingOnSubmitter {
		return true
	}

	return false
}
