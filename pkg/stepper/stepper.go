package stepper

import "github.com/counselops/matterflow/pkg/models"

// StepsForStepper builds the ordered display records for a request's visual
// stepper. Cancelled and on-hold requests are truncated at the step the
// request had reached and capped with a synthetic terminal record.
func StepsForStepper(requestType models.RequestType, current models.ReviewStatus, mode Mode, meta models.RequestMetadata) []StepDisplayRecord {
	steps := buildSteps(requestType, current, meta)

	records := make([]StepDisplayRecord, len(steps))
	for i, step := range steps {
		records[i] = toDisplayRecord(step, current, mode, meta)
	}

	switch current {
	case models.StatusCancelled:
		return truncateForTerminal(steps, records, meta, terminalCancelled)
	case models.StatusOnHold:
		return truncateForTerminal(steps, records, meta, terminalOnHold)
	default:
		return records
	}
}

type terminalKind int

const (
	terminalCancelled terminalKind = iota
	terminalOnHold
)

// truncateForTerminal keeps the steps the request reached before being
// cancelled or held, repaints them, and appends the terminal record. Steps
// after the truncation point are dropped even when the record still carries
// values for them.
func truncateForTerminal(steps []StepDescriptor, records []StepDisplayRecord, meta models.RequestMetadata, kind terminalKind) []StepDisplayRecord {
	cut := truncationIndex(steps, meta.PreviousStatus)

	kept := make([]StepDisplayRecord, 0, cut+2)

	for i := 0; i <= cut; i++ {
		state := StateCompleted
		descState := StateCompleted

		if kind == terminalOnHold && i == cut {
			// The truncation step is where the request paused, not something
			// it finished. Its descriptions keep the in-progress phrasing.
			state = StateWarning
			descState = StateCurrent
		}

		desc1, desc2 := describeStep(steps[i].Key, descState, meta)

		record := records[i]
		record.Title = stepTitle(steps[i], descState)
		record.Description1 = desc1
		record.Description2 = desc2
		record.State = state
		record.Clickable = true
		kept = append(kept, record)
	}

	return append(kept, terminalRecord(kind, meta))
}

// truncationIndex locates the step matching the remembered previous status.
// A missing or unmatched previous status falls back to the draft step; see
// DESIGN.md for why that fallback is deliberate.
func truncationIndex(steps []StepDescriptor, previous *models.ReviewStatus) int {
	key := StepDraft
	if previous != nil {
		key = stepKeyForStatus(*previous)
	}

	for i, step := range steps {
		if step.Key == key {
			return i
		}
	}

	return 0
}

// stepKeyForStatus maps a backend status onto the visual step covering it.
func stepKeyForStatus(status models.ReviewStatus) StepKey {
	switch status {
	case models.StatusDraft:
		return StepDraft
	case models.StatusLegalIntake, models.StatusAssignAttorney:
		return StepLegalIntake
	case models.StatusInReview:
		return StepInReview
	case models.StatusCloseout, models.StatusCompleted:
		return StepCloseout
	case models.StatusAwaitingFINRADocuments:
		return StepFINRA
	default:
		return StepDraft
	}
}

func terminalRecord(kind terminalKind, meta models.RequestMetadata) StepDisplayRecord {
	if kind == terminalCancelled {
		desc1 := "Cancelled"
		desc2 := ""

		if meta.Cancellation != nil {
			desc1 = "Cancelled " + shortDate(meta.Cancellation.At)
			desc2 = meta.Cancellation.Reason
			if desc2 == "" {
				desc2 = meta.Cancellation.Actor
			}
		}

		return StepDisplayRecord{
			ID:           string(StepCancelled),
			Title:        "Cancelled",
			Description1: desc1,
			Description2: desc2,
			State:        StateError,
		}
	}

	desc1 := "On hold"
	desc2 := ""

	if meta.Hold != nil {
		desc1 = "On hold since " + shortDate(meta.Hold.At)
		desc2 = meta.Hold.Reason
		if desc2 == "" {
			desc2 = meta.Hold.Actor
		}
	}

	return StepDisplayRecord{
		ID:           string(StepOnHold),
		Title:        "On Hold",
		Description1: desc1,
		Description2: desc2,
		State:        StateBlocked,
	}
}
