// Package stepper derives the visual workflow steps for a legal review
// request: which steps to show, the state of each, and what each displays.
// Everything here is a pure function of the request snapshot it is handed.
package stepper

import "github.com/counselops/matterflow/pkg/models"

// StepKey identifies a visual step. A visual step may cover more than one
// backend status: the legal intake step covers both LegalIntake and
// AssignAttorney.
type StepKey string

const (
	StepDraft       StepKey = "draft"
	StepLegalIntake StepKey = "legal_intake"
	StepInReview    StepKey = "in_review"
	StepCloseout    StepKey = "closeout"
	StepFINRA       StepKey = "finra"
	StepCancelled   StepKey = "cancelled"
	StepOnHold      StepKey = "on_hold"
)

// StepState classifies a step for display. Error and Blocked are expected
// outcomes (cancelled and on-hold requests), not runtime faults.
type StepState string

const (
	StateCompleted StepState = "completed"
	StateCurrent   StepState = "current"
	StatePending   StepState = "pending"
	StateWarning   StepState = "warning"
	StateError     StepState = "error"
	StateBlocked   StepState = "blocked"
)

// Mode selects how steps are presented.
type Mode string

const (
	// ModeInformational previews the whole process before a request exists:
	// every step pending and explorable.
	ModeInformational Mode = "informational"

	// ModeProgress reflects a live request's actual progression.
	ModeProgress Mode = "progress"
)

// StepDescriptor is the static definition of a visual step. Descriptors are
// built once per request type and never mutated.
type StepDescriptor struct {
	Key      StepKey
	Label    string
	Detail   string
	Status   models.ReviewStatus
	Optional bool
	Content  string
	Order    int
}

// StepDisplayRecord is what the rendering host consumes. Records are
// recomputed on every call and never persisted.
type StepDisplayRecord struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description1 string    `json:"description1"`
	Description2 string    `json:"description2"`
	State        StepState `json:"state"`
	Content      string    `json:"content,omitempty"`
	Clickable    bool      `json:"clickable"`
}
