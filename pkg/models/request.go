// Package models defines the core domain models for legal review workflows.
package models

import "time"

// RequestType classifies a legal review request. All current types share the
// canonical review sequence; type-specific variation is reserved for future
// types.
type RequestType string

const (
	RequestTypeGeneral           RequestType = "general"
	RequestTypeMarketingMaterial RequestType = "marketing_material"
	RequestTypeContract          RequestType = "contract"
)

// ActionRecord captures who did something and when.
type ActionRecord struct {
	Actor string    `json:"actor"`
	At    time.Time `json:"at"`
}

// ReasonRecord captures who did something, when, and why. It is used for
// cancellation and hold transitions.
type ReasonRecord struct {
	Actor  string    `json:"actor"`
	At     time.Time `json:"at"`
	Reason string    `json:"reason,omitempty"`
}

// LegalRequest is a legal/compliance review request moving through the
// workflow. Exactly one status is current at any time; Cancelled and OnHold
// remember the in-flight status they interrupted in PreviousStatus.
type LegalRequest struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"                  validate:"required,min=3"`
	Description string       `json:"description"`
	RequestType RequestType  `json:"request_type"           validate:"required"`
	Status      ReviewStatus `json:"status"                 validate:"required"`

	// PreviousStatus is set only while Status is Cancelled or OnHold.
	PreviousStatus *ReviewStatus `json:"previous_status,omitempty"`

	Audience                 ReviewAudience `json:"audience"               validate:"required,oneof=legal compliance both"`
	IsForesideReviewRequired bool           `json:"is_foreside_review_required"`

	Submitter   string        `json:"submitter"              validate:"required"`
	SubmittedAt *time.Time    `json:"submitted_at,omitempty"`
	Intake      *ActionRecord `json:"intake,omitempty"`

	AssignedAttorney string        `json:"assigned_attorney,omitempty"`
	AttorneyAssigned *ActionRecord `json:"attorney_assigned,omitempty"`

	LegalReview      *ReviewTrack `json:"legal_review,omitempty"`
	ComplianceReview *ReviewTrack `json:"compliance_review,omitempty"`

	CloseoutStartedAt *time.Time    `json:"closeout_started_at,omitempty"`
	Closeout          *ActionRecord `json:"closeout,omitempty"`
	FINRACompleted    *ActionRecord `json:"finra_completed,omitempty"`

	Cancellation *ReasonRecord `json:"cancellation,omitempty"`
	Hold         *ReasonRecord `json:"hold,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InFlightStatus returns the status progression comparisons should run
// against: the remembered previous status while terminal, Draft when a
// terminal request never recorded one, otherwise the current status.
func (r *LegalRequest) InFlightStatus() ReviewStatus {
	if !r.Status.IsTerminal() {
		return r.Status
	}

	if r.PreviousStatus != nil {
		return *r.PreviousStatus
	}

	return StatusDraft
}
