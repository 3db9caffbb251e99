package models

import "time"

// RequestMetadata is the read-only projection of a request consumed by the
// step derivation layer. It is rebuilt from the request on every call; the
// derivation functions hold no state of their own.
type RequestMetadata struct {
	PreviousStatus           *ReviewStatus
	Audience                 ReviewAudience
	IsForesideReviewRequired bool
	IsCurrentUserSubmitter   bool

	Submitter        string
	SubmittedAt      *time.Time
	Intake           *ActionRecord
	AssignedAttorney string

	LegalReview      *ReviewTrack
	ComplianceReview *ReviewTrack

	CloseoutStartedAt *time.Time
	Closeout          *ActionRecord
	FINRACompleted    *ActionRecord

	Cancellation *ReasonRecord
	Hold         *ReasonRecord
}

// NewRequestMetadata projects a request for the step derivation layer.
// Timestamps are already normalized time.Time values on the model, so the
// derivation code never compares raw strings.
func NewRequestMetadata(r *LegalRequest, currentUser string) RequestMetadata {
	return RequestMetadata{
		PreviousStatus:           r.PreviousStatus,
		Audience:                 r.Audience,
		IsForesideReviewRequired: r.IsForesideReviewRequired,
		IsCurrentUserSubmitter:   currentUser != "" && currentUser == r.Submitter,
		Submitter:                r.Submitter,
		SubmittedAt:              r.SubmittedAt,
		Intake:                   r.Intake,
		AssignedAttorney:         r.AssignedAttorney,
		LegalReview:              r.LegalReview,
		ComplianceReview:         r.ComplianceReview,
		CloseoutStartedAt:        r.CloseoutStartedAt,
		Closeout:                 r.Closeout,
		FINRACompleted:           r.FINRACompleted,
		Cancellation:             r.Cancellation,
		Hold:                     r.Hold,
	}
}
