package models

import "time"

// ReviewAudience identifies which teams review a request.
type ReviewAudience string

const (
	AudienceLegal      ReviewAudience = "legal"
	AudienceCompliance ReviewAudience = "compliance"
	AudienceBoth       ReviewAudience = "both"
)

// IncludesLegal reports whether legal review is part of the audience.
func (a ReviewAudience) IncludesLegal() bool {
	return a == AudienceLegal || a == AudienceBoth
}

// IncludesCompliance reports whether compliance review is part of the audience.
func (a ReviewAudience) IncludesCompliance() bool {
	return a == AudienceCompliance || a == AudienceBoth
}

// ReviewTrackStatus is the working state of a single review track, as shown
// to reviewers and the submitter.
type ReviewTrackStatus string

const (
	TrackNotStarted         ReviewTrackStatus = "Not Started"
	TrackInProgress         ReviewTrackStatus = "In Progress"
	TrackWaitingOnSubmitter ReviewTrackStatus = "Waiting On Submitter"
	TrackCompleted          ReviewTrackStatus = "Completed"
)

// ReviewOutcome records how a review track concluded.
type ReviewOutcome string

const (
	OutcomeApproved             ReviewOutcome = "approved"
	OutcomeApprovedWithComments ReviewOutcome = "approved_with_comments"
	OutcomeRejected             ReviewOutcome = "rejected"
)

// ReviewTrack holds the state of one review track (legal or compliance).
type ReviewTrack struct {
	Status      ReviewTrackStatus `json:"status"`
	Outcome     ReviewOutcome     `json:"outcome,omitempty"`
	Reviewer    string            `json:"reviewer,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// Done reports whether the track has a recorded completion.
func (r *ReviewTrack) Done() bool {
	return r != nil && r.CompletedAt != nil
}
