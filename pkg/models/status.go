package models

// ReviewStatus represents the lifecycle state of a legal review request.
type ReviewStatus string

const (
	StatusDraft                  ReviewStatus = "draft"
	StatusLegalIntake            ReviewStatus = "legal_intake"
	StatusAssignAttorney         ReviewStatus = "assign_attorney"
	StatusInReview               ReviewStatus = "in_review"
	StatusCloseout               ReviewStatus = "closeout"
	StatusAwaitingFINRADocuments ReviewStatus = "awaiting_finra_documents"
	StatusCompleted              ReviewStatus = "completed"
	StatusCancelled              ReviewStatus = "cancelled"
	StatusOnHold                 ReviewStatus = "on_hold"
)

// terminalRank keeps Cancelled and OnHold out of before/after comparisons
// against in-flight statuses.
const terminalRank = 99

// statusRank orders statuses by normal workflow progression. LegalIntake and
// AssignAttorney share a rank because they occupy one visual step.
var statusRank = map[ReviewStatus]int{
	StatusDraft:                  1,
	StatusLegalIntake:            2,
	StatusAssignAttorney:         2,
	StatusInReview:               3,
	StatusCloseout:               4,
	StatusAwaitingFINRADocuments: 5,
	StatusCompleted:              6,
	StatusCancelled:              terminalRank,
	StatusOnHold:                 terminalRank,
}

// Rank returns the progression rank of the status. Unknown statuses rank 0,
// earlier than everything.
func (s ReviewStatus) Rank() int {
	return statusRank[s]
}

// AtOrBefore reports whether s sits at or before other in normal progression.
func (s ReviewStatus) AtOrBefore(other ReviewStatus) bool {
	return s.Rank() <= other.Rank()
}

// IsTerminal reports whether the status suspends or ends normal progression.
func (s ReviewStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusOnHold
}

// IsValid reports whether the status is one of the known lifecycle states.
func (s ReviewStatus) IsValid() bool {
	_, ok := statusRank[s]

	return ok
}

func (s ReviewStatus) String() string {
	return string(s)
}
