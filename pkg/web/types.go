// Package web provides HTTP request and response types for the legal review API.
package web

// CreateRequestRequest represents the request body for creating a new legal request.
type CreateRequestRequest struct {
	Title                    string `json:"title"                       validate:"required,min=3"`
	Description              string `json:"description"`
	RequestType              string `json:"request_type"                validate:"required"`
	Audience                 string `json:"audience"                    validate:"required,oneof=legal compliance both"`
	IsForesideReviewRequired bool   `json:"is_foreside_review_required"`
	Submitter                string `json:"submitter"                   validate:"required"`
}

// UpdateRequestRequest represents the request body for editing a draft request.
// All fields are optional to support partial updates.
type UpdateRequestRequest struct {
	Actor       string  `json:"actor"                 validate:"required"`
	Title       *string `json:"title,omitempty"       validate:"omitempty,min=3"`
	Description *string `json:"description,omitempty"`
}

// ActorRequest is the body for transitions that only need to know who acted.
type ActorRequest struct {
	Actor string `json:"actor" validate:"required"`
}

// AssignAttorneyRequest is the body for the attorney assignment transition.
type AssignAttorneyRequest struct {
	Actor    string `json:"actor"    validate:"required"`
	Attorney string `json:"attorney" validate:"required"`
}

// UpdateReviewTrackRequest changes the working state of one review track.
type UpdateReviewTrackRequest struct {
	Actor    string `json:"actor"    validate:"required"`
	Audience string `json:"audience" validate:"required,oneof=legal compliance"`
	Status   string `json:"status"   validate:"required"`
}

// CompleteReviewRequest records the outcome of one review track.
type CompleteReviewRequest struct {
	Actor    string `json:"actor"    validate:"required"`
	Audience string `json:"audience" validate:"required,oneof=legal compliance"`
	Outcome  string `json:"outcome"  validate:"required,oneof=approved approved_with_comments rejected"`
}

// ReasonRequest is the body for cancel and hold transitions.
type ReasonRequest struct {
	Actor  string `json:"actor"  validate:"required"`
	Reason string `json:"reason"`
}
