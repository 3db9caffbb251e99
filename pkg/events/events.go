// Package events defines event types for legal request lifecycle
// notifications.
package events

import (
	"time"

	"github.com/counselops/matterflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries all request lifecycle events.
const Topic = "matterflow.request-events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RequestCreatedEvent       EventType = "request.created"
	RequestSubmittedEvent     EventType = "request.submitted"
	RequestStatusChangedEvent EventType = "request.status_changed"
	RequestCancelledEvent     EventType = "request.cancelled"
	RequestHeldEvent          EventType = "request.held"
	RequestResumedEvent       EventType = "request.resumed"
	RequestCompletedEvent     EventType = "request.completed"
	ReviewReminderDueEvent    EventType = "review.reminder_due"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id"`
	Actor     string         `json:"actor,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, requestID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
		Metadata:  make(map[string]any),
	}
}

type RequestCreated struct {
	BaseEvent

	Title       string             `json:"title"`
	RequestType models.RequestType `json:"request_type"`
	Submitter   string             `json:"submitter"`
}

func (e RequestCreated) GetType() EventType {
	return RequestCreatedEvent
}

type RequestSubmitted struct {
	BaseEvent

	Submitter string `json:"submitter"`
}

func (e RequestSubmitted) GetType() EventType {
	return RequestSubmittedEvent
}

type RequestStatusChanged struct {
	BaseEvent

	From models.ReviewStatus `json:"from"`
	To   models.ReviewStatus `json:"to"`
}

func (e RequestStatusChanged) GetType() EventType {
	return RequestStatusChangedEvent
}

type RequestCancelled struct {
	BaseEvent

	PreviousStatus models.ReviewStatus `json:"previous_status"`
	Reason         string              `json:"reason,omitempty"`
}

func (e RequestCancelled) GetType() EventType {
	return RequestCancelledEvent
}

type RequestHeld struct {
	BaseEvent

	PreviousStatus models.ReviewStatus `json:"previous_status"`
	Reason         string              `json:"reason,omitempty"`
}

func (e RequestHeld) GetType() EventType {
	return RequestHeldEvent
}

type RequestResumed struct {
	BaseEvent

	ResumedTo models.ReviewStatus `json:"resumed_to"`
}

func (e RequestResumed) GetType() EventType {
	return RequestResumedEvent
}

type RequestCompleted struct {
	BaseEvent

	ForesideReviewed bool `json:"foreside_reviewed"`
}

func (e RequestCompleted) GetType() EventType {
	return RequestCompletedEvent
}

// ReviewReminderDue is emitted by the reminder sweeper for requests sitting
// on hold or awaiting FINRA documents past the nudge threshold.
type ReviewReminderDue struct {
	BaseEvent

	Status    models.ReviewStatus `json:"status"`
	StaleFor  string              `json:"stale_for"`
	Submitter string              `json:"submitter"`
}

func (e ReviewReminderDue) GetType() EventType {
	return ReviewReminderDueEvent
}
