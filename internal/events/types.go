package events

// Event type constants. These follow the format: domain.action

// Request events
const (
	EventTypeRequestCreated   = "request.created"
	EventTypeRequestAccepted  = "request.accepted"
	EventTypeRequestDeclined  = "request.declined"
	EventTypeRequestCancelled = "request.cancelled"
)

// Message events
const (
	EventTypeMessageCreated = "message.created"
)

// Match events
const (
	EventTypeMatchStatusChanged = "match.status_changed"
)

// Aggregate types
const (
	AggregateRequest = "help_request"
	AggregateMatch   = "match"
	AggregateMessage = "message"
)
