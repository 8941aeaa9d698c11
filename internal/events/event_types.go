package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventLoginSucceeded         EventType = "login_succeeded"
	EventLoginFailed            EventType = "login_failed"
	EventLoginThrottled         EventType = "login_throttled"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordChanged        EventType = "password_changed"
)

// Event represents an auth event emitted by the service. Payloads must not
// carry plaintext credentials.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Email     string      `json:"email"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginFailedPayload payload. Reason stays server-side; clients always see
// the same invalid-credentials response.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}
