package domain

import "time"

// AuthEventType names an entry in the authentication audit trail.
type AuthEventType string

const (
	EventRegister     AuthEventType = "register"
	EventLogin        AuthEventType = "login"
	EventLoginFailed  AuthEventType = "login_failed"
	EventRefresh      AuthEventType = "refresh"
	EventLogout       AuthEventType = "logout"
	EventBlockToggled AuthEventType = "block_toggled"
	EventUserDeleted  AuthEventType = "user_deleted"
)

// AuthEvent records a session or account-administration action.
type AuthEvent struct {
	ID         string
	Type       AuthEventType
	UserID     string // empty for failed logins on unknown emails
	Email      string
	IP         string
	RequestID  string
	Detail     string
	OccurredAt time.Time
}
