package auth

import (
	"strings"
	"time"
)

// Role is the closed set of access roles carried in tokens.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleClinician Role = "CLINICIAN"
	RoleStaff     Role = "STAFF"
)

// ParseRole normalizes a raw role string. Unknown values report false.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleClinician:
		return RoleClinician, true
	case RoleStaff:
		return RoleStaff, true
	default:
		return "", false
	}
}

// Status is the account lifecycle state. Accounts are never physically
// deleted; deactivation flips the status instead.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// User is a credentialed identity. Email is unique case-insensitively;
// PasswordHash is a salted bcrypt hash and the plaintext is never stored.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the resolved per-request caller attached to the context by the
// HTTP layer after token verification.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}
