package auth

import "context"

// Store describes the credential persistence consumed by Service. Email
// lookups are case-insensitive; the store owns its own locking discipline.
type Store interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
