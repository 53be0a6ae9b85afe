package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a registered user of the application.
// PasswordHash is never included in any API response.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// HasVoted reports whether the user's voted-issue set contains the issue.
	HasVoted(ctx context.Context, userID, issueID uuid.UUID) (bool, error)
	// VotedIssueIDs returns the user's voted-issue set, newest vote first.
	VotedIssueIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
