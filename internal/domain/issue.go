package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Category classifies an issue. The set of values is fixed.
type Category string

const (
	CategoryInfrastructure Category = "Infrastructure"
	CategorySafety         Category = "Safety"
	CategoryEnvironment    Category = "Environment"
	CategoryPublicServices Category = "Public Services"
	CategoryOther          Category = "Other"
)

// ValidCategory reports whether s is one of the fixed category values.
func ValidCategory(s string) bool {
	switch Category(s) {
	case CategoryInfrastructure, CategorySafety, CategoryEnvironment,
		CategoryPublicServices, CategoryOther:
		return true
	}
	return false
}

// Status is the lifecycle state of an issue. Transitions only move
// forward: Pending -> In Progress -> Resolved, with Pending -> Resolved
// allowed as a shortcut. Resolved is terminal.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
)

// ValidStatus reports whether s is one of the lifecycle states.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Location is a geographic point with an optional street address.
type Location struct {
	Lat     float64
	Lng     float64
	Address string
}

// Issue is a reported civic problem. VotedBy lists the users that have
// cast a vote; Votes always equals len(VotedBy).
type Issue struct {
	ID          uuid.UUID
	Title       string
	Description string
	Category    Category
	Location    Location
	ImageURL    *string
	Status      Status
	Votes       int
	VotedBy     []uuid.UUID
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
}

// IssueFilter narrows and pages an issue listing. Zero-value Category and
// Status mean no filtering; unknown values simply match nothing.
type IssueFilter struct {
	Category string
	Status   string
	Page     int
	Limit    int
}

// IssueRepository defines persistence operations for issues and votes.
type IssueRepository interface {
	Create(ctx context.Context, issue *Issue) error
	GetByID(ctx context.Context, id uuid.UUID) (*Issue, error)
	// List returns one page of issues matching the filter, newest first,
	// along with the total match count.
	List(ctx context.Context, filter IssueFilter) ([]Issue, int, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Issue, error)
	Update(ctx context.Context, issue *Issue) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error
	// AddVote records a vote and increments the counter in one
	// transaction. Returns ErrDuplicateVote if the (issue, voter) pair
	// already exists.
	AddVote(ctx context.Context, issueID, voterID uuid.UUID) error
}
