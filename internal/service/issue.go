package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/civicsync/backend/internal/domain"
	"github.com/google/uuid"
)

const defaultPageLimit = 10

// IssueService enforces the issue lifecycle rules: creation, owner-only
// edits while Pending, one-directional status transitions, and
// single-vote-per-user enforcement.
type IssueService struct {
	issues domain.IssueRepository
	users  domain.UserRepository
}

// NewIssueService creates a new IssueService.
func NewIssueService(issues domain.IssueRepository, users domain.UserRepository) *IssueService {
	return &IssueService{issues: issues, users: users}
}

// IssueWithOwner pairs an issue with its owner's user record for the
// expanded API view. Owner is nil when the owning user no longer exists.
type IssueWithOwner struct {
	Issue *domain.Issue
	Owner *domain.User
}

// IssuePage is one page of a filtered issue listing.
type IssuePage struct {
	Items      []IssueWithOwner
	Total      int
	Page       int
	TotalPages int
	HasMore    bool
}

// CreateIssueInput carries the fields for a new issue. Lat and Lng are
// pointers so that a missing coordinate is distinguishable from zero.
type CreateIssueInput struct {
	Title       string
	Description string
	Category    string
	Lat         *float64
	Lng         *float64
	Address     string
	ImageURL    string
}

// LocationPatch merges individual location sub-fields; nil fields are
// left untouched.
type LocationPatch struct {
	Lat     *float64
	Lng     *float64
	Address *string
}

// UpdateIssueInput carries a partial issue update. Nil fields are left
// untouched. ImageURLSet distinguishes "clear the image" (true with nil
// or empty ImageURL) from "leave it alone" (false).
type UpdateIssueInput struct {
	Title       *string
	Description *string
	Category    *string
	Location    *LocationPatch
	ImageURL    *string
	ImageURLSet bool
}

// Create validates and persists a new issue with status Pending and zero
// votes, returning it with the owner expanded.
func (s *IssueService) Create(ctx context.Context, ownerID uuid.UUID, in CreateIssueInput) (*IssueWithOwner, error) {
	errs := domain.FieldErrors{}
	if strings.TrimSpace(in.Title) == "" {
		errs["title"] = "title is required"
	}
	if strings.TrimSpace(in.Description) == "" {
		errs["description"] = "description is required"
	}
	if in.Category == "" {
		errs["category"] = "category is required"
	} else if !domain.ValidCategory(in.Category) {
		errs["category"] = fmt.Sprintf("%q is not a supported category", in.Category)
	}
	if in.Lat == nil {
		errs["location.lat"] = "latitude is required"
	}
	if in.Lng == nil {
		errs["location.lng"] = "longitude is required"
	}
	if len(errs) > 0 {
		return nil, errs
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}

	issue := &domain.Issue{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    domain.Category(in.Category),
		Location: domain.Location{
			Lat:     *in.Lat,
			Lng:     *in.Lng,
			Address: strings.TrimSpace(in.Address),
		},
		Status:    domain.StatusPending,
		Votes:     0,
		CreatedBy: ownerID,
	}
	if img := strings.TrimSpace(in.ImageURL); img != "" {
		issue.ImageURL = &img
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	return &IssueWithOwner{Issue: issue, Owner: owner}, nil
}

// List returns one page of issues matching the filter, newest first.
// Unknown category or status values match nothing rather than erroring.
func (s *IssueService) List(ctx context.Context, filter domain.IssueFilter) (*IssuePage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}

	issues, total, err := s.issues.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}

	items, err := s.expandOwners(ctx, issues)
	if err != nil {
		return nil, err
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	return &IssuePage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		TotalPages: totalPages,
		HasMore:    filter.Page < totalPages,
	}, nil
}

// GetByID returns an issue with its owner expanded.
func (s *IssueService) GetByID(ctx context.Context, id uuid.UUID) (*IssueWithOwner, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("issue: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}

	owner, err := s.lookupOwner(ctx, issue.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &IssueWithOwner{Issue: issue, Owner: owner}, nil
}

// Update applies a partial update to an issue. Only the owner may edit,
// and only while the issue is still Pending.
func (s *IssueService) Update(ctx context.Context, id, callerID uuid.UUID, in UpdateIssueInput) (*IssueWithOwner, error) {
	issue, err := s.loadOwned(ctx, id, callerID, "you cannot edit this issue")
	if err != nil {
		return nil, err
	}
	if issue.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: cannot edit issue: status is currently %q", domain.ErrInvalidState, issue.Status)
	}

	if in.Category != nil && !domain.ValidCategory(*in.Category) {
		return nil, domain.FieldErrors{"category": fmt.Sprintf("%q is not a supported category", *in.Category)}
	}

	if in.Title != nil {
		issue.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		issue.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		issue.Category = domain.Category(*in.Category)
	}
	if in.Location != nil {
		if in.Location.Lat != nil {
			issue.Location.Lat = *in.Location.Lat
		}
		if in.Location.Lng != nil {
			issue.Location.Lng = *in.Location.Lng
		}
		if in.Location.Address != nil {
			issue.Location.Address = strings.TrimSpace(*in.Location.Address)
		}
	}
	if in.ImageURLSet {
		if in.ImageURL == nil || strings.TrimSpace(*in.ImageURL) == "" {
			issue.ImageURL = nil
		} else {
			img := strings.TrimSpace(*in.ImageURL)
			issue.ImageURL = &img
		}
	}

	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, fmt.Errorf("update issue: %w", err)
	}

	owner, err := s.lookupOwner(ctx, issue.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &IssueWithOwner{Issue: issue, Owner: owner}, nil
}

// UpdateStatus advances an issue's lifecycle state. Clients may only
// request In Progress or Resolved; Resolved is terminal, and setting the
// current status again is rejected.
func (s *IssueService) UpdateStatus(ctx context.Context, id, callerID uuid.UUID, newStatus string) (*IssueWithOwner, error) {
	if newStatus != string(domain.StatusInProgress) && newStatus != string(domain.StatusResolved) {
		return nil, fmt.Errorf(`%w: status must be "In Progress" or "Resolved"`, domain.ErrInvalidInput)
	}

	issue, err := s.loadOwned(ctx, id, callerID, "only the creator can update status")
	if err != nil {
		return nil, err
	}

	if issue.Status == domain.Status(newStatus) {
		return nil, fmt.Errorf("%w: issue is already %q", domain.ErrInvalidState, issue.Status)
	}
	if issue.Status == domain.StatusResolved {
		return nil, fmt.Errorf("%w: cannot change status of a resolved issue", domain.ErrInvalidState)
	}

	if err := s.issues.UpdateStatus(ctx, id, domain.Status(newStatus)); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	issue.Status = domain.Status(newStatus)

	owner, err := s.lookupOwner(ctx, issue.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &IssueWithOwner{Issue: issue, Owner: owner}, nil
}

// Delete removes an issue permanently. Only the owner may delete, and
// only while the issue is still Pending. Votes cascade with the issue.
func (s *IssueService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	issue, err := s.loadOwned(ctx, id, callerID, "you cannot delete this issue")
	if err != nil {
		return err
	}
	if issue.Status != domain.StatusPending {
		return fmt.Errorf("%w: cannot delete issue: status is currently %q", domain.ErrInvalidState, issue.Status)
	}

	if err := s.issues.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	return nil
}

// Vote casts a vote on behalf of voterID. The duplicate guard checks both
// the issue's voter set and the voter's voted-issue set; both views are
// projections of the same vote relation, whose primary key rejects any
// duplicate that races past this check. The vote row and the counter
// increment commit atomically.
func (s *IssueService) Vote(ctx context.Context, id, voterID uuid.UUID) (*IssueWithOwner, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("issue: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}

	if _, err := s.users.GetByID(ctx, voterID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("voting user: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get voter: %w", err)
	}

	voted, err := s.users.HasVoted(ctx, voterID, id)
	if err != nil {
		return nil, fmt.Errorf("check voted set: %w", err)
	}
	if voted || slices.Contains(issue.VotedBy, voterID) {
		return nil, domain.ErrDuplicateVote
	}

	if err := s.issues.AddVote(ctx, id, voterID); err != nil {
		return nil, err
	}

	issue, err = s.issues.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload issue: %w", err)
	}

	owner, err := s.lookupOwner(ctx, issue.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &IssueWithOwner{Issue: issue, Owner: owner}, nil
}

// ListMine returns all issues created by the caller, newest first.
func (s *IssueService) ListMine(ctx context.Context, ownerID uuid.UUID) ([]IssueWithOwner, error) {
	issues, err := s.issues.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list own issues: %w", err)
	}
	return s.expandOwners(ctx, issues)
}

// loadOwned fetches an issue and verifies the caller owns it.
func (s *IssueService) loadOwned(ctx context.Context, id, callerID uuid.UUID, denied string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("issue: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}
	if issue.CreatedBy != callerID {
		return nil, fmt.Errorf("%w: %s", domain.ErrForbidden, denied)
	}
	return issue, nil
}

// lookupOwner resolves the owning user for the expanded view. A deleted
// owner yields nil rather than an error.
func (s *IssueService) lookupOwner(ctx context.Context, ownerID uuid.UUID) (*domain.User, error) {
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get owner: %w", err)
	}
	return owner, nil
}

// expandOwners resolves owners for a batch of issues, deduplicating
// lookups per owner.
func (s *IssueService) expandOwners(ctx context.Context, issues []domain.Issue) ([]IssueWithOwner, error) {
	owners := make(map[uuid.UUID]*domain.User)
	items := make([]IssueWithOwner, 0, len(issues))
	for i := range issues {
		issue := &issues[i]
		owner, ok := owners[issue.CreatedBy]
		if !ok {
			var err error
			owner, err = s.lookupOwner(ctx, issue.CreatedBy)
			if err != nil {
				return nil, err
			}
			owners[issue.CreatedBy] = owner
		}
		items = append(items, IssueWithOwner{Issue: issue, Owner: owner})
	}
	return items, nil
}
