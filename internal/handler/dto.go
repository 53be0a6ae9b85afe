package handler

import (
	"time"

	"github.com/civicsync/backend/internal/domain"
	"github.com/civicsync/backend/internal/service"
	"github.com/google/uuid"
)

// UserDTO is the JSON representation of a user. The password hash is
// deliberately absent.
type UserDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// OwnerDTO is the expanded createdBy reference on an issue.
type OwnerDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LocationDTO is the JSON representation of an issue location.
type LocationDTO struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// IssueDTO is the JSON representation of an issue with its owner expanded.
type IssueDTO struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Location    LocationDTO `json:"location"`
	ImageURL    *string     `json:"imageUrl"`
	Status      string      `json:"status"`
	Votes       int         `json:"votes"`
	VotedBy     []string    `json:"votedBy"`
	CreatedBy   *OwnerDTO   `json:"createdBy"`
	CreatedAt   string      `json:"createdAt"`
}

func toIssueDTO(item service.IssueWithOwner) IssueDTO {
	issue := item.Issue
	dto := IssueDTO{
		ID:          issue.ID.String(),
		Title:       issue.Title,
		Description: issue.Description,
		Category:    string(issue.Category),
		Location: LocationDTO{
			Lat:     issue.Location.Lat,
			Lng:     issue.Location.Lng,
			Address: issue.Location.Address,
		},
		ImageURL:  issue.ImageURL,
		Status:    string(issue.Status),
		Votes:     issue.Votes,
		VotedBy:   toIDStrings(issue.VotedBy),
		CreatedAt: issue.CreatedAt.Format(time.RFC3339),
	}
	if item.Owner != nil {
		dto.CreatedBy = &OwnerDTO{
			ID:    item.Owner.ID.String(),
			Name:  item.Owner.Name,
			Email: item.Owner.Email,
		}
	}
	return dto
}

func toIssueDTOs(items []service.IssueWithOwner) []IssueDTO {
	dtos := make([]IssueDTO, len(items))
	for i, item := range items {
		dtos[i] = toIssueDTO(item)
	}
	return dtos
}

func toIDStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// IssuePageDTO is the JSON representation of one listing page.
type IssuePageDTO struct {
	Items      []IssueDTO `json:"items"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
	HasMore    bool       `json:"hasMore"`
}

func toIssuePageDTO(page *service.IssuePage) IssuePageDTO {
	return IssuePageDTO{
		Items:      toIssueDTOs(page.Items),
		Total:      page.Total,
		Page:       page.Page,
		TotalPages: page.TotalPages,
		HasMore:    page.HasMore,
	}
}
