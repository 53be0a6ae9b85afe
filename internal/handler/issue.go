package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/civicsync/backend/internal/domain"
	"github.com/civicsync/backend/internal/service"
	"github.com/google/uuid"
)

// IssueHandler handles issue-related HTTP requests.
type IssueHandler struct {
	issues *service.IssueService
}

// NewIssueHandler creates a new IssueHandler.
func NewIssueHandler(issues *service.IssueService) *IssueHandler {
	return &IssueHandler{issues: issues}
}

type locationRequest struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address *string  `json:"address"`
}

// HandleCreate processes issue creation.
// POST /issues
// Response: 201 with the created issue, owner expanded.
func (h *IssueHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	var req struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Location    locationRequest `json:"location"`
		ImageURL    string          `json:"imageUrl"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	in := service.CreateIssueInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Lat:         req.Location.Lat,
		Lng:         req.Location.Lng,
		ImageURL:    req.ImageURL,
	}
	if req.Location.Address != nil {
		in.Address = *req.Location.Address
	}

	item, err := h.issues.Create(r.Context(), user.ID, in)
	if err != nil {
		writeDomainError(w, err, "create issue")
		return
	}

	writeJSON(w, http.StatusCreated, toIssueDTO(*item))
}

// HandleList returns one page of issues, newest first.
// GET /issues?page=&limit=&category=&status=
func (h *IssueHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.IssueFilter{
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Page:     intQuery(q.Get("page"), 1),
		Limit:    intQuery(q.Get("limit"), 10),
	}

	page, err := h.issues.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err, "list issues")
		return
	}

	writeJSON(w, http.StatusOK, toIssuePageDTO(page))
}

// HandleGet returns a single issue with its owner expanded.
// GET /issues/{id}
func (h *IssueHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := issueID(w, r)
	if !ok {
		return
	}

	item, err := h.issues.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "get issue")
		return
	}

	writeJSON(w, http.StatusOK, toIssueDTO(*item))
}

// HandleUpdate applies a partial update to an issue. Absent fields are
// left untouched; an explicit null imageUrl clears the image.
// PUT /issues/{id}
func (h *IssueHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}
	id, ok := issueID(w, r)
	if !ok {
		return
	}

	var req struct {
		Title       *string          `json:"title"`
		Description *string          `json:"description"`
		Category    *string          `json:"category"`
		Location    *locationRequest `json:"location"`
		ImageURL    json.RawMessage  `json:"imageUrl"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	in := service.UpdateIssueInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.Location != nil {
		in.Location = &service.LocationPatch{
			Lat:     req.Location.Lat,
			Lng:     req.Location.Lng,
			Address: req.Location.Address,
		}
	}
	// A present imageUrl key, even when null, is a deliberate change.
	if len(req.ImageURL) > 0 {
		in.ImageURLSet = true
		if string(req.ImageURL) != "null" {
			var img string
			if err := json.Unmarshal(req.ImageURL, &img); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid request body.")
				return
			}
			in.ImageURL = &img
		}
	}

	item, err := h.issues.Update(r.Context(), id, user.ID, in)
	if err != nil {
		writeDomainError(w, err, "update issue")
		return
	}

	writeJSON(w, http.StatusOK, toIssueDTO(*item))
}

// HandleUpdateStatus advances an issue's lifecycle state.
// PATCH /issues/{id}/status
// Request: {"status":"In Progress"} or {"status":"Resolved"}
func (h *IssueHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}
	id, ok := issueID(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	item, err := h.issues.UpdateStatus(r.Context(), id, user.ID, req.Status)
	if err != nil {
		writeDomainError(w, err, "update issue status")
		return
	}

	writeJSON(w, http.StatusOK, toIssueDTO(*item))
}

// HandleDelete removes an issue permanently.
// DELETE /issues/{id}
func (h *IssueHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}
	id, ok := issueID(w, r)
	if !ok {
		return
	}

	if err := h.issues.Delete(r.Context(), id, user.ID); err != nil {
		writeDomainError(w, err, "delete issue")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Issue deleted successfully"})
}

// HandleVote casts the caller's vote on an issue.
// POST /issues/{id}/vote
func (h *IssueHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}
	id, ok := issueID(w, r)
	if !ok {
		return
	}

	item, err := h.issues.Vote(r.Context(), id, user.ID)
	if err != nil {
		writeDomainError(w, err, "vote for issue")
		return
	}

	writeJSON(w, http.StatusOK, toIssueDTO(*item))
}

// HandleMyIssues returns all issues created by the caller, newest first.
// GET /users/my-issues
func (h *IssueHandler) HandleMyIssues(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	items, err := h.issues.ListMine(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, err, "list my issues")
		return
	}

	writeJSON(w, http.StatusOK, toIssueDTOs(items))
}

// issueID parses the path's issue ID. A malformed ID is reported the same
// way as a missing issue.
func issueID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Issue not found")
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
