package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civicsync/backend/internal/domain"
	"github.com/google/uuid"
)

// IssueRepository implements domain.IssueRepository using SQLite.
type IssueRepository struct {
	db *sql.DB
}

const issueColumns = `id, title, description, category, lat, lng, address, image_url, status, votes, created_by, created_at`

func (r *IssueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	if issue.ID == uuid.Nil {
		issue.ID = uuid.New()
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO issues (id, title, description, category, lat, lng, address, image_url, status, votes, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID.String(), issue.Title, issue.Description, string(issue.Category),
		issue.Location.Lat, issue.Location.Lng, issue.Location.Address,
		issue.ImageURL, string(issue.Status), issue.Votes,
		issue.CreatedBy.String(), now,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert issue: %w", err)
	}

	issue.CreatedAt = now
	return nil
}

func (r *IssueRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Issue, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE id = ?`, id.String())

	issue, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}

	voters, err := r.loadVoters(ctx, issue.ID)
	if err != nil {
		return nil, err
	}
	issue.VotedBy = voters
	return issue, nil
}

func (r *IssueRepository) List(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, int, error) {
	var conds []string
	var args []any
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM issues"+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count issues: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	listArgs := append(args, filter.Limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+issueColumns+` FROM issues`+where+
			` ORDER BY created_at DESC LIMIT ? OFFSET ?`, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	issues, err := collectIssues(rows)
	if err != nil {
		return nil, 0, err
	}

	for i := range issues {
		voters, err := r.loadVoters(ctx, issues[i].ID)
		if err != nil {
			return nil, 0, err
		}
		issues[i].VotedBy = voters
	}
	return issues, total, nil
}

func (r *IssueRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Issue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE created_by = ? ORDER BY created_at DESC`,
		ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("list issues by owner: %w", err)
	}
	defer rows.Close()

	issues, err := collectIssues(rows)
	if err != nil {
		return nil, err
	}

	for i := range issues {
		voters, err := r.loadVoters(ctx, issues[i].ID)
		if err != nil {
			return nil, err
		}
		issues[i].VotedBy = voters
	}
	return issues, nil
}

func (r *IssueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE issues SET title = ?, description = ?, category = ?, lat = ?, lng = ?, address = ?, image_url = ?
		 WHERE id = ?`,
		issue.Title, issue.Description, string(issue.Category),
		issue.Location.Lat, issue.Location.Lng, issue.Location.Address,
		issue.ImageURL, issue.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	return requireRow(result)
}

func (r *IssueRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE issues SET status = ? WHERE id = ?`, string(status), id.String())
	if err != nil {
		return fmt.Errorf("update issue status: %w", err)
	}
	return requireRow(result)
}

func (r *IssueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM issues WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	return requireRow(result)
}

// AddVote records a vote for an issue. The vote row and the counter
// increment commit in one transaction; the primary key on
// (issue_id, user_id) rejects duplicates even if two requests race past
// the service-level check.
func (r *IssueRepository) AddVote(ctx context.Context, issueID, voterID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO issue_votes (issue_id, user_id, created_at) VALUES (?, ?, ?)`,
		issueID.String(), voterID.String(), time.Now().UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateVote
		}
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert vote: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE issues SET votes = votes + 1 WHERE id = ?`, issueID.String())
	if err != nil {
		return fmt.Errorf("increment votes: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *IssueRepository) loadVoters(ctx context.Context, issueID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM issue_votes WHERE issue_id = ? ORDER BY created_at`, issueID.String())
	if err != nil {
		return nil, fmt.Errorf("load voters: %w", err)
	}
	defer rows.Close()

	var voters []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan voter id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse voter id: %w", err)
		}
		voters = append(voters, id)
	}
	return voters, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*domain.Issue, error) {
	issue := &domain.Issue{}
	var id, category, status, createdBy string
	var imageURL sql.NullString
	err := row.Scan(&id, &issue.Title, &issue.Description, &category,
		&issue.Location.Lat, &issue.Location.Lng, &issue.Location.Address,
		&imageURL, &status, &issue.Votes, &createdBy, &issue.CreatedAt)
	if err != nil {
		return nil, err
	}

	issue.Category = domain.Category(category)
	issue.Status = domain.Status(status)
	if imageURL.Valid {
		issue.ImageURL = &imageURL.String
	}

	if issue.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse issue id: %w", err)
	}
	if issue.CreatedBy, err = uuid.Parse(createdBy); err != nil {
		return nil, fmt.Errorf("parse owner id: %w", err)
	}
	return issue, nil
}

func collectIssues(rows *sql.Rows) ([]domain.Issue, error) {
	var issues []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, *issue)
	}
	return issues, rows.Err()
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
