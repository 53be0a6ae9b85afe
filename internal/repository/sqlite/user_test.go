package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/civicsync/backend/internal/domain"
	"github.com/civicsync/backend/internal/repository/sqlite"
	"github.com/google/uuid"
)

func seedUser(t *testing.T, db *sqlite.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{Name: "Test", Email: email, PasswordHash: "hash"}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &domain.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hash"}
	if err := db.Users().Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == uuid.Nil {
		t.Fatal("expected user ID to be set")
	}
	if u.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	byID, err := db.Users().GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Fatalf("expected email alice@example.com, got %s", byID.Email)
	}

	byEmail, err := db.Users().GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Fatalf("expected ID %s, got %s", u.ID, byEmail.ID)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedUser(t, db, "dup@example.com")

	err := db.Users().Create(ctx, &domain.User{Name: "Other", Email: "dup@example.com", PasswordHash: "hash"})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUserRepository_GetMissing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.Users().GetByID(ctx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound by ID, got %v", err)
	}
	if _, err := db.Users().GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound by email, got %v", err)
	}
}

func TestUserRepository_VotedSet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	voter := seedUser(t, db, "voter@example.com")
	issue := seedIssue(t, db, owner.ID)

	voted, err := db.Users().HasVoted(ctx, voter.ID, issue.ID)
	if err != nil {
		t.Fatalf("HasVoted: %v", err)
	}
	if voted {
		t.Fatal("expected no vote before AddVote")
	}

	if err := db.Issues().AddVote(ctx, issue.ID, voter.ID); err != nil {
		t.Fatalf("AddVote: %v", err)
	}

	voted, err = db.Users().HasVoted(ctx, voter.ID, issue.ID)
	if err != nil {
		t.Fatalf("HasVoted after vote: %v", err)
	}
	if !voted {
		t.Fatal("expected HasVoted=true after AddVote")
	}

	ids, err := db.Users().VotedIssueIDs(ctx, voter.ID)
	if err != nil {
		t.Fatalf("VotedIssueIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != issue.ID {
		t.Fatalf("expected voted set [%s], got %v", issue.ID, ids)
	}
}
