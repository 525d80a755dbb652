package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

func TestCreateUser_NormalizesEmail_AndRejectsDuplicate(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	u, err := CreateUser(ctx, db, "  Ada@Example.com ", "Ada", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Email != "ada@example.com" || u.ID == "" {
		t.Fatalf("unexpected user: %+v", u)
	}

	if _, err := CreateUser(ctx, db, "ADA@example.com", "Other", "hash2"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()
	if _, err := CreateUser(ctx, db, "bob@example.com", "Bob", "hash"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := GetUserByEmail(ctx, db, "BOB@example.com")
	if err != nil || got.Name != "Bob" || got.PasswordHash != "hash" {
		t.Fatalf("GetUserByEmail = (%+v, %v)", got, err)
	}
	if _, err := GetUserByEmail(ctx, db, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
