package repo

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

func TestGetIdempotency_BlankScopeOrKey_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	for _, tc := range []struct{ scope, key string }{{"   ", "k1"}, {"cars", ""}} {
		rec, err := GetIdempotency(context.Background(), db, "u1", tc.scope, tc.key, now)
		if rec != nil || !errors.Is(err, ErrNotFound) {
			t.Fatalf("scope=%q key=%q: expected (nil, ErrNotFound), got (%v, %v)", tc.scope, tc.key, rec, err)
		}
	}
}

func TestIdempotency_CreateThenGet(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	created, err := CreateIdempotency(ctx, db, "u1", "cars", "k1", "car-123", http.StatusCreated, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if created.ID == "" || created.ResourceID != "car-123" {
		t.Fatalf("unexpected record: %+v", created)
	}

	got, err := GetIdempotency(ctx, db, "u1", "cars", "k1", time.Now().UTC())
	if err != nil {
		t.Fatalf("GetIdempotency: %v", err)
	}
	if got.ResourceID != "car-123" || got.Status != http.StatusCreated {
		t.Fatalf("unexpected readback: %+v", got)
	}

	// Same key under another scope is a different record.
	if _, err := GetIdempotency(ctx, db, "u1", "maintenance", "k1", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other scope, got %v", err)
	}
}

func TestIdempotency_Expired_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "cars", "k1", "car-1", http.StatusCreated, time.Minute); err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	later := time.Now().UTC().Add(2 * time.Minute)
	if _, err := GetIdempotency(ctx, db, "u1", "cars", "k1", later); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestCreateIdempotency_Duplicate(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "cars", "k1", "car-1", http.StatusCreated, time.Hour); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := CreateIdempotency(ctx, db, "u1", "cars", "k1", "car-2", http.StatusCreated, time.Hour)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateIdempotency_DBError(t *testing.T) {
	db := newTestDB(t /* no table */)
	_, err := CreateIdempotency(context.Background(), db, "u1", "cars", "k1", "car-1", http.StatusCreated, time.Hour)
	if err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected raw DB error, got %v", err)
	}
}

func TestPurgeExpiredIdempotency(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "cars", "old", "car-1", http.StatusCreated, time.Minute); err != nil {
		t.Fatalf("seed old: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "u1", "cars", "fresh", "car-2", http.StatusCreated, 24*time.Hour); err != nil {
		t.Fatalf("seed fresh: %v", err)
	}

	n, err := PurgeExpiredIdempotency(ctx, db, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("PurgeExpiredIdempotency: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
	if _, err := GetIdempotency(ctx, db, "u1", "cars", "fresh", time.Now().UTC()); err != nil {
		t.Fatalf("fresh record should survive: %v", err)
	}
}
