package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/order-notifier/internal/domain"
)

func TestShortLinks_InsertAndFind(t *testing.T) {
	db := newTestDB(t, &domain.ShortLink{})
	store := ShortLinks{DB: db}
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.ShortLink{Code: "abc1234", TargetURL: "https://x.test/a"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	byURL, err := store.FindByTargetURL(ctx, "https://x.test/a")
	if err != nil || byURL.Code != "abc1234" {
		t.Fatalf("FindByTargetURL: got=%+v err=%v", byURL, err)
	}
	byCode, err := store.FindByCode(ctx, "abc1234")
	if err != nil || byCode.TargetURL != "https://x.test/a" {
		t.Fatalf("FindByCode: got=%+v err=%v", byCode, err)
	}
}

func TestShortLinks_NotFound(t *testing.T) {
	store := ShortLinks{DB: newTestDB(t, &domain.ShortLink{})}
	ctx := context.Background()

	if _, err := store.FindByCode(ctx, "zzzzzzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByCode: expected ErrNotFound, got %v", err)
	}
	if _, err := store.FindByTargetURL(ctx, "https://none"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByTargetURL: expected ErrNotFound, got %v", err)
	}
}

func TestShortLinks_Delete(t *testing.T) {
	store := ShortLinks{DB: newTestDB(t, &domain.ShortLink{})}
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.ShortLink{Code: "abc1234", TargetURL: "https://x.test/a"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Delete(ctx, "abc1234"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.FindByTargetURL(ctx, "https://x.test/a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "abc1234"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestShortLinks_InsertDuplicate(t *testing.T) {
	store := ShortLinks{DB: newTestDB(t, &domain.ShortLink{})}
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.ShortLink{Code: "abc1234", TargetURL: "https://x.test/a"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Same code, different URL.
	err := store.Insert(ctx, &domain.ShortLink{Code: "abc1234", TargetURL: "https://x.test/b"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("code collision: expected ErrDuplicate, got %v", err)
	}

	// Same URL, different code.
	err = store.Insert(ctx, &domain.ShortLink{Code: "xyz9876", TargetURL: "https://x.test/a"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("url collision: expected ErrDuplicate, got %v", err)
	}
}
