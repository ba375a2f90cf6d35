package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/order-notifier/internal/domain"
)

func TestGetOrder_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.Order{})
	_, err := GetOrder(context.Background(), db, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateOrder_AssignsID(t *testing.T) {
	db := newTestDB(t, &domain.Order{})
	o := &domain.Order{UserID: "u1", Platform: domain.PlatformLine}
	if err := CreateOrder(context.Background(), db, o); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.ID == "" {
		t.Fatalf("expected generated ID")
	}
	got, err := GetOrder(context.Background(), db, o.ID)
	if err != nil || got.UserID != "u1" {
		t.Fatalf("readback: got=%+v err=%v", got, err)
	}
}

func TestListOrdersInWindow_RangeAndSources(t *testing.T) {
	db := newTestDB(t, &domain.Order{})
	ctx := context.Background()

	bkk := time.FixedZone("ICT", 7*3600)
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, bkk)
	end := start.Add(24 * time.Hour)

	at := func(h int) *time.Time {
		v := start.Add(time.Duration(h) * time.Hour)
		return &v
	}
	before := start.Add(-time.Minute)

	seed := []*domain.Order{
		{ID: "o1", Platform: domain.PlatformLine, BotID: "b1", ExtractedAt: at(3)},
		{ID: "o2", Platform: domain.PlatformFacebook, BotID: "p1", ExtractedAt: at(1)},
		{ID: "o3", Platform: domain.PlatformLine, BotID: "b2", ExtractedAt: at(5)},
		{ID: "o4", Platform: domain.PlatformLine, BotID: "b1", ExtractedAt: &before},
		{ID: "o5", Platform: domain.PlatformLine, BotID: "b1", ExtractedAt: at(24)},
		{ID: "o6", Platform: domain.PlatformLine, BotID: "b1"},
	}
	for _, o := range seed {
		if err := CreateOrder(ctx, db, o); err != nil {
			t.Fatalf("seed %s: %v", o.ID, err)
		}
	}

	all, err := ListOrdersInWindow(ctx, db, start, end, nil)
	if err != nil {
		t.Fatalf("ListOrdersInWindow: %v", err)
	}
	if ids := orderIDs(all); !equalStrings(ids, []string{"o2", "o1", "o3"}) {
		t.Fatalf("all sources: got %v", ids)
	}

	some, err := ListOrdersInWindow(ctx, db, start, end, []domain.ChannelSource{
		{Platform: domain.PlatformLine, BotID: "b1"},
		{Platform: domain.PlatformFacebook, BotID: "p1"},
	})
	if err != nil {
		t.Fatalf("ListOrdersInWindow sources: %v", err)
	}
	if ids := orderIDs(some); !equalStrings(ids, []string{"o2", "o1"}) {
		t.Fatalf("restricted sources: got %v", ids)
	}

	none, err := ListOrdersInWindow(ctx, db, start, end, []domain.ChannelSource{})
	if err != nil || len(none) != 0 {
		t.Fatalf("empty sources should match nothing, got %v err=%v", orderIDs(none), err)
	}
}

func orderIDs(in []domain.Order) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		out = append(out, o.ID)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
