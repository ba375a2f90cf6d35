package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/order-notifier/internal/domain"
)

func TestListImageCandidates(t *testing.T) {
	db := newTestDB(t, &domain.ChatMessage{})
	ctx := context.Background()

	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.FixedZone("ICT", 7*3600))
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }
	oid := "ord-1"
	other := "ord-2"

	rows := []domain.ChatMessage{
		{ID: "m1", SenderID: "u1", Role: "user", Timestamp: at(10)},                  // day, unlinked
		{ID: "m2", SenderID: "u1", Role: "user", Timestamp: at(-30), OrderID: &oid},  // linked, other day
		{ID: "m3", SenderID: "u1", Role: "user", Timestamp: at(12), OrderID: &other}, // linked elsewhere
		{ID: "m4", SenderID: "u1", Role: "assistant", Timestamp: at(11)},             // wrong role
		{ID: "m5", SenderID: "u2", Role: "user", Timestamp: at(9)},                   // other sender
		{ID: "m6", SenderID: "u1", Role: "user", Timestamp: at(25)},                  // next day
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed %s: %v", rows[i].ID, err)
		}
	}

	q := ImageQuery{SenderID: "u1", OrderID: oid, DayStart: day, DayEnd: day.Add(24 * time.Hour)}
	got, err := ListImageCandidates(ctx, db, q)
	if err != nil {
		t.Fatalf("ListImageCandidates: %v", err)
	}
	if len(got) != 2 || got[0].ID != "m2" || got[1].ID != "m1" {
		t.Fatalf("with order id: unexpected rows %+v", got)
	}

	q.OrderID = ""
	got, err = ListImageCandidates(ctx, db, q)
	if err != nil {
		t.Fatalf("ListImageCandidates: %v", err)
	}
	if len(got) != 2 || got[0].ID != "m1" || got[1].ID != "m3" {
		t.Fatalf("day only: unexpected rows %+v", got)
	}
}

func TestGetChatMessage(t *testing.T) {
	db := newTestDB(t, &domain.ChatMessage{})
	ctx := context.Background()

	if err := db.Create(&domain.ChatMessage{ID: "m1", SenderID: "u1", Role: "user", Content: "hi"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := GetChatMessage(ctx, db, "m1")
	if err != nil || got.Content != "hi" {
		t.Fatalf("GetChatMessage: got=%+v err=%v", got, err)
	}
	if _, err := GetChatMessage(ctx, db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
