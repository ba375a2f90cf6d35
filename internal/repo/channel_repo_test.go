package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/order-notifier/internal/domain"
)

func TestListActiveChannels_FiltersAndOrders(t *testing.T) {
	db := newTestDB(t, &domain.NotificationChannel{})
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, ch := range []*domain.NotificationChannel{
		{ID: "c-late", IsActive: true},
		{ID: "c-off", IsActive: false},
		{ID: "c-early", IsActive: true},
	} {
		ch.CreatedAt = base.Add(time.Duration(3-i) * time.Hour)
		if err := CreateChannel(ctx, db, ch); err != nil {
			t.Fatalf("seed %s: %v", ch.ID, err)
		}
	}

	got, err := ListActiveChannels(ctx, db)
	if err != nil {
		t.Fatalf("ListActiveChannels: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c-early" || got[1].ID != "c-late" {
		t.Fatalf("unexpected channels: %+v", got)
	}
}

func TestChannelRoundTrip_JSONColumns(t *testing.T) {
	db := newTestDB(t, &domain.NotificationChannel{})
	ctx := context.Background()

	off := false
	ch := &domain.NotificationChannel{
		IsActive:     true,
		EventTypes:   []domain.EventType{domain.EventNewOrder, domain.EventOrderSummary},
		Sources:      []domain.ChannelSource{{Platform: domain.PlatformFacebook, BotID: "p1"}},
		Settings:     domain.ChannelSettings{IncludeAddress: &off},
		SummaryTimes: []string{"09:00", "18:30"},
	}
	if err := CreateChannel(ctx, db, ch); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	got, err := GetChannel(ctx, db, ch.ID)
	if err != nil {
		t.Fatalf("GetChannel: %v", err)
	}
	if !got.Subscribes(domain.EventOrderSummary) || len(got.Sources) != 1 || got.Sources[0].BotID != "p1" {
		t.Fatalf("json columns not restored: %+v", got)
	}
	if got.Settings.Resolve().Address || len(got.SummaryTimes) != 2 {
		t.Fatalf("settings/times not restored: %+v", got)
	}
}

func TestGetChannel_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.NotificationChannel{})
	if _, err := GetChannel(context.Background(), db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSenderBot_CreateGet(t *testing.T) {
	db := newTestDB(t, &domain.SenderBot{})
	ctx := context.Background()

	b := &domain.SenderBot{Platform: domain.BotTelegram, ChannelAccessToken: "tok"}
	if err := CreateSenderBot(ctx, db, b); err != nil {
		t.Fatalf("CreateSenderBot: %v", err)
	}
	got, err := GetSenderBot(ctx, db, b.ID)
	if err != nil || got.ChannelAccessToken != "tok" || got.Platform != domain.BotTelegram {
		t.Fatalf("readback: got=%+v err=%v", got, err)
	}
	if _, err := GetSenderBot(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
