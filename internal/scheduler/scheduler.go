// Package scheduler runs order summaries for channels in scheduled delivery
// mode. Each channel lists daily "HH:MM" slots in its own timezone; at every
// slot the orders extracted since the previous slot are summarized and sent.
//
// Channel configuration is re-read periodically, so edits take effect
// without a restart. Fires run sequentially and are never retried; the
// outcome of each is recorded in the audit log by the delivery engine.
package scheduler

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/order-notifier/internal/domain"
	"github.com/tbourn/order-notifier/internal/notify"
	"github.com/tbourn/order-notifier/internal/repo"
	"github.com/tbourn/order-notifier/internal/services"
	"github.com/tbourn/order-notifier/internal/sysutil"
)

// SummarySender sends one summary for a channel and window.
type SummarySender interface {
	SendOrderSummary(ctx context.Context, ch domain.NotificationChannel, w services.SummaryWindow) (services.DeliveryResult, error)
}

// Config tunes the scheduler.
type Config struct {
	ReloadInterval  time.Duration
	DefaultTimezone string
}

type plan struct {
	loc     *time.Location
	slots   []Slot
	entries []cron.EntryID
}

// Service owns the cron runner and the per-channel slot entries.
type Service struct {
	db     *gorm.DB
	sender SummarySender
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	c     *cron.Cron
	plans map[string]*plan

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a stopped scheduler.
func New(db *gorm.DB, sender SummarySender, cfg Config) *Service {
	if cfg.ReloadInterval <= 0 {
		cfg.ReloadInterval = time.Minute
	}
	l := log.Logger.With().Str("component", "scheduler").Logger()
	return &Service{
		db:     db,
		sender: sender,
		cfg:    cfg,
		log:    l,
		now:    time.Now,
		plans:  map[string]*plan{},
		c: cron.New(
			cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)),
			cron.WithLocation(notify.LoadLocation(cfg.DefaultTimezone)),
			cron.WithChain(cron.Recover(cronLogger{l}), cron.SkipIfStillRunning(cronLogger{l})),
		),
	}
}

// Start loads the schedules, starts the cron runner and the reload loop.
// A failing first load is logged and retried on the next tick.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	if err := s.Reload(ctx); err != nil {
		s.log.Error().Err(err).Msg("initial schedule load")
	}
	s.c.Start()
	s.log.Info().Dur("reload", s.cfg.ReloadInterval).Msg("scheduler started")

	go func() {
		defer close(s.done)
		t := time.NewTicker(s.cfg.ReloadInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := s.Reload(ctx); err != nil {
					s.log.Warn().Err(err).Msg("schedule reload")
				}
			}
		}
	}()
}

// Stop halts the reload loop and waits for running fires, bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	select {
	case <-s.c.Stop().Done():
		s.log.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload syncs cron entries with the active scheduled channels subscribed to
// order summaries. Unchanged channels keep their entries.
func (s *Service) Reload(ctx context.Context) error {
	chans, err := repo.ListActiveChannels(ctx, s.db)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(chans))
	for _, ch := range chans {
		if !ch.IsScheduled() || !ch.Subscribes(domain.EventOrderSummary) {
			continue
		}
		slots, bad := ParseSlots(ch.SummaryTimes)
		for _, e := range bad {
			s.log.Warn().Str("channel_id", ch.ID).Err(e).Msg("ignoring summary slot")
		}
		if len(slots) == 0 {
			continue
		}
		seen[ch.ID] = struct{}{}
		loc := notify.LoadLocation(sysutil.FirstNonEmpty(ch.SummaryTimezone, s.cfg.DefaultTimezone))

		if p, ok := s.plans[ch.ID]; ok && p.loc.String() == loc.String() && slices.Equal(p.slots, slots) {
			continue
		}
		s.dropLocked(ch.ID)
		p := &plan{loc: loc, slots: slots}
		for _, slot := range slots {
			id, err := s.c.AddFunc(slot.spec(loc), s.job(ch.ID, slot))
			if err != nil {
				s.log.Warn().Str("channel_id", ch.ID).Str("slot", slot.String()).Err(err).Msg("schedule slot")
				continue
			}
			p.entries = append(p.entries, id)
		}
		s.plans[ch.ID] = p
		s.log.Info().Str("channel_id", ch.ID).Str("tz", loc.String()).Int("slots", len(p.entries)).Msg("channel scheduled")
	}

	for id := range s.plans {
		if _, ok := seen[id]; !ok {
			s.dropLocked(id)
			s.log.Info().Str("channel_id", id).Msg("channel unscheduled")
		}
	}
	return nil
}

func (s *Service) dropLocked(channelID string) {
	p, ok := s.plans[channelID]
	if !ok {
		return
	}
	for _, id := range p.entries {
		s.c.Remove(id)
	}
	delete(s.plans, channelID)
}

// Scheduled returns the channel ids that currently have cron entries.
func (s *Service) Scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.plans))
	for id := range s.plans {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s *Service) job(channelID string, slot Slot) func() {
	return func() {
		if _, err := s.Fire(context.Background(), channelID, slot); err != nil {
			s.log.Error().Str("channel_id", channelID).Str("slot", slot.String()).Err(err).Msg("scheduled summary")
		}
	}
}

// Fire runs the summary for one slot. The window ends at the latest
// occurrence of slot and starts at the channel's previous slot. The channel
// is re-read so a deactivated channel is caught by the engine.
func (s *Service) Fire(ctx context.Context, channelID string, slot Slot) (services.DeliveryResult, error) {
	ch, err := repo.GetChannel(ctx, s.db, channelID)
	if errors.Is(err, repo.ErrNotFound) {
		s.mu.Lock()
		s.dropLocked(channelID)
		s.mu.Unlock()
		return services.DeliveryResult{Error: services.CodeChannelNotFound}, nil
	}
	if err != nil {
		return services.DeliveryResult{}, err
	}

	loc := notify.LoadLocation(sysutil.FirstNonEmpty(ch.SummaryTimezone, s.cfg.DefaultTimezone))
	slots, _ := ParseSlots(ch.SummaryTimes)
	if len(slots) == 0 {
		slots = []Slot{slot}
	}
	end := LastOccurrence(slot, s.now(), loc)
	w := services.SummaryWindow{Start: PreviousSlot(slots, end), End: end}

	res, err := s.sender.SendOrderSummary(ctx, *ch, w)
	scheduledRuns.WithLabelValues(outcome(res, err)).Inc()
	if err != nil {
		return res, err
	}
	s.log.Info().
		Str("channel_id", channelID).
		Time("window_start", w.Start).
		Time("window_end", w.End).
		Bool("success", res.Success).
		Str("error", string(res.Error)).
		Int("sent", res.SentCount).
		Msg("scheduled summary")
	return res, nil
}

func outcome(res services.DeliveryResult, err error) string {
	switch {
	case err != nil:
		return "error"
	case res.Success:
		return "success"
	default:
		return "failed"
	}
}

// cronLogger routes cron's internal logging to zerolog.
type cronLogger struct{ l zerolog.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.l.Debug().Fields(kv).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Error().Err(err).Fields(kv).Msg(msg)
}
