package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Slot is a daily wall-clock time in a channel's timezone.
type Slot struct {
	Hour   int
	Minute int
}

func (s Slot) String() string { return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute) }

// spec returns the cron expression firing daily at s in loc.
func (s Slot) spec(loc *time.Location) string {
	return fmt.Sprintf("CRON_TZ=%s %d %d * * *", loc.String(), s.Minute, s.Hour)
}

func (s Slot) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.Hour, s.Minute, 0, 0, day.Location())
}

// ParseSlot parses "HH:MM" (24h). "7:05" is accepted.
func ParseSlot(v string) (Slot, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok {
		return Slot{}, fmt.Errorf("slot %q: want HH:MM", v)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return Slot{}, fmt.Errorf("slot %q: bad hour", v)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 || mm < 0 || mm > 59 {
		return Slot{}, fmt.Errorf("slot %q: bad minute", v)
	}
	return Slot{Hour: hh, Minute: mm}, nil
}

// ParseSlots parses, sorts and deduplicates slot strings. Invalid entries
// are returned separately so callers can report them.
func ParseSlots(vals []string) ([]Slot, []error) {
	seen := make(map[Slot]struct{}, len(vals))
	var (
		out  []Slot
		errs []error
	)
	for _, v := range vals {
		s, err := ParseSlot(v)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		return out[i].Minute < out[j].Minute
	})
	return out, errs
}

// LastOccurrence returns the latest time at or before now that falls on slot
// in loc.
func LastOccurrence(slot Slot, now time.Time, loc *time.Location) time.Time {
	t := slot.on(now.In(loc))
	if t.After(now) {
		t = slot.on(now.In(loc).AddDate(0, 0, -1))
	}
	return t
}

// PreviousSlot returns the latest slot occurrence strictly before end. With
// a single slot this is the same time one day earlier.
func PreviousSlot(slots []Slot, end time.Time) time.Time {
	var best time.Time
	today := end
	yesterday := end.AddDate(0, 0, -1)
	for _, s := range slots {
		for _, day := range [...]time.Time{today, yesterday} {
			t := s.on(day)
			if t.Before(end) && t.After(best) {
				best = t
			}
		}
	}
	if best.IsZero() {
		return end.AddDate(0, 0, -1)
	}
	return best
}
