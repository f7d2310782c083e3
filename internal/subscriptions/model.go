package subscriptions

import (
	"time"

	"greenkart/internal/dates"
)

type Frequency string

const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekend   Frequency = "WEEKEND"
	FrequencyAlternate Frequency = "ALTERNATE"
	FrequencyCustom    Frequency = "CUSTOM"
)

type Item struct {
	ProductID string
	Qty       int
}

type Subscription struct {
	ID           string
	CustomerID   string
	PlanName     string
	Items        []Item
	Frequency    Frequency
	Area         string
	DeliverySlot string
	StartDate    time.Time
	EndDate      *time.Time // inclusive; nil = open-ended
	CustomDays   []int      // 0=Sunday..6=Saturday, CUSTOM only
	IsActive     bool
	Notes        string
	CreatedAt    time.Time
}

// DueOn reports whether a delivery is due on d. The caller supplies d
// ("today" in production, an injected date in tests and backfills).
func (s Subscription) DueOn(d time.Time, loc *time.Location) bool {
	day := dates.StartOfDay(d, loc)
	if s.EndDate != nil && dates.StartOfDay(*s.EndDate, loc).Before(day) {
		return false // sudah lewat endDate
	}
	start := dates.StartOfDay(s.StartDate, loc)
	if start.After(day) {
		return false // belum mulai
	}

	switch s.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekend:
		wd := day.Weekday()
		return wd == time.Saturday || wd == time.Sunday
	case FrequencyAlternate:
		// hari ke-0 (start) due, lalu selang-seling
		return dates.DaysBetween(start, day, loc)%2 == 0
	case FrequencyCustom:
		for _, cd := range s.CustomDays {
			if int(day.Weekday()) == cd {
				return true
			}
		}
		return false
	}
	return false // frequency tidak dikenal -> no-op
}
