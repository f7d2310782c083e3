package dates

import "time"

// DefaultZone is the delivery timezone; all calendar math (due-date
// evaluation, delivery-date keys) happens in this zone, matching the
// scheduled trigger.
const DefaultZone = "Asia/Kolkata"

func LoadZone(name string) *time.Location {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DeliveryDate formats t's local midnight as the canonical delivery-date
// string stored on orders and used as the idempotency key.
func DeliveryDate(t time.Time, loc *time.Location) string {
	return StartOfDay(t, loc).Format(time.RFC3339)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Dihitung dari tanggal kalender, bukan durasi jam, jadi aman lintas DST.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}
