package subscriptions

import (
	"testing"
	"time"

	"greenkart/internal/dates"

	"github.com/stretchr/testify/assert"
)

var ist = dates.LoadZone("Asia/Kolkata")

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, ist)
}

func TestDueOnDaily(t *testing.T) {
	s := Subscription{Frequency: FrequencyDaily, StartDate: day(2024, time.January, 1)}

	assert.False(t, s.DueOn(day(2023, time.December, 31), ist), "before start")
	for d := 1; d <= 14; d++ {
		assert.True(t, s.DueOn(day(2024, time.January, d), ist), "day %d", d)
	}
}

func TestDueOnWeekend(t *testing.T) {
	// 2024-01-01 adalah Senin
	s := Subscription{Frequency: FrequencyWeekend, StartDate: day(2024, time.January, 1)}

	for d := 1; d <= 5; d++ {
		assert.False(t, s.DueOn(day(2024, time.January, d), ist), "weekday %d", d)
	}
	assert.True(t, s.DueOn(day(2024, time.January, 6), ist), "Saturday")
	assert.True(t, s.DueOn(day(2024, time.January, 7), ist), "Sunday")
}

func TestDueOnAlternate(t *testing.T) {
	s := Subscription{Frequency: FrequencyAlternate, StartDate: day(2024, time.January, 1)}

	due := []int{1, 3, 5, 7, 9}
	notDue := []int{2, 4, 6, 8, 10}
	for _, d := range due {
		assert.True(t, s.DueOn(day(2024, time.January, d), ist), "day %d", d)
	}
	for _, d := range notDue {
		assert.False(t, s.DueOn(day(2024, time.January, d), ist), "day %d", d)
	}
}

func TestDueOnAlternateAcrossDSTChange(t *testing.T) {
	// parity harus pakai hari kalender, bukan jam berlalu: lewat spring-forward
	// (2024-03-10 di America/New_York) selisihnya bukan kelipatan 24 jam lagi
	ny := dates.LoadZone("America/New_York")
	s := Subscription{Frequency: FrequencyAlternate, StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, ny)}

	// 2024-03-11 = hari ke-70 (genap), 2024-03-12 = hari ke-71 (ganjil)
	assert.True(t, s.DueOn(time.Date(2024, time.March, 11, 6, 0, 0, 0, ny), ny))
	assert.False(t, s.DueOn(time.Date(2024, time.March, 12, 6, 0, 0, 0, ny), ny))
}

func TestDueOnCustom(t *testing.T) {
	// 3 = Rabu
	s := Subscription{Frequency: FrequencyCustom, StartDate: day(2024, time.January, 1), CustomDays: []int{3}}

	assert.False(t, s.DueOn(day(2024, time.January, 1), ist))
	assert.True(t, s.DueOn(day(2024, time.January, 3), ist))
	assert.False(t, s.DueOn(day(2024, time.January, 6), ist))
	assert.True(t, s.DueOn(day(2024, time.January, 10), ist))
}

func TestDueOnCustomEmptyDays(t *testing.T) {
	s := Subscription{Frequency: FrequencyCustom, StartDate: day(2024, time.January, 1)}

	for d := 1; d <= 14; d++ {
		assert.False(t, s.DueOn(day(2024, time.January, d), ist), "day %d", d)
	}
}

func TestDueOnEndDateInclusive(t *testing.T) {
	end := day(2024, time.January, 5)
	s := Subscription{Frequency: FrequencyDaily, StartDate: day(2024, time.January, 1), EndDate: &end}

	assert.True(t, s.DueOn(day(2024, time.January, 5), ist), "still active on end date")
	assert.False(t, s.DueOn(day(2024, time.January, 6), ist), "lapsed after end date")
}

func TestDueOnUnknownFrequency(t *testing.T) {
	s := Subscription{Frequency: "FORTNIGHTLY", StartDate: day(2024, time.January, 1)}
	assert.False(t, s.DueOn(day(2024, time.January, 1), ist))
}

func TestDueOnIgnoresTimeOfDay(t *testing.T) {
	s := Subscription{Frequency: FrequencyWeekend, StartDate: day(2024, time.January, 1)}

	// evaluasi tengah hari tetap dihitung sebagai Sabtu
	sat := time.Date(2024, time.January, 6, 15, 4, 0, 0, ist)
	assert.True(t, s.DueOn(sat, ist))
}
