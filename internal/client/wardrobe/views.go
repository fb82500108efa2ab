package wardrobe

import (
	"sort"
	"time"

	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

const msPerDay = int64(24 * time.Hour / time.Millisecond)

// DaysSince returns the whole days elapsed from then to now, flooring the
// millisecond difference. A then in the future yields a negative count.
func DaysSince(now, then time.Time) int64 {
	delta := now.Sub(then).Milliseconds()
	days := delta / msPerDay
	if delta%msPerDay != 0 && delta < 0 {
		days--
	}
	return days
}

// Recommended filters items down to those never worn or whose cooldown has
// fully elapsed at now. Order is preserved.
func Recommended(items []models.ClothingItem, now time.Time) []models.ClothingItem {
	out := make([]models.ClothingItem, 0, len(items))
	for _, item := range items {
		if item.LastWorn == nil || DaysSince(now, *item.LastWorn) >= int64(item.CooldownDays) {
			out = append(out, item)
		}
	}
	return out
}

// Upcoming returns the events dated at or after now, sorted by date. Events
// sharing a date keep their stored order.
func Upcoming(events []models.Event, now time.Time) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if !e.Date.Before(now) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
