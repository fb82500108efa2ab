package wardrobe

import (
	"context"

	"github.com/atinyakov/WardrobeKeeper/internal/client/storage"
	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

// Events returns every event in insertion order, past ones included.
func (w *Wardrobe) Events(ctx context.Context) []models.Event {
	return storage.Read(ctx, w.store, EventsKey, []models.Event{})
}

// EventByID looks up a single event.
func (w *Wardrobe) EventByID(ctx context.Context, id string) (models.Event, bool) {
	for _, e := range w.Events(ctx) {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

// AddEvent stores a new event at the end of the list and returns it.
func (w *Wardrobe) AddEvent(ctx context.Context, ne models.NewEvent) models.Event {
	e := models.Event{
		ID:        w.newID(),
		Name:      ne.Name,
		Date:      ne.Date,
		Type:      ne.Type,
		OutfitIDs: dedupe(ne.OutfitIDs),
	}
	storage.Update(ctx, w.store, EventsKey, []models.Event{},
		func(events []models.Event) ([]models.Event, bool) {
			return append(events, e), true
		})
	return e
}

// RemoveEvent deletes the event with id. Unknown ids are ignored.
func (w *Wardrobe) RemoveEvent(ctx context.Context, id string) {
	storage.Update(ctx, w.store, EventsKey, []models.Event{},
		func(events []models.Event) ([]models.Event, bool) {
			kept := events[:0]
			for _, e := range events {
				if e.ID != id {
					kept = append(kept, e)
				}
			}
			return kept, len(kept) != len(events)
		})
}

// UpdateEvent merges patch into the event with id. Replacing the outfit
// also drops any legacy single reference so only outfitIds remains.
func (w *Wardrobe) UpdateEvent(ctx context.Context, id string, patch models.EventPatch) (models.Event, bool) {
	var updated models.Event
	_, ok := storage.Update(ctx, w.store, EventsKey, []models.Event{},
		func(events []models.Event) ([]models.Event, bool) {
			for i := range events {
				if events[i].ID != id {
					continue
				}
				e := patch.Apply(events[i])
				if patch.OutfitIDs != nil {
					e.OutfitIDs = dedupe(e.OutfitIDs)
					e.LegacyOutfitID = ""
				}
				events[i] = e
				updated = e
				return events, true
			}
			return events, false
		})
	return updated, ok
}

// UpcomingEvents returns the events dated now or later, earliest first.
func (w *Wardrobe) UpcomingEvents(ctx context.Context) []models.Event {
	return Upcoming(w.Events(ctx), w.now())
}

// PlannedOutfit resolves the clothing planned for e. References to removed
// items are skipped.
func (w *Wardrobe) PlannedOutfit(ctx context.Context, e models.Event) []models.ClothingItem {
	byID := make(map[string]models.ClothingItem)
	for _, item := range w.Clothes(ctx) {
		byID[item.ID] = item
	}
	var out []models.ClothingItem
	for _, id := range OutfitRefs(e) {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

// OutfitRefs returns the clothing ids referenced by e, the legacy single
// reference first, without duplicates.
func OutfitRefs(e models.Event) []string {
	refs := make([]string, 0, len(e.OutfitIDs)+1)
	if e.LegacyOutfitID != "" {
		refs = append(refs, e.LegacyOutfitID)
	}
	return dedupe(append(refs, e.OutfitIDs...))
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
