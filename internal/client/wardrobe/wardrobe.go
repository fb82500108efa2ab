// Package wardrobe implements the typed wardrobe operations on top of the
// storage layer: clothing, wear history, events and the owner profile, each
// kept as an independent document.
package wardrobe

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/WardrobeKeeper/internal/client/storage"
	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

// Storage keys of the wardrobe documents.
const (
	ClothesKey = "wardrobe-clothes"
	HistoryKey = "wardrobe-history"
	EventsKey  = "wardrobe-events"
	ProfileKey = "wardrobe-profile"
	SchemaKey  = "wardrobe-schema"
)

// Option configures a Wardrobe.
type Option func(*Wardrobe)

// WithClock replaces the wall clock used for timestamps and derived views.
func WithClock(now func() time.Time) Option {
	return func(w *Wardrobe) { w.now = now }
}

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(w *Wardrobe) { w.newID = newID }
}

// Wardrobe is the owner's collection. It holds no state of its own; every
// call goes through the Store so concurrent views stay consistent.
type Wardrobe struct {
	store *storage.Store
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// New returns a Wardrobe over store.
func New(store *storage.Store, log *zap.Logger, opts ...Option) *Wardrobe {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Wardrobe{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Clothes returns every item in insertion order.
func (w *Wardrobe) Clothes(ctx context.Context) []models.ClothingItem {
	return storage.Read(ctx, w.store, ClothesKey, []models.ClothingItem{})
}

// ClothingByID looks up a single item. Removed ids resolve to false.
func (w *Wardrobe) ClothingByID(ctx context.Context, id string) (models.ClothingItem, bool) {
	for _, item := range w.Clothes(ctx) {
		if item.ID == id {
			return item, true
		}
	}
	return models.ClothingItem{}, false
}

// ClothingByCategory returns the items of one category in insertion order.
func (w *Wardrobe) ClothingByCategory(ctx context.Context, c models.Category) []models.ClothingItem {
	var out []models.ClothingItem
	for _, item := range w.Clothes(ctx) {
		if item.Category == c {
			out = append(out, item)
		}
	}
	return out
}

// AddClothing stores a new item at the end of the collection and returns it.
// Duplicate names are allowed.
func (w *Wardrobe) AddClothing(ctx context.Context, nc models.NewClothing) models.ClothingItem {
	item := models.ClothingItem{
		ID:           w.newID(),
		Name:         nc.Name,
		Category:     nc.Category,
		ImageURL:     nc.ImageURL,
		Color:        nc.Color,
		WearCount:    0,
		CooldownDays: nc.CooldownDays,
		CreatedAt:    w.now(),
	}
	if item.CooldownDays <= 0 {
		item.CooldownDays = models.DefaultCooldownDays
	}

	storage.Update(ctx, w.store, ClothesKey, []models.ClothingItem{},
		func(items []models.ClothingItem) ([]models.ClothingItem, bool) {
			return append(items, item), true
		})
	return item
}

// RemoveClothing deletes the item with id. History rows and event references
// to it are left in place. Unknown ids are ignored.
func (w *Wardrobe) RemoveClothing(ctx context.Context, id string) {
	storage.Update(ctx, w.store, ClothesKey, []models.ClothingItem{},
		func(items []models.ClothingItem) ([]models.ClothingItem, bool) {
			kept := items[:0]
			for _, item := range items {
				if item.ID != id {
					kept = append(kept, item)
				}
			}
			return kept, len(kept) != len(items)
		})
}

// UpdateClothing merges patch into the item with id. It reports false when
// no such item exists.
func (w *Wardrobe) UpdateClothing(ctx context.Context, id string, patch models.ClothingPatch) (models.ClothingItem, bool) {
	var updated models.ClothingItem
	_, ok := storage.Update(ctx, w.store, ClothesKey, []models.ClothingItem{},
		func(items []models.ClothingItem) ([]models.ClothingItem, bool) {
			for i := range items {
				if items[i].ID == id {
					items[i] = patch.Apply(items[i])
					updated = items[i]
					return items, true
				}
			}
			return items, false
		})
	return updated, ok
}

// MarkAsWorn records that the item was worn now: it bumps the wear count,
// moves lastWorn forward and appends a history row with the same timestamp.
// Unknown ids are rejected without writing anything.
func (w *Wardrobe) MarkAsWorn(ctx context.Context, clothingID, eventType string) (models.WearHistory, bool) {
	now := w.now()

	_, ok := storage.Update(ctx, w.store, ClothesKey, []models.ClothingItem{},
		func(items []models.ClothingItem) ([]models.ClothingItem, bool) {
			for i := range items {
				if items[i].ID != clothingID {
					continue
				}
				if items[i].LastWorn == nil || now.After(*items[i].LastWorn) {
					worn := now
					items[i].LastWorn = &worn
				}
				items[i].WearCount++
				return items, true
			}
			return items, false
		})
	if !ok {
		w.log.Info("mark as worn rejected: unknown clothing item", zap.String("clothing_id", clothingID))
		return models.WearHistory{}, false
	}

	entry := models.WearHistory{
		ID:         w.newID(),
		ClothingID: clothingID,
		WornDate:   now,
		EventType:  eventType,
	}
	storage.Update(ctx, w.store, HistoryKey, []models.WearHistory{},
		func(rows []models.WearHistory) ([]models.WearHistory, bool) {
			return append(rows, entry), true
		})
	return entry, true
}

// WearHistory returns every wear record in the order they were made.
func (w *Wardrobe) WearHistory(ctx context.Context) []models.WearHistory {
	return storage.Read(ctx, w.store, HistoryKey, []models.WearHistory{})
}

// HistoryFor returns the wear records of one item, including records of
// items that have since been removed.
func (w *Wardrobe) HistoryFor(ctx context.Context, clothingID string) []models.WearHistory {
	var out []models.WearHistory
	for _, h := range w.WearHistory(ctx) {
		if h.ClothingID == clothingID {
			out = append(out, h)
		}
	}
	return out
}

// RecommendedOutfits returns the items whose cooldown has elapsed.
func (w *Wardrobe) RecommendedOutfits(ctx context.Context) []models.ClothingItem {
	return Recommended(w.Clothes(ctx), w.now())
}

// Profile returns the owner profile, empty when none was saved.
func (w *Wardrobe) Profile(ctx context.Context) models.UserProfile {
	return storage.Read(ctx, w.store, ProfileKey, models.UserProfile{})
}

// SetProfile replaces the owner profile wholesale.
func (w *Wardrobe) SetProfile(ctx context.Context, p models.UserProfile) {
	w.store.Write(ctx, ProfileKey, p)
}

// OnClothesChange calls fn with the new collection after every persisted
// change. The returned function cancels the subscription.
func (w *Wardrobe) OnClothesChange(fn func([]models.ClothingItem)) func() {
	return storage.Watch(w.store, ClothesKey, []models.ClothingItem{}, fn)
}

// OnEventsChange calls fn with the new event list after every persisted change.
func (w *Wardrobe) OnEventsChange(fn func([]models.Event)) func() {
	return storage.Watch(w.store, EventsKey, []models.Event{}, fn)
}
