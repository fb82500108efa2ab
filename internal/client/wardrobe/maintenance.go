package wardrobe

import (
	"context"

	"go.uber.org/zap"

	"github.com/atinyakov/WardrobeKeeper/internal/client/storage"
	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

// SchemaVersion is the layout written by this package. Version 1 keeps
// planned outfits in outfitIds only.
const SchemaVersion = 1

// Migrate upgrades stored documents to SchemaVersion. It folds the legacy
// single outfitId of every event into outfitIds and records the version, so
// it does its work at most once per store. It reports whether it ran.
func (w *Wardrobe) Migrate(ctx context.Context) bool {
	if storage.Read(ctx, w.store, SchemaKey, 0) >= SchemaVersion {
		return false
	}

	var folded int
	storage.Update(ctx, w.store, EventsKey, []models.Event{},
		func(events []models.Event) ([]models.Event, bool) {
			folded = 0
			for i := range events {
				if events[i].LegacyOutfitID == "" {
					continue
				}
				events[i].OutfitIDs = OutfitRefs(events[i])
				events[i].LegacyOutfitID = ""
				folded++
			}
			return events, folded > 0
		})
	w.store.Write(ctx, SchemaKey, SchemaVersion)

	w.log.Info("wardrobe schema migrated",
		zap.Int("version", SchemaVersion), zap.Int("events_folded", folded))
	return true
}

// Reset removes clothing, history, events and profile. It is the only
// operation that deletes wear history.
func (w *Wardrobe) Reset(ctx context.Context) {
	for _, key := range []string{ClothesKey, HistoryKey, EventsKey, ProfileKey} {
		w.store.Remove(ctx, key)
	}
}

// Seed appends the sample wardrobe and installs the sample profile. Unless
// force is set it does nothing when clothing already exists. It returns the
// number of items added.
func (w *Wardrobe) Seed(ctx context.Context, force bool) int {
	now := w.now()
	added := 0
	storage.Update(ctx, w.store, ClothesKey, []models.ClothingItem{},
		func(items []models.ClothingItem) ([]models.ClothingItem, bool) {
			added = 0
			if len(items) > 0 && !force {
				return items, false
			}
			for _, s := range sampleClothing {
				items = append(items, models.ClothingItem{
					ID:           w.newID(),
					Name:         s.Name,
					Category:     s.Category,
					ImageURL:     s.ImageURL,
					Color:        s.Color,
					CooldownDays: s.CooldownDays,
					CreatedAt:    now,
				})
				added++
			}
			return items, true
		})
	if added > 0 {
		w.SetProfile(ctx, sampleProfile)
	}
	return added
}

var sampleProfile = models.UserProfile{
	ProfileImage: "https://images.unsplash.com/photo-1616683693504-3b9c563564c0?w=800&q=80",
	Name:         "Aisha",
}

var sampleClothing = []models.NewClothing{
	{Name: "Emerald Green Shalwar Kameez", Category: models.Suits, Color: "Emerald Green", CooldownDays: 5,
		ImageURL: "https://images.unsplash.com/photo-1610030469983-98e550d6193c?w=800&q=80"},
	{Name: "Maroon Velvet Kameez", Category: models.Tops, Color: "Maroon", CooldownDays: 4,
		ImageURL: "https://images.unsplash.com/photo-1583391733956-3750e0ff4e8b?w=800&q=80"},
	{Name: "Royal Blue Embroidered Kameez", Category: models.Tops, Color: "Royal Blue", CooldownDays: 5,
		ImageURL: "https://images.unsplash.com/photo-1585487000160-6ebcfceb0d03?w=800&q=80"},
	{Name: "Beige Cotton Shalwar", Category: models.Bottoms, Color: "Beige", CooldownDays: 3,
		ImageURL: "https://images.unsplash.com/photo-1594633313593-bab3825d0caf?w=800&q=80"},
	{Name: "White Churidar", Category: models.Bottoms, Color: "White", CooldownDays: 3,
		ImageURL: "https://images.unsplash.com/photo-1565084888279-aca607ecce0c?w=800&q=80"},
	{Name: "Pink Silk Dupatta", Category: models.Accessories, Color: "Pink", CooldownDays: 2,
		ImageURL: "https://images.unsplash.com/photo-1602810318383-e386cc2a3ccf?w=800&q=80"},
	{Name: "Gold Embroidered Dupatta", Category: models.Accessories, Color: "Gold", CooldownDays: 3,
		ImageURL: "https://images.unsplash.com/photo-1617038260897-41a1f14a8ca0?w=800&q=80"},
	{Name: "Peach Anarkali Dress", Category: models.Dresses, Color: "Peach", CooldownDays: 7,
		ImageURL: "https://images.unsplash.com/photo-1583391733981-e8c2e6b0f6e3?w=800&q=80"},
	{Name: "Red Bridal Lehenga", Category: models.Dresses, Color: "Red", CooldownDays: 10,
		ImageURL: "https://images.unsplash.com/photo-1610030469667-7e1c88283e6e?w=800&q=80"},
	{Name: "Black Embroidered Shawl", Category: models.Outerwear, Color: "Black", CooldownDays: 5,
		ImageURL: "https://images.unsplash.com/photo-1591047139829-d91aecb6caea?w=800&q=80"},
	{Name: "Cream Pashmina Shawl", Category: models.Outerwear, Color: "Cream", CooldownDays: 4,
		ImageURL: "https://images.unsplash.com/photo-1539533018447-63fcce2678e3?w=800&q=80"},
	{Name: "Silver Khussas", Category: models.Shoes, Color: "Silver", CooldownDays: 3,
		ImageURL: "https://images.unsplash.com/photo-1543163521-1bf539c55dd2?w=800&q=80"},
}
