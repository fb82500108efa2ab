// Package models defines the core data structures shared by the wardrobe
// client and the AI gateway proxy.
package models

import (
	"fmt"
	"time"
)

// DefaultCooldownDays is applied to clothing items added without a cooldown.
const DefaultCooldownDays = 5

// Category defines the set of valid clothing categories.
type Category string

const (
	// Tops covers shirts, kameez and blouses.
	Tops Category = "tops"
	// Bottoms covers trousers, shalwar and skirts.
	Bottoms Category = "bottoms"
	// Suits covers matched sets.
	Suits Category = "suits"
	// Dresses covers one-piece garments.
	Dresses Category = "dresses"
	// Outerwear covers jackets, shawls and coats.
	Outerwear Category = "outerwear"
	// Shoes covers all footwear.
	Shoes Category = "shoes"
	// Accessories covers dupattas, jewellery, bags and the like.
	Accessories Category = "accessories"
)

// Categories lists every valid category in display order.
var Categories = []Category{Tops, Bottoms, Suits, Dresses, Outerwear, Shoes, Accessories}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts s into a Category, rejecting unknown values.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// ClothingItem is a single garment in the wardrobe.
type ClothingItem struct {
	// ID is the unique identifier for the item.
	ID string `json:"id"`
	// Name is the user-facing label.
	Name string `json:"name"`
	// Category is one of Categories.
	Category Category `json:"category"`
	// ImageURL is a data URI or a remote URL, passed through opaquely.
	ImageURL string `json:"imageUrl"`
	// Color is an optional free-text colour.
	Color string `json:"color,omitempty"`
	// LastWorn is set by the wear-marking operation only.
	LastWorn *time.Time `json:"lastWorn,omitempty"`
	// WearCount starts at 0 and only grows.
	WearCount int `json:"wearCount"`
	// CooldownDays is the minimum number of whole days between recommendations.
	CooldownDays int `json:"cooldownDays"`
	// CreatedAt is stamped once at creation.
	CreatedAt time.Time `json:"createdAt"`
}

// NewClothing carries the caller-supplied fields of a clothing item.
type NewClothing struct {
	Name         string
	Category     Category
	ImageURL     string
	Color        string
	CooldownDays int
}

// ClothingPatch is a partial update. Nil fields are left untouched.
// WearCount, LastWorn, ID and CreatedAt are deliberately absent.
type ClothingPatch struct {
	Name         *string
	Category     *Category
	ImageURL     *string
	Color        *string
	CooldownDays *int
}

// Apply merges the non-nil fields of p into item.
func (p ClothingPatch) Apply(item ClothingItem) ClothingItem {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.ImageURL != nil {
		item.ImageURL = *p.ImageURL
	}
	if p.Color != nil {
		item.Color = *p.Color
	}
	if p.CooldownDays != nil && *p.CooldownDays > 0 {
		item.CooldownDays = *p.CooldownDays
	}
	return item
}

// WearHistory is an append-only record of a garment being worn.
type WearHistory struct {
	ID         string    `json:"id"`
	ClothingID string    `json:"clothingId"`
	WornDate   time.Time `json:"wornDate"`
	EventType  string    `json:"eventType,omitempty"`
}

// EventType defines the set of valid calendar event kinds.
type EventType string

const (
	Casual   EventType = "casual"
	Formal   EventType = "formal"
	Business EventType = "business"
	Party    EventType = "party"
	Outdoor  EventType = "outdoor"
	Other    EventType = "other"
)

// EventTypes lists every valid event type.
var EventTypes = []EventType{Casual, Formal, Business, Party, Outdoor, Other}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseEventType converts s into an EventType, rejecting unknown values.
func ParseEventType(s string) (EventType, error) {
	t := EventType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return t, nil
}

// Event is a calendar entry with an optional planned outfit.
type Event struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Date time.Time `json:"date"`
	Type EventType `json:"type"`
	// OutfitIDs references clothing items; references may dangle.
	OutfitIDs []string `json:"outfitIds,omitempty"`
	// LegacyOutfitID is only read from documents written before the
	// outfitIds migration. It is empty after Migrate has run.
	LegacyOutfitID string `json:"outfitId,omitempty"`
}

// NewEvent carries the caller-supplied fields of an event.
type NewEvent struct {
	Name      string
	Date      time.Time
	Type      EventType
	OutfitIDs []string
}

// EventPatch is a partial update. Nil fields are left untouched.
type EventPatch struct {
	Name      *string
	Date      *time.Time
	Type      *EventType
	OutfitIDs *[]string
}

// Apply merges the non-nil fields of p into e.
func (p EventPatch) Apply(e Event) Event {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.OutfitIDs != nil {
		e.OutfitIDs = append([]string(nil), (*p.OutfitIDs)...)
	}
	return e
}

// UserProfile is the singleton description of the wardrobe owner.
type UserProfile struct {
	// ProfileImage is used as the "self" image for try-on prompts.
	ProfileImage string `json:"profileImage,omitempty"`
	Name         string `json:"name,omitempty"`
}
