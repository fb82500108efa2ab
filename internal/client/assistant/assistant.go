// Package assistant builds the AI features of the wardrobe on top of the
// gateway: virtual try-on, garment analysis, outfit suggestions and the
// shopping chat.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/WardrobeKeeper/internal/client/gateway"
	"github.com/atinyakov/WardrobeKeeper/internal/client/wardrobe"
	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

var (
	// ErrNoProfileImage is returned by TryOn when the profile has no photo.
	ErrNoProfileImage = errors.New("assistant: profile image required")
	// ErrNoClothing is returned by TryOn when none of the ids resolve.
	ErrNoClothing = errors.New("assistant: no clothing selected")
)

// ImageEncoder turns image references into inline data for the gateway.
type ImageEncoder interface {
	EncodeImages(ctx context.Context, refs []string) ([]models.InlineImage, error)
}

// Assistant combines the wardrobe with a text generator.
type Assistant struct {
	wardrobe *wardrobe.Wardrobe
	gen      gateway.Generator
	images   ImageEncoder
	log      *zap.Logger
}

// New returns an Assistant. gateway.Client satisfies both gen and images.
func New(w *wardrobe.Wardrobe, gen gateway.Generator, images ImageEncoder, log *zap.Logger) *Assistant {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assistant{wardrobe: w, gen: gen, images: images, log: log}
}

// TryOn describes how the selected items would look on the profile photo.
// Ids that no longer resolve are skipped.
func (a *Assistant) TryOn(ctx context.Context, clothingIDs []string) (string, error) {
	profile := a.wardrobe.Profile(ctx)
	if profile.ProfileImage == "" {
		return "", ErrNoProfileImage
	}

	refs := []string{profile.ProfileImage}
	for _, id := range clothingIDs {
		item, ok := a.wardrobe.ClothingByID(ctx, id)
		if !ok || item.ImageURL == "" {
			continue
		}
		refs = append(refs, item.ImageURL)
	}
	if len(refs) == 1 {
		return "", ErrNoClothing
	}

	images, err := a.images.EncodeImages(ctx, refs)
	if err != nil {
		return "", fmt.Errorf("encode try-on images: %w", err)
	}
	return a.gen.Generate(ctx, tryOnPrompt, images)
}

// AnalyzeClothing asks the model to categorise the garment in imageRef.
// A reply that does not match the expected shape reports ok=false with a
// nil error.
func (a *Assistant) AnalyzeClothing(ctx context.Context, imageRef string) (gateway.ClothingAnalysis, bool, error) {
	images, err := a.images.EncodeImages(ctx, []string{imageRef})
	if err != nil {
		return gateway.ClothingAnalysis{}, false, fmt.Errorf("encode image: %w", err)
	}
	text, err := a.gen.Generate(ctx, analyzePrompt, images)
	if err != nil {
		return gateway.ClothingAnalysis{}, false, err
	}
	analysis, ok := gateway.Decode[gateway.ClothingAnalysis](text)
	if !ok {
		a.log.Debug("discarding malformed clothing analysis")
	}
	return analysis, ok, nil
}

// Outfit is a suggestion resolved against the wardrobe.
type Outfit struct {
	Name  string
	Items []models.ClothingItem
	Tip   string
}

// SuggestOutfits proposes outfits for occasion from the items that are out of
// cooldown. Malformed replies yield no suggestions; indices outside the list
// sent to the model are dropped.
func (a *Assistant) SuggestOutfits(ctx context.Context, occasion string) ([]Outfit, error) {
	items := a.wardrobe.RecommendedOutfits(ctx)
	if len(items) == 0 {
		return nil, nil
	}

	text, err := a.gen.Generate(ctx, suggestPrompt(occasion, items), nil)
	if err != nil {
		return nil, err
	}
	suggestions, ok := gateway.Decode[gateway.OutfitSuggestions](text)
	if !ok {
		a.log.Debug("discarding malformed outfit suggestions")
		return nil, nil
	}

	var out []Outfit
	for _, s := range suggestions {
		outfit := Outfit{Name: s.Name, Tip: s.Tip}
		for _, i := range s.Items {
			if i < len(items) {
				outfit.Items = append(outfit.Items, items[i])
			}
		}
		if len(outfit.Items) > 0 {
			out = append(out, outfit)
		}
	}
	return out, nil
}
