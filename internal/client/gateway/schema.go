package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

// Shape is a structured reply the model was asked to produce.
type Shape interface {
	Validate() error
}

// ClothingAnalysis is the model's reading of a garment photo.
type ClothingAnalysis struct {
	Category models.Category `json:"category"`
	Name     string          `json:"name"`
	Color    string          `json:"color,omitempty"`
}

func (a ClothingAnalysis) Validate() error {
	if !a.Category.Valid() {
		return fmt.Errorf("category %q not allowed", a.Category)
	}
	if n := utf8.RuneCountInString(a.Name); n < 1 || n > 100 {
		return errors.New("name must be 1-100 characters")
	}
	if utf8.RuneCountInString(a.Color) > 50 {
		return errors.New("color longer than 50 characters")
	}
	return nil
}

// OutfitSuggestion names an outfit made of wardrobe items, referenced by
// their position in the list sent with the prompt.
type OutfitSuggestion struct {
	Name  string `json:"name"`
	Items []int  `json:"items"`
	Tip   string `json:"tip,omitempty"`
}

func (s OutfitSuggestion) Validate() error {
	if n := utf8.RuneCountInString(s.Name); n < 1 || n > 100 {
		return errors.New("name must be 1-100 characters")
	}
	if s.Items == nil {
		return errors.New("items missing")
	}
	for _, i := range s.Items {
		if i < 0 {
			return fmt.Errorf("negative item index %d", i)
		}
	}
	if utf8.RuneCountInString(s.Tip) > 500 {
		return errors.New("tip longer than 500 characters")
	}
	return nil
}

// OutfitSuggestions is the list form the model replies with.
type OutfitSuggestions []OutfitSuggestion

func (ss OutfitSuggestions) Validate() error {
	if ss == nil {
		return errors.New("not an array")
	}
	for i, s := range ss {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("suggestion %d: %w", i, err)
		}
	}
	return nil
}

// ExtractJSON returns the first complete JSON object or array embedded in
// text, skipping prose and markdown fences around it.
func ExtractJSON(text string) (json.RawMessage, bool) {
	var found json.RawMessage
	eachJSON(text, func(raw json.RawMessage) bool {
		found = raw
		return false
	})
	return found, found != nil
}

// Decode finds the first JSON value in text that decodes into T and passes
// its validation. A reply with no such value reports false.
func Decode[T Shape](text string) (T, bool) {
	var (
		out T
		ok  bool
	)
	eachJSON(text, func(raw json.RawMessage) bool {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return true
		}
		if err := v.Validate(); err != nil {
			return true
		}
		out, ok = v, true
		return false
	})
	return out, ok
}

// eachJSON calls fn for every position in text where a JSON object or array
// starts and decodes completely, until fn returns false. Nested values are
// visited too, so a valid inner array is still found inside a rejected wrapper.
func eachJSON(text string, fn func(json.RawMessage) bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err != nil {
			continue
		}
		if !fn(raw) {
			return
		}
	}
}
