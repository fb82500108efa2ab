package assistant

import (
	"fmt"
	"strings"

	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

const tryOnPrompt = `You are a fashion stylist AI. Analyze the person in the first image and the clothing items in the subsequent images.

Describe in detail how these clothing items would look on this person, including:
1. How well the colors complement their skin tone
2. How the style fits their body type
3. Overall outfit rating (1-10)
4. Specific styling suggestions

Be detailed and helpful in your fashion advice.`

const analyzePrompt = `You are a fashion cataloguing assistant. Look at the clothing item in the image and reply with JSON only, no prose:
{"category": "<one of: tops, bottoms, suits, dresses, outerwear, shoes, accessories>", "name": "<short descriptive name, at most 100 characters>", "color": "<main colour, at most 50 characters>"}`

const shoppingIntro = `You are StyleAI Shopping Assistant, a fashion-savvy AI that helps users find trendy clothing and accessories. You specialize in:

1. Recommending current fashion trends
2. Suggesting products that match user's style and existing wardrobe
3. Providing search terms for popular shopping sites (Amazon, Daraz.pk, AliExpress, eBay, ASOS, Zara)
4. Offering styling tips and outfit combinations`

const shoppingRules = `When suggesting products, always:
- Give specific search terms users can copy
- Mention price ranges when relevant
- Consider the user's existing wardrobe for complementary pieces
- Suggest trending items and seasonal must-haves
- Be enthusiastic and helpful!

Format your responses with clear sections and use emojis to make it engaging.`

func suggestPrompt(occasion string, items []models.ClothingItem) string {
	var b strings.Builder
	b.WriteString("You are a personal stylist. Using only the numbered wardrobe items below, suggest up to 3 outfits")
	if occasion != "" {
		fmt.Fprintf(&b, " for this occasion: %s", occasion)
	}
	b.WriteString(".\n\nWardrobe:\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s (%s", i, item.Name, item.Category)
		if item.Color != "" {
			fmt.Fprintf(&b, ", %s", item.Color)
		}
		b.WriteString(")\n")
	}
	b.WriteString(`
Reply with a JSON array only, no prose:
[{"name": "<outfit name>", "items": [<item numbers>], "tip": "<one styling tip>"}]`)
	return b.String()
}

func wardrobeSummary(items []models.ClothingItem) string {
	if len(items) == 0 {
		return "User has not added any items to their wardrobe yet."
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s (%s)", item.Name, item.Category))
	}
	return "User's wardrobe contains: " + strings.Join(parts, ", ")
}

func shoppingPrompt(items []models.ClothingItem, history []Message, question string) string {
	var b strings.Builder
	b.WriteString(shoppingIntro)
	b.WriteString("\n\n")
	b.WriteString(wardrobeSummary(items))
	b.WriteString("\n\n")
	b.WriteString(shoppingRules)
	b.WriteString("\n\n")
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range history {
			fmt.Fprintf(&b, "%s: %s\n", m.Role.label(), m.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "User's question: %s", question)
	return b.String()
}
