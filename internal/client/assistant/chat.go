package assistant

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/WardrobeKeeper/internal/client/gateway"
)

// ErrEmptyQuestion is returned by Ask for blank input.
var ErrEmptyQuestion = errors.New("assistant: empty question")

const noResponseText = "Sorry, I could not generate a response."

// Role tells who wrote a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) label() string {
	if r == RoleAssistant {
		return "Assistant"
	}
	return "User"
}

// Message is one chat turn.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

// Conversation is an in-memory shopping chat. It is not persisted.
type Conversation struct {
	Messages []Message
}

// Ask sends question with the wardrobe summary and the earlier turns, and
// appends both the question and the reply to conv. When the gateway fails the
// reply carries the user-facing advisory and the error is returned as well.
func (a *Assistant) Ask(ctx context.Context, conv *Conversation, question string) (Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Message{}, ErrEmptyQuestion
	}

	prompt := shoppingPrompt(a.wardrobe.Clothes(ctx), conv.Messages, question)
	conv.Messages = append(conv.Messages, Message{
		ID: uuid.NewString(), Role: RoleUser, Content: question, Timestamp: time.Now(),
	})

	text, err := a.gen.Generate(ctx, prompt, nil)
	switch {
	case errors.Is(err, gateway.ErrEmptyResponse):
		text, err = noResponseText, nil
	case err != nil:
		a.log.Warn("shopping assistant request failed", zap.Error(err))
		text = gateway.UserMessage(err)
	}

	reply := Message{ID: uuid.NewString(), Role: RoleAssistant, Content: text, Timestamp: time.Now()}
	conv.Messages = append(conv.Messages, reply)
	return reply, err
}

// ShopSite is a store the assistant can link searches to.
type ShopSite struct {
	Name      string
	SearchURL string
}

// ShopSites are the stores offered for every search term.
var ShopSites = []ShopSite{
	{Name: "Amazon", SearchURL: "https://www.amazon.com/s?k="},
	{Name: "Daraz", SearchURL: "https://www.daraz.pk/catalog/?q="},
	{Name: "AliExpress", SearchURL: "https://www.aliexpress.com/wholesale?SearchText="},
	{Name: "eBay", SearchURL: "https://www.ebay.com/sch/i.html?_nkw="},
	{Name: "ASOS", SearchURL: "https://www.asos.com/search/?q="},
	{Name: "Zara", SearchURL: "https://www.zara.com/pk/en/search?searchTerm="},
}

// Link is a ready-to-open search on one store.
type Link struct {
	Site string
	URL  string
}

// ShoppingLinks returns a search link for term on every store.
func ShoppingLinks(term string) []Link {
	q := strings.ReplaceAll(url.QueryEscape(strings.TrimSpace(term)), "+", "%20")
	links := make([]Link, 0, len(ShopSites))
	for _, s := range ShopSites {
		links = append(links, Link{Site: s.Name, URL: s.SearchURL + q})
	}
	return links
}

var searchTermPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"([^"]+)"`),
	regexp.MustCompile(`(?i)search for[:\s]+([^,.\n]+)`),
	regexp.MustCompile(`(?i)try[:\s]+([^,.\n]+)`),
}

const maxSearchTerms = 3

// SearchTerms picks up to three distinct search phrases out of a reply:
// quoted phrases first, then "search for ..." and "try ..." phrases.
func SearchTerms(text string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, re := range searchTermPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m[1]) >= 50 {
				continue
			}
			term := strings.TrimSpace(m[1])
			if term == "" || seen[term] {
				continue
			}
			seen[term] = true
			terms = append(terms, term)
		}
	}
	if len(terms) > maxSearchTerms {
		terms = terms[:maxSearchTerms]
	}
	return terms
}
