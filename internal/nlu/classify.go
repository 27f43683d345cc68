package nlu

import (
	"regexp"
	"strings"

	"github.com/shophub/shophub/internal/domain"
)

// Input is a normalized message together with the ids extracted from it
type Input struct {
	Text       string
	ProductIDs []string
}

// Rule maps a predicate to the intent it selects
type Rule struct {
	Intent domain.Intent
	Match  func(in Input) bool
}

// Classifier evaluates rules top to bottom; the first match wins
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier over the default rule table
func NewClassifier() *Classifier {
	return &Classifier{rules: DefaultRules()}
}

// NewClassifierWithRules creates a classifier over a custom rule table
func NewClassifierWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Rules returns the rule table in evaluation order
func (c *Classifier) Rules() []Rule {
	return c.rules
}

// Classify returns the intent for a raw message
func (c *Classifier) Classify(text string) domain.Intent {
	in := Input{
		Text:       normalize(text),
		ProductIDs: ExtractProductIDs(text),
	}
	for _, r := range c.rules {
		if r.Match(in) {
			return r.Intent
		}
	}
	return domain.IntentUnknown
}

// Classify classifies text with the default rule table
func Classify(text string) domain.Intent {
	return defaultClassifier.Classify(text)
}

var defaultClassifier = NewClassifier()

var (
	greetingWords = []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening", "how are you"}

	clearCartPhrases = []string{
		"clear cart", "clear my cart", "clear the cart", "empty cart", "empty my cart", "empty the cart",
		"remove all", "remove everything", "delete everything", "delete all", "start over",
	}
	removeVerbs = []string{"remove", "delete", "take out", "take off", "drop"}

	addVerbs   = []string{"add", "put"}
	addPhrases = []string{"add product", "add item", "add this", "add to cart", "add to my cart", "put in cart", "put in my cart", "add it"}

	checkoutPhrases = []string{"checkout", "check out", "buy now", "purchase", "place order", "place my order", "pay now"}

	cartQueryPhrases = []string{"my cart", "show cart", "view cart", "cart contents", "what's in my cart", "what's in my", "whats in my cart"}

	productKeywords = []string{
		"product", "item", "buy", "shop", "find", "show", "looking for", "need", "want",
		"price", "cost", "cheap", "expensive", "available",
	}

	productIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`product\s*(?:id|#)?\s*:?\s*#?\d+`),
		regexp.MustCompile(`\bid\s*:?\s*\d+`),
		regexp.MustCompile(`#\s*\d+`),
	}

	whitespace = regexp.MustCompile(`\s+`)
)

// DefaultRules returns the intent cascade. Order matters: destructive and compound
// requests are checked before their generic counterparts, and store-information topics
// before the generic product search.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: domain.IntentGreeting, Match: func(in Input) bool {
			return containsAnyWord(in.Text, greetingWords)
		}},
		{Intent: domain.IntentClearCart, Match: func(in Input) bool {
			// "remove all of product 5" targets one line
			return containsAny(in.Text, clearCartPhrases) && len(in.ProductIDs) == 0
		}},
		{Intent: domain.IntentRemoveFromCart, Match: func(in Input) bool {
			if !containsAnyWordPrefix(in.Text, removeVerbs) {
				return false
			}
			return strings.Contains(in.Text, "cart") || strings.Contains(in.Text, "product") ||
				strings.Contains(in.Text, "item") || len(in.ProductIDs) > 0
		}},
		{Intent: domain.IntentAddMultipleToCart, Match: func(in Input) bool {
			return containsAnyWord(in.Text, addVerbs) && len(in.ProductIDs) > 1 && !hasCheckoutKeyword(in.Text)
		}},
		{Intent: domain.IntentAddToCart, Match: func(in Input) bool {
			if hasCheckoutKeyword(in.Text) {
				return false
			}
			if containsAny(in.Text, addPhrases) {
				return true
			}
			return containsAnyWord(in.Text, addVerbs) && len(in.ProductIDs) == 1
		}},
		{Intent: domain.IntentAddAndCheckout, Match: func(in Input) bool {
			return hasCheckoutKeyword(in.Text) &&
				(containsAnyWord(in.Text, addVerbs) || strings.Contains(in.Text, "product"))
		}},
		{Intent: domain.IntentCheckout, Match: func(in Input) bool {
			return hasCheckoutKeyword(in.Text)
		}},
		{Intent: domain.IntentCartQuery, Match: func(in Input) bool {
			return containsAny(in.Text, cartQueryPhrases) || strings.Trim(in.Text, "?!. ") == "cart"
		}},
		{Intent: domain.IntentProductByID, Match: func(in Input) bool {
			for _, p := range productIDPatterns {
				if p.MatchString(in.Text) {
					return true
				}
			}
			return false
		}},
		{Intent: domain.IntentShopHubInfo, Match: func(in Input) bool {
			_, ok := ResolveTopic(in.Text)
			return ok
		}},
		{Intent: domain.IntentProductSearch, Match: func(in Input) bool {
			return containsAny(in.Text, productKeywords)
		}},
	}
}

func hasCheckoutKeyword(text string) bool {
	return containsAny(text, checkoutPhrases)
}

// normalize lowercases, trims and collapses whitespace
func normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.ReplaceAll(text, "’", "'")
	return whitespace.ReplaceAllString(text, " ")
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

var (
	wordPatterns       = map[string]*regexp.Regexp{}
	wordPrefixPatterns = map[string]*regexp.Regexp{}
)

func init() {
	for _, list := range [][]string{greetingWords, addVerbs} {
		for _, w := range list {
			wordPatterns[w] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
		}
	}
	for _, list := range [][]string{removeVerbs} {
		for _, w := range list {
			wordPrefixPatterns[w] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w))
		}
	}
	for _, t := range topicTable {
		for _, kw := range t.Keywords {
			wordPrefixPatterns[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw))
		}
	}
}

// containsAnyWord matches whole words only, so "hi" does not match "this"
func containsAnyWord(text string, words []string) bool {
	for _, w := range words {
		if wordPatterns[w].MatchString(text) {
			return true
		}
	}
	return false
}

// containsAnyWordPrefix matches at a word start, so "return" matches "returns"
func containsAnyWordPrefix(text string, words []string) bool {
	for _, w := range words {
		if wordPrefixPatterns[w].MatchString(text) {
			return true
		}
	}
	return false
}
