// Package nlu turns free-text shopper messages into an intent and the product ids and
// quantity they mention. Everything here is deterministic rule matching.
package nlu

import (
	"regexp"
	"strconv"
)

const (
	// MaxQuantity caps any quantity read from a message
	MaxQuantity = 99
	// DefaultQuantity is used when a message names no quantity
	DefaultQuantity = 1
)

var (
	// "product 5", "products 5, 6, and 7", "products 1 2 3"
	anchoredIDsPattern = regexp.MustCompile(`products?\s+(\d+(?:\s*,?\s*(?:and\s+)?\d+)*)`)
	numberPattern      = regexp.MustCompile(`\d+`)
	freeNumberPattern  = regexp.MustCompile(`\b\d+\b`)

	// ordered; first match wins
	quantityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d+)\s+(?:of|x)\s+(?:the\s+)?(?:products?|items?)\b`),
		regexp.MustCompile(`\b(\d+)\s+(?:products|items|units|pieces|pcs)\b`),
		regexp.MustCompile(`\badd\s+(\d+)\b`),
		regexp.MustCompile(`\bput\s+(\d+)\b`),
	}
)

// Entities are the product ids and quantity found in one message
type Entities struct {
	ProductIDs []string
	Quantity   int
}

// ExtractProductIDs returns the distinct product ids mentioned in text, in order of first
// appearance. Ids following "product"/"products" win; otherwise every free-standing number
// is taken.
func ExtractProductIDs(text string) []string {
	ids, _ := extractProductIDs(text)
	return ids
}

func extractProductIDs(text string) ([]string, bool) {
	lower := normalize(text)

	var found []string
	anchored := false
	for _, m := range anchoredIDsPattern.FindAllStringSubmatch(lower, -1) {
		anchored = true
		found = append(found, numberPattern.FindAllString(m[1], -1)...)
	}
	if !anchored {
		found = freeNumberPattern.FindAllString(lower, -1)
	}

	return dedupe(found), anchored
}

// ExtractQuantity returns the quantity named in text, clamped to [1, MaxQuantity].
// Messages that name none get DefaultQuantity.
func ExtractQuantity(text string) int {
	lower := normalize(text)
	for _, p := range quantityPatterns {
		m := p.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// digits too long for int
			return MaxQuantity
		}
		return clampQuantity(n)
	}
	return DefaultQuantity
}

// ExtractEntities combines id and quantity extraction. A quantity is only read when the
// ids were anchored to the word "product"; in "add 5 to cart" the bare number is an id.
func ExtractEntities(text string) Entities {
	ids, anchored := extractProductIDs(text)
	qty := DefaultQuantity
	if anchored {
		qty = ExtractQuantity(text)
	}
	return Entities{ProductIDs: ids, Quantity: qty}
}

func clampQuantity(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxQuantity {
		return MaxQuantity
	}
	return n
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = trimLeadingZeros(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func trimLeadingZeros(id string) string {
	i := 0
	for i < len(id)-1 && id[i] == '0' {
		i++
	}
	return id[i:]
}
