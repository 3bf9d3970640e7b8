package compare

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

// sizeSuffix matches a trailing pack or weight token like "180g",
// "2 L" or "10 pack".
var sizeSuffix = regexp.MustCompile(`(?i)\s*\d+\s*(g|kg|ml|l|pk|pack|each)\s*$`)

var whitespace = regexp.MustCompile(`\s+`)

// compoundTerms folds multi-word descriptors into single tokens so
// "Full Cream Milk" and "Fullcream Milk" normalize identically.
var compoundTerms = [][2]string{
	{"full cream", "fullcream"},
	{"full-cream", "fullcream"},
	{"semi skim", "semi-skim"},
	{"semi-skimmed", "semi-skim"},
	{"skim milk", "skimmilk"},
	{"low fat", "lowfat"},
	{"low-fat", "lowfat"},
	{"no added", "noadded"},
	{"free range", "freerange"},
	{"extra virgin", "extravirgin"},
}

// unit tokens and fillers that carry no signal when comparing types
var sizeTokens = map[string]bool{
	"ml": true, "l": true, "g": true, "kg": true,
	"pk": true, "pack": true, "x": true, "ea": true, "each": true,
}

var fillerWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "with": true, "in": true, "on": true, "fresh": true,
	"australian": true, "coles": true, "woolworths": true,
	"aldi": true, "iga": true,
}

// ExtractType strips a leading brand from a product name, leaving the
// generic product type: "Pauls Full Cream Milk 2L" -> "Full Cream Milk 2L".
func ExtractType(name, brand string) string {
	if name == "" || brand == "" {
		return name
	}
	pattern, err := regexp.Compile(`(?i)^` + regexp.QuoteMeta(brand) + `\s*`)
	if err != nil {
		return name
	}
	productType := strings.Trim(pattern.ReplaceAllString(name, ""), " -,")
	if productType == "" {
		return name
	}
	return productType
}

// ExtractOfferType is the catalogue-offer variant: brands can appear
// anywhere in scraped names and the size tail is noise because offers
// carry size as a separate field.
func ExtractOfferType(name, brand string) string {
	productType := name
	if brand != "" {
		pattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(brand))
		if err == nil {
			productType = strings.TrimSpace(pattern.ReplaceAllString(productType, ""))
		}
		if productType == "" {
			productType = name
		}
	}
	productType = sizeSuffix.ReplaceAllString(productType, "")
	productType = whitespace.ReplaceAllString(productType, " ")
	return strings.Trim(productType, "| -")
}

// NormalizeType lowercases a product type and folds known compound
// descriptors for comparison.
func NormalizeType(productType string) string {
	normalized := strings.ToLower(productType)
	for _, pair := range compoundTerms {
		normalized = strings.ReplaceAll(normalized, pair[0], pair[1])
	}
	return strings.Join(strings.Fields(normalized), " ")
}

// TypesMatch reports whether two normalized types describe the same
// product: at least 80% of the smaller word set must overlap once unit
// tokens and bare numbers are dropped.
func TypesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}

	wordsA := significantWords(a)
	wordsB := significantWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}

	overlap := 0
	for w := range wordsA {
		if wordsB[w] {
			overlap++
		}
	}
	smaller := len(wordsA)
	if len(wordsB) < smaller {
		smaller = len(wordsB)
	}
	return float64(overlap)/float64(smaller) >= 0.8
}

func significantWords(s string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.Fields(s) {
		if sizeTokens[w] || isDigits(w) {
			continue
		}
		words[w] = true
	}
	return words
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// singular folds common English plural endings so "tomatoes" groups
// with "tomato" and "cherries" with "cherry".
func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "oes"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "ies"):
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "es"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "s"):
		return s[:len(s)-1]
	}
	return s
}

// SimilarType is the looser comparison used for catalogue offers where
// names are store-written free text. It tolerates plurals, containment
// and partial word overlap, with a Jaro-Winkler pass to catch typos in
// short produce names.
func SimilarType(a, b string) bool {
	t1 := strings.ToLower(strings.TrimSpace(a))
	t2 := strings.ToLower(strings.TrimSpace(b))
	if t1 == "" || t2 == "" {
		return false
	}
	if t1 == t2 || singular(t1) == singular(t2) {
		return true
	}

	if len(t1) > 3 && len(t2) > 3 {
		if strings.Contains(t1, t2) || strings.Contains(t2, t1) {
			return true
		}
		n1, n2 := singular(t1), singular(t2)
		if strings.Contains(n1, n2) || strings.Contains(n2, n1) {
			return true
		}
	}

	words1 := map[string]bool{}
	for _, w := range strings.Fields(t1) {
		if !fillerWords[w] {
			words1[singular(w)] = true
		}
	}
	words2 := map[string]bool{}
	for _, w := range strings.Fields(t2) {
		if !fillerWords[w] {
			words2[singular(w)] = true
		}
	}
	if len(words1) == 0 || len(words2) == 0 {
		return false
	}

	overlap := 0
	for w := range words1 {
		if words2[w] {
			overlap++
		}
	}
	smaller := len(words1)
	if len(words2) < smaller {
		smaller = len(words2)
	}
	if smaller <= 2 {
		if overlap >= 1 {
			return true
		}
	} else if float64(overlap) >= float64(smaller)/2 {
		return true
	}

	// last chance for single-word types with spelling variants
	if len(words1) == 1 && len(words2) == 1 {
		return matchr.JaroWinkler(singular(t1), singular(t2), false) >= 0.93
	}
	return false
}

// BrandFromName guesses a brand when an offer has none recorded, using
// the first word of the name if it looks like one.
func BrandFromName(name string) string {
	fields := strings.Fields(name)
	if len(fields) < 2 || len(fields[0]) < 3 {
		return ""
	}
	return fields[0]
}

// NormalizeProductKey builds the grouping key for identical products:
// brand, name and size joined in lowercase.
func NormalizeProductKey(name string, brand, size *string) string {
	var parts []string
	if brand != nil && *brand != "" {
		parts = append(parts, strings.ToLower(strings.TrimSpace(*brand)))
	}
	parts = append(parts, strings.ToLower(strings.TrimSpace(name)))
	if size != nil && *size != "" {
		parts = append(parts, strings.ToLower(strings.TrimSpace(*size)))
	}
	return strings.Join(parts, "|")
}
