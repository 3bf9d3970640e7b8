package ingest

import (
	"regexp"
	"strings"
	"unicode"
)

// Retailer house brands plus the handful of labels that show up in
// catalogue tiles without any other brand marker.
var knownBrands = map[string]bool{
	"Woolworths": true,
	"Coles":      true,
	"ALDI":       true,
	"Macro":      true,
	"Freefrom":   true,
	"Gold":       true,
	"Essentials": true,
}

// ExtractBrand pulls a probable brand from a scraped product name.
// Catalogue tiles lead with the brand ("Cadbury Dairy Milk 180g"), so
// the first word is taken when it is a known label or looks like a
// proper noun. Returns "" when the name starts with a generic word.
func ExtractBrand(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	first := fields[0]
	if knownBrands[first] {
		return first
	}

	runes := []rune(first)
	if len(runes) <= 2 || !unicode.IsUpper(runes[0]) {
		return ""
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			return ""
		}
	}
	return first
}

type sizePattern struct {
	re *regexp.Regexp
	// veto rejects a match whose unit letter is really the start of a
	// longer word ("500gr", "2 litre").
	veto int
}

// Ordered so "1.5kg" is not read as "5kg" missing its unit, and "2L"
// is tried after "600ml".
var sizePatterns = []sizePattern{
	{re: regexp.MustCompile(`(\d+\.?\d*\s*[kK][gG])`)},
	{re: regexp.MustCompile(`(\d+\.?\d*\s*[gG])([rR])?`), veto: 2},
	{re: regexp.MustCompile(`(\d+\.?\d*\s*[mM][lL])`)},
	{re: regexp.MustCompile(`(\d+\.?\d*\s*[lL])([iI])?`), veto: 2},
	{re: regexp.MustCompile(`(\d+\s*[pP]ack)`)},
	{re: regexp.MustCompile(`(\d+\s*x\s*\d+)`)},
}

// ExtractSize finds a pack size in a product name: "500g", "1.5kg",
// "600ml", "2L", "6 pack", "4x100g". Returns "" when none is present.
func ExtractSize(name string) string {
	for _, p := range sizePatterns {
		for _, match := range p.re.FindAllStringSubmatch(name, -1) {
			if p.veto > 0 && match[p.veto] != "" {
				continue
			}
			return strings.TrimSpace(match[1])
		}
	}
	return ""
}
