package services

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// Placeholders used when an address carries no leading house number.
	noHouseNumber = "0"
	noStreetToken = "LOT"

	streetTokenWords = 2
)

// DeriveKey builds the partition key for a listing from its location fields.
// It is a pure function: the same (state, city, address) always yields the
// same key, which is what makes coordinator-free placement possible.
//
// Shape: "{STATE3}-{CITY4}-{HOUSENUM}{STREET}", e.g.
// ("California", "Irvine", "14631 Deer Park St") -> "CAL-IRVI-14631DeerPark".
func DeriveKey(state, city, address string) string {
	stateAbbr := strings.ToUpper(strings.TrimSpace(state))
	if len(stateAbbr) > 3 {
		stateAbbr = stateAbbr[:3]
	}

	cityCompact := strings.ToUpper(stripWhitespace(city))
	if len(cityCompact) > 4 {
		cityCompact = cityCompact[:4]
	}

	houseNumber, street := splitAddress(address)
	return fmt.Sprintf("%s-%s-%s%s", stateAbbr, cityCompact, houseNumber, street)
}

// splitAddress pulls the leading run of digits out of the address and builds
// a short token from the street-name words that follow. Addresses without a
// house number fall back to fixed placeholders so the key stays well-formed.
func splitAddress(address string) (houseNumber, street string) {
	trimmed := strings.TrimSpace(address)

	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 {
		return noHouseNumber, noStreetToken
	}
	houseNumber = trimmed[:i]

	words := strings.Fields(trimmed[i:])
	if len(words) > streetTokenWords {
		words = words[:streetTokenWords]
	}
	var b strings.Builder
	for _, word := range words {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
	}
	return houseNumber, b.String()
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
