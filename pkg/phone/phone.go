package phone

import (
	"strings"
	"unicode"
)

// DefaultCountryCode is used when no country code is configured.
const DefaultCountryCode = "234"

// Normalizer turns any accepted spelling of a phone number into the canonical
// form: country code followed by the subscriber digits, no "+" and no separators.
// Every lookup and every session key goes through the same Normalizer.
type Normalizer struct {
	countryCode string
}

func NewNormalizer(countryCode string) Normalizer {
	cc := digits(countryCode)
	if cc == "" || strings.HasPrefix(cc, "0") {
		cc = DefaultCountryCode
	}
	return Normalizer{countryCode: cc}
}

func (n Normalizer) CountryCode() string {
	if n.countryCode == "" {
		return DefaultCountryCode
	}
	return n.countryCode
}

// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func (n Normalizer) Normalize(raw string) string {
	d := digits(raw)
	if d == "" {
		return ""
	}
	cc := n.CountryCode()

	d = strings.TrimPrefix(d, "00")
	switch {
	case d == "":
		return ""
	case strings.HasPrefix(d, cc):
		return d
	case strings.HasPrefix(d, "0"):
		return cc + strings.TrimLeft(d, "0")
	case len(d) <= 10:
		return cc + d
	default:
		return d
	}
}

func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
