package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAcceptedVariants(t *testing.T) {
	n := NewNormalizer("234")
	variants := []string{
		"+2348012345678",
		"2348012345678",
		"08012345678",
		"8012345678",
		"+234 801 234 5678",
		"(0801) 234-5678",
		"002348012345678",
	}
	for _, v := range variants {
		assert.Equal(t, "2348012345678", n.Normalize(v), "variant %q", v)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := NewNormalizer("234")
	inputs := []string{
		"+2348012345678", "08012345678", "123", "0", "00", "000123", "+14155550100",
		"441632960961", "  ", "abc", "0000000000000", "2340", "+1 (415) 555-0100",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestNormalizeForeignNumberKept(t *testing.T) {
	n := NewNormalizer("234")
	assert.Equal(t, "14155550100", n.Normalize("+1 415 555 0100"))
	assert.Equal(t, "", n.Normalize("no digits"))
}

func TestNewNormalizerFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultCountryCode, NewNormalizer("").CountryCode())
	assert.Equal(t, DefaultCountryCode, NewNormalizer("0x").CountryCode())
	assert.Equal(t, "44", NewNormalizer("+44").CountryCode())
	assert.Equal(t, DefaultCountryCode, Normalizer{}.CountryCode())
}
