package application

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseUpdate(t *testing.T) {
	cases := []struct {
		in       string
		id       uint
		feedback string
		ok       bool
	}{
		{"12: plumber booked", 12, "plumber booked", true},
		{"#12:plumber: booked Monday", 12, "plumber: booked Monday", true},
		{" 7 :  done soon ", 7, "done soon", true},
		{"plumber booked", 0, "", false},
		{": plumber", 0, "", false},
		{"abc: plumber", 0, "", false},
		{"0: plumber", 0, "", false},
		{"12:", 0, "", false},
	}
	for _, tc := range cases {
		id, feedback, ok := parseUpdate(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.id, id, tc.in)
		assert.Equal(t, tc.feedback, feedback, tc.in)
	}
}

func TestParseAnswer(t *testing.T) {
	id, accept, ok := parseAnswer("confirm_resolved:42")
	assert.True(t, ok)
	assert.True(t, accept)
	assert.EqualValues(t, 42, id)

	id, accept, ok = parseAnswer("reject_resolved:7")
	assert.True(t, ok)
	assert.False(t, accept)
	assert.EqualValues(t, 7, id)

	_, _, ok = parseAnswer("reject_resolved:x")
	assert.False(t, ok)
	_, _, ok = parseAnswer("view_tenancy")
	assert.False(t, ok)
}

func TestPickIndex(t *testing.T) {
	i, ok := pickIndex(" 2 ", 3)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	for _, in := range []string{"0", "4", "two", ""} {
		_, ok := pickIndex(in, 3)
		assert.False(t, ok, in)
	}
}

func TestIsKeyword(t *testing.T) {
	assert.True(t, isKeyword("  DONE ", KeywordDone))
	assert.True(t, isKeyword("switch\trole", KeywordSwitchRole))
	assert.False(t, isKeyword("done now", KeywordDone))
}

func TestNumberedTruncatesLongLists(t *testing.T) {
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = "line"
	}
	out := numbered("Header:", lines, 1500)
	assert.Equal(t, 11, strings.Count(out, "\n"))
	assert.True(t, strings.HasSuffix(out, "…and 1,490 more"))

	assert.Equal(t, "Header:\na", numbered("Header:", []string{"a"}, 1))
}

func TestAgeAndDate(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "3 hours ago", age(now.Add(-3*time.Hour), now))
	assert.Equal(t, "unknown", age(time.Time{}, now))
	assert.Equal(t, "19 Oct 2026", date(now))
	assert.Equal(t, "open-ended", date(time.Time{}))
	assert.Equal(t, "1,500,000", money(1500000))
}
