package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// maxListLines caps numbered lists so a reply stays readable on a phone.
const maxListLines = 10

func age(then, now time.Time) string {
	if then.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(then, now, "ago", "from now")
}

func money(amount int64) string {
	return humanize.Comma(amount)
}

func date(t time.Time) string {
	if t.IsZero() {
		return "open-ended"
	}
	return t.Format("2 Jan 2006")
}

// numbered joins lines under a header, keeping at most maxListLines and
// reporting how many more records exist in total.
func numbered(header string, lines []string, total int) string {
	var b strings.Builder
	b.WriteString(header)
	shown := lines
	if len(shown) > maxListLines {
		shown = shown[:maxListLines]
	}
	for _, l := range shown {
		b.WriteString("\n")
		b.WriteString(l)
	}
	if rest := total - len(shown); rest > 0 {
		b.WriteString(fmt.Sprintf("\n…and %s more", humanize.Comma(int64(rest))))
	}
	return b.String()
}
