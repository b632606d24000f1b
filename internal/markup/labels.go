package markup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
)

// labelSeparators split "label：value" rows. The full-width colon is what the
// Chinese-language sites render.
var labelSeparators = []string{"：", ":"}

// NoFallback disables positional lookup in a LabelRule.
const NoFallback = -1

// LabelRule reads the value paired with a label inside a list of
// "label：value" rows, for metadata blocks that have no per-field markup.
type LabelRule struct {
	Label string
	// Split breaks the value into several entries; empty keeps it whole.
	Split string
	// FallbackRow is the row read when no row contains Label. Positional
	// lookup breaks silently when upstream reorders rows, so it only runs
	// when the label scan finds nothing. NoFallback disables it.
	FallbackRow int
}

// Values scans rows for the label and returns the non-empty values.
func (r LabelRule) Values(rows *goquery.Selection) []string {
	var (
		value string
		found bool
	)
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		label, v, ok := splitLabel(collapse(row.Text()))
		if ok && strings.Contains(label, r.Label) {
			value, found = v, true
			return false
		}
		return true
	})

	if !found && r.FallbackRow >= 0 && r.FallbackRow < rows.Length() {
		_, value, found = splitLabel(collapse(rows.Eq(r.FallbackRow).Text()))
	}
	if !found {
		return nil
	}

	if r.Split == "" {
		value = strings.TrimSpace(value)
		if value == "" {
			return nil
		}
		return []string{value}
	}
	parts := lo.Map(strings.Split(value, r.Split), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Compact(parts)
}

func splitLabel(text string) (label, value string, ok bool) {
	for _, sep := range labelSeparators {
		if l, v, found := strings.Cut(text, sep); found {
			return strings.TrimSpace(l), strings.TrimSpace(v), true
		}
	}
	return "", "", false
}
