package statement

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-insights/internal/domain"
)

// textDateLayouts are tried in order: YYYY-MM-DD, then MM/DD/YYYY.
var textDateLayouts = []string{"2006-1-2", "1/2/2006"}

// NormalizeDate renders a date cell as an ISO calendar date. Native date
// cells are formatted directly, text cells are tried against the known
// layouts, and anything else is kept as written.
func NormalizeDate(c Cell) Parsed[string] {
	if c.IsTime {
		return ok(civil.DateOf(c.Time).String())
	}

	s := strings.TrimSpace(c.Text)
	if s == "" {
		return defaulted(domain.UnknownValue, "empty date")
	}

	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return ok(civil.DateOf(t).String())
		}
	}

	return defaulted(s, "unrecognised date layout")
}
