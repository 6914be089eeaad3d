package normalize

import (
	"strconv"
	"strings"
	"time"
)

// OutputDateFormat is the canonical date layout for every normalized
// date field (zero-padded month and day).
const OutputDateFormat = "01/02/2006"

// dateLayouts are tried in order when normalizing. Report vendors are
// inconsistent; this covers the shapes seen in the wild.
var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"01/2006",
	"Jan 2006",
	"2006-01-02T15:04:05Z07:00",
}

// Currency strips every character that is not a digit, '.' or '-' and
// parses the remainder as a number. Unparseable input degrades to 0 and
// never errors; callers must not read 0 as "no data" versus a true zero
// balance.
func Currency(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// Date parses raw as a calendar date and reformats it as MM/DD/YYYY.
// Unparseable input degrades to "" and never errors.
func Date(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(OutputDateFormat)
		}
	}
	return ""
}

// CurrencyString is Currency rendered back to a canonical string form,
// used when storing normalized values in a record's field map.
func CurrencyString(raw string) string {
	return strconv.FormatFloat(Currency(raw), 'f', -1, 64)
}
