package normalize

import (
	"strings"

	"github.com/username/creditfolio/src/models"
)

// Kind selects which normalizer applies to a mapped field.
type Kind string

const (
	KindCurrency    Kind = "currency"
	KindDate        Kind = "date"
	KindPassthrough Kind = "passthrough"
)

// Entry maps one human-readable report label to its canonical key.
type Entry struct {
	Label        string
	CanonicalKey string
	Kind         Kind
}

// FieldMap is the closed set of label mappings, loaded once and immutable
// at run time. Lookup is case-insensitive on the trimmed label.
type FieldMap struct {
	entries map[string]Entry
}

// DefaultEntries is the compiled-in mapping covering the labels the
// supported report vendors emit. Labels not listed here pass through
// verbatim (raw label as key, value untouched).
var DefaultEntries = []Entry{
	{"Account #", models.FieldAccountNumber, KindPassthrough},
	{"Account Number", models.FieldAccountNumber, KindPassthrough},
	{"Account Type", models.FieldAccountType, KindPassthrough},
	{"Account Status", models.FieldAccountStatus, KindPassthrough},
	{"Account Type - Detail", models.FieldAccountType, KindPassthrough},
	{"Payment Status", models.FieldPaymentStatus, KindPassthrough},
	{"Balance", models.FieldBalance, KindCurrency},
	{"Balance Owed", models.FieldBalance, KindCurrency},
	{"Past Due", models.FieldPastDue, KindCurrency},
	{"Amount Past Due", models.FieldPastDue, KindCurrency},
	{"Credit Limit", models.FieldCreditLimit, KindCurrency},
	{"High Balance", models.FieldHighBalance, KindCurrency},
	{"High Credit", models.FieldHighBalance, KindCurrency},
	{"Date Opened", models.FieldDateOpened, KindDate},
	{"Open Date", models.FieldDateOpened, KindDate},
	{"Last Reported", models.FieldLastReported, KindDate},
	{"Date Reported", models.FieldLastReported, KindDate},
	{"Date of First Delinquency", models.FieldDateFirstDelinquency, KindDate},
	{"Date First Delinquency", models.FieldDateFirstDelinquency, KindDate},
	{"DOFD", models.FieldDateFirstDelinquency, KindDate},
}

// NewFieldMap builds a lookup table from the given entries. Later entries
// win on duplicate labels so callers can layer overrides on the defaults.
func NewFieldMap(entries []Entry) *FieldMap {
	m := &FieldMap{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		m.entries[normalizeLabel(e.Label)] = e
	}
	return m
}

// DefaultFieldMap returns the compiled-in mapping.
func DefaultFieldMap() *FieldMap {
	return NewFieldMap(DefaultEntries)
}

// Apply resolves a raw label/value pair to its canonical key and
// normalized value. Unmapped labels come back under the raw label with
// the value untouched. Apply never fails; bad values degrade through the
// kind-specific normalizer.
func (m *FieldMap) Apply(label, raw string) (key, value string) {
	entry, ok := m.entries[normalizeLabel(label)]
	if !ok {
		return strings.TrimSpace(label), raw
	}
	switch entry.Kind {
	case KindCurrency:
		return entry.CanonicalKey, CurrencyString(raw)
	case KindDate:
		return entry.CanonicalKey, Date(raw)
	default:
		return entry.CanonicalKey, strings.TrimSpace(raw)
	}
}

// IsMapped reports whether the label resolves to a canonical key.
func (m *FieldMap) IsMapped(label string) bool {
	_, ok := m.entries[normalizeLabel(label)]
	return ok
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), ":")))
}
