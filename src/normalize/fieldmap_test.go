package normalize

import (
	"testing"

	"github.com/username/creditfolio/src/models"
)

func TestFieldMapApplyCanonicalKeys(t *testing.T) {
	fm := DefaultFieldMap()

	cases := []struct {
		label     string
		raw       string
		wantKey   string
		wantValue string
	}{
		{"Account #", "****1234", models.FieldAccountNumber, "****1234"},
		{"account number:", "555666", models.FieldAccountNumber, "555666"},
		{"Balance Owed", "$1,500.00", models.FieldBalance, "1500"},
		{"BALANCE", "$250.75", models.FieldBalance, "250.75"},
		{"Past Due:", "$0", models.FieldPastDue, "0"},
		{"Date Opened", "2018-03-01", models.FieldDateOpened, "03/01/2018"},
		{"DOFD", "Jan 5, 2019", models.FieldDateFirstDelinquency, "01/05/2019"},
		{"Payment Status", "  Collection/Chargeoff  ", models.FieldPaymentStatus, "Collection/Chargeoff"},
	}
	for _, c := range cases {
		key, value := fm.Apply(c.label, c.raw)
		if key != c.wantKey || value != c.wantValue {
			t.Errorf("Apply(%q, %q) = (%q, %q), want (%q, %q)",
				c.label, c.raw, key, value, c.wantKey, c.wantValue)
		}
	}
}

func TestFieldMapUnmappedLabelPassesThrough(t *testing.T) {
	fm := DefaultFieldMap()

	key, value := fm.Apply("Dispute Flag", "Yes")
	if key != "Dispute Flag" {
		t.Errorf("unmapped key = %q, want raw label", key)
	}
	if value != "Yes" {
		t.Errorf("unmapped value = %q, want untouched", value)
	}
	if fm.IsMapped("Dispute Flag") {
		t.Error("IsMapped should be false for unknown label")
	}
}

func TestFieldMapBadValuesDegrade(t *testing.T) {
	fm := DefaultFieldMap()

	if _, v := fm.Apply("Balance", "N/A"); v != "0" {
		t.Errorf("currency degrade = %q, want \"0\"", v)
	}
	if _, v := fm.Apply("Date Opened", "unknown"); v != "" {
		t.Errorf("date degrade = %q, want \"\"", v)
	}
}

func TestFieldMapLaterEntriesOverride(t *testing.T) {
	entries := append([]Entry{}, DefaultEntries...)
	entries = append(entries, Entry{"Balance", "custom_balance", KindPassthrough})
	fm := NewFieldMap(entries)

	key, value := fm.Apply("Balance", "$10")
	if key != "custom_balance" || value != "$10" {
		t.Errorf("override not applied: got (%q, %q)", key, value)
	}
}
