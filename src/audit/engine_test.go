package audit

import (
	"testing"
	"time"

	"github.com/username/creditfolio/src/models"
)

func record(bureau models.Bureau, fields map[string]string) *models.BureauAccountRecord {
	return &models.BureauAccountRecord{Bureau: bureau, Fields: fields}
}

func tradelineWith(records map[models.Bureau]map[string]string) *models.Tradeline {
	tl := models.NewTradeline(models.TradelineMeta{CreditorName: "TEST CREDITOR"})
	for bureau, fields := range records {
		tl.PerBureau[bureau] = record(bureau, fields)
	}
	return tl
}

func TestStatusRequiresFieldFiresOnMissingDOFD(t *testing.T) {
	engine := NewEngine([]Rule{{
		ID:       "MISSING_DOFD",
		Title:    "Missing date of first delinquency",
		Kind:     KindStatusRequiresField,
		Field:    models.FieldDateFirstDelinquency,
		Statuses: []string{"Collection", "Charge-off"},
	}})

	tl := tradelineWith(map[models.Bureau]map[string]string{
		models.BureauEquifax: {
			models.FieldAccountStatus: "Collection",
		},
	})
	engine.Audit(tl)

	if tl.ViolationCount() != 1 {
		t.Fatalf("got %d violations, want 1", tl.ViolationCount())
	}
	v := tl.Violations[0]
	if v.ID != "MISSING_DOFD" {
		t.Errorf("violation ID = %q", v.ID)
	}
	if v.Source != Source {
		t.Errorf("violation source = %q, want %q", v.Source, Source)
	}
	if v.Details["bureau"] != string(models.BureauEquifax) {
		t.Errorf("details bureau = %q", v.Details["bureau"])
	}
	if len(tl.ViolationsGrouped["Basic"]) != 1 {
		t.Errorf("violation not grouped under default category: %v", tl.ViolationsGrouped)
	}
}

func TestStatusRequiresFieldEmptyValueCountsAsMissing(t *testing.T) {
	engine := NewEngine([]Rule{{
		ID:       "MISSING_DOFD",
		Kind:     KindStatusRequiresField,
		Field:    models.FieldDateFirstDelinquency,
		Statuses: []string{"Collection"},
	}})

	tl := tradelineWith(map[models.Bureau]map[string]string{
		models.BureauTransUnion: {
			models.FieldAccountStatus:        "collection",
			models.FieldDateFirstDelinquency: "",
		},
	})
	engine.Audit(tl)

	if tl.ViolationCount() != 1 {
		t.Fatalf("empty DOFD should fire, got %d violations", tl.ViolationCount())
	}
}

func TestStatusRequiresFieldDoesNotFireWhenPresent(t *testing.T) {
	engine := NewEngine([]Rule{{
		ID:       "MISSING_DOFD",
		Kind:     KindStatusRequiresField,
		Field:    models.FieldDateFirstDelinquency,
		Statuses: []string{"Collection"},
	}})

	tl := tradelineWith(map[models.Bureau]map[string]string{
		models.BureauTransUnion: {
			models.FieldAccountStatus:        "Collection",
			models.FieldDateFirstDelinquency: "01/15/2021",
		},
	})
	engine.Audit(tl)

	if tl.ViolationCount() != 0 {
		t.Fatalf("got %d violations, want 0", tl.ViolationCount())
	}
}

func TestStatusMatchingIgnoresCaseAndHyphens(t *testing.T) {
	engine := NewEngine([]Rule{{
		ID:       "MISSING_DOFD",
		Kind:     KindStatusRequiresField,
		Field:    models.FieldDateFirstDelinquency,
		Statuses: []string{"Charge-off"},
	}})

	for _, status := range []string{"CHARGE OFF", "chargeoff", "Charge-Off"} {
		tl := tradelineWith(map[models.Bureau]map[string]string{
			models.BureauExperian: {models.FieldAccountStatus: status},
		})
		engine.Audit(tl)
		if tl.ViolationCount() != 1 {
			t.Errorf("status %q should match Charge-off trigger", status)
		}
	}
}

func TestCrossBureauNumericMismatch(t *testing.T) {
	engine := NewEngine([]Rule{{
		ID:    "BALANCE_MISMATCH",
		Kind:  KindCrossBureauNumericMismatch,
		Field: models.FieldBalance,
	}})

	tl := tradelineWith(map[models.Bureau]map[string]string{
		models.BureauTransUnion: {models.FieldBalance: "$100"},
		models.BureauExperian:   {models.FieldBalance: "$200"},
	})
	engine.Audit(tl)

	if tl.ViolationCount() != 1 {
		t.Fatalf("got %d violations, want 1", tl.ViolationCount())
	}
	v := tl.Violations[0]
	if v.Details[string(models.BureauTransUnion)] != "$100" || v.Details[string(models.BureauExperian)] != "$200" {
		t.Errorf("details should carry per-bureau raw values: %v", v.Details)
	}
}

func TestCrossBureauNumericMismatchEquivalentFormsAgree(t *testing.T) {
	engine := NewEngine([]Rule{{
		ID:    "BALANCE_MISMATCH",
		Kind:  KindCrossBureauNumericMismatch,
		Field: models.FieldBalance,
	}})

	// Same amount in different textual forms must not fire.
	tl := tradelineWith(map[models.Bureau]map[string]string{
		models.BureauTransUnion: {models.FieldBalance: "$1,500.00"},
		models.BureauEquifax:    {models.FieldBalance: "1500"},
	})
	engine.Audit(tl)

	if tl.ViolationCount() != 0 {
		t.Fatalf("equal normalized amounts should not fire, got %d", tl.ViolationCount())
	}
}

func TestCrossBureauMismatchNeedsTwoBureaus(t *testing.T) {
	engine := NewEngine([]Rule{{
		ID:    "BALANCE_MISMATCH",
		Kind:  KindCrossBureauNumericMismatch,
		Field: models.FieldBalance,
	}})

	tl := tradelineWith(map[models.Bureau]map[string]string{
		models.BureauTransUnion: {models.FieldBalance: "$100"},
	})
	engine.Audit(tl)

	if tl.ViolationCount() != 0 {
		t.Fatalf("single-bureau field should not fire, got %d", tl.ViolationCount())
	}
}

func TestCrossBureauValueMismatch(t *testing.T) {
	engine := NewEngine([]Rule{{
		ID:       "DATE_OPENED_MISMATCH",
		Category: "Consistency",
		Kind:     KindCrossBureauValueMismatch,
		Field:    models.FieldDateOpened,
	}})

	tl := tradelineWith(map[models.Bureau]map[string]string{
		models.BureauTransUnion: {models.FieldDateOpened: "01/15/2020"},
		models.BureauExperian:   {models.FieldDateOpened: "02/20/2020"},
	})
	engine.Audit(tl)

	if len(tl.ViolationsGrouped["Consistency"]) != 1 {
		t.Fatalf("mismatch should fire under Consistency: %v", tl.ViolationsGrouped)
	}
}

func TestNonzeroFieldForStatus(t *testing.T) {
	engine := NewEngine([]Rule{{
		ID:       "BALANCE_ON_PAID",
		Kind:     KindNonzeroFieldForStatus,
		Field:    models.FieldBalance,
		Statuses: []string{"Paid"},
	}})

	fired := tradelineWith(map[models.Bureau]map[string]string{
		models.BureauEquifax: {
			models.FieldAccountStatus: "Paid",
			models.FieldBalance:       "$250",
		},
	})
	engine.Audit(fired)
	if fired.ViolationCount() != 1 {
		t.Errorf("nonzero balance on paid account should fire")
	}

	clean := tradelineWith(map[models.Bureau]map[string]string{
		models.BureauEquifax: {
			models.FieldAccountStatus: "Paid",
			models.FieldBalance:       "$0",
		},
	})
	engine.Audit(clean)
	if clean.ViolationCount() != 0 {
		t.Errorf("zero balance on paid account should not fire")
	}
}

func TestObsoleteDateUsesInjectedClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	engine := NewEngineWithClock([]Rule{{
		ID:       "OBSOLETE_ACCOUNT",
		Category: "FCRA",
		Kind:     KindObsoleteDate,
		Field:    models.FieldDateFirstDelinquency,
		Years:    7,
	}}, func() time.Time { return now })

	old := tradelineWith(map[models.Bureau]map[string]string{
		models.BureauTransUnion: {models.FieldDateFirstDelinquency: "05/01/2018"},
	})
	engine.Audit(old)
	if len(old.ViolationsGrouped["FCRA"]) != 1 {
		t.Errorf("DOFD older than 7 years should fire")
	}

	recent := tradelineWith(map[models.Bureau]map[string]string{
		models.BureauTransUnion: {models.FieldDateFirstDelinquency: "07/01/2018"},
	})
	engine.Audit(recent)
	if recent.ViolationCount() != 0 {
		t.Errorf("DOFD within 7 years should not fire")
	}
}

func TestAuditIsIdempotent(t *testing.T) {
	engine := NewEngine([]Rule{{
		ID:    "BALANCE_MISMATCH",
		Kind:  KindCrossBureauNumericMismatch,
		Field: models.FieldBalance,
	}})

	tl := tradelineWith(map[models.Bureau]map[string]string{
		models.BureauTransUnion: {models.FieldBalance: "$100"},
		models.BureauExperian:   {models.FieldBalance: "$200"},
	})
	engine.Audit(tl)
	first := tl.Violations[0]

	engine.Audit(tl)
	if tl.ViolationCount() != 1 {
		t.Fatalf("re-audit duplicated violations: %d", tl.ViolationCount())
	}
	if tl.Violations[0] != first {
		t.Error("re-audit should preserve the original violation object")
	}
	if len(tl.ViolationsGrouped["Basic"]) != 1 {
		t.Errorf("grouped view duplicated on re-audit: %v", tl.ViolationsGrouped)
	}
}

func TestViolationsAttachInRuleDeclarationOrder(t *testing.T) {
	engine := NewEngine([]Rule{
		{ID: "DATE_OPENED_MISMATCH", Kind: KindCrossBureauValueMismatch, Field: models.FieldDateOpened},
		{ID: "BALANCE_MISMATCH", Kind: KindCrossBureauNumericMismatch, Field: models.FieldBalance},
	})

	tl := tradelineWith(map[models.Bureau]map[string]string{
		models.BureauTransUnion: {
			models.FieldDateOpened: "01/15/2020",
			models.FieldBalance:    "$100",
		},
		models.BureauExperian: {
			models.FieldDateOpened: "02/20/2020",
			models.FieldBalance:    "$200",
		},
	})
	engine.Audit(tl)

	if tl.ViolationCount() != 2 {
		t.Fatalf("got %d violations, want 2", tl.ViolationCount())
	}
	if tl.Violations[0].ID != "DATE_OPENED_MISMATCH" || tl.Violations[1].ID != "BALANCE_MISMATCH" {
		t.Errorf("violations out of declaration order: %s, %s", tl.Violations[0].ID, tl.Violations[1].ID)
	}
}
