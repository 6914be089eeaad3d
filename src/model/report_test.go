package model

import (
	"testing"
	"time"

	"github.com/username/creditfolio/src/models"
)

func TestStoredReportRoundTrip(t *testing.T) {
	tl := models.NewTradeline(models.TradelineMeta{CreditorName: "CAPITAL ONE", AccountNumber: "****1234"})
	tl.PerBureau[models.BureauTransUnion] = &models.BureauAccountRecord{
		Bureau: models.BureauTransUnion,
		Fields: map[string]string{models.FieldBalance: "1500"},
	}
	tl.AttachViolation(&models.Violation{ID: "MISSING_DOFD", Title: "Missing DOFD", Source: "basic_rule_audit"}, "Basic")

	aggregate := &models.ReportAggregate{
		Tradelines: []*models.Tradeline{tl},
		Metadata: models.ReportMetadata{
			ParsedAt:     time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
			SourceFormat: "html",
		},
	}

	stored, err := NewStoredReport("rep-1", 7, "client-1", aggregate)
	if err != nil {
		t.Fatalf("wrapping aggregate: %v", err)
	}
	if stored.TradelineCount != 1 || stored.ViolationCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", stored.TradelineCount, stored.ViolationCount)
	}
	if stored.SourceFormat != "html" || !stored.ParsedAt.Equal(aggregate.Metadata.ParsedAt) {
		t.Errorf("metadata not carried over: %+v", stored)
	}

	restored, err := stored.Aggregate()
	if err != nil {
		t.Fatalf("unmarshalling aggregate: %v", err)
	}
	if len(restored.Tradelines) != 1 {
		t.Fatalf("restored %d tradelines, want 1", len(restored.Tradelines))
	}
	got := restored.Tradelines[0]
	if got.Meta.CreditorName != "CAPITAL ONE" {
		t.Errorf("creditor = %q", got.Meta.CreditorName)
	}
	if got.ViolationCount() != 1 || len(got.ViolationsGrouped["Basic"]) != 1 {
		t.Errorf("violations lost in round trip: %+v", got)
	}

	// A deserialized tradeline must keep the shared-identity contract:
	// attaching the same finding again reuses the restored object.
	again := got.AttachViolation(&models.Violation{ID: "MISSING_DOFD", Title: "Missing DOFD"}, "Basic")
	if again != got.Violations[0] {
		t.Error("attach after round trip should reuse the existing violation")
	}
	if got.ViolationCount() != 1 {
		t.Errorf("attach after round trip duplicated: %d", got.ViolationCount())
	}
}
