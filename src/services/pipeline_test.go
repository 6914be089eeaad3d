package services

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/username/creditfolio/src/audit"
	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/models"
	"github.com/username/creditfolio/src/normalize"
	"github.com/username/creditfolio/src/processors"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func testPipeline(rules []audit.Rule) *AuditPipeline {
	return NewAuditPipeline(
		normalize.DefaultFieldMap(),
		processors.NewTradelineMerger(),
		audit.NewEngine(rules),
	)
}

const splitAccountReport = `
<html><body>
<h2>CAPITAL ONE</h2>
<table>
  <tr><th>Field</th><th>TransUnion</th></tr>
  <tr><td>Account #</td><td>****1234</td></tr>
  <tr><td>Account Status</td><td>Collection</td></tr>
  <tr><td>Balance Owed</td><td>$1,500.00</td></tr>
</table>
<h2>CAPITAL ONE</h2>
<table>
  <tr><th>Field</th><th>Experian</th></tr>
  <tr><td>Account #</td><td>****1234</td></tr>
  <tr><td>Account Status</td><td>Collection</td></tr>
  <tr><td>Balance Owed</td><td>$1,650.00</td></tr>
</table>
</body></html>`

func TestPipelineMergesSplitSectionsAndAudits(t *testing.T) {
	p := testPipeline([]audit.Rule{
		{
			ID:       "MISSING_DOFD",
			Title:    "Missing date of first delinquency",
			Category: "Basic",
			Kind:     audit.KindStatusRequiresField,
			Field:    models.FieldDateFirstDelinquency,
			Statuses: []string{"Collection"},
		},
		{
			ID:       "BALANCE_MISMATCH",
			Title:    "Balance differs across bureaus",
			Category: "Basic",
			Kind:     audit.KindCrossBureauNumericMismatch,
			Field:    models.FieldBalance,
		},
	})

	aggregate, err := p.Run(strings.NewReader(splitAccountReport), "html")
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	// Two positional sections sharing an account number collapse to one
	// tradeline, which is what makes the cross-bureau rule able to fire.
	if len(aggregate.Tradelines) != 1 {
		t.Fatalf("got %d tradelines, want 1", len(aggregate.Tradelines))
	}
	tl := aggregate.Tradelines[0]
	if len(tl.PerBureau) != 2 {
		t.Fatalf("got %d bureau records, want 2", len(tl.PerBureau))
	}
	if tl.ViolationCount() != 2 {
		t.Fatalf("got %d violations, want 2: %+v", tl.ViolationCount(), tl.Violations)
	}
	if len(tl.ViolationsGrouped["Basic"]) != 2 {
		t.Errorf("grouped view = %v", tl.ViolationsGrouped)
	}
	for _, v := range tl.Violations {
		if v.Source != audit.Source {
			t.Errorf("violation %s source = %q", v.ID, v.Source)
		}
	}

	if aggregate.Metadata.SourceFormat != "html" {
		t.Errorf("source format = %q", aggregate.Metadata.SourceFormat)
	}
	if aggregate.Metadata.ParsedAt.IsZero() {
		t.Error("parsed-at timestamp not set")
	}
}

func TestPipelineStructuredFormat(t *testing.T) {
	p := testPipeline([]audit.Rule{{
		ID:    "BALANCE_MISMATCH",
		Kind:  audit.KindCrossBureauNumericMismatch,
		Field: models.FieldBalance,
	}})

	doc := `[{"creditor":"SYNCB","bureaus":[
		{"bureau":"TransUnion","fields":{"Balance":"$100"}},
		{"bureau":"Equifax","fields":{"Balance":"$200"}}
	]}]`
	aggregate, err := p.Run(strings.NewReader(doc), "json")
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if aggregate.TotalViolations() != 1 {
		t.Errorf("got %d violations, want 1", aggregate.TotalViolations())
	}
}

func TestPipelineEmptyDocumentIsAnError(t *testing.T) {
	p := testPipeline([]audit.Rule{{
		ID:    "BALANCE_MISMATCH",
		Kind:  audit.KindCrossBureauNumericMismatch,
		Field: models.FieldBalance,
	}})

	_, err := p.Run(strings.NewReader("<html><body></body></html>"), "html")
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("err = %v, want ErrEmptyDocument", err)
	}
}

func TestPipelineUnknownFormat(t *testing.T) {
	p := testPipeline(nil)

	_, err := p.Run(strings.NewReader("x"), "xml")
	if !errors.Is(err, ErrParsingFailed) {
		t.Fatalf("err = %v, want ErrParsingFailed", err)
	}
}

func TestPipelineMalformedJSON(t *testing.T) {
	p := testPipeline(nil)

	_, err := p.Run(strings.NewReader("{broken"), "json")
	if !errors.Is(err, ErrParsingFailed) {
		t.Fatalf("err = %v, want ErrParsingFailed", err)
	}
}
