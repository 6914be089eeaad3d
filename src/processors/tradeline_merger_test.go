package processors

import (
	"testing"

	"github.com/username/creditfolio/src/models"
)

func group(position int, creditor string, records ...models.BureauAccountRecord) models.AccountGroup {
	return models.AccountGroup{Position: position, Creditor: creditor, Records: records}
}

func rec(bureau models.Bureau, fields map[string]string) models.BureauAccountRecord {
	return models.BureauAccountRecord{Bureau: bureau, Fields: fields}
}

func TestMergeCollapsesGroupsSharingAccountNumber(t *testing.T) {
	merger := NewTradelineMerger()

	// The document split one account into two positional sections, each
	// reported by a different bureau.
	groups := []models.AccountGroup{
		group(0, "CAPITAL ONE",
			rec(models.BureauTransUnion, map[string]string{
				models.FieldAccountNumber: "****1234",
				models.FieldBalance:       "1500",
			})),
		group(1, "CAP ONE",
			rec(models.BureauExperian, map[string]string{
				models.FieldAccountNumber: "****1234",
				models.FieldBalance:       "1450",
			})),
	}

	tradelines := merger.Merge(groups)
	if len(tradelines) != 1 {
		t.Fatalf("got %d tradelines, want 1", len(tradelines))
	}

	tl := tradelines[0]
	if tl.Meta.AccountNumber != "****1234" {
		t.Errorf("account number = %q", tl.Meta.AccountNumber)
	}
	// The earlier merge target keeps its creditor name.
	if tl.Meta.CreditorName != "CAPITAL ONE" {
		t.Errorf("creditor = %q, want first-seen name", tl.Meta.CreditorName)
	}
	if len(tl.PerBureau) != 2 {
		t.Fatalf("got %d bureau records, want 2", len(tl.PerBureau))
	}
	if tl.PerBureau[models.BureauTransUnion].Fields[models.FieldBalance] != "1500" {
		t.Error("TransUnion record lost in merge")
	}
	if tl.PerBureau[models.BureauExperian].Fields[models.FieldBalance] != "1450" {
		t.Error("Experian record lost in merge")
	}
}

func TestMergeKeepsDistinctAccountsSeparate(t *testing.T) {
	merger := NewTradelineMerger()

	groups := []models.AccountGroup{
		group(0, "CAPITAL ONE",
			rec(models.BureauTransUnion, map[string]string{models.FieldAccountNumber: "****1234"})),
		group(1, "SYNCB",
			rec(models.BureauTransUnion, map[string]string{models.FieldAccountNumber: "****9999"})),
	}

	tradelines := merger.Merge(groups)
	if len(tradelines) != 2 {
		t.Fatalf("got %d tradelines, want 2", len(tradelines))
	}
	// First-seen document order is preserved.
	if tradelines[0].Meta.CreditorName != "CAPITAL ONE" || tradelines[1].Meta.CreditorName != "SYNCB" {
		t.Errorf("order = %q, %q", tradelines[0].Meta.CreditorName, tradelines[1].Meta.CreditorName)
	}
}

func TestMergeWithoutAccountNumbersUsesPositionalGrouping(t *testing.T) {
	merger := NewTradelineMerger()

	// No bureau reported an account number: each positional group stands
	// alone even when creditors match.
	groups := []models.AccountGroup{
		group(0, "MEDICAL COLLECTION",
			rec(models.BureauEquifax, map[string]string{models.FieldBalance: "300"})),
		group(1, "MEDICAL COLLECTION",
			rec(models.BureauExperian, map[string]string{models.FieldBalance: "300"})),
	}

	tradelines := merger.Merge(groups)
	if len(tradelines) != 2 {
		t.Fatalf("got %d tradelines, want 2", len(tradelines))
	}
	if tradelines[0].Meta.AccountNumber != "" {
		t.Errorf("account number = %q, want empty", tradelines[0].Meta.AccountNumber)
	}
}

func TestMergeMultiBureauGroup(t *testing.T) {
	merger := NewTradelineMerger()

	groups := []models.AccountGroup{
		group(0, "DISCOVER",
			rec(models.BureauTransUnion, map[string]string{models.FieldAccountNumber: "6011****"}),
			rec(models.BureauExperian, map[string]string{models.FieldAccountNumber: "6011****"}),
			rec(models.BureauEquifax, map[string]string{models.FieldAccountNumber: "6011****"})),
	}

	tradelines := merger.Merge(groups)
	if len(tradelines) != 1 {
		t.Fatalf("got %d tradelines, want 1", len(tradelines))
	}
	if len(tradelines[0].PerBureau) != 3 {
		t.Errorf("got %d bureau records, want 3", len(tradelines[0].PerBureau))
	}
}

func TestMergeFirstRecordWinsOnDuplicateBureau(t *testing.T) {
	merger := NewTradelineMerger()

	groups := []models.AccountGroup{
		group(0, "CHASE",
			rec(models.BureauTransUnion, map[string]string{
				models.FieldAccountNumber: "****0001",
				models.FieldBalance:       "100",
			})),
		group(1, "CHASE",
			rec(models.BureauTransUnion, map[string]string{
				models.FieldAccountNumber: "****0001",
				models.FieldBalance:       "999",
			})),
	}

	tradelines := merger.Merge(groups)
	if len(tradelines) != 1 {
		t.Fatalf("got %d tradelines, want 1", len(tradelines))
	}
	if got := tradelines[0].PerBureau[models.BureauTransUnion].Fields[models.FieldBalance]; got != "100" {
		t.Errorf("balance = %q, want first-seen record to win", got)
	}
}
