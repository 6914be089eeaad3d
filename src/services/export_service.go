package services

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/username/creditfolio/src/model"
	"github.com/username/creditfolio/src/models"
	"github.com/username/creditfolio/src/security/validation"
)

// BuildReportWorkbook renders one stored report as a spreadsheet for the
// dashboard export: a Tradelines sheet with per-bureau key fields and a
// Violations sheet with every finding. String cells go through the
// formula-injection sanitizer because tradeline data is ultimately
// attacker-controlled (it comes from uploaded documents).
func BuildReportWorkbook(stored *model.StoredReport, aggregate *models.ReportAggregate) (*excelize.File, error) {
	f := excelize.NewFile()

	const tradelineSheet = "Tradelines"
	if err := f.SetSheetName("Sheet1", tradelineSheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}

	tradelineHeader := []interface{}{
		"Creditor", "Account Number", "Bureau", "Account Status",
		"Balance", "Past Due", "Date Opened", "Date First Delinquency", "Violations",
	}
	if err := f.SetSheetRow(tradelineSheet, "A1", &tradelineHeader); err != nil {
		return nil, fmt.Errorf("writing tradeline header: %w", err)
	}

	row := 2
	for _, tl := range aggregate.Tradelines {
		for _, bureau := range models.AllBureaus {
			record, ok := tl.PerBureau[bureau]
			if !ok {
				continue
			}
			cells := []interface{}{
				validation.SanitizeForFormulaInjection(tl.Meta.CreditorName),
				validation.SanitizeForFormulaInjection(tl.Meta.AccountNumber),
				string(bureau),
				validation.SanitizeForFormulaInjection(record.Fields[models.FieldAccountStatus]),
				validation.SanitizeForFormulaInjection(record.Fields[models.FieldBalance]),
				validation.SanitizeForFormulaInjection(record.Fields[models.FieldPastDue]),
				validation.SanitizeForFormulaInjection(record.Fields[models.FieldDateOpened]),
				validation.SanitizeForFormulaInjection(record.Fields[models.FieldDateFirstDelinquency]),
				tl.ViolationCount(),
			}
			if err := f.SetSheetRow(tradelineSheet, fmt.Sprintf("A%d", row), &cells); err != nil {
				return nil, fmt.Errorf("writing tradeline row %d: %w", row, err)
			}
			row++
		}
	}

	const violationSheet = "Violations"
	if _, err := f.NewSheet(violationSheet); err != nil {
		return nil, fmt.Errorf("creating violations sheet: %w", err)
	}
	violationHeader := []interface{}{"Creditor", "Rule", "Title", "Category", "Source"}
	if err := f.SetSheetRow(violationSheet, "A1", &violationHeader); err != nil {
		return nil, fmt.Errorf("writing violation header: %w", err)
	}

	row = 2
	for _, tl := range aggregate.Tradelines {
		for category, violations := range tl.ViolationsGrouped {
			for _, v := range violations {
				cells := []interface{}{
					validation.SanitizeForFormulaInjection(tl.Meta.CreditorName),
					v.ID,
					validation.SanitizeForFormulaInjection(v.Title),
					category,
					v.Source,
				}
				if err := f.SetSheetRow(violationSheet, fmt.Sprintf("A%d", row), &cells); err != nil {
					return nil, fmt.Errorf("writing violation row %d: %w", row, err)
				}
				row++
			}
		}
	}

	return f, nil
}
