package services

import (
	"strings"
	"testing"

	"github.com/username/creditfolio/src/model"
	"github.com/username/creditfolio/src/models"
)

func TestGenerateLettersOnePerBureauWithFindings(t *testing.T) {
	svc := NewLetterService()
	client := &model.Client{Name: "Jordan Smith"}

	dirty := models.NewTradeline(models.TradelineMeta{CreditorName: "CAPITAL ONE", AccountNumber: "****1234"})
	dirty.PerBureau[models.BureauTransUnion] = &models.BureauAccountRecord{Bureau: models.BureauTransUnion, Fields: map[string]string{}}
	dirty.PerBureau[models.BureauExperian] = &models.BureauAccountRecord{Bureau: models.BureauExperian, Fields: map[string]string{}}
	dirty.AttachViolation(&models.Violation{ID: "MISSING_DOFD", Title: "Missing date of first delinquency"}, "Basic")

	clean := models.NewTradeline(models.TradelineMeta{CreditorName: "DISCOVER"})
	clean.PerBureau[models.BureauEquifax] = &models.BureauAccountRecord{Bureau: models.BureauEquifax, Fields: map[string]string{}}

	aggregate := &models.ReportAggregate{Tradelines: []*models.Tradeline{dirty, clean}}

	letters, err := svc.GenerateLetters(client, aggregate)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	// Equifax only saw the clean tradeline, so no Equifax letter.
	if len(letters) != 2 {
		t.Fatalf("got %d letters, want 2", len(letters))
	}
	if letters[0].Bureau != string(models.BureauTransUnion) || letters[1].Bureau != string(models.BureauExperian) {
		t.Errorf("bureau order = %s, %s", letters[0].Bureau, letters[1].Bureau)
	}

	body := letters[0].Body
	for _, want := range []string{"Jordan Smith", "CAPITAL ONE", "****1234", "Missing date of first delinquency", "TransUnion"} {
		if !strings.Contains(body, want) {
			t.Errorf("letter body missing %q", want)
		}
	}
}

func TestGenerateLettersEmptyWhenNoViolations(t *testing.T) {
	svc := NewLetterService()

	clean := models.NewTradeline(models.TradelineMeta{CreditorName: "DISCOVER"})
	clean.PerBureau[models.BureauTransUnion] = &models.BureauAccountRecord{Bureau: models.BureauTransUnion, Fields: map[string]string{}}
	aggregate := &models.ReportAggregate{Tradelines: []*models.Tradeline{clean}}

	letters, err := svc.GenerateLetters(&model.Client{Name: "A"}, aggregate)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(letters) != 0 {
		t.Errorf("got %d letters, want 0", len(letters))
	}
}
