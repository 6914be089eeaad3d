package structured

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/models"
	"github.com/username/creditfolio/src/normalize"
)

// rawAccount mirrors the JSON the extraction process emits when it can
// structure the document itself: one entry per account section, with the
// original report labels preserved as field keys.
type rawAccount struct {
	Creditor string `json:"creditor"`
	Bureaus  []struct {
		Bureau string            `json:"bureau"`
		Fields map[string]string `json:"fields"`
	} `json:"bureaus"`
}

// StructuredParser consumes the extractor's JSON output. Field labels go
// through the same normalizer as the HTML path so both formats produce
// identical records.
type StructuredParser struct {
	fieldMap *normalize.FieldMap
}

func NewParser(fieldMap *normalize.FieldMap) *StructuredParser {
	return &StructuredParser{fieldMap: fieldMap}
}

func (p *StructuredParser) Parse(r io.Reader) ([]models.AccountGroup, error) {
	var accounts []rawAccount
	if err := json.NewDecoder(r).Decode(&accounts); err != nil {
		return nil, fmt.Errorf("failed to decode structured report JSON: %w", err)
	}

	var groups []models.AccountGroup
	for _, account := range accounts {
		group := models.AccountGroup{Position: len(groups), Creditor: account.Creditor}
		for _, entry := range account.Bureaus {
			bureau, ok := parseBureau(entry.Bureau)
			if !ok {
				logger.L.Debug("Skipping record with unknown bureau", "bureau", entry.Bureau)
				continue
			}
			if len(entry.Fields) == 0 {
				continue
			}
			fields := make(map[string]string, len(entry.Fields))
			for label, raw := range entry.Fields {
				key, value := p.fieldMap.Apply(label, raw)
				fields[key] = value
			}
			group.Records = append(group.Records, models.BureauAccountRecord{
				Bureau: bureau,
				Fields: fields,
			})
		}
		if len(group.Records) > 0 {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func parseBureau(name string) (models.Bureau, bool) {
	switch models.Bureau(name) {
	case models.BureauTransUnion, models.BureauExperian, models.BureauEquifax:
		return models.Bureau(name), true
	}
	return "", false
}
