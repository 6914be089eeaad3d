package processors

import (
	"github.com/username/creditfolio/src/models"
)

// tradelineMerger implements the TradelineMerger interface.
//
// Matching rule: a non-empty account number is the authoritative merge
// key: groups the parser treated as separate positions collapse into one
// tradeline when they share one. Records without an account number fall
// back to the positional grouping the parser already established.
type tradelineMerger struct{}

// NewTradelineMerger creates a new instance of TradelineMerger.
func NewTradelineMerger() TradelineMerger {
	return &tradelineMerger{}
}

func (m *tradelineMerger) Merge(groups []models.AccountGroup) []*models.Tradeline {
	var ordered []*models.Tradeline
	byAccountNumber := make(map[string]*models.Tradeline)

	for _, group := range groups {
		// One pass to find a tradeline this whole group belongs to: the
		// first record with an account number already seen elsewhere.
		var target *models.Tradeline
		for _, record := range group.Records {
			number := record.AccountNumber()
			if number == "" {
				continue
			}
			if existing, ok := byAccountNumber[number]; ok {
				target = existing
				break
			}
		}

		if target == nil {
			target = models.NewTradeline(models.TradelineMeta{
				CreditorName: group.Creditor,
			})
			ordered = append(ordered, target)
		}

		for i := range group.Records {
			record := &group.Records[i]
			number := record.AccountNumber()
			if number != "" {
				if target.Meta.AccountNumber == "" {
					target.Meta.AccountNumber = number
				}
				byAccountNumber[number] = target
			}
			// First record wins when a bureau somehow appears twice for
			// the same account.
			if _, ok := target.PerBureau[record.Bureau]; !ok {
				target.PerBureau[record.Bureau] = record
			}
		}

		// Conflicting creditor names inside one positional group resolve
		// to the first non-empty name in bureau order; an earlier merge
		// target keeps its name.
		if target.Meta.CreditorName == "" {
			target.Meta.CreditorName = group.Creditor
		}
	}

	return ordered
}
