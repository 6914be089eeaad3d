package processors

import (
	"github.com/username/creditfolio/src/models"
)

// TradelineMerger collapses the parser's positional account groups into
// one Tradeline per underlying account across bureaus.
type TradelineMerger interface {
	Merge(groups []models.AccountGroup) []*models.Tradeline
}
