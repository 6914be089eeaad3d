package parsers

import (
	"io"

	"github.com/username/creditfolio/src/models"
)

// Parser turns one raw report document into positional account groups,
// each holding up to one BureauAccountRecord per bureau. Grouping by
// document position is the merge fallback when account numbers are
// missing, so parsers must emit groups in document order.
type Parser interface {
	Parse(r io.Reader) ([]models.AccountGroup, error)
}
