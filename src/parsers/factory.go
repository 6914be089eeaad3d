package parsers

import (
	"fmt"

	"github.com/username/creditfolio/src/normalize"
	"github.com/username/creditfolio/src/parsers/htmlreport"
	"github.com/username/creditfolio/src/parsers/structured"
)

// GetParser returns the parser for a source format. "html" covers report
// pages and text the extractor hands back as markup; "json" covers the
// extractor's already-structured output.
func GetParser(format string, fieldMap *normalize.FieldMap) (Parser, error) {
	switch format {
	case "html":
		return htmlreport.NewParser(fieldMap), nil
	case "json":
		return structured.NewParser(fieldMap), nil
	default:
		return nil, fmt.Errorf("no parser available for source format: %s", format)
	}
}
