package services

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/username/creditfolio/src/audit"
	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/models"
	"github.com/username/creditfolio/src/normalize"
	"github.com/username/creditfolio/src/parsers"
	"github.com/username/creditfolio/src/processors"
)

var (
	ErrParsingFailed    = errors.New("report parsing failed")
	ErrProcessingFailed = errors.New("report processing failed")
	ErrEmptyDocument    = errors.New("no account sections found in document")
)

// AuditPipeline is the synchronous parse → merge → audit core. It holds
// no mutable state between runs; each Run allocates a fresh aggregate, so
// concurrent runs over different documents need no locking.
type AuditPipeline struct {
	fieldMap *normalize.FieldMap
	merger   processors.TradelineMerger
	engine   *audit.Engine
}

func NewAuditPipeline(fieldMap *normalize.FieldMap, merger processors.TradelineMerger, engine *audit.Engine) *AuditPipeline {
	return &AuditPipeline{
		fieldMap: fieldMap,
		merger:   merger,
		engine:   engine,
	}
}

// Run parses one already-extracted document and produces the audited
// aggregate. A document in which no account section can be recognized is
// an error, never a silently empty result.
func (p *AuditPipeline) Run(r io.Reader, format string) (*models.ReportAggregate, error) {
	parser, err := parsers.GetParser(format, p.fieldMap)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	groups, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w (format %s)", ErrEmptyDocument, format)
	}

	tradelines := p.merger.Merge(groups)
	logger.L.Debug("Merged account groups into tradelines",
		"groups", len(groups), "tradelines", len(tradelines))

	aggregate := &models.ReportAggregate{
		Tradelines: tradelines,
		Metadata: models.ReportMetadata{
			ParsedAt:     time.Now().UTC(),
			SourceFormat: format,
		},
	}
	p.engine.AuditReport(aggregate)

	return aggregate, nil
}
