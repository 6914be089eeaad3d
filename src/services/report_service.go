package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/creditfolio/src/database"
	"github.com/username/creditfolio/src/extractor"
	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/model"
	"github.com/username/creditfolio/src/models"
	"github.com/username/creditfolio/src/security/validation"
)

const (
	ckReportList    = "res_report_list_user_%d"
	ckPortalSummary = "agg_portal_summary_client_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// DocumentExtractor is the out-of-process conversion boundary for
// non-HTML uploads.
type DocumentExtractor interface {
	Extract(ctx context.Context, document io.Reader) (*extractor.Result, error)
}

type reportServiceImpl struct {
	pipeline    *AuditPipeline
	extractor   DocumentExtractor
	reportCache *cache.Cache
}

func NewReportService(pipeline *AuditPipeline, docExtractor DocumentExtractor, reportCache *cache.Cache) ReportService {
	return &reportServiceImpl{
		pipeline:    pipeline,
		extractor:   docExtractor,
		reportCache: reportCache,
	}
}

// ProcessUpload runs one document through extraction (when needed) and
// the audit pipeline, persists the aggregate and returns it. Failures
// before persistence surface as errors; a partially parsed document is
// never stored.
func (s *reportServiceImpl) ProcessUpload(ctx context.Context, fileReader io.Reader, userID int64, clientID, detectedContentType string) (*UploadResult, error) {
	overallStartTime := time.Now()
	logger.L.Info("ProcessUpload START", "userID", userID, "clientID", clientID, "contentType", detectedContentType)

	document, format, err := s.prepareDocument(ctx, fileReader, detectedContentType)
	if err != nil {
		return nil, err
	}

	aggregate, err := s.pipeline.Run(document, format)
	if err != nil {
		return nil, err
	}

	reportID := uuid.NewString()
	stored, err := model.NewStoredReport(reportID, userID, clientID, aggregate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}
	if err := stored.Save(database.DB); err != nil {
		return nil, fmt.Errorf("error persisting report %s: %w", reportID, err)
	}

	s.InvalidateUserCache(userID)
	s.reportCache.Delete(fmt.Sprintf(ckPortalSummary, clientID))

	logger.L.Info("ProcessUpload END",
		"userID", userID,
		"reportID", reportID,
		"tradelines", len(aggregate.Tradelines),
		"violations", aggregate.TotalViolations(),
		"duration", time.Since(overallStartTime))

	return &UploadResult{
		ReportID:       reportID,
		ClientID:       clientID,
		Aggregate:      aggregate,
		ViolationCount: aggregate.TotalViolations(),
	}, nil
}

// prepareDocument routes the upload to the right pipeline input: PDFs go
// through the external extractor, markup is sanitized and parsed
// directly, JSON passes straight through.
func (s *reportServiceImpl) prepareDocument(ctx context.Context, fileReader io.Reader, detectedContentType string) (io.Reader, string, error) {
	switch detectedContentType {
	case "application/pdf":
		result, err := s.extractor.Extract(ctx, fileReader)
		if err != nil {
			return nil, "", err
		}
		text := result.Text
		if result.Format == "html" {
			text = validation.SanitizeReportHTML(text)
		}
		return strings.NewReader(text), result.Format, nil

	case "application/json":
		return fileReader, "json", nil

	default:
		// HTML or plain text that sniffed as markup.
		raw, err := io.ReadAll(fileReader)
		if err != nil {
			return nil, "", fmt.Errorf("%w: reading upload: %v", ErrParsingFailed, err)
		}
		trimmed := strings.TrimSpace(string(raw))
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			return strings.NewReader(trimmed), "json", nil
		}
		return strings.NewReader(validation.SanitizeReportHTML(string(raw))), "html", nil
	}
}

func (s *reportServiceImpl) GetReport(userID int64, reportID string) (*model.StoredReport, *models.ReportAggregate, error) {
	stored, err := model.GetReportByID(database.DB, userID, reportID)
	if err != nil {
		return nil, nil, err
	}
	aggregate, err := stored.Aggregate()
	if err != nil {
		return nil, nil, err
	}
	return stored, aggregate, nil
}

func (s *reportServiceImpl) ListReports(userID int64) ([]model.StoredReport, error) {
	cacheKey := fmt.Sprintf(ckReportList, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for report list", "userID", userID)
		return cached.([]model.StoredReport), nil
	}

	reports, err := model.ListReports(database.DB, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing reports for userID %d: %w", userID, err)
	}
	s.reportCache.Set(cacheKey, reports, DefaultCacheExpiration)
	return reports, nil
}

func (s *reportServiceImpl) DeleteReport(userID int64, reportID string) error {
	if err := model.DeleteReport(database.DB, userID, reportID); err != nil {
		return err
	}
	s.InvalidateUserCache(userID)
	return nil
}

// GetPortalSummary builds the read-only view of a client's latest report.
func (s *reportServiceImpl) GetPortalSummary(clientID string) (*PortalSummary, error) {
	cacheKey := fmt.Sprintf(ckPortalSummary, clientID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for portal summary", "clientID", clientID)
		return cached.(*PortalSummary), nil
	}

	client, err := model.GetClientForPortal(database.DB, clientID)
	if err != nil {
		return nil, err
	}
	stored, err := model.GetLatestReportForClient(database.DB, clientID)
	if err != nil {
		return nil, err
	}
	aggregate, err := stored.Aggregate()
	if err != nil {
		return nil, err
	}

	summary := &PortalSummary{
		ClientName:      client.Name,
		ParsedAt:        aggregate.Metadata.ParsedAt,
		Tradelines:      []TradelineSummary{},
		TotalViolations: aggregate.TotalViolations(),
		ByCategory:      aggregate.ViolationCountsByCategory(),
	}
	for _, tl := range aggregate.Tradelines {
		var bureaus []string
		for _, bureau := range models.AllBureaus {
			if _, ok := tl.PerBureau[bureau]; ok {
				bureaus = append(bureaus, string(bureau))
			}
		}
		summary.Tradelines = append(summary.Tradelines, TradelineSummary{
			Creditor:       tl.Meta.CreditorName,
			Bureaus:        bureaus,
			ViolationCount: tl.ViolationCount(),
		})
	}

	s.reportCache.Set(cacheKey, summary, DefaultCacheExpiration)
	return summary, nil
}

// InvalidateUserCache clears cached report data for a user, forcing a
// rebuild on the next request.
func (s *reportServiceImpl) InvalidateUserCache(userID int64) {
	s.reportCache.Delete(fmt.Sprintf(ckReportList, userID))
	logger.L.Info("Invalidated report caches for user", "userID", userID)
}
