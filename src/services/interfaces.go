package services

import (
	"context"
	"io"
	"time"

	"github.com/username/creditfolio/src/model"
	"github.com/username/creditfolio/src/models"
)

// UploadResult is the response payload for a processed report upload.
type UploadResult struct {
	ReportID       string                  `json:"report_id"`
	ClientID       string                  `json:"client_id"`
	Aggregate      *models.ReportAggregate `json:"aggregate"`
	ViolationCount int                     `json:"violation_count"`
}

// TradelineSummary is the read-only per-tradeline view the portal gets:
// identity and counts, no raw bureau data.
type TradelineSummary struct {
	Creditor       string   `json:"creditor"`
	Bureaus        []string `json:"bureaus"`
	ViolationCount int      `json:"violation_count"`
}

// PortalSummary is the client-facing subset of the latest report.
type PortalSummary struct {
	ClientName      string             `json:"client_name"`
	ParsedAt        time.Time          `json:"parsed_at"`
	Tradelines      []TradelineSummary `json:"tradelines"`
	TotalViolations int                `json:"total_violations"`
	ByCategory      map[string]int     `json:"violations_by_category"`
}

// ReportService drives the ingestion flow and read paths for reports.
type ReportService interface {
	ProcessUpload(ctx context.Context, fileReader io.Reader, userID int64, clientID, detectedContentType string) (*UploadResult, error)
	GetReport(userID int64, reportID string) (*model.StoredReport, *models.ReportAggregate, error)
	ListReports(userID int64) ([]model.StoredReport, error)
	DeleteReport(userID int64, reportID string) error
	GetPortalSummary(clientID string) (*PortalSummary, error)
	InvalidateUserCache(userID int64)
}

// EntitlementService is the billing sync point. The webhook collaborator
// translates provider events into ApplyEntitlementUpdate calls; the
// upload path asks CheckUploadAllowance before doing any work.
type EntitlementService interface {
	ApplyEntitlementUpdate(userID int64, plan, status string, monthlyReportLimit int, currentPeriodEnd time.Time) error
	CheckUploadAllowance(userID int64) error
	GetEntitlement(userID int64) (*model.Entitlement, error)
}

// LetterService renders dispute letters from a report's findings.
type LetterService interface {
	GenerateLetters(client *model.Client, aggregate *models.ReportAggregate) ([]DisputeLetter, error)
}
