package model

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/username/creditfolio/src/models"
)

var ErrReportNotFound = errors.New("report not found")

// StoredReport is one persisted audit run. The full ReportAggregate is
// stored as JSON; the count columns exist so list views and the upload
// allowance check never need to unmarshal the blob.
type StoredReport struct {
	ID             string    `json:"id"`
	UserID         int64     `json:"user_id"`
	ClientID       string    `json:"client_id"`
	SourceFormat   string    `json:"source_format"`
	ParsedAt       time.Time `json:"parsed_at"`
	TradelineCount int       `json:"tradeline_count"`
	ViolationCount int       `json:"violation_count"`

	aggregateJSON string
}

// NewStoredReport wraps an aggregate for persistence.
func NewStoredReport(id string, userID int64, clientID string, aggregate *models.ReportAggregate) (*StoredReport, error) {
	data, err := json.Marshal(aggregate)
	if err != nil {
		return nil, fmt.Errorf("marshalling report aggregate: %w", err)
	}
	return &StoredReport{
		ID:             id,
		UserID:         userID,
		ClientID:       clientID,
		SourceFormat:   aggregate.Metadata.SourceFormat,
		ParsedAt:       aggregate.Metadata.ParsedAt,
		TradelineCount: len(aggregate.Tradelines),
		ViolationCount: aggregate.TotalViolations(),
		aggregateJSON:  string(data),
	}, nil
}

// Aggregate unmarshals the stored ReportAggregate.
func (r *StoredReport) Aggregate() (*models.ReportAggregate, error) {
	var aggregate models.ReportAggregate
	if err := json.Unmarshal([]byte(r.aggregateJSON), &aggregate); err != nil {
		return nil, fmt.Errorf("unmarshalling stored report %s: %w", r.ID, err)
	}
	return &aggregate, nil
}

// Save inserts the report row.
func (r *StoredReport) Save(db *sql.DB) error {
	_, err := db.Exec(
		`INSERT INTO credit_reports (id, user_id, client_id, source_format, parsed_at, tradeline_count, violation_count, aggregate_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.ClientID, r.SourceFormat, r.ParsedAt, r.TradelineCount, r.ViolationCount, r.aggregateJSON,
	)
	return err
}

// GetReportByID fetches a report scoped to its owning user.
func GetReportByID(db *sql.DB, userID int64, id string) (*StoredReport, error) {
	var r StoredReport
	err := db.QueryRow(
		`SELECT id, user_id, client_id, source_format, parsed_at, tradeline_count, violation_count, aggregate_json
		 FROM credit_reports WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&r.ID, &r.UserID, &r.ClientID, &r.SourceFormat, &r.ParsedAt, &r.TradelineCount, &r.ViolationCount, &r.aggregateJSON)
	if err == sql.ErrNoRows {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetLatestReportForClient returns the newest report for one client,
// used by the read-only portal summary.
func GetLatestReportForClient(db *sql.DB, clientID string) (*StoredReport, error) {
	var r StoredReport
	err := db.QueryRow(
		`SELECT id, user_id, client_id, source_format, parsed_at, tradeline_count, violation_count, aggregate_json
		 FROM credit_reports WHERE client_id = ? ORDER BY parsed_at DESC, id DESC LIMIT 1`, clientID,
	).Scan(&r.ID, &r.UserID, &r.ClientID, &r.SourceFormat, &r.ParsedAt, &r.TradelineCount, &r.ViolationCount, &r.aggregateJSON)
	if err == sql.ErrNoRows {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReports returns report rows (without unmarshalling aggregates) for
// a user, newest first.
func ListReports(db *sql.DB, userID int64) ([]StoredReport, error) {
	rows, err := db.Query(
		`SELECT id, user_id, client_id, source_format, parsed_at, tradeline_count, violation_count, aggregate_json
		 FROM credit_reports WHERE user_id = ? ORDER BY parsed_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []StoredReport
	for rows.Next() {
		var r StoredReport
		if err := rows.Scan(&r.ID, &r.UserID, &r.ClientID, &r.SourceFormat, &r.ParsedAt, &r.TradelineCount, &r.ViolationCount, &r.aggregateJSON); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// CountReportsSince counts a user's reports parsed on or after a cutoff,
// used for the monthly plan allowance.
func CountReportsSince(db *sql.DB, userID int64, since time.Time) (int, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM credit_reports WHERE user_id = ? AND parsed_at >= ?`, userID, since,
	).Scan(&count)
	return count, err
}

// DeleteReport removes a report scoped to its owning user.
func DeleteReport(db *sql.DB, userID int64, id string) error {
	res, err := db.Exec(`DELETE FROM credit_reports WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReportNotFound
	}
	return nil
}
