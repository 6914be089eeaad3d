package model

import (
	"database/sql"
	"time"
)

// Entitlement is the billing-derived plan state for a user. Rows are
// written by the billing webhook collaborator through the entitlement
// service; this service only ever reads them to gate uploads.
type Entitlement struct {
	UserID             int64     `json:"user_id"`
	Plan               string    `json:"plan"`
	Status             string    `json:"status"`
	MonthlyReportLimit int       `json:"monthly_report_limit"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Active reports whether the plan currently allows processing.
func (e *Entitlement) Active(now time.Time) bool {
	if e.Status != "active" && e.Status != "trialing" {
		return false
	}
	if !e.CurrentPeriodEnd.IsZero() && now.After(e.CurrentPeriodEnd) {
		return false
	}
	return true
}

// GetEntitlement returns the stored entitlement, or a default free-plan
// row when billing has never synced this user.
func GetEntitlement(db *sql.DB, userID int64) (*Entitlement, error) {
	var e Entitlement
	var periodEnd sql.NullTime
	err := db.QueryRow(
		`SELECT user_id, plan, status, monthly_report_limit, current_period_end, updated_at
		 FROM entitlements WHERE user_id = ?`, userID,
	).Scan(&e.UserID, &e.Plan, &e.Status, &e.MonthlyReportLimit, &periodEnd, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return &Entitlement{
			UserID:             userID,
			Plan:               "free",
			Status:             "active",
			MonthlyReportLimit: 1,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	e.CurrentPeriodEnd = periodEnd.Time
	return &e, nil
}

// Upsert writes the entitlement row, replacing any prior state.
func (e *Entitlement) Upsert(db *sql.DB) error {
	_, err := db.Exec(
		`INSERT INTO entitlements (user_id, plan, status, monthly_report_limit, current_period_end, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET
			plan = excluded.plan,
			status = excluded.status,
			monthly_report_limit = excluded.monthly_report_limit,
			current_period_end = excluded.current_period_end,
			updated_at = CURRENT_TIMESTAMP`,
		e.UserID, e.Plan, e.Status, e.MonthlyReportLimit, nullableTime(e.CurrentPeriodEnd),
	)
	return err
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
