package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/username/creditfolio/src/database"
	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/model"
)

var (
	ErrPlanInactive  = errors.New("subscription plan is not active")
	ErrPlanExhausted = errors.New("monthly report allowance exhausted")
)

type entitlementServiceImpl struct{}

func NewEntitlementService() EntitlementService {
	return &entitlementServiceImpl{}
}

// ApplyEntitlementUpdate is called by the billing webhook collaborator
// after it has verified and decoded a provider event.
func (s *entitlementServiceImpl) ApplyEntitlementUpdate(userID int64, plan, status string, monthlyReportLimit int, currentPeriodEnd time.Time) error {
	if monthlyReportLimit <= 0 {
		monthlyReportLimit = 1
	}
	e := &model.Entitlement{
		UserID:             userID,
		Plan:               plan,
		Status:             status,
		MonthlyReportLimit: monthlyReportLimit,
		CurrentPeriodEnd:   currentPeriodEnd,
	}
	if err := e.Upsert(database.DB); err != nil {
		return fmt.Errorf("error syncing entitlement for userID %d: %w", userID, err)
	}
	logger.L.Info("Entitlement synced", "userID", userID, "plan", plan, "status", status)
	return nil
}

// CheckUploadAllowance gates report processing on the synced plan state:
// the plan must be active and the monthly report count under its limit.
func (s *entitlementServiceImpl) CheckUploadAllowance(userID int64) error {
	entitlement, err := model.GetEntitlement(database.DB, userID)
	if err != nil {
		return fmt.Errorf("error reading entitlement for userID %d: %w", userID, err)
	}

	now := time.Now()
	if !entitlement.Active(now) {
		return fmt.Errorf("%w (plan %s, status %s)", ErrPlanInactive, entitlement.Plan, entitlement.Status)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	used, err := model.CountReportsSince(database.DB, userID, monthStart)
	if err != nil {
		return fmt.Errorf("error counting reports for userID %d: %w", userID, err)
	}
	if used >= entitlement.MonthlyReportLimit {
		return fmt.Errorf("%w (%d/%d this month)", ErrPlanExhausted, used, entitlement.MonthlyReportLimit)
	}
	return nil
}

func (s *entitlementServiceImpl) GetEntitlement(userID int64) (*model.Entitlement, error) {
	return model.GetEntitlement(database.DB, userID)
}
