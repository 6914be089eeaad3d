package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/services"
	"github.com/username/creditfolio/src/utils"
)

// BillingHandler exposes the entitlement state and its sync endpoint.
// Payment processing happens in an external system; that system (or an
// operator acting for it) posts plan updates here and the upload path
// enforces them.
type BillingHandler struct {
	entitlementService services.EntitlementService
}

func NewBillingHandler(entitlementService services.EntitlementService) *BillingHandler {
	return &BillingHandler{entitlementService: entitlementService}
}

type entitlementSyncRequest struct {
	Plan               string    `json:"plan"`
	Status             string    `json:"status"`
	MonthlyReportLimit int       `json:"monthly_report_limit"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
}

// HandleGetEntitlement returns the authenticated user's current plan state.
func (h *BillingHandler) HandleGetEntitlement(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	entitlement, err := h.entitlementService.GetEntitlement(userID)
	if err != nil {
		logger.L.Error("Error retrieving entitlement", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error retrieving entitlement.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entitlement)
}

// HandleEntitlementSync applies a plan update for the authenticated user.
func (h *BillingHandler) HandleEntitlementSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req entitlementSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request payload.", http.StatusBadRequest)
		return
	}
	if req.Plan == "" || req.Status == "" {
		utils.SendJSONError(w, "plan and status are required", http.StatusBadRequest)
		return
	}
	if req.MonthlyReportLimit < 0 {
		utils.SendJSONError(w, "monthly_report_limit must not be negative", http.StatusBadRequest)
		return
	}

	if err := h.entitlementService.ApplyEntitlementUpdate(userID, req.Plan, req.Status, req.MonthlyReportLimit, req.CurrentPeriodEnd); err != nil {
		logger.L.Error("Error applying entitlement update", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error applying entitlement update.", http.StatusInternalServerError)
		return
	}

	entitlement, err := h.entitlementService.GetEntitlement(userID)
	if err != nil {
		logger.L.Error("Error reloading entitlement after sync", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error retrieving entitlement.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entitlement)
}
