package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/username/creditfolio/src/database"
	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/model"
	"github.com/username/creditfolio/src/security"
	"github.com/username/creditfolio/src/services"
	"github.com/username/creditfolio/src/utils"
)

// PortalHandler serves the read-only client portal. There is no operator
// session here: the client id plus access code is the whole credential,
// so every response is the summary view and nothing else.
type PortalHandler struct {
	authService   *security.AuthService
	reportService services.ReportService
}

func NewPortalHandler(authService *security.AuthService, reportService services.ReportService) *PortalHandler {
	return &PortalHandler{authService: authService, reportService: reportService}
}

type portalRequest struct {
	ClientID   string `json:"client_id"`
	AccessCode string `json:"access_code"`
}

// HandlePortalSummary authenticates the access code and returns the
// client-facing summary of the latest report. Unknown client and wrong
// code are indistinguishable to the caller.
func (h *PortalHandler) HandlePortalSummary(w http.ResponseWriter, r *http.Request) {
	var req portalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request payload.", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ClientID) == "" || req.AccessCode == "" {
		utils.SendJSONError(w, "client_id and access_code are required", http.StatusBadRequest)
		return
	}

	client, err := model.GetClientForPortal(database.DB, req.ClientID)
	if err != nil {
		if errors.Is(err, model.ErrClientNotFound) {
			utils.SendJSONError(w, "invalid client or access code", http.StatusUnauthorized)
			return
		}
		logger.L.Error("Error retrieving client for portal", "clientID", req.ClientID, "error", err)
		utils.SendJSONError(w, "Error retrieving portal summary.", http.StatusInternalServerError)
		return
	}
	if client.PortalCodeHash == "" {
		logger.L.Warn("Portal access attempted before code issued", "clientID", req.ClientID)
		utils.SendJSONError(w, "invalid client or access code", http.StatusUnauthorized)
		return
	}
	if err := h.authService.ComparePortalCode(client.PortalCodeHash, req.AccessCode); err != nil {
		logger.L.Warn("Portal access code mismatch", "clientID", req.ClientID)
		utils.SendJSONError(w, "invalid client or access code", http.StatusUnauthorized)
		return
	}

	summary, err := h.reportService.GetPortalSummary(client.ID)
	if err != nil {
		if errors.Is(err, model.ErrReportNotFound) {
			utils.SendJSONError(w, "no report available yet", http.StatusNotFound)
			return
		}
		logger.L.Error("Error building portal summary", "clientID", req.ClientID, "error", err)
		utils.SendJSONError(w, "Error retrieving portal summary.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		logger.L.Error("Error encoding portal summary", "clientID", req.ClientID, "error", err)
	}
}
