package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/model"
	"github.com/username/creditfolio/src/services"
	"github.com/username/creditfolio/src/utils"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// HandleListReports returns the report rows for the dashboard list view.
func (h *ReportHandler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	reports, err := h.reportService.ListReports(userID)
	if err != nil {
		logger.L.Error("Error listing reports", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error retrieving reports.", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []model.StoredReport{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reports); err != nil {
		logger.L.Error("Error encoding report list", "userID", userID, "error", err)
	}
}

// HandleGetReport returns one full report aggregate with ETag support so
// the dashboard can poll cheaply.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	reportID := r.PathValue("id")

	stored, aggregate, err := h.reportService.GetReport(userID, reportID)
	if err != nil {
		if errors.Is(err, model.ErrReportNotFound) {
			utils.SendJSONError(w, "report not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving report", "userID", userID, "reportID", reportID, "error", err)
		utils.SendJSONError(w, "Error retrieving report.", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"report":    stored,
		"aggregate": aggregate,
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	currentETag, etagErr := utils.GenerateETag(response)
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				logger.L.Debug("ETag match for report", "userID", userID, "reportID", reportID)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	} else {
		logger.L.Warn("Proceeding without ETag check due to ETag generation error", "userID", userID, "reportID", reportID)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.L.Error("Error encoding report response", "userID", userID, "reportID", reportID, "error", err)
	}
}

// HandleDeleteReport removes one stored report.
func (h *ReportHandler) HandleDeleteReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	reportID := r.PathValue("id")

	if err := h.reportService.DeleteReport(userID, reportID); err != nil {
		if errors.Is(err, model.ErrReportNotFound) {
			utils.SendJSONError(w, "report not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error deleting report", "userID", userID, "reportID", reportID, "error", err)
		utils.SendJSONError(w, "Error deleting report.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted", "report_id": reportID})
}

// HandleExportReport streams the report as an .xlsx workbook.
func (h *ReportHandler) HandleExportReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	reportID := r.PathValue("id")

	stored, aggregate, err := h.reportService.GetReport(userID, reportID)
	if err != nil {
		if errors.Is(err, model.ErrReportNotFound) {
			utils.SendJSONError(w, "report not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving report for export", "userID", userID, "reportID", reportID, "error", err)
		utils.SendJSONError(w, "Error retrieving report.", http.StatusInternalServerError)
		return
	}

	workbook, err := services.BuildReportWorkbook(stored, aggregate)
	if err != nil {
		logger.L.Error("Error building report workbook", "userID", userID, "reportID", reportID, "error", err)
		utils.SendJSONError(w, "Error building export.", http.StatusInternalServerError)
		return
	}
	defer workbook.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"report-%s.xlsx\"", reportID))
	if err := workbook.Write(w); err != nil {
		logger.L.Error("Error streaming report workbook", "userID", userID, "reportID", reportID, "error", err)
	}
}
