package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/creditfolio/src/analytics"
	"github.com/username/creditfolio/src/config"
	"github.com/username/creditfolio/src/database"
	"github.com/username/creditfolio/src/extractor"
	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/model"
	"github.com/username/creditfolio/src/security/validation"
	"github.com/username/creditfolio/src/services"
	"github.com/username/creditfolio/src/utils"
)

type UploadHandler struct {
	reportService      services.ReportService
	entitlementService services.EntitlementService
	emailService       services.EmailService
	recorder           analytics.Recorder
}

func NewUploadHandler(reportService services.ReportService, entitlementService services.EntitlementService, emailService services.EmailService, recorder analytics.Recorder) *UploadHandler {
	return &UploadHandler{
		reportService:      reportService,
		entitlementService: entitlementService,
		emailService:       emailService,
		recorder:           recorder,
	}
}

// HandleUpload ingests one credit-report document for a client and runs
// the full audit pipeline. The multipart field is "file"; the owning
// client comes from the "client_id" form value.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.entitlementService.CheckUploadAllowance(userID); err != nil {
		if errors.Is(err, services.ErrPlanInactive) || errors.Is(err, services.ErrPlanExhausted) {
			logger.L.Warn("Upload blocked by entitlement", "userID", userID, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusPaymentRequired)
			return
		}
		logger.L.Error("Entitlement check failed", "userID", userID, "error", err)
		utils.SendJSONError(w, "Unable to verify subscription status.", http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "userID", userID, "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientID := r.FormValue("client_id")
	if clientID == "" {
		utils.SendJSONError(w, "client_id form value is required", http.StatusBadRequest)
		return
	}
	client, err := model.GetClientByID(database.DB, userID, clientID)
	if err != nil {
		logger.L.Warn("Upload for unknown client", "userID", userID, "clientID", clientID, "error", err)
		utils.SendJSONError(w, "client not found", http.StatusNotFound)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "userID", userID, "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB (header check)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "userID", userID, "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "userID", userID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.L.Info("Processing report upload", "userID", userID, "clientID", clientID, "filename", fileHeader.Filename, "detectedType", detectedContentType)
	result, err := h.reportService.ProcessUpload(r.Context(), file, userID, clientID, detectedContentType)
	if err != nil {
		switch {
		case errors.Is(err, extractor.ErrExtractionFailed):
			logger.L.Warn("Upload processing failed during document extraction", "userID", userID, "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Document extraction failed: %v", err), http.StatusUnprocessableEntity)
		case errors.Is(err, services.ErrEmptyDocument):
			logger.L.Warn("Upload contained no recognizable account sections", "userID", userID, "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "No account sections could be recognized in the document.", http.StatusUnprocessableEntity)
		case errors.Is(err, services.ErrParsingFailed):
			logger.L.Warn("Upload processing failed due to parsing errors", "userID", userID, "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing report document: %v", err), http.StatusBadRequest)
		default:
			logger.L.Error("Internal error processing upload", "userID", userID, "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	if client.Email != "" {
		go func(email, name string, violations int) {
			if err := h.emailService.SendAuditCompleteEmail(email, name, violations); err != nil {
				logger.L.Error("Failed to send audit complete email", "clientID", clientID, "error", err)
			}
		}(client.Email, client.Name, result.ViolationCount)
	}

	h.recorder.Record(analytics.Event{
		UserID: userID,
		Name:   "report_uploaded",
		Properties: map[string]string{
			"report_id":  result.ReportID,
			"variant":    analytics.Assign(userID, "audit_summary_layout", []string{"control", "grouped"}),
			"violations": fmt.Sprintf("%d", result.ViolationCount),
		},
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding JSON response for upload result", "userID", userID, "error", err)
	}
}
