package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/creditfolio/src/database"
	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/model"
	"github.com/username/creditfolio/src/services"
	"github.com/username/creditfolio/src/utils"
)

type LetterHandler struct {
	reportService services.ReportService
	letterService services.LetterService
	emailService  services.EmailService
}

func NewLetterHandler(reportService services.ReportService, letterService services.LetterService, emailService services.EmailService) *LetterHandler {
	return &LetterHandler{
		reportService: reportService,
		letterService: letterService,
		emailService:  emailService,
	}
}

type letterResponse struct {
	ReportID string                   `json:"report_id"`
	ClientID string                   `json:"client_id"`
	Letters  []services.DisputeLetter `json:"letters"`
	Emailed  bool                     `json:"emailed"`
}

// HandleGenerateLetters renders per-bureau dispute letters from a stored
// report. With ?send=true the letters are also mailed to the client,
// which requires the client record to carry an email address.
func (h *LetterHandler) HandleGenerateLetters(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	reportID := r.PathValue("id")
	sendEmail := r.URL.Query().Get("send") == "true"

	stored, aggregate, err := h.reportService.GetReport(userID, reportID)
	if err != nil {
		if errors.Is(err, model.ErrReportNotFound) {
			utils.SendJSONError(w, "report not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving report for letters", "userID", userID, "reportID", reportID, "error", err)
		utils.SendJSONError(w, "Error retrieving report.", http.StatusInternalServerError)
		return
	}

	client, err := model.GetClientByID(database.DB, userID, stored.ClientID)
	if err != nil {
		if errors.Is(err, model.ErrClientNotFound) {
			utils.SendJSONError(w, "client not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving client for letters", "userID", userID, "reportID", reportID, "error", err)
		utils.SendJSONError(w, "Error retrieving client.", http.StatusInternalServerError)
		return
	}

	letters, err := h.letterService.GenerateLetters(client, aggregate)
	if err != nil {
		logger.L.Error("Error generating dispute letters", "userID", userID, "reportID", reportID, "error", err)
		utils.SendJSONError(w, "Error generating letters.", http.StatusInternalServerError)
		return
	}
	if len(letters) == 0 {
		utils.SendJSONError(w, "report has no violations to dispute", http.StatusUnprocessableEntity)
		return
	}

	emailed := false
	if sendEmail {
		if client.Email == "" {
			utils.SendJSONError(w, "client has no email address on file", http.StatusBadRequest)
			return
		}
		if err := h.emailService.SendDisputeLettersEmail(client.Email, client.Name, letters); err != nil {
			logger.L.Error("Error emailing dispute letters", "userID", userID, "reportID", reportID, "error", err)
			utils.SendJSONError(w, "Letters generated but email delivery failed.", http.StatusBadGateway)
			return
		}
		emailed = true
		logger.L.Info("Dispute letters emailed", "userID", userID, "reportID", reportID, "clientID", client.ID, "letters", len(letters))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(letterResponse{
		ReportID: reportID,
		ClientID: client.ID,
		Letters:  letters,
		Emailed:  emailed,
	})
}
