package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/username/creditfolio/src/database"
	"github.com/username/creditfolio/src/logger"
	"github.com/username/creditfolio/src/model"
	"github.com/username/creditfolio/src/security"
	"github.com/username/creditfolio/src/utils"
)

type ClientHandler struct {
	authService *security.AuthService
}

func NewClientHandler(authService *security.AuthService) *ClientHandler {
	return &ClientHandler{authService: authService}
}

type clientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (req *clientRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("client name is required")
	}
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		return errors.New("client email is invalid")
	}
	return nil
}

// HandleCreateClient creates a CRM client record for the authenticated user.
func (h *ClientHandler) HandleCreateClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request payload.", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	client := &model.Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.TrimSpace(req.Email),
	}
	if err := client.CreateClient(database.DB); err != nil {
		logger.L.Error("Error creating client", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error creating client.", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Client created", "userID", userID, "clientID", client.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(client)
}

// HandleListClients returns all clients for the authenticated user.
func (h *ClientHandler) HandleListClients(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	clients, err := model.ListClients(database.DB, userID)
	if err != nil {
		logger.L.Error("Error listing clients", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error retrieving clients.", http.StatusInternalServerError)
		return
	}
	if clients == nil {
		clients = []model.Client{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(clients)
}

// HandleGetClient returns one client record.
func (h *ClientHandler) HandleGetClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	clientID := r.PathValue("id")

	client, err := model.GetClientByID(database.DB, userID, clientID)
	if err != nil {
		if errors.Is(err, model.ErrClientNotFound) {
			utils.SendJSONError(w, "client not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving client", "userID", userID, "clientID", clientID, "error", err)
		utils.SendJSONError(w, "Error retrieving client.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(client)
}

// HandleUpdateClient updates the mutable fields of a client record.
func (h *ClientHandler) HandleUpdateClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	clientID := r.PathValue("id")

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request payload.", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	client := &model.Client{
		ID:     clientID,
		UserID: userID,
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.TrimSpace(req.Email),
	}
	if err := client.UpdateClient(database.DB); err != nil {
		if errors.Is(err, model.ErrClientNotFound) {
			utils.SendJSONError(w, "client not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error updating client", "userID", userID, "clientID", clientID, "error", err)
		utils.SendJSONError(w, "Error updating client.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(client)
}

// HandleDeleteClient removes a client record.
func (h *ClientHandler) HandleDeleteClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	clientID := r.PathValue("id")

	if err := model.DeleteClient(database.DB, userID, clientID); err != nil {
		if errors.Is(err, model.ErrClientNotFound) {
			utils.SendJSONError(w, "client not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error deleting client", "userID", userID, "clientID", clientID, "error", err)
		utils.SendJSONError(w, "Error deleting client.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted", "client_id": clientID})
}

// HandleIssuePortalCode generates a fresh portal access code for a client.
// The plaintext code is returned exactly once; only its bcrypt hash is
// stored, so issuing again rotates the previous code out.
func (h *ClientHandler) HandleIssuePortalCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	clientID := r.PathValue("id")

	client, err := model.GetClientByID(database.DB, userID, clientID)
	if err != nil {
		if errors.Is(err, model.ErrClientNotFound) {
			utils.SendJSONError(w, "client not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Error retrieving client for portal code", "userID", userID, "clientID", clientID, "error", err)
		utils.SendJSONError(w, "Error retrieving client.", http.StatusInternalServerError)
		return
	}

	code, err := h.authService.GeneratePortalCode()
	if err != nil {
		logger.L.Error("Error generating portal code", "userID", userID, "clientID", clientID, "error", err)
		utils.SendJSONError(w, "Error generating portal code.", http.StatusInternalServerError)
		return
	}
	hash, err := h.authService.HashPortalCode(code)
	if err != nil {
		logger.L.Error("Error hashing portal code", "userID", userID, "clientID", clientID, "error", err)
		utils.SendJSONError(w, "Error generating portal code.", http.StatusInternalServerError)
		return
	}
	if err := client.SetPortalCodeHash(database.DB, hash); err != nil {
		logger.L.Error("Error storing portal code hash", "userID", userID, "clientID", clientID, "error", err)
		utils.SendJSONError(w, "Error storing portal code.", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Portal code issued", "userID", userID, "clientID", clientID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"client_id": clientID, "portal_code": code})
}
