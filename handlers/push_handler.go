package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"habitQuestBot/services"
)

// PushHandler lets the companion app register FCM device tokens so
// reminders can be mirrored as push notifications.
type PushHandler struct {
	userService *services.UserService
}

func NewPushHandler(userService *services.UserService) *PushHandler {
	return &PushHandler{
		userService: userService,
	}
}

type registerTokenRequest struct {
	TelegramID int64  `json:"telegram_id"`
	Token      string `json:"token"`
	Platform   string `json:"platform"`
}

// RegisterToken handles POST /push/register
func (h *PushHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req registerTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TelegramID == 0 || req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "'telegram_id' and 'token' are required")
		return
	}
	if req.Platform == "" {
		req.Platform = "android"
	}

	u, err := h.userService.GetByTelegramID(ctx, req.TelegramID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error looking up user")
		return
	}
	if u == nil {
		respondWithError(w, http.StatusNotFound, "User not found. Talk to the bot first with /start")
		return
	}

	if err := h.userService.RegisterDeviceToken(ctx, u.ID, req.Token, req.Platform); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error registering device token")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}
