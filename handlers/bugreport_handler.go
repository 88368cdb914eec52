package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"habitQuestBot/internal/types/bugreport"
	"habitQuestBot/services"
)

// BugReportHandler is the admin triage surface over bug reports collected
// from the /bugreport bot command.
type BugReportHandler struct {
	bugReportService *services.BugReportService
}

func NewBugReportHandler(bugReportService *services.BugReportService) *BugReportHandler {
	return &BugReportHandler{
		bugReportService: bugReportService,
	}
}

// List handles GET /admin/bugreports?page=&page_size=&status=&q=
func (h *BugReportHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := bugreport.ListFilter{
		Query: r.URL.Query().Get("q"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = bugreport.Status(status)
	}
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'page' parameter")
			return
		}
		filter.Page = n
	}
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		n, err := strconv.Atoi(ps)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'page_size' parameter")
			return
		}
		filter.PageSize = n
	}

	page, err := h.bugReportService.List(ctx, filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error listing bug reports")
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

// Get handles GET /admin/bugreports/{id}
func (h *BugReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bug report id")
		return
	}

	report, err := h.bugReportService.Get(ctx, id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error getting bug report")
		return
	}
	if report == nil {
		respondWithError(w, http.StatusNotFound, "Bug report not found")
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// UpdateStatus handles PUT /admin/bugreports/{id}/status
func (h *BugReportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bug report id")
		return
	}

	var req bugreport.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.bugReportService.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTransition) {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Error updating bug report")
		return
	}
	if report == nil {
		respondWithError(w, http.StatusNotFound, "Bug report not found")
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}
