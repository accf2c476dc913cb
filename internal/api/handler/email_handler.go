package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"credtrack/internal/app/service"
	"credtrack/internal/common"

	"github.com/go-chi/chi/v5"
)

// EmailHandler exposes the admin-triggered reminder and summary dispatches.
type EmailHandler struct {
	notificationService *service.NotificationService
}

func NewEmailHandler(ns *service.NotificationService) *EmailHandler {
	return &EmailHandler{notificationService: ns}
}

func (h *EmailHandler) RegisterRoutes(r chi.Router) {
	r.Post("/send-reminders", h.sendReminders)
	r.Post("/send-summary", h.sendSummary)
}

type sendRemindersRequest struct {
	Days string `json:"days"`
}

func (h *EmailHandler) sendReminders(w http.ResponseWriter, r *http.Request) {
	var req sendRemindersRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
			return
		}
	}
	if req.Days == "" {
		req.Days = r.URL.Query().Get("days")
	}

	days, err := parseDays(req.Days)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	report, err := h.notificationService.SendReminders(r.Context(), days)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, report)
}

func (h *EmailHandler) sendSummary(w http.ResponseWriter, r *http.Request) {
	report, err := h.notificationService.SendSummary(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, report)
}

// parseDays turns a comma separated list like "30,14,7" into day offsets.
// Empty input means the caller wants the default schedule.
func parseDays(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	days := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, common.NewValidationError("days", "The days parameter must be a comma separated list of positive integers.")
		}
		days = append(days, n)
	}
	return days, nil
}
