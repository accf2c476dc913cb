package handler

import (
	"encoding/json"
	"net/http"

	"credtrack/internal/api/middleware"
	"credtrack/internal/app/service"
	"credtrack/internal/common"
	"credtrack/internal/domain/model"
	"credtrack/internal/domain/repository"
)

// SuperAdminHandler serves the bootstrap endpoint. The route is public so
// the first super_admin can be created with the secret key alone; later
// calls must carry a valid super_admin token.
type SuperAdminHandler struct {
	superAdminService *service.SuperAdminService
	sessions          repository.SessionRepository
	users             repository.UserRepository
}

func NewSuperAdminHandler(sas *service.SuperAdminService, sessions repository.SessionRepository, users repository.UserRepository) *SuperAdminHandler {
	return &SuperAdminHandler{superAdminService: sas, sessions: sessions, users: users}
}

func (h *SuperAdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSuperAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	// The route sits outside the authenticated group, so resolve the actor
	// manually; an anonymous caller is allowed when no super_admin exists yet.
	var actor *model.User
	if user, _ := middleware.ResolveUser(r.Context(), h.sessions, h.users); user != nil {
		actor = user
	}

	resp, err := h.superAdminService.Create(r.Context(), actor, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	body := map[string]any{
		"user":    resp.User,
		"message": "Super admin created successfully",
	}
	if resp.Token != "" {
		body["token"] = resp.Token
		body["expires_at"] = resp.ExpiresAt
	}
	common.RespondWithJSON(w, http.StatusCreated, body)
}
