package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"credtrack/internal/api/middleware"
	"credtrack/internal/app/service"
	"credtrack/internal/common"
	"credtrack/internal/domain/policy"

	"github.com/go-chi/chi/v5"
)

type CredentialHandler struct {
	credentialService *service.CredentialService
}

func NewCredentialHandler(cs *service.CredentialService) *CredentialHandler {
	return &CredentialHandler{credentialService: cs}
}

func (h *CredentialHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)               // GET /api/v1/credentials
	r.Get("/export", h.exportCSV)    // GET /api/v1/credentials/export
	r.Get("/{credentialID}", h.show) // GET /api/v1/credentials/{id}

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.RequireAction(policy.ActionWriteCredential))
		adminRouter.Post("/", h.create)
		adminRouter.Put("/{credentialID}", h.update)
		adminRouter.Delete("/{credentialID}", h.delete)
	})
}

func (h *CredentialHandler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	params := listParamsFromQuery(r)
	resp, err := h.credentialService.List(r.Context(), user, params)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *CredentialHandler) exportCSV(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="credentials.csv"`)
	if err := h.credentialService.WriteCSV(r.Context(), user, listParamsFromQuery(r), w); err != nil {
		// Headers are already written; the truncated body is the best we
		// can signal at this point.
		return
	}
}

func (h *CredentialHandler) show(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	resp, err := h.credentialService.Get(r.Context(), user, chi.URLParam(r, "credentialID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"data": resp})
}

func (h *CredentialHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	input, ok2 := decodeCredentialInput(w, r)
	if !ok2 {
		return
	}

	resp, err := h.credentialService.Create(r.Context(), user, input)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]any{
		"data":    resp,
		"message": "Credential created successfully",
	})
}

func (h *CredentialHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	input, ok2 := decodeCredentialInput(w, r)
	if !ok2 {
		return
	}

	resp, err := h.credentialService.Update(r.Context(), user, chi.URLParam(r, "credentialID"), input)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"data":    resp,
		"message": "Credential updated successfully",
	})
}

func (h *CredentialHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	if err := h.credentialService.Delete(r.Context(), user, chi.URLParam(r, "credentialID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"message": "Credential deleted successfully"})
}

func listParamsFromQuery(r *http.Request) service.ListParams {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return service.ListParams{
		Name:    r.URL.Query().Get("name"),
		Type:    r.URL.Query().Get("type"),
		Page:    page,
		PerPage: perPage,
	}
}

func decodeCredentialInput(w http.ResponseWriter, r *http.Request) (service.CredentialInput, bool) {
	var input service.CredentialInput
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
			return input, false
		}
		input = service.CredentialInput{
			CandidateName:  r.FormValue("candidate_name"),
			Position:       r.FormValue("position"),
			CredentialType: r.FormValue("credential_type"),
			IssueDate:      r.FormValue("issue_date"),
			ExpiryDate:     r.FormValue("expiry_date"),
			Email:          r.FormValue("email"),
			Status:         r.FormValue("status"),
			Document:       formFile(r, "document"),
		}
		return input, true
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return input, false
	}
	return input, true
}
