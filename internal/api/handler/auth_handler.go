package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"credtrack/internal/api/middleware"
	"credtrack/internal/app/service"
	"credtrack/internal/common"
	"credtrack/internal/common/security"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/forgot-password", h.forgotPassword)
	r.Post("/reset-password", h.resetPassword)
}

func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/logout", h.logout)
	r.Get("/user", h.currentUser)
	r.Put("/profile", h.updateProfile)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
			return
		}
		req = service.RegisterRequest{
			Name:                 r.FormValue("name"),
			Email:                r.FormValue("email"),
			Password:             r.FormValue("password"),
			PasswordConfirmation: r.FormValue("password_confirmation"),
			Role:                 r.FormValue("role"),
			Avatar:               formFile(r, "avatar"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]any{
		"user":       resp.User,
		"token":      resp.Token,
		"expires_at": resp.ExpiresAt.Format(time.RFC3339),
		"message":    "User registered successfully",
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"user":       resp.User,
		"token":      resp.Token,
		"expires_at": resp.ExpiresAt.Format(time.RFC3339),
		"message":    "Login successful",
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	jti, ok := middleware.GetJTIFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing session context")
		return
	}
	if err := h.authService.Logout(r.Context(), jti); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}

// currentUser doubles as the frontend's token validity probe, so it reports
// when the presenting token will expire.
func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	user.HashedPassword = ""

	var expiresAt *string
	if _, claims, err := jwtauth.FromContext(r.Context()); err == nil {
		if exp, err := security.GetExpiryFromClaims(claims); err == nil {
			formatted := exp.Format(time.RFC3339)
			expiresAt = &formatted
		}
	}

	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"user":             user,
		"token_expires_at": expiresAt,
	})
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.UpdateProfileRequest
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
			return
		}
		req = service.UpdateProfileRequest{
			Name:                 r.FormValue("name"),
			Email:                r.FormValue("email"),
			Password:             r.FormValue("password"),
			PasswordConfirmation: r.FormValue("password_confirmation"),
			CurrentPassword:      r.FormValue("current_password"),
			Avatar:               formFile(r, "avatar"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	updated, err := h.authService.UpdateProfile(r.Context(), user, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	updated.HashedPassword = ""
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"user":    updated,
		"message": "Profile updated successfully",
	})
}

func (h *AuthHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	// Same message whether or not the account exists.
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message": "If that email address exists, we will send a password reset link.",
	})
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req service.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.authService.ResetPassword(r.Context(), req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"message": "Password has been reset successfully."})
}
