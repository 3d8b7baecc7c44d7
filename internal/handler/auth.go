package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ekaraca/hazirlik/internal/i18n"
	"github.com/ekaraca/hazirlik/internal/model"
)

const minPasswordLength = 6

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// validate checks the fields synchronously before any store access and
// returns localized per-field messages.
func (req *registerRequest) validate(ctx context.Context) map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = i18n.T(ctx, "ErrEmailRequired")
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = i18n.T(ctx, "ErrEmailInvalid")
	}
	if len(req.Password) < minPasswordLength {
		fields["password"] = i18n.Td(ctx, "ErrPasswordTooShort", map[string]any{"Min": minPasswordLength})
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	if fields := req.validate(r.Context()); fields != nil {
		h.fieldErrors(w, fields)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := h.store.EmailExists(email)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	if exists {
		h.fieldErrors(w, map[string]string{"email": i18n.T(r.Context(), "ErrEmailTaken")})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}

	userID, err := h.store.CreateUser(model.User{
		Email:        email,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: string(hash),
		Active:       true,
	})
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}

	h.startAuthSession(w, r, userID)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	user, err := h.store.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	if user == nil || !user.Active {
		h.respondError(w, r, http.StatusUnauthorized, "ErrInvalidCredentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.respondError(w, r, http.StatusUnauthorized, "ErrInvalidCredentials")
		return
	}

	h.startAuthSession(w, r, user.ID)
}

// startAuthSession issues the opaque session cookie and responds with
// the user record.
func (h *Handler) startAuthSession(w http.ResponseWriter, r *http.Request, userID int64) {
	token, err := h.store.CreateAuthSession(userID)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	user, err := h.store.GetUserByID(userID)
	if err != nil || user == nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := h.store.DeleteAuthSession(cookie.Value); err != nil {
			slog.Warn("failed to delete auth session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, model.UserFromContext(r.Context()))
}

type passwordRequest struct {
	Current string `json:"current_password"`
	New     string `json:"new_password"`
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	if len(req.New) < minPasswordLength {
		h.fieldErrors(w, map[string]string{
			"new_password": i18n.Td(r.Context(), "ErrPasswordTooShort", map[string]any{"Min": minPasswordLength}),
		})
		return
	}

	user := model.UserFromContext(r.Context())
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Current)); err != nil {
		h.fieldErrors(w, map[string]string{"current_password": i18n.T(r.Context(), "ErrPasswordMismatch")})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.New), bcrypt.DefaultCost)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	if err := h.store.UpdatePassword(user.ID, string(hash)); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
