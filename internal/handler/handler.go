// Package handler exposes the JSON API consumed by the web client.
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ekaraca/hazirlik/internal/content"
	"github.com/ekaraca/hazirlik/internal/i18n"
	"github.com/ekaraca/hazirlik/internal/model"
	"github.com/ekaraca/hazirlik/internal/session"
	"github.com/ekaraca/hazirlik/internal/storage"
	"github.com/ekaraca/hazirlik/internal/store"
)

const (
	sessionCookieName = "session"
	// anonCookieName tells anonymous clients apart so their in-memory
	// attempts never collide. Nothing durable hangs off it.
	anonCookieName = "attempt_client"
)

type anonCtxKey struct{}

// Config holds handler-level settings.
type Config struct {
	SecureCookies bool
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	completer content.Completer
	sessions  *session.Registry
	avatars   *storage.AvatarStore
	config    Config
}

// New creates a new Handler. The avatar store may be nil when no object
// store is configured; avatar upload then responds 503.
func New(s *store.Store, completer content.Completer, sessions *session.Registry, avatars *storage.AvatarStore, cfg Config) *Handler {
	return &Handler{
		store:     s,
		completer: completer,
		sessions:  sessions,
		avatars:   avatars,
		config:    cfg,
	}
}

// Routes registers all API routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.handleRegister)
			r.Post("/login", h.handleLogin)
			r.Post("/logout", h.handleLogout)
			r.Group(func(r chi.Router) {
				r.Use(h.requireAuth)
				r.Get("/me", h.handleMe)
				r.Put("/password", h.handleUpdatePassword)
			})
		})

		// Attempts work for anonymous users too; they simply do not
		// persist or resume progress.
		r.Route("/practice", func(r chi.Router) {
			r.Use(h.optionalAuth)
			h.attemptRoutes(r, model.KindPractice)
		})
		r.Route("/exam", func(r chi.Router) {
			r.Use(h.optionalAuth)
			h.attemptRoutes(r, model.KindSimulated)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Route("/stats", func(r chi.Router) {
				r.Get("/results", h.handleListResults)
				r.Get("/topics", h.handleTopicStats)
				r.Post("/evaluate", h.handleEvaluateStats)
			})
			r.Route("/chat", func(r chi.Router) {
				r.Get("/", h.handleListConversations)
				r.Post("/", h.handleSendMessage)
				r.Get("/{id}", h.handleGetConversation)
				r.Delete("/{id}", h.handleDeleteConversation)
			})
			r.Route("/profile", func(r chi.Router) {
				r.Get("/", h.handleGetProfile)
				r.Put("/", h.handleUpdateProfile)
				r.Post("/avatar", h.handleUploadAvatar)
				r.Delete("/avatar", h.handleRemoveAvatar)
			})
		})
	})
}

// requireAuth resolves the session cookie to a user or rejects with 401.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := h.userFromRequest(r)
		if user == nil {
			h.respondError(w, r, http.StatusUnauthorized, "ErrUnauthorized")
			return
		}
		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalAuth resolves the session cookie when present. Anonymous
// requests proceed without a user but get a per-client attempt cookie,
// so two strangers never land on the same live manager.
func (h *Handler) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := h.userFromRequest(r); user != nil {
			r = r.WithContext(model.ContextWithUser(r.Context(), user))
			next.ServeHTTP(w, r)
			return
		}

		clientID := ""
		if cookie, err := r.Cookie(anonCookieName); err == nil {
			clientID = cookie.Value
		}
		if clientID == "" {
			clientID = newClientID()
			http.SetCookie(w, &http.Cookie{
				Name:     anonCookieName,
				Value:    clientID,
				Path:     "/",
				HttpOnly: true,
				Secure:   h.config.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}
		r = r.WithContext(context.WithValue(r.Context(), anonCtxKey{}, clientID))
		next.ServeHTTP(w, r)
	})
}

func newClientID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func (h *Handler) userFromRequest(r *http.Request) *model.User {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	authSess, err := h.store.GetAuthSession(cookie.Value)
	if err != nil {
		slog.Error("failed to get auth session", "error", err)
		return nil
	}
	if authSess == nil {
		return nil
	}
	user, err := h.store.GetUserByID(authSess.UserID)
	if err != nil || user == nil || !user.Active {
		return nil
	}
	return user
}

// currentUserID returns the authenticated user's ID, or 0 for anonymous.
func currentUserID(r *http.Request) int64 {
	if u := model.UserFromContext(r.Context()); u != nil {
		return u.ID
	}
	return 0
}

// clientID returns the anonymous client token, or "" for authenticated
// requests, whose attempts are keyed by user ID alone.
func clientID(r *http.Request) string {
	if model.UserFromContext(r.Context()) != nil {
		return ""
	}
	id, _ := r.Context().Value(anonCtxKey{}).(string)
	return id
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError writes a localized error body.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	respondJSON(w, status, map[string]string{"error": i18n.T(r.Context(), msgID)})
}

// fieldErrors writes a 400 with per-field messages, already localized
// by the caller.
func (h *Handler) fieldErrors(w http.ResponseWriter, fields map[string]string) {
	respondJSON(w, http.StatusBadRequest, map[string]any{"fields": fields})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// manager returns the live attempt manager for this request's owner.
func (h *Handler) manager(r *http.Request, kind model.SessionKind) *session.Manager {
	return h.sessions.Manager(currentUserID(r), clientID(r), kind)
}
