package handler

import (
	"net/http"
	"strings"

	"github.com/ekaraca/hazirlik/internal/model"
)

// maxAvatarSize bounds avatar uploads to 2 MiB.
const maxAvatarSize = 2 << 20

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	profile, err := h.store.GetProfile(user.ID)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	if profile == nil {
		profile = &model.Profile{UserID: user.ID, DisplayName: user.DisplayName}
	}
	respondJSON(w, http.StatusOK, profile)
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	user := model.UserFromContext(r.Context())
	existing, err := h.store.GetProfile(user.ID)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	profile := model.Profile{UserID: user.ID, DisplayName: strings.TrimSpace(req.DisplayName)}
	if existing != nil {
		profile.AvatarURL = existing.AvatarURL
	}
	if err := h.store.UpsertProfile(profile); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// handleUploadAvatar stores the avatar blob and records its URL on the
// profile. Requires a configured object store.
func (h *Handler) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	if h.avatars == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, "ErrInternal")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	user := model.UserFromContext(r.Context())
	url, err := h.avatars.Put(r.Context(), user.ID, file, header.Size, contentType)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}

	existing, err := h.store.GetProfile(user.ID)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	profile := model.Profile{UserID: user.ID, DisplayName: user.DisplayName, AvatarURL: url}
	if existing != nil {
		profile.DisplayName = existing.DisplayName
	}
	if err := h.store.UpsertProfile(profile); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// handleRemoveAvatar deletes the avatar object and clears the profile
// URL.
func (h *Handler) handleRemoveAvatar(w http.ResponseWriter, r *http.Request) {
	if h.avatars == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, "ErrInternal")
		return
	}

	user := model.UserFromContext(r.Context())
	if err := h.avatars.Remove(r.Context(), user.ID); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}

	existing, err := h.store.GetProfile(user.ID)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	profile := model.Profile{UserID: user.ID, DisplayName: user.DisplayName}
	if existing != nil {
		profile.DisplayName = existing.DisplayName
	}
	if err := h.store.UpsertProfile(profile); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
