package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/ekaraca/hazirlik/internal/model"
)

const chatTitleLimit = 60

func (h *Handler) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.store.ListConversations(currentUserID(r))
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	if convs == nil {
		convs = []model.ChatConversation{}
	}
	respondJSON(w, http.StatusOK, convs)
}

func (h *Handler) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	conv, err := h.store.GetConversation(currentUserID(r), id)
	if errors.Is(err, sql.ErrNoRows) {
		h.respondError(w, r, http.StatusNotFound, "ErrNotFound")
		return
	}
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	respondJSON(w, http.StatusOK, conv)
}

func (h *Handler) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	if err := h.store.DeleteConversation(currentUserID(r), id); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chatRequest struct {
	ConversationID int64  `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// handleSendMessage appends a user turn, asks the tutor for a reply,
// and persists the updated conversation. A zero conversation ID starts
// a new one titled after the first message.
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Message) == "" {
		h.respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	userID := currentUserID(r)

	var conv *model.ChatConversation
	if req.ConversationID != 0 {
		existing, err := h.store.GetConversation(userID, req.ConversationID)
		if errors.Is(err, sql.ErrNoRows) {
			h.respondError(w, r, http.StatusNotFound, "ErrNotFound")
			return
		}
		if err != nil {
			h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
			return
		}
		conv = existing
	} else {
		conv = &model.ChatConversation{
			UserID: userID,
			Title:  conversationTitle(req.Message),
		}
	}

	message := strings.TrimSpace(req.Message)
	conv.Messages = append(conv.Messages, model.ChatMessage{
		Role:    "user",
		Content: message,
		At:      time.Now(),
	})

	reply, err := h.completer.Complete(r.Context(), buildTutorPrompt(conv.Messages))
	if err != nil {
		h.respondError(w, r, http.StatusServiceUnavailable, "ContentFallbackNotice")
		return
	}
	conv.Messages = append(conv.Messages, model.ChatMessage{
		Role:    "assistant",
		Content: reply,
		At:      time.Now(),
	})

	id, err := h.store.SaveConversation(*conv)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	conv.ID = id
	respondJSON(w, http.StatusOK, conv)
}

// conversationTitle derives a short title from the opening message,
// cutting on a rune boundary so multi-byte characters stay intact.
func conversationTitle(firstMessage string) string {
	title := strings.TrimSpace(firstMessage)
	if utf8.RuneCountInString(title) <= chatTitleLimit {
		return title
	}
	return string([]rune(title)[:chatTitleLimit])
}

// buildTutorPrompt renders the conversation for the generation
// endpoint, with the tutor persona up front.
func buildTutorPrompt(messages []model.ChatMessage) string {
	var sb strings.Builder
	sb.WriteString("Sen TYT, AYT ve LGS sınavlarına hazırlanan öğrencilere yardımcı olan bir eğitim koçusun. ")
	sb.WriteString("Soruları açık ve adım adım açıkla, Türkçe yanıtla.\n\n")
	for _, m := range messages {
		role := "Öğrenci"
		if m.Role == "assistant" {
			role = "Koç"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, m.Content)
	}
	sb.WriteString("Koç:")
	return sb.String()
}
