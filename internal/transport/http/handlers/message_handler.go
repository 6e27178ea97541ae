package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/mpavlovic/whisper/internal/service"
	"github.com/mpavlovic/whisper/internal/transport/http/middleware"
)

const maxFileUpload = service.MaxFileSize + 1024*1024

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID := r.PathValue("id")

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	messages, err := h.messageService.ListRecent(r.Context(), userID, chatID, limit)
	if err != nil {
		h.writeServiceError(w, "list messages", err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

func (h *MessageHandler) SendText(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID := r.PathValue("id")

	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	msg, err := h.messageService.SendText(r.Context(), userID, chatID, input.Content)
	if err != nil {
		h.writeServiceError(w, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) SendFile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, maxFileUpload)
	if err := r.ParseMultipartForm(maxFileUpload); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "Invalid upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "A file is required")
		return
	}
	defer file.Close()

	msg, err := h.messageService.SendFile(r.Context(), userID, chatID, service.Attachment{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Data:        file,
	})
	if err != nil {
		h.writeServiceError(w, "send file", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID := r.PathValue("id")

	if err := h.messageService.MarkRead(r.Context(), userID, chatID); err != nil {
		h.writeServiceError(w, "mark read", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "EMPTY_MESSAGE", "Message content is required")
	case errors.Is(err, service.ErrSendInFlight):
		writeError(w, http.StatusConflict, "SEND_IN_FLIGHT", "A send for this conversation is already in progress")
	case errors.Is(err, service.ErrFileTooLarge):
		writeError(w, http.StatusBadRequest, "FILE_TOO_LARGE", "File size must be less than 10MB")
	case errors.Is(err, service.ErrFileType):
		writeError(w, http.StatusBadRequest, "FILE_TYPE", "File type not supported")
	case errors.Is(err, service.ErrUploadFailed):
		writeError(w, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to upload file")
	case errors.Is(err, service.ErrChatNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
	case errors.Is(err, service.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
	case errors.Is(err, service.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
