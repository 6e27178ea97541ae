package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mpavlovic/whisper/internal/service"
	"github.com/mpavlovic/whisper/internal/transport/http/middleware"
	"github.com/mpavlovic/whisper/pkg/validator"
)

const maxAvatarUpload = service.MaxFileSize + 1024*1024

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		log.Printf("ERROR get profile: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		DisplayName string `json:"display_name"`
		AvatarURL   string `json:"avatar_url"`
		Bio         string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateProfile(input.DisplayName, input.Bio); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	user, err := h.profileService.Save(r.Context(), userID, input.DisplayName, input.AvatarURL, input.Bio)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		log.Printf("ERROR save profile: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarUpload)
	if err := r.ParseMultipartForm(maxAvatarUpload); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "Invalid upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "A file is required")
		return
	}
	defer file.Close()

	url, err := h.profileService.UploadAvatar(r.Context(), userID, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			writeError(w, http.StatusBadRequest, "FILE_TOO_LARGE", "File size must be less than 10MB")
		case errors.Is(err, service.ErrFileType):
			writeError(w, http.StatusBadRequest, "FILE_TYPE", "Avatar must be an image")
		default:
			log.Printf("ERROR upload avatar: %v", err)
			writeError(w, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to upload file")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = service.SearchByName
	}
	query := r.URL.Query().Get("q")

	profiles, err := h.profileService.FindUsers(r.Context(), mode, query, userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSearchMode) {
			writeError(w, http.StatusBadRequest, "INVALID_MODE", "Search mode must be name, email or id")
			return
		}
		log.Printf("ERROR search users: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, profiles)
}
