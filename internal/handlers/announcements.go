package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"planvest/internal/middleware"
	"planvest/internal/store"
	"planvest/internal/uploads"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (h *Handler) ListActiveAnnouncements(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.announcements.ListActive(r.Context(), time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load announcements")
		return
	}
	respondJSON(w, http.StatusOK, announcementViews(announcements))
}

func (h *Handler) AdminListAnnouncements(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.announcements.ListAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load announcements")
		return
	}
	respondJSON(w, http.StatusOK, announcementViews(announcements))
}

func announcementViews(announcements []store.Announcement) []map[string]any {
	views := make([]map[string]any, 0, len(announcements))
	for _, announcement := range announcements {
		views = append(views, map[string]any{
			"id":           announcement.ID,
			"title":        announcement.Title,
			"content":      announcement.Content,
			"image_file":   valueToString(announcement.ImageFile),
			"video_url":    valueToString(announcement.VideoURL),
			"video_file":   valueToString(announcement.VideoFile),
			"display_type": announcement.DisplayType,
			"is_active":    announcement.IsActive,
			"start_date":   announcement.StartDate,
			"end_date":     announcement.EndDate,
			"created_at":   announcement.CreatedAt,
		})
	}
	return views
}

// announcementInput reads the multipart form fields shared by create
// and update. Media files are optional; an uploaded image or video
// replaces the previous one.
func (h *Handler) announcementInput(r *http.Request, existing *store.Announcement) (store.AnnouncementInput, error) {
	input := store.AnnouncementInput{
		Title:       r.FormValue("title"),
		Content:     r.FormValue("content"),
		DisplayType: r.FormValue("display_type"),
		IsActive:    true,
	}
	if existing != nil {
		input.ID = existing.ID
		input.ImageFile = existing.ImageFile
		input.VideoFile = existing.VideoFile
		input.VideoURL = existing.VideoURL
		input.IsActive = existing.IsActive
		if input.Title == "" {
			input.Title = existing.Title
		}
		if input.Content == "" {
			input.Content = existing.Content
		}
		if input.DisplayType == "" {
			input.DisplayType = existing.DisplayType
		}
	}
	if input.DisplayType == "" {
		input.DisplayType = "banner"
	}
	if raw := r.FormValue("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return input, errors.New("invalid is_active value")
		}
		input.IsActive = active
	}
	if raw := r.FormValue("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return input, errors.New("invalid start_date, expected YYYY-MM-DD")
		}
		input.StartDate = &parsed
	} else if existing != nil {
		input.StartDate = existing.StartDate
	}
	if raw := r.FormValue("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return input, errors.New("invalid end_date, expected YYYY-MM-DD")
		}
		input.EndDate = &parsed
	} else if existing != nil {
		input.EndDate = existing.EndDate
	}
	if url := r.FormValue("video_url"); url != "" {
		input.VideoURL = &url
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		name, err := h.uploadStorage.SaveImage(file, header)
		if err != nil {
			return input, err
		}
		input.ImageFile = &name
	}
	if file, header, err := r.FormFile("video"); err == nil {
		defer file.Close()
		name, err := h.uploadStorage.SaveVideo(file, header)
		if err != nil {
			return input, err
		}
		input.VideoFile = &name
	}
	return input, nil
}

func respondAnnouncementUploadError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, uploads.ErrInvalidExtension):
		respondError(w, http.StatusBadRequest, "file extension not allowed")
	case errors.Is(err, uploads.ErrInvalidImage):
		respondError(w, http.StatusBadRequest, "file is not a valid image")
	case errors.Is(err, uploads.ErrFileTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, "file exceeds size limit")
	default:
		return false
	}
	return true
}

func (h *Handler) AdminCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	if err := r.ParseMultipartForm(h.cfg.MaxVideoBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	input, err := h.announcementInput(r, nil)
	if err != nil {
		if !respondAnnouncementUploadError(w, err) {
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	if input.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	input.ID = uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.announcements.Create(r.Context(), tx, input); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"title": input.Title})
		return h.audit.Log(r.Context(), tx, adminID, "announcement_create", "announcement", input.ID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create announcement")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": input.ID})
}

func (h *Handler) AdminUpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	announcementID := chi.URLParam(r, "id")
	existing, err := h.announcements.GetByID(r.Context(), announcementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "announcement not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load announcement")
		return
	}
	if err := r.ParseMultipartForm(h.cfg.MaxVideoBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	input, err := h.announcementInput(r, &existing)
	if err != nil {
		if !respondAnnouncementUploadError(w, err) {
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.announcements.Update(r.Context(), tx, input); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"title": input.Title})
		return h.audit.Log(r.Context(), tx, adminID, "announcement_update", "announcement", announcementID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update announcement")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": announcementID})
}

func (h *Handler) AdminToggleAnnouncement(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	announcementID := chi.URLParam(r, "id")
	existing, err := h.announcements.GetByID(r.Context(), announcementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "announcement not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load announcement")
		return
	}
	next := !existing.IsActive
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.announcements.SetActive(r.Context(), tx, announcementID, next); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]bool{"is_active": next})
		return h.audit.Log(r.Context(), tx, adminID, "announcement_toggle", "announcement", announcementID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to toggle announcement")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": announcementID, "is_active": next})
}

func (h *Handler) AdminDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	adminID, _ := middleware.UserIDFromContext(r.Context())
	announcementID := chi.URLParam(r, "id")
	existing, err := h.announcements.GetByID(r.Context(), announcementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "announcement not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load announcement")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.announcements.Delete(r.Context(), tx, announcementID); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, adminID, "announcement_delete", "announcement", announcementID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete announcement")
		return
	}
	if existing.ImageFile != nil {
		_ = h.uploadStorage.Remove(*existing.ImageFile)
	}
	if existing.VideoFile != nil {
		_ = h.uploadStorage.Remove(*existing.VideoFile)
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": announcementID})
}
