package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// Contact serves the admin contact details kept in a JSON file next to
// the deployment, so support details can change without a release.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	raw, err := os.ReadFile(h.cfg.AdminContactFile)
	if err != nil {
		if os.IsNotExist(err) {
			respondJSON(w, http.StatusOK, map[string]string{})
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load contact details")
		return
	}
	var contact map[string]any
	if err := json.Unmarshal(raw, &contact); err != nil {
		respondError(w, http.StatusInternalServerError, "contact file is malformed")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// AdminUpdateContact replaces the contact file with the posted JSON
// object.
func (h *Handler) AdminUpdateContact(w http.ResponseWriter, r *http.Request) {
	var contact map[string]any
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	raw, err := json.MarshalIndent(contact, "", "  ")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to encode contact details")
		return
	}
	if dir := filepath.Dir(h.cfg.AdminContactFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to store contact details")
			return
		}
	}
	if err := os.WriteFile(h.cfg.AdminContactFile, raw, 0o644); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to store contact details")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	// Strip any path components so the handler can only reach files
	// inside the upload directory.
	path := filepath.Join(h.uploadStorage.Dir(), filepath.Base(name))
	if _, err := os.Stat(path); err != nil {
		respondError(w, http.StatusNotFound, "file not found")
		return
	}
	http.ServeFile(w, r, path)
}
