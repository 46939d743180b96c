package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nvdoan/wavelink-backend/internal/directory"
	"github.com/nvdoan/wavelink-backend/internal/services"
)

// UploadMedia is POST /api/media/upload: multipart file to Cloudinary plus
// a metadata row in the directory.
func UploadMedia(w http.ResponseWriter, r *http.Request) {
	if cloudinaryService == nil {
		writeError(w, http.StatusInternalServerError, "File upload service not available")
		return
	}

	actorID := authenticatedUser(r)
	if actorID == "" {
		writeError(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	// Max 50MB: challenge entries are short videos.
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = services.FolderSubmissions
	}

	result, err := cloudinaryService.UploadFile(r.Context(), file, folder)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	row := directory.Row{
		"id":          uuid.New().String(),
		"uploader_id": actorID,
		"file_name":   fileHeader.Filename,
		"file_url":    result.URL,
		"file_type":   fileHeader.Header.Get("Content-Type"),
		"file_size":   fileHeader.Size,
		"created_at":  time.Now().UTC(),
	}
	inserted, err := dir.Insert(r.Context(), "media", []directory.Row{row})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record upload")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "File uploaded successfully",
		"media":   inserted[0],
	})
}

// GetMedia is GET /api/media/{id}.
func GetMedia(w http.ResponseWriter, r *http.Request) {
	rows, err := dir.Select(r.Context(), "media", directory.Query{
		Filter: directory.Filter{Eq: map[string]interface{}{"id": chi.URLParam(r, "id")}},
		Limit:  1,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "media not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"media": rows[0]})
}
