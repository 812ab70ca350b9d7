package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/openshelf/backend/logger"
	"github.com/openshelf/backend/service"
	"github.com/openshelf/backend/store"
)

// UploadHandler accepts cover-image uploads for items.
type UploadHandler struct {
	Items    store.ItemStore
	S3       *service.S3Service
	Log      *logger.Logger
	MaxBytes int64
}

// UploadCover stores a multipart "cover" image in S3 and points the item's
// cover_image at the streaming endpoint.
func (h *UploadHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		errorJSON(w, http.StatusNotFound, "item not found")
		return
	}
	if h.S3 == nil {
		errorJSON(w, http.StatusServiceUnavailable, "uploads not configured")
		return
	}
	if _, err := h.Items.ItemByID(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "item not found")
			return
		}
		h.Log.Error("item lookup", "err", err)
		errorJSON(w, http.StatusInternalServerError, "failed to upload cover")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		errorJSON(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	file, header, err := r.FormFile("cover")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "cover file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		errorJSON(w, http.StatusBadRequest, "cover must be an image")
		return
	}

	key, err := h.S3.Upload(r.Context(), "covers/", header.Filename, file, contentType)
	if err != nil {
		h.Log.Error("cover upload", "err", err, "item_id", id.Hex())
		errorJSON(w, http.StatusInternalServerError, "failed to upload cover")
		return
	}

	item, err := h.Items.SetCoverImage(r.Context(), id, "/library/"+id.Hex()+"/cover", key)
	if err != nil {
		_ = h.S3.Delete(r.Context(), key)
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "item not found")
			return
		}
		h.Log.Error("cover save", "err", err, "item_id", id.Hex())
		errorJSON(w, http.StatusInternalServerError, "failed to upload cover")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Cover image uploaded.",
		"item":    item,
	})
}
