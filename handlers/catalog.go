package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/openshelf/backend/logger"
	"github.com/openshelf/backend/service"
	"github.com/openshelf/backend/store"
)

const catalogPageSize = 12

// CatalogHandler serves the public browsing surface.
type CatalogHandler struct {
	Items store.ItemStore
	S3    *service.S3Service
	Log   *logger.Logger
}

func (h *CatalogHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Index is the catalog homepage: a filtered page of items, the dropdown
// option sets (distinct over the whole catalog, not the filtered subset)
// and the aggregate counts.
func (h *CatalogHandler) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ItemFilter{
		Search:  q.Get("search"),
		Type:    q.Get("type"),
		Status:  q.Get("status"),
		Genre:   q.Get("genre"),
		Scope:   store.ScopeCatalog,
		Page:    pageParam(r),
		PerPage: catalogPageSize,
	}

	page, err := h.Items.SearchItems(r.Context(), filter)
	if err != nil {
		h.Log.Error("catalog search", "err", err)
		errorJSON(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}
	types, err := h.Items.DistinctTypes(r.Context())
	if err != nil {
		h.Log.Error("catalog types", "err", err)
		errorJSON(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}
	genres, err := h.Items.DistinctGenres(r.Context())
	if err != nil {
		h.Log.Error("catalog genres", "err", err)
		errorJSON(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}
	stats, err := h.Items.CatalogStats(r.Context())
	if err != nil {
		h.Log.Error("catalog stats", "err", err)
		errorJSON(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": paginate(page, r.URL),
		"filters": map[string]string{
			"search": filter.Search,
			"type":   valueOrAll(filter.Type),
			"status": valueOrAll(filter.Status),
			"genre":  valueOrAll(filter.Genre),
		},
		"types":  types,
		"genres": genres,
		"stats":  stats,
	})
}

func valueOrAll(v string) string {
	if v == "" {
		return "all"
	}
	return v
}

func (h *CatalogHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		errorJSON(w, http.StatusNotFound, "item not found")
		return
	}
	item, err := h.Items.ItemByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "item not found")
			return
		}
		h.Log.Error("item lookup", "err", err)
		errorJSON(w, http.StatusInternalServerError, "failed to load item")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"item": item})
}

// Borrow decrements one unit of availability. The store performs the guard
// and decrement atomically, so the out-of-stock answer here is authoritative
// even under concurrent borrows.
func (h *CatalogHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		errorJSON(w, http.StatusNotFound, "item not found")
		return
	}
	item, err := h.Items.BorrowItem(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			errorJSON(w, http.StatusNotFound, "item not found")
		case errors.Is(err, store.ErrUnavailable):
			errorJSON(w, http.StatusConflict, "This item is not available for borrowing.")
		default:
			h.Log.Error("borrow", "err", err, "item_id", id.Hex())
			errorJSON(w, http.StatusInternalServerError, "failed to borrow item")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Item borrowed successfully!",
		"item":    item,
	})
}

// Cover streams an uploaded cover image from S3. Public so it works as a
// plain img src.
func (h *CatalogHandler) Cover(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		errorJSON(w, http.StatusNotFound, "item not found")
		return
	}
	item, err := h.Items.ItemByID(r.Context(), id)
	if err != nil {
		errorJSON(w, http.StatusNotFound, "item not found")
		return
	}
	if item.CoverS3Key == "" || h.S3 == nil {
		errorJSON(w, http.StatusNotFound, "no cover")
		return
	}
	body, contentType, err := h.S3.GetObject(r.Context(), item.CoverS3Key)
	if err != nil {
		h.Log.Error("cover download", "err", err, "item_id", id.Hex())
		errorJSON(w, http.StatusInternalServerError, "failed to load cover")
		return
	}
	defer body.Close()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	_, _ = io.Copy(w, body)
}
