package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openshelf/backend/logger"
	"github.com/openshelf/backend/models"
	"github.com/openshelf/backend/service"
	"github.com/openshelf/backend/store"
	"github.com/openshelf/backend/validator"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dashboardPageSize = 10

// LibrarianHandler serves the management dashboard and the item CRUD.
// Routing mounts it behind Auth + RequireVerified.
type LibrarianHandler struct {
	Items store.ItemStore
	S3    *service.S3Service
	Log   *logger.Logger
}

// Dashboard lists items for management: search over title/author/isbn, a
// type filter, and the full status breakdown.
func (h *LibrarianHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ItemFilter{
		Search:  q.Get("search"),
		Type:    q.Get("type"),
		Scope:   store.ScopeDashboard,
		Page:    pageParam(r),
		PerPage: dashboardPageSize,
	}

	page, err := h.Items.SearchItems(r.Context(), filter)
	if err != nil {
		h.Log.Error("dashboard search", "err", err)
		errorJSON(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	stats, err := h.Items.DashboardStats(r.Context())
	if err != nil {
		h.Log.Error("dashboard stats", "err", err)
		errorJSON(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": paginate(page, r.URL),
		"stats": stats,
		"filters": map[string]string{
			"search": filter.Search,
			"type":   valueOrAll(filter.Type),
		},
	})
}

// formOptions feeds the create/edit forms: the enum values plus the
// defaults a blank creation form starts from.
func formOptions() map[string]interface{} {
	return map[string]interface{}{
		"types":    models.ItemTypes,
		"statuses": models.ItemStatuses,
		"defaults": map[string]interface{}{
			"status":       models.StatusAvailable,
			"language":     "en",
			"total_copies": 1,
		},
	}
}

func (h *LibrarianHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, formOptions())
}

func (h *LibrarianHandler) Store(w http.ResponseWriter, r *http.Request) {
	var in models.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	in.Normalize()
	in.ApplyCreateDefaults()

	v := validator.New()
	models.ValidateCreate(v, &in)
	if v.Valid() && in.ISBN != "" {
		inUse, err := h.Items.ISBNInUse(r.Context(), in.ISBN, primitive.NilObjectID)
		if err != nil {
			h.Log.Error("isbn lookup", "err", err)
			errorJSON(w, http.StatusInternalServerError, "failed to create item")
			return
		}
		v.Check(!inUse, "isbn", "This ISBN already exists in the library.")
	}
	if !v.Valid() {
		validationFailed(w, v.Errors)
		return
	}

	var item models.Item
	in.Apply(&item)
	if _, err := h.Items.InsertItem(r.Context(), &item); err != nil {
		h.Log.Error("item insert", "err", err)
		errorJSON(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Library item created successfully.",
		"item":    item,
	})
}

func (h *LibrarianHandler) Show(w http.ResponseWriter, r *http.Request) {
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

// EditForm returns the item together with the enum options so the client
// can render a populated edit form.
func (h *LibrarianHandler) EditForm(w http.ResponseWriter, r *http.Request) {
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
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"item":    item,
		"options": formOptions(),
	})
}

func (h *LibrarianHandler) Update(w http.ResponseWriter, r *http.Request) {
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
		errorJSON(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	var in models.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	in.Normalize()

	v := validator.New()
	models.ValidateUpdate(v, &in)
	if v.Valid() && in.ISBN != "" {
		// Exclude the item itself so re-saving its own ISBN passes.
		inUse, err := h.Items.ISBNInUse(r.Context(), in.ISBN, id)
		if err != nil {
			h.Log.Error("isbn lookup", "err", err)
			errorJSON(w, http.StatusInternalServerError, "failed to update item")
			return
		}
		v.Check(!inUse, "isbn", "This ISBN is already used by another item.")
	}
	if !v.Valid() {
		validationFailed(w, v.Errors)
		return
	}

	in.Apply(item)
	if err := h.Items.UpdateItem(r.Context(), item); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "item not found")
			return
		}
		h.Log.Error("item update", "err", err)
		errorJSON(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Library item updated successfully.",
		"item":    item,
	})
}

func (h *LibrarianHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
		errorJSON(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if err := h.Items.DeleteItem(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "item not found")
			return
		}
		h.Log.Error("item delete", "err", err)
		errorJSON(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if h.S3 != nil && item.CoverS3Key != "" {
		if err := h.S3.Delete(r.Context(), item.CoverS3Key); err != nil {
			h.Log.Warn("cover delete", "err", err, "item_id", id.Hex())
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
