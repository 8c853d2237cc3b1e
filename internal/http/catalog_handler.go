package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/easymeds/platform/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalog catalog.Repository
	timeout time.Duration
}

func NewCatalogHandler(cat catalog.Repository, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		catalog: cat,
		timeout: timeout,
	}
}

func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.catalog.ListItems(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list catalog items")
		return
	}

	respondJSON(w, http.StatusOK, items)
}

func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	item, err := h.catalog.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "catalog item not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load catalog item")
		return
	}

	respondJSON(w, http.StatusOK, item)
}
