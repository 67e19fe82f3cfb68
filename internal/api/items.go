package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/antoniwrobel/sprzet/internal/model"
	"github.com/antoniwrobel/sprzet/internal/store"
)

// ItemsHandler handles individual unit endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type itemParentRequest struct {
	ParentID int64 `json:"parent_id"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, parents, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	if parents == nil {
		parents = []model.ItemParent{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"items":   items,
		"parents": parents,
	})
}

// Block handles POST /api/items/{id}/block.
func (h *ItemsHandler) Block(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemParentRequest
	if err := decodeJSON(r, &req); err != nil || req.ParentID <= 0 {
		jsonError(w, http.StatusBadRequest, "parent_id required")
		return
	}

	if err := store.BlockItem(r.Context(), h.DB, id, req.ParentID); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("item blocked", "item_id", id, "parent_id", req.ParentID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item blocked"})
}

// Restore handles POST /api/items/{id}/restore.
func (h *ItemsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemParentRequest
	if err := decodeJSON(r, &req); err != nil || req.ParentID <= 0 {
		jsonError(w, http.StatusBadRequest, "parent_id required")
		return
	}

	if err := store.RestoreItem(r.Context(), h.DB, id, req.ParentID); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("item restored", "item_id", id, "parent_id", req.ParentID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item restored"})
}
