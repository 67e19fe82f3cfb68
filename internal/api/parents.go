package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/antoniwrobel/sprzet/internal/imaging"
	"github.com/antoniwrobel/sprzet/internal/model"
	"github.com/antoniwrobel/sprzet/internal/store"
)

// ParentsHandler handles equipment pool endpoints.
type ParentsHandler struct {
	DB *sql.DB
}

type createParentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// List handles GET /api/parents.
func (h *ParentsHandler) List(w http.ResponseWriter, r *http.Request) {
	parents, err := store.ListAvailableParents(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	if parents == nil {
		parents = []model.ItemParent{}
	}
	jsonResponse(w, http.StatusOK, parents)
}

// Create handles POST /api/parents.
func (h *ParentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createParentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	parent, err := store.CreateItemParent(r.Context(), h.DB, req.Name, req.Description, req.Quantity)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("equipment pool created", "parent", parent.Name, "quantity", parent.Quantity)
	jsonResponse(w, http.StatusCreated, parent)
}

// Get handles GET /api/parents/{id}.
func (h *ParentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid parent id")
		return
	}

	parent, err := store.GetItemParent(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, parent)
}

// Delete handles DELETE /api/parents/{id}.
func (h *ParentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid parent id")
		return
	}

	if err := store.DeleteItemParent(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("equipment pool deleted", "parent_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "parent deleted"})
}

// UploadImage handles PUT /api/parents/{id}/image.
func (h *ParentsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid parent id")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	processed, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetParentImage(r.Context(), h.DB, id, processed.Data, processed.MIME); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/parents/{id}/image.
func (h *ParentsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid parent id")
		return
	}

	data, mime, err := store.GetParentImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Write(data)
}
