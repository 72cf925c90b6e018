package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/internal/store"
	"github.com/dishcraft/menusync/internal/utils"
	"github.com/dishcraft/menusync/models"
	"github.com/go-chi/chi/v5"
)

// upsertItem handles PUT /api/items/{id}. The full item state replaces
// whatever the server holds; the operation is idempotent. Requests exceeding
// the payload ceiling are answered with 413 so clients can run their payload
// optimization ladder; payloads failing validation get 422.
func (h *Handler) upsertItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxPayloadBytes)

	var item models.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			log.Warn().Str("func", "*Handler.upsertItem").Str("item_id", id).Int64("limit", maxBytesErr.Limit).Msg("payload exceeds size ceiling")
			utils.WriteJSON(w, models.ErrorResponse{Error: "payload exceeds size limit"}, http.StatusRequestEntityTooLarge)
			return
		}
		log.Err(err).Str("func", "*Handler.upsertItem").Msg("invalid JSON was passed")
		utils.WriteJSON(w, models.ErrorResponse{Error: "invalid JSON was passed"}, http.StatusBadRequest)
		return
	}

	item.ID = id
	if msg, ok := validateItem(item); !ok {
		log.Warn().Str("func", "*Handler.upsertItem").Str("item_id", id).Str("reason", msg).Msg("item failed validation")
		utils.WriteJSON(w, models.ErrorResponse{Error: msg}, http.StatusUnprocessableEntity)
		return
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now().UTC()
	}

	saved, err := h.menu.UpsertItem(r.Context(), item)
	if err != nil {
		h.writeRepositoryError(w, r, "*Handler.upsertItem", err)
		return
	}

	utils.WriteJSON(w, saved, http.StatusOK)
}

// deleteItem handles DELETE /api/items/{id}. Answers 204 on success and 404
// when the item does not exist, so the client can tell "deleted now" from
// "was already gone".
func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	id := chi.URLParam(r, "id")

	if err := h.menu.DeleteItem(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			log.Debug().Str("func", "*Handler.deleteItem").Str("item_id", id).Msg("item already absent")
			utils.WriteJSON(w, models.ErrorResponse{Error: "item not found"}, http.StatusNotFound)
			return
		}
		h.writeRepositoryError(w, r, "*Handler.deleteItem", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listItems handles GET /api/items.
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.ListItems(r.Context())
	if err != nil {
		h.writeRepositoryError(w, r, "*Handler.listItems", err)
		return
	}

	if items == nil {
		items = []models.Item{}
	}
	utils.WriteJSON(w, models.ItemListResponse{Items: items, Length: len(items)}, http.StatusOK)
}

func (h *Handler) writeRepositoryError(w http.ResponseWriter, r *http.Request, caller string, err error) {
	log := logger.FromRequest(r)

	switch {
	case errors.Is(err, store.ErrNegativePrice):
		log.Warn().Str("func", caller).Err(err).Msg("item failed validation")
		utils.WriteJSON(w, models.ErrorResponse{Error: err.Error()}, http.StatusUnprocessableEntity)
	case errors.Is(err, store.ErrTemporarilyUnavailable):
		log.Warn().Str("func", caller).Err(err).Msg("storage temporarily unavailable")
		utils.WriteJSON(w, models.ErrorResponse{Error: "storage temporarily unavailable"}, http.StatusServiceUnavailable)
	default:
		log.Err(err).Str("func", caller).Msg("unexpected storage error")
		utils.WriteJSON(w, models.ErrorResponse{Error: "internal server error"}, http.StatusInternalServerError)
	}
}

func validateItem(item models.Item) (string, bool) {
	if strings.TrimSpace(item.Name) == "" {
		return "item name must not be empty", false
	}
	if item.Price < 0 {
		return "item price must not be negative", false
	}
	if item.AvailableQuantity < 0 {
		return "available quantity must not be negative", false
	}
	return "", true
}
