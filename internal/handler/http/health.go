package http

import (
	"net/http"

	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/internal/utils"
	"github.com/dishcraft/menusync/models"
)

// health handles GET /api/health. It answers 200 only when the backing
// storage is live, so clients can use it as a cheap reachability probe that
// also covers the server's own dependencies.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	if err := h.menu.Ping(r.Context()); err != nil {
		log.Err(err).Str("func", "*Handler.health").Msg("storage ping failed")
		utils.WriteJSON(w, models.HealthResponse{Status: "unavailable"}, http.StatusServiceUnavailable)
		return
	}

	utils.WriteJSON(w, models.HealthResponse{Status: "ok"}, http.StatusOK)
}
