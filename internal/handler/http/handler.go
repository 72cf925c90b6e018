package http

import (
	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/internal/store"
)

// Handler owns the HTTP surface of the menu server. It validates inbound
// payloads, enforces the request-size ceiling, and maps repository errors to
// HTTP status codes.
type Handler struct {
	menu            store.MenuRepository
	maxPayloadBytes int64

	logger *logger.Logger
}

func NewHandler(menu store.MenuRepository, maxPayloadBytes int64, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		menu:            menu,
		maxPayloadBytes: maxPayloadBytes,
		logger:          logger,
	}
}
