// Package handlers wires the HTTP surface of the shortener: operational endpoints and the chi router.
package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/achufistov/shortypanel/internal/app/service"
	"github.com/achufistov/shortypanel/internal/app/views"
)

// Handler serves the operational endpoints.
type Handler struct {
	service *service.Service
	view    *views.View
	logger  *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc *service.Service, view *views.View, logger *zap.Logger) *Handler {
	return &Handler{service: svc, view: view, logger: logger}
}

// HandlePing reports whether the store answers.
func (h *Handler) HandlePing(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Warn("ping failed", zap.Error(err))
		http.Error(w, "Failed to ping storage", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleStats returns url, user and visit totals.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("stats failed", zap.Error(err))
		h.view.RenderError(w, http.StatusInternalServerError, "Failed to get stats")
		return
	}
	h.view.RenderJSON(w, http.StatusOK, stats)
}

// HandleNotFound renders unknown routes as a JSON 404.
func (h *Handler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.view.RenderError(w, http.StatusNotFound, "Not found")
}
