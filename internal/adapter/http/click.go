package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"agora-ads/internal/core/port"
)

// handleImpression is the impression tracking callback: it confirms delivery
// of a previous decision and triggers the transactional counter updates.
// It expects a {requestID} path parameter. Confirming an already served
// request is a no-op and still returns 204. Unknown requests produce 404.
func (h *Handler) handleImpression(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	if err = h.ads.MarkServed(r.Context(), requestID); err != nil {
		if errors.Is(err, port.ErrRequestNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("impression confirmation error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAdClick handles click redirects and records click events. It expects
// a {requestID} path parameter bound by the router. On success it redirects
// the user to the landing URL. Invalid identifiers result in HTTP 400, while
// unknown requests result in HTTP 404. Internal errors are logged and
// treated as 404 to avoid leaking information.
func (h *Handler) handleAdClick(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	landingURL, err := h.ads.MarkClicked(r.Context(), requestID)
	if err != nil {
		h.logger.Error("click error", slog.Any("error", err))
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, landingURL, http.StatusFound)
}
