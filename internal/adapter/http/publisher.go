package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"agora-ads/internal/core/port"
)

// handleEarningsSummary returns the publisher's ledger totals and whether
// the payment threshold has been reached. Unknown publishers produce 404.
func (h *Handler) handleEarningsSummary(w http.ResponseWriter, r *http.Request) {
	publisherID, err := strconv.ParseInt(chi.URLParam(r, "publisherID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid publisher id", http.StatusBadRequest)
		return
	}
	summary, err := h.revenue.EarningsSummary(r.Context(), publisherID)
	if err != nil {
		if errors.Is(err, port.ErrPublisherNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("earnings summary error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, summary)
}

// handleEarningsReport returns a per-ad-unit earnings breakdown for an
// optional `from`/`to` window (RFC3339). The window defaults to the last 30
// days.
func (h *Handler) handleEarningsReport(w http.ResponseWriter, r *http.Request) {
	publisherID, err := strconv.ParseInt(chi.URLParam(r, "publisherID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid publisher id", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	from := time.Now().AddDate(0, 0, -30)
	to := time.Now()
	if s := q.Get("from"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			http.Error(w, "invalid 'from' timestamp", http.StatusBadRequest)
			return
		}
	}
	if s := q.Get("to"); s != "" {
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			http.Error(w, "invalid 'to' timestamp", http.StatusBadRequest)
			return
		}
	}

	report, err := h.revenue.PublisherEarnings(r.Context(), publisherID, from, to)
	if err != nil {
		if errors.Is(err, port.ErrPublisherNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("earnings report error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, report)
}

// payoutRequestDTO carries an optional explicit payout amount; omitting it
// requests the full unpaid balance.
type payoutRequestDTO struct {
	Amount *float64 `json:"amount" validate:"omitempty,gt=0"`
}

// handleRequestPayout reserves a payout for the publisher. A request below
// the threshold or above the unpaid balance comes back with HTTP 200 and
// accepted=false plus a reason, mirroring the usecase contract.
func (h *Handler) handleRequestPayout(w http.ResponseWriter, r *http.Request) {
	publisherID, err := strconv.ParseInt(chi.URLParam(r, "publisherID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid publisher id", http.StatusBadRequest)
		return
	}
	var dto payoutRequestDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err = json.NewDecoder(r.Body).Decode(&dto); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if err = h.validate.Struct(dto); err != nil {
			http.Error(w, "invalid payout request: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	result, err := h.revenue.RequestPayout(r.Context(), publisherID, dto.Amount)
	if err != nil {
		if errors.Is(err, port.ErrPublisherNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("payout request error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, result)
}

// payoutSettleDTO reports the settlement result of a pending payout.
type payoutSettleDTO struct {
	Succeeded bool `json:"succeeded"`
}

// handleSettlePayout finalizes a pending payout after external settlement.
// Unknown payouts produce 404 and non-pending payouts 409.
func (h *Handler) handleSettlePayout(w http.ResponseWriter, r *http.Request) {
	payoutID, err := strconv.ParseInt(chi.URLParam(r, "payoutID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid payout id", http.StatusBadRequest)
		return
	}
	var dto payoutSettleDTO
	if err = json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err = h.revenue.SettlePayout(r.Context(), payoutID, dto.Succeeded); err != nil {
		switch {
		case errors.Is(err, port.ErrPayoutNotFound):
			http.NotFound(w, r)
		case errors.Is(err, port.ErrPayoutNotPending):
			http.Error(w, "payout is not pending", http.StatusConflict)
		default:
			h.logger.Error("payout settle error", slog.Any("error", err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
