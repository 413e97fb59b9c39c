package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"agora-ads/internal/core/domain"
)

// placementDTO is the JSON body of an ad placement request. Everything but
// the ad unit is optional context.
type placementDTO struct {
	AdUnitID int64        `json:"adUnitId" validate:"required,gt=0"`
	UserID   string       `json:"userId"`
	Location *locationDTO `json:"location"`
	Category string       `json:"category"`
	Keywords []string     `json:"keywords"`
	Device   *deviceDTO   `json:"device"`
}

type locationDTO struct {
	Lat    float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng    float64 `json:"lng" validate:"gte=-180,lte=180"`
	Radius float64 `json:"radius" validate:"gte=0"`
}

type deviceDTO struct {
	Type    string `json:"type"`
	OS      string `json:"os"`
	Browser string `json:"browser"`
}

// handleAdRequest runs the selection pipeline for a placement request and
// returns the serve payload. A request that produces no winner still gets
// HTTP 200 with a null ad, so the slot simply renders empty; selection never
// hard-fails a page render. Parsing and validation errors produce HTTP 400.
func (h *Handler) handleAdRequest(w http.ResponseWriter, r *http.Request) {
	var dto placementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		http.Error(w, "invalid placement request: "+err.Error(), http.StatusBadRequest)
		return
	}

	req := domain.PlacementRequest{
		AdUnitID: dto.AdUnitID,
		UserID:   dto.UserID,
		Category: dto.Category,
		Keywords: dto.Keywords,
	}
	if dto.Location != nil {
		req.Location = &domain.GeoLocation{Lat: dto.Location.Lat, Lng: dto.Location.Lng, Radius: dto.Location.Radius}
	}
	if dto.Device != nil {
		req.Device = &domain.Device{Type: dto.Device.Type, OS: dto.Device.OS, Browser: dto.Device.Browser}
	}

	result := h.ads.SelectAd(r.Context(), req)
	h.writeJSON(w, h.ads.GenerateAdResponse(result))
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// encoding should rarely fail; log and send generic error
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}
