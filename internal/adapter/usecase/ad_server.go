package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"agora-ads/internal/config/configs"
	"agora-ads/internal/core/domain"
	"agora-ads/internal/core/engine"
	"agora-ads/internal/core/port"
	"agora-ads/internal/metrics"
)

// AdServer orchestrates one placement decision: eligibility filtering,
// frequency capping, quality scoring and the auction, then records the
// decision as an auditable request row. It is constructed once at process
// start and shared by request handlers; all mutable state lives in the
// repository.
type AdServer struct {
	repo   port.AdRepository
	logger *slog.Logger
	m      *metrics.AdMetrics

	auctionType    string
	reserve        float64
	weights        engine.Weights
	freqCapping    bool
	defaultFreqCap int

	// now is the clock; overridable in tests to pin "today".
	now func() time.Time
}

// NewAdServer creates the orchestrator with the provided repository and
// engine configuration.
func NewAdServer(repo port.AdRepository, logger *slog.Logger, m *metrics.AdMetrics, cfg configs.Engine) *AdServer {
	return &AdServer{
		repo:        repo,
		logger:      logger,
		m:           m,
		auctionType: cfg.NormalizedAuctionType(),
		reserve:     cfg.ReservePrice,
		weights: engine.Weights{
			CTR:         cfg.WeightCTR,
			Relevance:   cfg.WeightRelevance,
			LandingPage: cfg.WeightLandingPage,
		},
		freqCapping:    cfg.FrequencyCapping,
		defaultFreqCap: cfg.DefaultFrequencyCap,
		now:            time.Now,
	}
}

// SelectAd picks the single best advertisement for the request. It never
// hard-fails: repository errors degrade to a no-winner result so the page
// still renders, with the failure logged. EligibleCount carries the
// candidate count before the pipeline step that emptied the list.
func (s *AdServer) SelectAd(ctx context.Context, req domain.PlacementRequest) *port.SelectionResult {
	result := &port.SelectionResult{AuctionType: s.auctionType}

	unit, err := s.repo.GetAdUnit(ctx, req.AdUnitID)
	if err != nil {
		s.logger.Error("ad unit lookup failed", slog.Int64("adUnit", req.AdUnitID), slog.Any("error", err))
		s.m.ObserveSelection(metrics.OutcomeError)
		return result
	}
	if unit == nil || unit.Status != domain.AdUnitStatusActive {
		s.m.ObserveSelection(metrics.OutcomeUnitInactive)
		return result
	}

	now := s.now()
	candidates, err := s.repo.GetCandidateAds(ctx, unit.Format, now)
	if err != nil {
		s.logger.Error("candidate load failed", slog.Int64("adUnit", unit.ID), slog.Any("error", err))
		s.m.ObserveSelection(metrics.OutcomeError)
		return result
	}

	eligible := engine.FilterEligible(now, req, candidates)
	if len(eligible) == 0 {
		s.m.ObserveSelection(metrics.OutcomeNoEligible)
		return result
	}

	capped, err := s.applyFrequencyCap(ctx, req.UserID, eligible, now)
	if err != nil {
		s.logger.Error("frequency cap lookup failed", slog.Any("error", err))
		s.m.ObserveSelection(metrics.OutcomeError)
		return result
	}
	if len(capped) == 0 {
		result.EligibleCount = len(eligible)
		s.m.ObserveSelection(metrics.OutcomeCapped)
		return result
	}
	result.EligibleCount = len(capped)

	scored := engine.ScoreQuality(s.weights, capped)
	outcome := engine.RunAuction(scored, s.auctionType, s.reserve)
	if outcome == nil {
		s.m.ObserveSelection(metrics.OutcomeBelowReserve)
		return result
	}

	adReq := s.buildAdRequest(req, outcome, now)
	if err = s.repo.CreateAdRequest(ctx, adReq); err != nil {
		s.logger.Error("decision persist failed", slog.Any("error", err))
		s.m.ObserveSelection(metrics.OutcomeError)
		return &port.SelectionResult{AuctionType: s.auctionType, EligibleCount: result.EligibleCount}
	}

	winner := outcome.Winner.Candidate.Ad
	result.RequestID = adReq.ID
	result.Winner = &winner
	result.Business = outcome.Winner.Candidate.Business
	result.ClearingPrice = outcome.ClearingPrice

	s.m.ObserveSelection(metrics.OutcomeWon)
	s.m.ObserveClearingPrice(outcome.ClearingPrice)
	return result
}

// applyFrequencyCap drops ads the user has already seen at or above the
// effective per-day cap. Anonymous requests and disabled capping pass
// through unchanged.
func (s *AdServer) applyFrequencyCap(ctx context.Context, userID string, ads []engine.EligibleAd, now time.Time) ([]engine.EligibleAd, error) {
	if !s.freqCapping || userID == "" {
		return ads, nil
	}

	ids := make([]int64, len(ads))
	for i := range ads {
		ids[i] = ads[i].Candidate.Ad.ID
	}
	counts, err := s.repo.CountServedToday(ctx, userID, ids, localMidnight(now))
	if err != nil {
		return nil, err
	}

	kept := make([]engine.EligibleAd, 0, len(ads))
	for _, ea := range ads {
		limit := s.defaultFreqCap
		if ea.Candidate.Campaign != nil && ea.Candidate.Campaign.FrequencyCap != nil {
			limit = *ea.Candidate.Campaign.FrequencyCap
		}
		if counts[ea.Candidate.Ad.ID] >= int64(limit) {
			continue
		}
		kept = append(kept, ea)
	}
	return kept, nil
}

func (s *AdServer) buildAdRequest(req domain.PlacementRequest, outcome *engine.Outcome, now time.Time) *domain.AdRequest {
	winnerID := outcome.Winner.Candidate.Ad.ID
	adReq := &domain.AdRequest{
		ID:          uuid.New(),
		AdUnitID:    req.AdUnitID,
		WinningAdID: &winnerID,
		WinningBid:  outcome.ClearingPrice,
		AuctionType: s.auctionType,
		UserID:      req.UserID,
		Category:    req.Category,
		Keywords:    req.Keywords,
		CreatedAt:   now,
	}
	if req.Device != nil {
		adReq.DeviceType = req.Device.Type
	}
	if req.Location != nil {
		lat, lng := req.Location.Lat, req.Location.Lng
		adReq.Lat, adReq.Lng = &lat, &lng
	}
	return adReq
}

// GenerateAdResponse shapes a selection result into the serve payload,
// including tracking URLs that confirm delivery and clicks when invoked.
func (s *AdServer) GenerateAdResponse(result *port.SelectionResult) *port.ServeResponse {
	resp := &port.ServeResponse{
		EligibleCount: result.EligibleCount,
		AuctionType:   result.AuctionType,
		ClearingPrice: result.ClearingPrice,
	}
	if result.Winner == nil {
		return resp
	}

	resp.RequestID = result.RequestID.String()
	resp.Ad = &port.AdPayload{
		AdID:      result.Winner.ID,
		Title:     result.Winner.Title,
		ImageURL:  result.Winner.ImageURL,
		TargetURL: result.Winner.TargetURL,
	}
	if result.Business != nil {
		resp.Ad.BusinessName = result.Business.Name
	}
	resp.ImpressionURL = fmt.Sprintf("/api/v1/ad/impression/%s", result.RequestID)
	resp.ClickURL = fmt.Sprintf("/api/v1/ad/click/%s", result.RequestID)
	return resp
}

// MarkServed confirms delivery of the decision's winning ad. The repository
// applies the flag flip and all counter increments in one transaction;
// confirming an already served request changes nothing.
func (s *AdServer) MarkServed(ctx context.Context, requestID uuid.UUID) error {
	if err := s.repo.MarkServed(ctx, requestID); err != nil {
		return err
	}
	s.m.IncConfirmation("impression")
	return nil
}

// MarkClicked records a click on a served ad and returns the landing URL for
// redirection. A repeated click confirmation is a no-op but still redirects.
func (s *AdServer) MarkClicked(ctx context.Context, requestID uuid.UUID) (string, error) {
	adReq, err := s.repo.GetAdRequest(ctx, requestID)
	if err != nil {
		return "", err
	}
	if adReq == nil {
		return "", port.ErrRequestNotFound
	}
	if adReq.WinningAdID == nil {
		return "", errors.New("request has no winning ad")
	}

	if err = s.repo.MarkClicked(ctx, requestID); err != nil {
		return "", err
	}

	ad, err := s.repo.GetAdvertisement(ctx, *adReq.WinningAdID)
	if err != nil {
		return "", err
	}
	if ad == nil {
		return "", errors.New("winning ad no longer exists")
	}

	s.m.IncConfirmation("click")
	return ad.TargetURL, nil
}

// GetStats returns aggregated delivery statistics for a period.
func (s *AdServer) GetStats(ctx context.Context, req port.StatsReq) (*port.StatsResp, error) {
	return s.repo.GetStats(ctx, req)
}

// localMidnight returns the start of t's calendar day in t's location. Daily
// budget and frequency-cap windows reset at this boundary.
func localMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
