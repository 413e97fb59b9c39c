package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"agora-ads/internal/core/domain"
	"agora-ads/internal/core/port"
)

// fakeAds implements port.AdServer for route tests.
type fakeAds struct {
	lastReq    domain.PlacementRequest
	result     *port.SelectionResult
	response   *port.ServeResponse
	servedErr  error
	clickURL   string
	clickedErr error
	stats      *port.StatsResp
}

func (f *fakeAds) SelectAd(_ context.Context, req domain.PlacementRequest) *port.SelectionResult {
	f.lastReq = req
	return f.result
}

func (f *fakeAds) GenerateAdResponse(_ *port.SelectionResult) *port.ServeResponse {
	return f.response
}

func (f *fakeAds) MarkServed(_ context.Context, _ uuid.UUID) error {
	return f.servedErr
}

func (f *fakeAds) MarkClicked(_ context.Context, _ uuid.UUID) (string, error) {
	return f.clickURL, f.clickedErr
}

func (f *fakeAds) GetStats(_ context.Context, _ port.StatsReq) (*port.StatsResp, error) {
	return f.stats, nil
}

// fakeRevenue implements port.RevenueCalculator for route tests.
type fakeRevenue struct {
	summary    *port.EarningsSummary
	summaryErr error
	report     *port.EarningsReport
	payout     *port.PayoutResult
	lastAmount *float64
	settleErr  error
}

func (f *fakeRevenue) PublisherEarnings(_ context.Context, _ int64, _, _ time.Time) (*port.EarningsReport, error) {
	return f.report, nil
}

func (f *fakeRevenue) EarningsSummary(_ context.Context, _ int64) (*port.EarningsSummary, error) {
	return f.summary, f.summaryErr
}

func (f *fakeRevenue) RequestPayout(_ context.Context, _ int64, amount *float64) (*port.PayoutResult, error) {
	f.lastAmount = amount
	return f.payout, nil
}

func (f *fakeRevenue) SettlePayout(_ context.Context, _ int64, _ bool) error {
	return f.settleErr
}

func newTestHandler(ads *fakeAds, revenue *fakeRevenue) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(ads, revenue, logger, nil)
}

func TestHandleAdRequest(t *testing.T) {
	ads := &fakeAds{
		result: &port.SelectionResult{},
		response: &port.ServeResponse{
			RequestID:     uuid.NewString(),
			Ad:            &port.AdPayload{AdID: 1, Title: "Lunch deal"},
			AuctionType:   domain.AuctionSecondPrice,
			EligibleCount: 2,
		},
	}
	h := newTestHandler(ads, &fakeRevenue{})

	body := `{"adUnitId": 10, "userId": "u1", "category": "food",
		"location": {"lat": 40.0, "lng": -74.0, "radius": 500},
		"device": {"type": "mobile"}}`
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ad/request", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(10), ads.lastReq.AdUnitID)
	require.Equal(t, "food", ads.lastReq.Category)
	require.NotNil(t, ads.lastReq.Location)
	require.InDelta(t, 500.0, ads.lastReq.Location.Radius, 1e-9)
	require.Equal(t, "mobile", ads.lastReq.Device.Type)

	var resp port.ServeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Ad)
	require.Equal(t, 2, resp.EligibleCount)
}

func TestHandleAdRequestNoWinnerStill200(t *testing.T) {
	ads := &fakeAds{
		result:   &port.SelectionResult{},
		response: &port.ServeResponse{AuctionType: domain.AuctionSecondPrice},
	}
	h := newTestHandler(ads, &fakeRevenue{})

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ad/request",
		bytes.NewBufferString(`{"adUnitId": 10}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp port.ServeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Nil(t, resp.Ad)
}

func TestHandleAdRequestValidation(t *testing.T) {
	h := newTestHandler(&fakeAds{}, &fakeRevenue{})

	for _, body := range []string{
		`not json`,
		`{"adUnitId": 0}`,
		`{"adUnitId": 10, "location": {"lat": 91.0, "lng": 0}}`,
	} {
		rec := httptest.NewRecorder()
		h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ad/request",
			bytes.NewBufferString(body)))
		require.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestHandleImpression(t *testing.T) {
	h := newTestHandler(&fakeAds{}, &fakeRevenue{})

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ad/impression/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ad/impression/not-a-uuid", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleImpressionUnknownRequest(t *testing.T) {
	h := newTestHandler(&fakeAds{servedErr: port.ErrRequestNotFound}, &fakeRevenue{})

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ad/impression/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAdClickRedirects(t *testing.T) {
	h := newTestHandler(&fakeAds{clickURL: "https://example.com/landing"}, &fakeRevenue{})

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ad/click/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "https://example.com/landing", rec.Header().Get("Location"))
}

func TestHandleAdClickUnknownRequest(t *testing.T) {
	h := newTestHandler(&fakeAds{clickedErr: port.ErrRequestNotFound}, &fakeRevenue{})

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ad/click/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleEarningsSummary(t *testing.T) {
	rev := &fakeRevenue{summary: &port.EarningsSummary{PublisherID: 1, UnpaidEarnings: 70, CanRequestPayout: true}}
	h := newTestHandler(&fakeAds{}, rev)

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/publishers/1/earnings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var sum port.EarningsSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	require.True(t, sum.CanRequestPayout)
}

func TestHandleEarningsSummaryUnknownPublisher(t *testing.T) {
	h := newTestHandler(&fakeAds{}, &fakeRevenue{summaryErr: port.ErrPublisherNotFound})

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/publishers/9/earnings", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRequestPayout(t *testing.T) {
	rev := &fakeRevenue{payout: &port.PayoutResult{Accepted: true}}
	h := newTestHandler(&fakeAds{}, rev)

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/publishers/1/payouts",
		bytes.NewBufferString(`{"amount": 25.5}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, rev.lastAmount)
	require.InDelta(t, 25.5, *rev.lastAmount, 1e-9)

	// rejected payouts still return 200 with a reason
	rev.payout = &port.PayoutResult{Reason: "unpaid earnings below payment threshold"}
	rec = httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/publishers/1/payouts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, rev.lastAmount)

	var result port.PayoutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.False(t, result.Accepted)
	require.NotEmpty(t, result.Reason)
}

func TestHandleSettlePayout(t *testing.T) {
	h := newTestHandler(&fakeAds{}, &fakeRevenue{})

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/publishers/1/payouts/3/settle",
		bytes.NewBufferString(`{"succeeded": true}`)))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleSettlePayoutConflict(t *testing.T) {
	h := newTestHandler(&fakeAds{}, &fakeRevenue{settleErr: port.ErrPayoutNotPending})

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/publishers/1/payouts/3/settle",
		bytes.NewBufferString(`{"succeeded": false}`)))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleStatsOverview(t *testing.T) {
	ads := &fakeAds{stats: &port.StatsResp{Requests: 10, Impressions: 8, Clicks: 1, Spend: 3.2}}
	h := newTestHandler(ads, &fakeRevenue{})

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats/overview?campaign_id=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats port.StatsResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, int64(10), stats.Requests)

	rec = httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats/overview?from=bad", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
