package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agora-ads/internal/core/domain"
	"agora-ads/internal/core/port"
)

// AdRepository implements port.AdRepository using pgxpool for PostgreSQL.
type AdRepository struct {
	pool *pgxpool.Pool
}

// NewAdRepository returns a new repository instance.
func NewAdRepository(pool *pgxpool.Pool) *AdRepository {
	return &AdRepository{pool: pool}
}

// campaignTargeting is the JSONB shape of the campaigns.targeting column.
type campaignTargeting struct {
	Categories []string            `json:"categories,omitempty"`
	Keywords   []string            `json:"keywords,omitempty"`
	GeoPoints  []targetingGeoPoint `json:"geoPoints,omitempty"`
	Devices    []string            `json:"devices,omitempty"`
	Schedule   *domain.DaySchedule `json:"schedule,omitempty"`
}

type targetingGeoPoint struct {
	Lat    float64  `json:"lat"`
	Lng    float64  `json:"lng"`
	Radius *float64 `json:"radius,omitempty"`
}

const adColumns = `a.id, a.business_id, a.campaign_id, a.title, a.image_url, a.target_url,
		a.format, a.status, a.start_date, a.end_date, a.max_impressions, a.max_clicks,
		a.current_impressions, a.current_clicks, a.spent_amount, a.cost_per_click,
		a.cost_per_impression, a.target_category, a.target_keywords,
		a.geo_lat, a.geo_lng, a.geo_radius, a.created_at, a.updated_at`

func scanAd(row pgx.Row) (*domain.Advertisement, error) {
	var (
		ad     domain.Advertisement
		kwsRaw []byte
	)
	err := row.Scan(
		&ad.ID, &ad.BusinessID, &ad.CampaignID, &ad.Title, &ad.ImageURL, &ad.TargetURL,
		&ad.Format, &ad.Status, &ad.StartDate, &ad.EndDate, &ad.MaxImpressions, &ad.MaxClicks,
		&ad.CurrentImpressions, &ad.CurrentClicks, &ad.SpentAmount, &ad.CostPerClick,
		&ad.CostPerImpression, &ad.TargetCategory, &kwsRaw,
		&ad.GeoLat, &ad.GeoLng, &ad.GeoRadius, &ad.CreatedAt, &ad.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(kwsRaw) > 0 {
		if err = json.Unmarshal(kwsRaw, &ad.TargetKeywords); err != nil {
			return nil, fmt.Errorf("decode ad keywords: %w", err)
		}
	}
	return &ad, nil
}

// GetAdUnit returns the ad unit or nil when it does not exist.
func (r *AdRepository) GetAdUnit(ctx context.Context, id int64) (*domain.AdUnit, error) {
	var u domain.AdUnit
	err := r.pool.QueryRow(ctx, `SELECT id, publisher_id, name, format, status,
			total_impressions, total_clicks, total_revenue, created_at, updated_at
		FROM ad_units WHERE id = $1`, id).
		Scan(&u.ID, &u.PublisherID, &u.Name, &u.Format, &u.Status,
			&u.TotalImpressions, &u.TotalClicks, &u.TotalRevenue, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetCandidateAds returns format-compatible active ads inside their flight
// window and under their delivery caps, joined with campaign, business and
// the campaign's spend since local midnight. Targeting columns are JSONB and
// decoded here; a malformed targeting payload skips the row rather than
// failing the whole query.
func (r *AdRepository) GetCandidateAds(ctx context.Context, format string, now time.Time) ([]port.CandidateAd, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	query := `
		SELECT ` + adColumns + `,
			c.id, c.name, c.status, c.max_bid, c.daily_budget, c.total_budget,
			c.spent_amount, c.targeting, c.frequency_cap,
			c.total_impressions, c.total_clicks, c.total_conversions, c.created_at, c.updated_at,
			b.id, b.name, b.category, b.lat, b.lng,
			COALESCE(ds.spend, 0)
		FROM advertisements a
		JOIN businesses b ON b.id = a.business_id
		LEFT JOIN campaigns c ON c.id = a.campaign_id
		LEFT JOIN (
			SELECT ads.campaign_id, SUM(r.winning_bid) AS spend
			FROM ad_requests r
			JOIN advertisements ads ON ads.id = r.winning_ad_id
			WHERE r.served = true AND r.created_at >= $2 AND ads.campaign_id IS NOT NULL
			GROUP BY ads.campaign_id
		) ds ON ds.campaign_id = c.id
		WHERE a.format = $1
		  AND a.status = 'active'
		  AND (a.start_date IS NULL OR a.start_date <= $3)
		  AND (a.end_date IS NULL OR a.end_date >= $3)
		  AND (a.max_impressions IS NULL OR a.current_impressions < a.max_impressions)
		  AND (a.max_clicks IS NULL OR a.current_clicks < a.max_clicks)
		  AND (a.campaign_id IS NULL OR c.status = 'active')`

	rows, err := r.pool.Query(ctx, query, format, midnight, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]port.CandidateAd, 0)
	for rows.Next() {
		var (
			ad     domain.Advertisement
			kwsRaw []byte

			campID           *int64
			campName         *string
			campStatus       *string
			campMaxBid       *float64
			campDaily        *float64
			campTotal        *float64
			campSpent        *float64
			campTargetingRaw []byte
			campFreqCap      *int
			campImpressions  *int64
			campClicks       *int64
			campConversions  *int64
			campCreatedAt    *time.Time
			campUpdatedAt    *time.Time

			biz domain.Business

			todaySpend float64
		)
		err = rows.Scan(
			&ad.ID, &ad.BusinessID, &ad.CampaignID, &ad.Title, &ad.ImageURL, &ad.TargetURL,
			&ad.Format, &ad.Status, &ad.StartDate, &ad.EndDate, &ad.MaxImpressions, &ad.MaxClicks,
			&ad.CurrentImpressions, &ad.CurrentClicks, &ad.SpentAmount, &ad.CostPerClick,
			&ad.CostPerImpression, &ad.TargetCategory, &kwsRaw,
			&ad.GeoLat, &ad.GeoLng, &ad.GeoRadius, &ad.CreatedAt, &ad.UpdatedAt,
			&campID, &campName, &campStatus, &campMaxBid, &campDaily, &campTotal,
			&campSpent, &campTargetingRaw, &campFreqCap,
			&campImpressions, &campClicks, &campConversions, &campCreatedAt, &campUpdatedAt,
			&biz.ID, &biz.Name, &biz.Category, &biz.Lat, &biz.Lng,
			&todaySpend,
		)
		if err != nil {
			return nil, err
		}

		if len(kwsRaw) > 0 {
			if err = json.Unmarshal(kwsRaw, &ad.TargetKeywords); err != nil {
				// skip malformed keywords
				continue
			}
		}

		cand := port.CandidateAd{Ad: ad, Business: &biz, TodaySpend: todaySpend}
		if campID != nil {
			camp := &domain.Campaign{
				ID:           *campID,
				Name:         derefStr(campName),
				Status:       derefStr(campStatus),
				MaxBid:       campMaxBid,
				DailyBudget:  campDaily,
				TotalBudget:  campTotal,
				FrequencyCap: campFreqCap,
			}
			if campSpent != nil {
				camp.SpentAmount = *campSpent
			}
			if campImpressions != nil {
				camp.TotalImpressions = *campImpressions
			}
			if campClicks != nil {
				camp.TotalClicks = *campClicks
			}
			if campConversions != nil {
				camp.TotalConversions = *campConversions
			}
			if campCreatedAt != nil {
				camp.CreatedAt = *campCreatedAt
			}
			if campUpdatedAt != nil {
				camp.UpdatedAt = *campUpdatedAt
			}
			if len(campTargetingRaw) > 0 {
				var tgt campaignTargeting
				if err = json.Unmarshal(campTargetingRaw, &tgt); err != nil {
					// skip malformed targeting
					continue
				}
				camp.TargetCategories = tgt.Categories
				camp.ContextKeywords = tgt.Keywords
				camp.DeviceTypes = tgt.Devices
				camp.Schedule = tgt.Schedule
				for _, p := range tgt.GeoPoints {
					camp.GeoPoints = append(camp.GeoPoints, domain.GeoPoint{Lat: p.Lat, Lng: p.Lng, Radius: p.Radius})
				}
			}
			cand.Campaign = camp
		}
		candidates = append(candidates, cand)
	}
	return candidates, rows.Err()
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CountServedToday returns served-request counts per ad for one user since
// the given cutoff.
func (r *AdRepository) CountServedToday(ctx context.Context, userID string, adIDs []int64, since time.Time) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(adIDs))
	if len(adIDs) == 0 {
		return counts, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT winning_ad_id, COUNT(*)
		FROM ad_requests
		WHERE user_id = $1 AND served = true AND created_at >= $2 AND winning_ad_id = ANY($3)
		GROUP BY winning_ad_id`, userID, since, adIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			adID int64
			n    int64
		)
		if err = rows.Scan(&adID, &n); err != nil {
			return nil, err
		}
		counts[adID] = n
	}
	return counts, rows.Err()
}

// CreateAdRequest persists a placement decision audit row.
func (r *AdRepository) CreateAdRequest(ctx context.Context, req *domain.AdRequest) error {
	kws, err := json.Marshal(req.Keywords)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO ad_requests
		(id, ad_unit_id, winning_ad_id, winning_bid, auction_type, user_id, category,
		 keywords, device_type, lat, lng, served, clicked, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,false,false,$12)`,
		req.ID, req.AdUnitID, req.WinningAdID, req.WinningBid, req.AuctionType,
		req.UserID, req.Category, kws, req.DeviceType, req.Lat, req.Lng, req.CreatedAt)
	return err
}

// GetAdRequest returns the audit row or nil when it does not exist.
func (r *AdRepository) GetAdRequest(ctx context.Context, id uuid.UUID) (*domain.AdRequest, error) {
	var (
		req    domain.AdRequest
		kwsRaw []byte
	)
	err := r.pool.QueryRow(ctx, `SELECT id, ad_unit_id, winning_ad_id, winning_bid,
			auction_type, user_id, category, keywords, device_type, lat, lng,
			served, clicked, created_at
		FROM ad_requests WHERE id = $1`, id).
		Scan(&req.ID, &req.AdUnitID, &req.WinningAdID, &req.WinningBid,
			&req.AuctionType, &req.UserID, &req.Category, &kwsRaw, &req.DeviceType,
			&req.Lat, &req.Lng, &req.Served, &req.Clicked, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(kwsRaw) > 0 {
		if err = json.Unmarshal(kwsRaw, &req.Keywords); err != nil {
			return nil, fmt.Errorf("decode request keywords: %w", err)
		}
	}
	return &req, nil
}

// GetAdvertisement returns the advertisement or nil when it does not exist.
func (r *AdRepository) GetAdvertisement(ctx context.Context, id int64) (*domain.Advertisement, error) {
	ad, err := scanAd(r.pool.QueryRow(ctx,
		`SELECT `+adColumns+` FROM advertisements a WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ad, nil
}

// MarkServed flips served=true and applies the impression-side counter
// updates in one serializable transaction. An already served request is a
// no-op, so retried confirmations cannot double-count.
func (r *AdRepository) MarkServed(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	var (
		served     bool
		winningAd  *int64
		winningBid float64
		adUnitID   int64
		campaignID *int64
	)
	err = tx.QueryRow(ctx, `SELECT r.served, r.winning_ad_id, r.winning_bid, r.ad_unit_id, a.campaign_id
		FROM ad_requests r
		JOIN advertisements a ON a.id = r.winning_ad_id
		WHERE r.id = $1
		FOR UPDATE OF r`, id).
		Scan(&served, &winningAd, &winningBid, &adUnitID, &campaignID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = port.ErrRequestNotFound
		return err
	}
	if err != nil {
		return err
	}
	if served {
		// already confirmed
		return nil
	}

	if _, err = tx.Exec(ctx, `UPDATE ad_requests SET served = true WHERE id = $1`, id); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `UPDATE advertisements
		SET current_impressions = current_impressions + 1,
		    spent_amount = spent_amount + $1,
		    updated_at = now()
		WHERE id = $2`, winningBid, *winningAd); err != nil {
		return err
	}

	// Publisher revenue share attributed to the hosting ad unit.
	var (
		publisherID int64
		share       float64
	)
	err = tx.QueryRow(ctx, `SELECT p.id, p.revenue_share
		FROM ad_units u
		JOIN publishers p ON p.id = u.publisher_id
		WHERE u.id = $1
		FOR UPDATE OF p`, adUnitID).Scan(&publisherID, &share)
	if err != nil {
		return err
	}
	earnings := winningBid * share

	if _, err = tx.Exec(ctx, `UPDATE ad_units
		SET total_impressions = total_impressions + 1,
		    total_revenue = total_revenue + $1,
		    updated_at = now()
		WHERE id = $2`, earnings, adUnitID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `UPDATE publishers
		SET total_earnings = total_earnings + $1, updated_at = now()
		WHERE id = $2`, earnings, publisherID); err != nil {
		return err
	}

	if campaignID != nil {
		if _, err = tx.Exec(ctx, `UPDATE campaigns
			SET total_impressions = total_impressions + 1,
			    spent_amount = spent_amount + $1,
			    updated_at = now()
			WHERE id = $2`, winningBid, *campaignID); err != nil {
			return err
		}
	}
	return nil
}

// MarkClicked flips clicked=true and applies the click-side counter updates
// in one serializable transaction. An already clicked request is a no-op.
func (r *AdRepository) MarkClicked(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	var (
		clicked    bool
		winningAd  *int64
		adUnitID   int64
		campaignID *int64
	)
	err = tx.QueryRow(ctx, `SELECT r.clicked, r.winning_ad_id, r.ad_unit_id, a.campaign_id
		FROM ad_requests r
		JOIN advertisements a ON a.id = r.winning_ad_id
		WHERE r.id = $1
		FOR UPDATE OF r`, id).
		Scan(&clicked, &winningAd, &adUnitID, &campaignID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = port.ErrRequestNotFound
		return err
	}
	if err != nil {
		return err
	}
	if clicked {
		return nil
	}

	if _, err = tx.Exec(ctx, `UPDATE ad_requests SET clicked = true WHERE id = $1`, id); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `UPDATE advertisements
		SET current_clicks = current_clicks + 1, updated_at = now()
		WHERE id = $1`, *winningAd); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `UPDATE ad_units
		SET total_clicks = total_clicks + 1, updated_at = now()
		WHERE id = $1`, adUnitID); err != nil {
		return err
	}
	if campaignID != nil {
		if _, err = tx.Exec(ctx, `UPDATE campaigns
			SET total_clicks = total_clicks + 1, updated_at = now()
			WHERE id = $1`, *campaignID); err != nil {
			return err
		}
	}
	return nil
}

// GetPublisher returns the publisher or port.ErrPublisherNotFound.
func (r *AdRepository) GetPublisher(ctx context.Context, id int64) (*domain.Publisher, error) {
	var p domain.Publisher
	err := r.pool.QueryRow(ctx, `SELECT id, name, revenue_share, total_earnings,
			paid_earnings, payment_threshold, created_at, updated_at
		FROM publishers WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.RevenueShare, &p.TotalEarnings,
			&p.PaidEarnings, &p.PaymentThreshold, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrPublisherNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetEarningsBreakdown aggregates served revenue per ad unit for the
// publisher within [from, to].
func (r *AdRepository) GetEarningsBreakdown(ctx context.Context, publisherID int64, from, to time.Time) ([]port.AdUnitRevenue, error) {
	rows, err := r.pool.Query(ctx, `SELECT u.id, u.name,
			COUNT(r.id) FILTER (WHERE r.served),
			COUNT(r.id) FILTER (WHERE r.clicked),
			COALESCE(SUM(r.winning_bid) FILTER (WHERE r.served), 0)
		FROM ad_units u
		LEFT JOIN ad_requests r
			ON r.ad_unit_id = u.id AND r.created_at >= $2 AND r.created_at <= $3
		WHERE u.publisher_id = $1
		GROUP BY u.id, u.name
		ORDER BY u.id`, publisherID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breakdown := make([]port.AdUnitRevenue, 0)
	for rows.Next() {
		var row port.AdUnitRevenue
		if err = rows.Scan(&row.AdUnitID, &row.AdUnitName, &row.Impressions, &row.Clicks, &row.GrossAmount); err != nil {
			return nil, err
		}
		breakdown = append(breakdown, row)
	}
	return breakdown, rows.Err()
}

// CreatePayout inserts a pending payout and reserves the amount on the
// publisher ledger in one transaction.
func (r *AdRepository) CreatePayout(ctx context.Context, payout *domain.Payout) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `INSERT INTO payouts (publisher_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id`,
		payout.PublisherID, payout.Amount, payout.Status, payout.CreatedAt).Scan(&payout.ID)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `UPDATE publishers
		SET paid_earnings = paid_earnings + $1, updated_at = now()
		WHERE id = $2`, payout.Amount, payout.PublisherID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = port.ErrPublisherNotFound
		return err
	}
	return nil
}

// ResolvePayout transitions a pending payout to settled or failed. Failure
// releases the paid-earnings reservation in the same transaction.
func (r *AdRepository) ResolvePayout(ctx context.Context, payoutID int64, status string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	var (
		publisherID int64
		amount      float64
		current     string
	)
	err = tx.QueryRow(ctx, `SELECT publisher_id, amount, status FROM payouts WHERE id = $1 FOR UPDATE`, payoutID).
		Scan(&publisherID, &amount, &current)
	if errors.Is(err, pgx.ErrNoRows) {
		err = port.ErrPayoutNotFound
		return err
	}
	if err != nil {
		return err
	}
	if current != domain.PayoutStatusPending {
		err = port.ErrPayoutNotPending
		return err
	}

	if _, err = tx.Exec(ctx, `UPDATE payouts SET status = $1, updated_at = now() WHERE id = $2`, status, payoutID); err != nil {
		return err
	}
	if status == domain.PayoutStatusFailed {
		if _, err = tx.Exec(ctx, `UPDATE publishers
			SET paid_earnings = paid_earnings - $1, updated_at = now()
			WHERE id = $2`, amount, publisherID); err != nil {
			return err
		}
	}
	return nil
}

// GetStats returns aggregated delivery statistics for a period.
func (r *AdRepository) GetStats(ctx context.Context, req port.StatsReq) (*port.StatsResp, error) {
	args := []interface{}{req.From, req.To}
	join := ""
	where := ""
	if req.CampaignID != nil {
		join = "JOIN advertisements a ON a.id = r.winning_ad_id"
		where = "AND a.campaign_id = $3"
		args = append(args, *req.CampaignID)
	}
	query := fmt.Sprintf(`SELECT COUNT(r.id),
			COUNT(r.id) FILTER (WHERE r.served),
			COUNT(r.id) FILTER (WHERE r.clicked),
			COALESCE(SUM(r.winning_bid) FILTER (WHERE r.served), 0)
		FROM ad_requests r %s
		WHERE r.created_at >= $1 AND r.created_at <= $2 %s`, join, where)

	var resp port.StatsResp
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&resp.Requests, &resp.Impressions, &resp.Clicks, &resp.Spend)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
