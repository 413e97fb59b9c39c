package db

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seed inserts demo data: publishers with ad units, businesses with
// campaigns and advertisements, and a batch of historical ad requests so
// stats and earnings endpoints return something meaningful.
func Seed(ctx context.Context, db *pgxpool.Pool) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	formats := []string{"banner", "sidebar", "featured"}
	categories := []string{"food", "retail", "services"}

	// publishers and their ad units
	for i := 1; i <= 3; i++ {
		_, err := db.Exec(ctx, `INSERT INTO publishers
			(id, name, revenue_share, payment_threshold)
			VALUES ($1, $2, 0.7, 50) ON CONFLICT DO NOTHING`,
			i, fmt.Sprintf("Publisher %d", i))
		if err != nil {
			return err
		}
		for j, format := range formats {
			_, err = db.Exec(ctx, `INSERT INTO ad_units
				(id, publisher_id, name, format, status)
				VALUES ($1, $2, $3, $4, 'active') ON CONFLICT DO NOTHING`,
				(i-1)*len(formats)+j+1, i, fmt.Sprintf("Unit %d-%s", i, format), format)
			if err != nil {
				return err
			}
		}
	}

	// businesses, campaigns and ads
	for i := 1; i <= 5; i++ {
		lat := 40.0 + r.Float64()
		lng := -74.0 + r.Float64()
		_, err := db.Exec(ctx, `INSERT INTO businesses (id, name, category, lat, lng)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
			i, fmt.Sprintf("Business %d", i), categories[r.Intn(len(categories))], lat, lng)
		if err != nil {
			return err
		}

		targeting, _ := json.Marshal(map[string]interface{}{
			"categories": []string{categories[r.Intn(len(categories))]},
			"keywords":   []string{"local", "deal", "fresh"},
		})
		_, err = db.Exec(ctx, `INSERT INTO campaigns
			(id, name, status, max_bid, daily_budget, total_budget, targeting)
			VALUES ($1, $2, 'active', $3, 100, 1000, $4) ON CONFLICT DO NOTHING`,
			i, fmt.Sprintf("Campaign %d", i), 0.5+r.Float64(), targeting)
		if err != nil {
			return err
		}

		for j := 1; j <= 3; j++ {
			adID := (i-1)*3 + j
			kws, _ := json.Marshal([]string{"local", "sale"})
			_, err = db.Exec(ctx, `INSERT INTO advertisements
				(id, business_id, campaign_id, title, target_url, format, status,
				 cost_per_click, target_category, target_keywords)
				VALUES ($1, $2, $3, $4, $5, $6, 'active', $7, $8, $9) ON CONFLICT DO NOTHING`,
				adID, i, i, fmt.Sprintf("Ad %d for business %d", j, i),
				fmt.Sprintf("https://example.com/landing/%d", adID),
				formats[r.Intn(len(formats))], 0.5+r.Float64(),
				categories[r.Intn(len(categories))], kws)
			if err != nil {
				return err
			}
		}
	}

	// historical decisions, most served, some clicked
	for i := 0; i < 500; i++ {
		adID := int64(r.Intn(15) + 1)
		unitID := int64(r.Intn(9) + 1)
		served := r.Intn(10) > 1
		clicked := served && r.Intn(10) == 0
		_, err := db.Exec(ctx, `INSERT INTO ad_requests
			(id, ad_unit_id, winning_ad_id, winning_bid, auction_type, user_id, served, clicked, created_at)
			VALUES ($1, $2, $3, $4, 'second_price', $5, $6, $7, $8) ON CONFLICT DO NOTHING`,
			uuid.New(), unitID, adID, 0.2+r.Float64(),
			fmt.Sprintf("user-%d", r.Intn(100)+1), served, clicked,
			time.Now().Add(-time.Duration(r.Intn(72))*time.Hour))
		if err != nil {
			return err
		}
	}
	return nil
}
