package ledger

import (
	"context"
	"fmt"
	"time"
)

// TrendPoint is one history observation prepared for trend views: the
// capture date groups points for multi-store comparison.
type TrendPoint struct {
	Date        string
	StoreID     int64
	Price       float64
	IsAvailable bool
	RecordedAt  time.Time
}

// TrendSummary describes the overall movement across a trend window.
type TrendSummary struct {
	Direction     string
	ChangeAmount  float64
	ChangePercent float64
	MinPrice      float64
	AvgPrice      float64
	MaxPrice      float64
	DataPoints    int
}

// stableBand is the absolute change percentage under which a trend counts
// as stable.
const stableBand = 5.0

// Trend returns history points for a product from sinceDays ago onward, in
// ascending capture order, optionally filtered to one store (storeID 0
// means all stores).
func (l *Ledger) Trend(ctx context.Context, productID, storeID int64, sinceDays int) ([]TrendPoint, error) {
	if sinceDays <= 0 {
		return nil, fmt.Errorf("sinceDays must be positive, got %d", sinceDays)
	}

	since := time.Now().UTC().AddDate(0, 0, -sinceDays)
	records, err := l.store.HistorySince(ctx, productID, storeID, since)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	points := make([]TrendPoint, 0, len(records))
	for _, rec := range records {
		points = append(points, TrendPoint{
			Date:        rec.RecordedAt.Format("2006-01-02"),
			StoreID:     rec.StoreID,
			Price:       rec.Price,
			IsAvailable: rec.IsAvailable,
			RecordedAt:  rec.RecordedAt,
		})
	}
	return points, nil
}

// GroupByDate buckets trend points by capture date, preserving the
// ascending order inside each bucket.
func GroupByDate(points []TrendPoint) map[string][]TrendPoint {
	grouped := make(map[string][]TrendPoint, len(points))
	for _, p := range points {
		grouped[p.Date] = append(grouped[p.Date], p)
	}
	return grouped
}

// Summarize computes the movement across the window: direction with a 5%
// stability band, first-to-last change, and min/avg/max.
func Summarize(points []TrendPoint) TrendSummary {
	if len(points) < 2 {
		return TrendSummary{Direction: "stable", DataPoints: len(points)}
	}

	first := points[0].Price
	last := points[len(points)-1].Price

	changeAmount := last - first
	var changePercent float64
	if first > 0 {
		changePercent = changeAmount / first * 100
	}

	direction := "stable"
	switch {
	case changePercent > stableBand:
		direction = "increasing"
	case changePercent < -stableBand:
		direction = "decreasing"
	}

	minP, maxP, sum := points[0].Price, points[0].Price, 0.0
	for _, p := range points {
		if p.Price < minP {
			minP = p.Price
		}
		if p.Price > maxP {
			maxP = p.Price
		}
		sum += p.Price
	}

	return TrendSummary{
		Direction:     direction,
		ChangeAmount:  round2(changeAmount),
		ChangePercent: round2(changePercent),
		MinPrice:      minP,
		AvgPrice:      round2(sum / float64(len(points))),
		MaxPrice:      maxP,
		DataPoints:    len(points),
	}
}
