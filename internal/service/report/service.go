// Package report aggregates bills into per-pile totals for a reporting
// bucket (day, week or month).
package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/evstation/internal/domain"
	"github.com/voltgrid/evstation/internal/ports"
)

type Service struct {
	bills ports.BillRepository
	piles ports.PileRepository
	log   *zap.Logger
	now   func() time.Time
}

func NewService(bills ports.BillRepository, piles ports.PileRepository, log *zap.Logger) *Service {
	return &Service{bills: bills, piles: piles, log: log, now: time.Now}
}

// Report totals the bills whose end time falls inside the trailing bucket.
// Piles without bills in range still appear, zeroed, so the report always
// covers the whole fleet.
func (s *Service) Report(ctx context.Context, timeRange string) ([]ports.PileReport, error) {
	var span time.Duration
	switch timeRange {
	case "day":
		span = 24 * time.Hour
	case "week":
		span = 7 * 24 * time.Hour
	case "month":
		span = 30 * 24 * time.Hour
	default:
		return nil, domain.E(domain.KindValidation, "unknown time range %q", timeRange)
	}

	since := s.now().Add(-span)

	piles, err := s.piles.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list piles: %w", err)
	}
	byPile := make(map[string]*ports.PileReport, len(piles))
	for _, p := range piles {
		byPile[p.ID] = &ports.PileReport{PileID: p.ID}
	}

	bills, err := s.bills.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	for _, b := range bills {
		if b.EndTime.Before(since) {
			continue
		}
		r, ok := byPile[b.PileID]
		if !ok {
			// Bill for a pile since removed from the fleet; still reported.
			r = &ports.PileReport{PileID: b.PileID}
			byPile[b.PileID] = r
		}
		r.Sessions++
		r.TotalHours += b.EndTime.Sub(b.StartTime).Hours()
		r.TotalKWh += b.DeliveredKWh
		r.ChargeFee += b.ChargeFee
		r.ServiceFee += b.ServiceFee
		r.TotalFee += b.TotalFee
	}

	out := make([]ports.PileReport, 0, len(byPile))
	for _, r := range byPile {
		r.TotalHours = round2(r.TotalHours)
		r.TotalKWh = round2(r.TotalKWh)
		r.ChargeFee = round2(r.ChargeFee)
		r.ServiceFee = round2(r.ServiceFee)
		r.TotalFee = round2(r.TotalFee)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PileID < out[j].PileID })
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ ports.ReportService = (*Service)(nil)
