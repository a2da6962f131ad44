// Package dispatch implements the optional best-pile policy: assign a request
// to the pile minimizing its projected waiting plus charging time.
package dispatch

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/voltgrid/evstation/internal/domain"
	"github.com/voltgrid/evstation/internal/ports"
)

type Policy string

const (
	PolicyFCFS              Policy = "fcfs"
	PolicyShortestTotalTime Policy = "shortest_total_time"
)

func ParsePolicy(s string) (Policy, bool) {
	switch Policy(s) {
	case PolicyFCFS, PolicyShortestTotalTime:
		return Policy(s), true
	}
	return "", false
}

type Service struct {
	requests ports.RequestRepository
	log      *zap.Logger
}

func NewService(requests ports.RequestRepository, log *zap.Logger) *Service {
	return &Service{requests: requests, log: log}
}

// TotalTime projects the hours until the request would finish on the pile:
// the charging time of everything already queued there plus its own.
func (s *Service) TotalTime(ctx context.Context, pile *domain.ChargingPile, req *domain.ChargingRequest) (float64, error) {
	if pile.PowerKW <= 0 {
		return 0, fmt.Errorf("pile %s has no power rating", pile.ID)
	}

	var queuedKWh float64
	for _, carID := range pile.LocalQueue {
		queued, err := s.requests.FindByCarID(ctx, carID)
		if err != nil {
			return 0, fmt.Errorf("failed to look up queued request: %w", err)
		}
		if queued != nil {
			queuedKWh += queued.AmountKWh
		}
	}
	return (queuedKWh + req.AmountKWh) / pile.PowerKW, nil
}

// BestPile picks the serving pile with the minimum projected total time among
// same-mode piles that can take the car: idle, or with a free local slot. Ties
// break toward the lexicographically smaller pile ID. Returns nil when no
// pile can take the request right now.
func (s *Service) BestPile(ctx context.Context, req *domain.ChargingRequest, piles []domain.ChargingPile) (*domain.ChargingPile, error) {
	var best *domain.ChargingPile
	minTime := math.Inf(1)

	for i := range piles {
		pile := &piles[i]
		if pile.Type != req.Mode || !pile.CanServe() {
			continue
		}
		idle := pile.State == domain.PileStateIdle
		if !idle && len(pile.LocalQueue) >= domain.LocalQueueCapacity {
			continue
		}

		total, err := s.TotalTime(ctx, pile, req)
		if err != nil {
			return nil, err
		}
		if total < minTime || (total == minTime && best != nil && pile.ID < best.ID) {
			minTime = total
			best = pile
		}
	}

	if best != nil {
		s.log.Debug("Best pile selected",
			zap.String("car_id", req.CarID),
			zap.String("pile_id", best.ID),
			zap.Float64("projected_hours", minTime),
		)
	}
	return best, nil
}
