// Package scheduler drains the waiting area into idle piles. A ticker drives
// periodic passes; a wake channel triggers an immediate pass after any event
// that may enable progress.
package scheduler

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/voltgrid/evstation/internal/domain"
	"github.com/voltgrid/evstation/internal/observability/telemetry"
	"github.com/voltgrid/evstation/internal/ports"
	"github.com/voltgrid/evstation/internal/service/dispatch"
	"github.com/voltgrid/evstation/internal/service/waiting"
)

type Scheduler struct {
	piles      ports.PileRepository
	queue      *waiting.Queue
	charging   ports.ChargingService
	dispatcher *dispatch.Service
	policy     dispatch.Policy
	interval   time.Duration
	wake       chan struct{}
	log        *zap.Logger
}

func New(
	piles ports.PileRepository,
	queue *waiting.Queue,
	charging ports.ChargingService,
	dispatcher *dispatch.Service,
	policy dispatch.Policy,
	interval time.Duration,
	log *zap.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Scheduler{
		piles:      piles,
		queue:      queue,
		charging:   charging,
		dispatcher: dispatcher,
		policy:     policy,
		interval:   interval,
		wake:       make(chan struct{}, 1),
		log:        log,
	}
}

// Wake requests an immediate pass. Non-blocking; a pending wake coalesces.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run ticks until the context is cancelled. A tick never fails the loop.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("Scheduler started",
		zap.Duration("interval", s.interval),
		zap.String("policy", string(s.policy)),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduler stopped")
			return
		case <-ticker.C:
		case <-s.wake:
		}
		s.Tick(ctx)
	}
}

// Tick runs one scheduling pass: idle piles pull from their local queue
// first, then from the main queue of their mode, in pile-ID order for
// deterministic assignment.
func (s *Scheduler) Tick(ctx context.Context) {
	started := time.Now()
	defer func() {
		telemetry.SchedulerTickDuration.Observe(time.Since(started).Seconds())
	}()

	piles, err := s.piles.FindAll(ctx)
	if err != nil {
		s.log.Error("Tick failed to snapshot piles", zap.Error(err))
		return
	}
	sort.Slice(piles, func(i, j int) bool { return piles[i].ID < piles[j].ID })

	for i := range piles {
		pile := &piles[i]
		if pile.State != domain.PileStateIdle {
			continue
		}

		carID, fromMain, ok := s.nextCar(pile)
		if !ok {
			continue
		}

		if _, err := s.charging.StartCharging(ctx, pile.ID, carID); err != nil {
			s.log.Warn("Assignment failed, re-queueing at head",
				zap.String("pile_id", pile.ID),
				zap.String("car_id", carID),
				zap.Error(err),
			)
			if fromMain {
				s.requeue(ctx, carID, pile.Type)
			}
			continue
		}
		pile.State = domain.PileStateCharging
	}

	if s.policy == dispatch.PolicyShortestTotalTime && s.dispatcher != nil {
		s.dispatchPass(ctx)
	}
}

// nextCar picks the pile's local-queue head when present, otherwise the head
// of the pile's main queue.
func (s *Scheduler) nextCar(pile *domain.ChargingPile) (carID string, fromMain, ok bool) {
	if len(pile.LocalQueue) > 0 {
		return pile.LocalQueue[0], false, true
	}
	carID, ok = s.queue.Dequeue(pile.Type)
	return carID, true, ok
}

// dispatchPass binds remaining waiting cars to the pile minimizing their
// total time, filling local queues of busy piles ahead of demand.
func (s *Scheduler) dispatchPass(ctx context.Context) {
	for _, mode := range []domain.ChargeMode{domain.ChargeModeFast, domain.ChargeModeTrickle} {
		for {
			carID, ok := s.queue.Dequeue(mode)
			if !ok {
				break
			}

			details, err := s.charging.Details(ctx, carID)
			if err != nil || details == nil || details.CurrentRequest == nil {
				s.log.Warn("Dispatch pass could not load request, re-queueing at head",
					zap.String("car_id", carID),
					zap.Error(err),
				)
				s.requeue(ctx, carID, mode)
				break
			}
			req := details.CurrentRequest

			piles, err := s.piles.FindAll(ctx)
			if err != nil {
				s.requeue(ctx, carID, mode)
				s.log.Error("Dispatch pass failed to snapshot piles", zap.Error(err))
				return
			}

			best, err := s.dispatcher.BestPile(ctx, req, piles)
			if err != nil || best == nil {
				s.requeue(ctx, carID, mode)
				break
			}

			if best.State == domain.PileStateIdle {
				if _, err := s.charging.StartCharging(ctx, best.ID, carID); err != nil {
					s.requeue(ctx, carID, mode)
					break
				}
			} else {
				if err := s.charging.AssignToPile(ctx, best.ID, carID); err != nil {
					s.requeue(ctx, carID, mode)
					break
				}
			}
		}
	}
}

func (s *Scheduler) requeue(ctx context.Context, carID string, mode domain.ChargeMode) {
	number := ""
	if details, err := s.charging.Details(ctx, carID); err == nil && details.CurrentRequest != nil {
		number = details.CurrentRequest.QueueNumber
	}
	s.queue.EnqueueHead(carID, number, mode)
}
