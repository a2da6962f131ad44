// Package charging implements the charging lifecycle: request admission,
// session start and end, fault handling and pile administration.
package charging

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voltgrid/evstation/internal/adapter/events"
	"github.com/voltgrid/evstation/internal/domain"
	"github.com/voltgrid/evstation/internal/observability/telemetry"
	"github.com/voltgrid/evstation/internal/ports"
	"github.com/voltgrid/evstation/internal/service/waiting"
)

// Service transitions requests, piles and sessions together. A single mutex
// serializes multi-entity transitions; the lock order inside is always
// store, then queue, then pile.
type Service struct {
	mu       sync.Mutex
	users    ports.UserRepository
	piles    ports.PileRepository
	requests ports.RequestRepository
	sessions ports.SessionRepository
	bills    ports.BillRepository
	queue    *waiting.Queue
	billing  *BillingService
	pub      events.Publisher
	log      *zap.Logger
	now      func() time.Time
}

func NewService(
	users ports.UserRepository,
	piles ports.PileRepository,
	requests ports.RequestRepository,
	sessions ports.SessionRepository,
	bills ports.BillRepository,
	queue *waiting.Queue,
	billing *BillingService,
	pub events.Publisher,
	log *zap.Logger,
) *Service {
	return &Service{
		users:    users,
		piles:    piles,
		requests: requests,
		sessions: sessions,
		bills:    bills,
		queue:    queue,
		billing:  billing,
		pub:      pub,
		log:      log,
		now:      time.Now,
	}
}

// CreateRequest admits a new charging request into the waiting area and
// allocates its queue number.
func (s *Service) CreateRequest(ctx context.Context, carID string, mode domain.ChargeMode, amountKWh float64) (*domain.ChargingRequest, error) {
	if amountKWh <= 0 {
		return nil, domain.E(domain.KindValidation, "amount must be > 0")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.FindByCarID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up car: %w", err)
	}
	if user == nil {
		return nil, domain.E(domain.KindNotFound, "car %s is not registered", carID)
	}

	existing, err := s.requests.FindByCarID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up request: %w", err)
	}
	if existing != nil && existing.State.Active() {
		return nil, domain.E(domain.KindConflict, "car %s already has an active request", carID)
	}

	number, err := s.queue.Enqueue(carID, mode)
	if err != nil {
		return nil, err
	}

	req := &domain.ChargingRequest{
		CarID:       carID,
		Mode:        mode,
		AmountKWh:   amountKWh,
		RequestTime: s.now(),
		State:       domain.RequestStateWaitingMain,
		QueueNumber: number,
	}
	if err := s.requests.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to persist request: %w", err)
	}

	s.log.Info("Charging request admitted",
		zap.String("car_id", carID),
		zap.String("mode", string(mode)),
		zap.Float64("amount_kwh", amountKWh),
		zap.String("queue_number", number),
	)
	return req, nil
}

// StartCharging binds a waiting request to an idle pile and opens a session.
func (s *Service) StartCharging(ctx context.Context, pileID, carID string) (*domain.ChargingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startChargingLocked(ctx, pileID, carID)
}

func (s *Service) startChargingLocked(ctx context.Context, pileID, carID string) (*domain.ChargingSession, error) {
	pile, err := s.piles.FindByID(ctx, pileID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up pile: %w", err)
	}
	if pile == nil {
		return nil, domain.E(domain.KindNotFound, "pile %s does not exist", pileID)
	}
	if pile.State != domain.PileStateIdle {
		return nil, domain.E(domain.KindState, "pile %s is not idle", pileID)
	}

	req, err := s.requests.FindByCarID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up request: %w", err)
	}
	if req == nil {
		return nil, domain.E(domain.KindNotFound, "car %s has no request", carID)
	}
	if req.State != domain.RequestStateWaitingMain && req.State != domain.RequestStateWaitingAtPile {
		return nil, domain.E(domain.KindState, "request for car %s is not waiting", carID)
	}

	session := &domain.ChargingSession{
		ID:        uuid.New().String(),
		CarID:     carID,
		PileID:    pileID,
		StartTime: s.now(),
		AmountKWh: req.AmountKWh,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	// Arriving from the pile's local queue frees the slot it held there.
	if req.State == domain.RequestStateWaitingAtPile {
		for i, queued := range pile.LocalQueue {
			if queued == carID {
				pile.LocalQueue = append(pile.LocalQueue[:i:i], pile.LocalQueue[i+1:]...)
				break
			}
		}
	}

	pile.State = domain.PileStateCharging
	pile.CurrentSessionID = session.ID
	pile.UpdatedAt = s.now()
	if err := s.piles.Save(ctx, pile); err != nil {
		return nil, fmt.Errorf("failed to persist pile: %w", err)
	}

	req.State = domain.RequestStateCharging
	req.PileID = pileID
	if err := s.requests.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to persist request: %w", err)
	}

	telemetry.ActiveChargingSessions.Inc()
	s.publish(events.SubjectSessionStarted, map[string]interface{}{
		"session_id": session.ID,
		"car_id":     carID,
		"pile_id":    pileID,
		"amount_kwh": req.AmountKWh,
		"timestamp":  session.StartTime.UTC().Format(time.RFC3339),
	})

	s.log.Info("Charging started",
		zap.String("car_id", carID),
		zap.String("pile_id", pileID),
		zap.String("session_id", session.ID),
	)
	return session, nil
}

// AssignToPile moves a waiting request into a pile's local queue. The pile
// must be able to serve and have a free local slot.
func (s *Service) AssignToPile(ctx context.Context, pileID, carID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pile, err := s.piles.FindByID(ctx, pileID)
	if err != nil {
		return fmt.Errorf("failed to look up pile: %w", err)
	}
	if pile == nil {
		return domain.E(domain.KindNotFound, "pile %s does not exist", pileID)
	}

	req, err := s.requests.FindByCarID(ctx, carID)
	if err != nil {
		return fmt.Errorf("failed to look up request: %w", err)
	}
	if req == nil {
		return domain.E(domain.KindNotFound, "car %s has no request", carID)
	}
	if req.State != domain.RequestStateWaitingMain {
		return domain.E(domain.KindState, "request for car %s is not in the waiting area", carID)
	}

	if !pile.EnqueueLocal(carID) {
		return domain.E(domain.KindState, "pile %s cannot take car %s", pileID, carID)
	}
	if err := s.piles.Save(ctx, pile); err != nil {
		return fmt.Errorf("failed to persist pile: %w", err)
	}

	req.State = domain.RequestStateWaitingAtPile
	req.PileID = pileID
	if err := s.requests.Save(ctx, req); err != nil {
		return fmt.Errorf("failed to persist request: %w", err)
	}

	s.log.Info("Car assigned to pile queue",
		zap.String("car_id", carID),
		zap.String("pile_id", pileID),
	)
	return nil
}

// EndCharging closes the car's active session, produces the bill and returns
// the pile to idle.
func (s *Service) EndCharging(ctx context.Context, carID string) (*domain.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.FindByCarID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		return nil, domain.E(domain.KindState, "car %s has no active charging session", carID)
	}

	pile, err := s.piles.FindByID(ctx, session.PileID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up pile: %w", err)
	}
	if pile == nil {
		return nil, domain.E(domain.KindInternal, "session %s references unknown pile %s", session.ID, session.PileID)
	}

	req, err := s.requests.FindByCarID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up request: %w", err)
	}

	endTime := s.now()
	bill := s.billing.NewBill(uuid.New().String(), session, pile, endTime)
	if err := s.bills.Save(ctx, bill); err != nil {
		return nil, fmt.Errorf("failed to persist bill: %w", err)
	}

	if req != nil {
		req.State = domain.RequestStateAwaitingPayment
		if err := s.requests.Save(ctx, req); err != nil {
			s.log.Warn("Failed to mark request awaiting payment", zap.Error(err))
		}
	}

	elapsed := endTime.Sub(session.StartTime).Hours()
	pile.State = domain.PileStateIdle
	pile.CurrentSessionID = ""
	pile.TotalSessions++
	pile.TotalHours += elapsed
	pile.TotalEnergyKWh += bill.DeliveredKWh
	pile.TotalIncome += bill.TotalFee
	pile.UpdatedAt = endTime
	if err := s.piles.Save(ctx, pile); err != nil {
		return nil, fmt.Errorf("failed to persist pile: %w", err)
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}

	// Returning the bill settles the charge; there is no separate payment
	// action, so the request completes before the response leaves.
	if req != nil {
		req.State = domain.RequestStateCompleted
		if err := s.requests.Save(ctx, req); err != nil {
			s.log.Warn("Failed to mark request completed", zap.Error(err))
		}
	}

	telemetry.ActiveChargingSessions.Dec()
	telemetry.EnergyDeliveredTotal.Add(bill.DeliveredKWh)
	telemetry.BillsIssuedTotal.Inc()
	s.publish(events.SubjectSessionEnded, map[string]interface{}{
		"session_id":    session.ID,
		"car_id":        carID,
		"pile_id":       pile.ID,
		"delivered_kwh": bill.DeliveredKWh,
		"timestamp":     endTime.UTC().Format(time.RFC3339),
	})
	s.publish(events.SubjectBillCreated, map[string]interface{}{
		"bill_id":       bill.ID,
		"car_id":        bill.CarID,
		"pile_id":       bill.PileID,
		"delivered_kwh": bill.DeliveredKWh,
		"total_fee":     bill.TotalFee,
		"timestamp":     endTime.UTC().Format(time.RFC3339),
	})

	s.log.Info("Charging ended",
		zap.String("car_id", carID),
		zap.String("pile_id", pile.ID),
		zap.Float64("delivered_kwh", bill.DeliveredKWh),
		zap.Float64("total_fee", bill.TotalFee),
	)
	return bill, nil
}

// ReportFault marks the pile faulty. The interrupted charge and any locally
// queued cars re-enter the main queue at the head, keeping their queue
// numbers; no partial bill is produced.
func (s *Service) ReportFault(ctx context.Context, pileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pile, err := s.piles.FindByID(ctx, pileID)
	if err != nil {
		return fmt.Errorf("failed to look up pile: %w", err)
	}
	if pile == nil {
		return domain.E(domain.KindNotFound, "pile %s does not exist", pileID)
	}

	s.log.Warn("Pile fault reported", zap.String("pile_id", pileID))

	// Locally queued cars go back first so the interrupted charge, prepended
	// last, ends up at the very head.
	for i := len(pile.LocalQueue) - 1; i >= 0; i-- {
		s.requeueAtHeadLocked(ctx, pile.LocalQueue[i])
	}
	pile.LocalQueue = nil

	if pile.CurrentSessionID != "" {
		session, err := s.sessions.FindByID(ctx, pile.CurrentSessionID)
		if err != nil {
			return fmt.Errorf("failed to look up session: %w", err)
		}
		if session != nil {
			s.requeueAtHeadLocked(ctx, session.CarID)
			if err := s.sessions.Delete(ctx, session.ID); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
			telemetry.ActiveChargingSessions.Dec()
		}
		pile.CurrentSessionID = ""
	}

	pile.State = domain.PileStateFaulty
	pile.UpdatedAt = s.now()
	if err := s.piles.Save(ctx, pile); err != nil {
		return fmt.Errorf("failed to persist pile: %w", err)
	}

	s.publish(events.SubjectPileFault, map[string]interface{}{
		"pile_id":   pileID,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
	return nil
}

func (s *Service) requeueAtHeadLocked(ctx context.Context, carID string) {
	req, err := s.requests.FindByCarID(ctx, carID)
	if err != nil || req == nil {
		s.log.Warn("No request found for interrupted car", zap.String("car_id", carID))
		return
	}
	req.State = domain.RequestStateWaitingMain
	req.PileID = ""
	if err := s.requests.Save(ctx, req); err != nil {
		s.log.Warn("Failed to persist re-queued request", zap.Error(err))
	}
	s.queue.EnqueueHead(carID, req.QueueNumber, req.Mode)
}

// RecoverPile returns a faulty pile to idle.
func (s *Service) RecoverPile(ctx context.Context, pileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pile, err := s.piles.FindByID(ctx, pileID)
	if err != nil {
		return fmt.Errorf("failed to look up pile: %w", err)
	}
	if pile == nil {
		return domain.E(domain.KindNotFound, "pile %s does not exist", pileID)
	}
	if pile.State != domain.PileStateFaulty {
		return domain.E(domain.KindState, "pile %s is not faulty", pileID)
	}

	pile.State = domain.PileStateIdle
	pile.UpdatedAt = s.now()
	if err := s.piles.Save(ctx, pile); err != nil {
		return fmt.Errorf("failed to persist pile: %w", err)
	}

	s.log.Info("Pile recovered", zap.String("pile_id", pileID))
	return nil
}

// SetPileOnline toggles a pile between idle and offline. Charging or faulty
// piles refuse the transition; going offline re-queues any locally waiting
// cars at the head of the main queue.
func (s *Service) SetPileOnline(ctx context.Context, pileID string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pile, err := s.piles.FindByID(ctx, pileID)
	if err != nil {
		return fmt.Errorf("failed to look up pile: %w", err)
	}
	if pile == nil {
		return domain.E(domain.KindNotFound, "pile %s does not exist", pileID)
	}

	switch {
	case online && pile.State == domain.PileStateOffline:
		pile.State = domain.PileStateIdle
	case !online && pile.State == domain.PileStateIdle:
		// Cars parked in the local queue would wait forever on an offline
		// pile; send them back to the head of the main queue first.
		for i := len(pile.LocalQueue) - 1; i >= 0; i-- {
			s.requeueAtHeadLocked(ctx, pile.LocalQueue[i])
		}
		pile.LocalQueue = nil
		pile.State = domain.PileStateOffline
	case online && pile.State == domain.PileStateIdle,
		!online && pile.State == domain.PileStateOffline:
		return nil
	default:
		return domain.E(domain.KindState, "pile %s cannot change availability while %s", pileID, pile.State)
	}

	pile.UpdatedAt = s.now()
	if err := s.piles.Save(ctx, pile); err != nil {
		return fmt.Errorf("failed to persist pile: %w", err)
	}

	s.log.Info("Pile availability changed",
		zap.String("pile_id", pileID),
		zap.Bool("online", online),
	)
	return nil
}

// Details builds the driver-facing view of a car's charging status, clearing
// state that drifted out of sync (a session without a charging request is
// stale; a completed request without a session is history).
func (s *Service) Details(ctx context.Context, carID string) (*ports.ChargingDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.requests.FindByCarID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up request: %w", err)
	}

	session, err := s.sessions.FindByCarID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session != nil && (req == nil || req.State != domain.RequestStateCharging) {
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			s.log.Warn("Failed to drop stale session", zap.Error(err))
		}
		session = nil
	}
	if req != nil && req.State == domain.RequestStateCompleted && session == nil {
		req = nil
	}

	position := 0
	estimate := 0.0
	if req != nil && req.State == domain.RequestStateWaitingMain {
		if pos, ok := s.queue.Position(carID, req.Mode); ok {
			position = pos
			estimate = s.estimatedWaitLocked(ctx, req.Mode, pos)
		}
	}

	bills, err := s.bills.FindByCarID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up bills: %w", err)
	}
	sort.Slice(bills, func(i, j int) bool {
		return bills[i].EndTime.After(bills[j].EndTime)
	})

	return &ports.ChargingDetails{
		CurrentRequest:     req,
		CurrentSession:     session,
		QueuePosition:      position,
		EstimatedWaitHours: estimate,
		Bills:              bills,
	}, nil
}

// estimatedWaitLocked projects the hours until the car at the given 1-based
// main-queue position gets a pile: the energy queued ahead of it divided by
// the serving power of its mode's fleet.
func (s *Service) estimatedWaitLocked(ctx context.Context, mode domain.ChargeMode, position int) float64 {
	var aheadKWh float64
	for i, carID := range s.queue.Snapshot(mode) {
		if i >= position-1 {
			break
		}
		if req, err := s.requests.FindByCarID(ctx, carID); err == nil && req != nil {
			aheadKWh += req.AmountKWh
		}
	}
	if aheadKWh == 0 {
		return 0
	}

	piles, err := s.piles.FindAll(ctx)
	if err != nil {
		return 0
	}
	var totalPowerKW float64
	for i := range piles {
		if piles[i].Type == mode && piles[i].CanServe() {
			totalPowerKW += piles[i].PowerKW
		}
	}
	if totalPowerKW == 0 {
		return 0
	}
	return aheadKWh / totalPowerKW
}

// Piles returns the fleet in pile-ID order.
func (s *Service) Piles(ctx context.Context) ([]domain.ChargingPile, error) {
	piles, err := s.piles.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list piles: %w", err)
	}
	sort.Slice(piles, func(i, j int) bool { return piles[i].ID < piles[j].ID })
	return piles, nil
}

// PileQueue lists the cars waiting for a specific pile: its local queue plus
// main-queue requests the dispatcher has already bound to it.
func (s *Service) PileQueue(ctx context.Context, pileID string) ([]ports.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pile, err := s.piles.FindByID(ctx, pileID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up pile: %w", err)
	}
	if pile == nil {
		return nil, domain.E(domain.KindNotFound, "pile %s does not exist", pileID)
	}

	now := s.now()
	entries := make([]ports.QueueEntry, 0)
	seen := make(map[string]bool)

	appendCar := func(carID string) {
		if seen[carID] {
			return
		}
		req, err := s.requests.FindByCarID(ctx, carID)
		if err != nil || req == nil {
			return
		}
		seen[carID] = true
		entries = append(entries, ports.QueueEntry{
			CarID:        carID,
			QueueNumber:  req.QueueNumber,
			AmountKWh:    req.AmountKWh,
			WaitingHours: now.Sub(req.RequestTime).Hours(),
		})
	}

	for _, carID := range pile.LocalQueue {
		appendCar(carID)
	}
	for _, carID := range s.queue.Snapshot(pile.Type) {
		if req, err := s.requests.FindByCarID(ctx, carID); err == nil && req != nil && req.PileID == pileID {
			appendCar(carID)
		}
	}
	return entries, nil
}

func (s *Service) publish(subject string, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.pub.Publish(subject, data); err != nil {
		s.log.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

var _ ports.ChargingService = (*Service)(nil)
