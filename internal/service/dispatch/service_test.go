package dispatch

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/voltgrid/evstation/internal/domain"
	"github.com/voltgrid/evstation/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func requestsByCar(reqs map[string]*domain.ChargingRequest) *mocks.MockRequestRepository {
	return &mocks.MockRequestRepository{
		FindByCarIDFunc: func(ctx context.Context, carID string) (*domain.ChargingRequest, error) {
			return reqs[carID], nil
		},
	}
}

func TestParsePolicy(t *testing.T) {
	if p, ok := ParsePolicy("fcfs"); !ok || p != PolicyFCFS {
		t.Errorf("expected fcfs policy, got %s (ok=%v)", p, ok)
	}
	if p, ok := ParsePolicy("shortest_total_time"); !ok || p != PolicyShortestTotalTime {
		t.Errorf("expected shortest_total_time policy, got %s (ok=%v)", p, ok)
	}
	if _, ok := ParsePolicy("round_robin"); ok {
		t.Error("expected unknown policy to be rejected")
	}
}

func TestTotalTime_IncludesQueuedWork(t *testing.T) {
	svc := NewService(requestsByCar(map[string]*domain.ChargingRequest{
		"CAR-Q": {CarID: "CAR-Q", AmountKWh: 15},
	}), newTestLogger())

	pile := &domain.ChargingPile{
		ID:         "F01",
		PowerKW:    30,
		LocalQueue: []string{"CAR-Q"},
	}
	req := &domain.ChargingRequest{CarID: "CAR-A", AmountKWh: 30}

	total, err := svc.TotalTime(context.Background(), pile, req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// (15 + 30) kWh at 30 kW.
	if total != 1.5 {
		t.Errorf("expected 1.5 hours, got %v", total)
	}
}

func TestTotalTime_NoPowerRating(t *testing.T) {
	svc := NewService(requestsByCar(nil), newTestLogger())

	pile := &domain.ChargingPile{ID: "F01"}
	_, err := svc.TotalTime(context.Background(), pile, &domain.ChargingRequest{AmountKWh: 10})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestBestPile_PrefersEmptierPile(t *testing.T) {
	svc := NewService(requestsByCar(map[string]*domain.ChargingRequest{
		"CAR-Q": {CarID: "CAR-Q", AmountKWh: 30},
	}), newTestLogger())

	piles := []domain.ChargingPile{
		{ID: "F01", Type: domain.ChargeModeFast, PowerKW: 30, State: domain.PileStateCharging, LocalQueue: []string{"CAR-Q"}},
		{ID: "F02", Type: domain.ChargeModeFast, PowerKW: 30, State: domain.PileStateIdle},
	}
	req := &domain.ChargingRequest{CarID: "CAR-A", Mode: domain.ChargeModeFast, AmountKWh: 30}

	best, err := svc.BestPile(context.Background(), req, piles)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if best == nil || best.ID != "F02" {
		t.Errorf("expected F02, got %+v", best)
	}
}

func TestBestPile_SkipsWrongModeAndUnserviceable(t *testing.T) {
	svc := NewService(requestsByCar(nil), newTestLogger())

	piles := []domain.ChargingPile{
		{ID: "T01", Type: domain.ChargeModeTrickle, PowerKW: 10, State: domain.PileStateIdle},
		{ID: "F01", Type: domain.ChargeModeFast, PowerKW: 30, State: domain.PileStateFaulty},
		{ID: "F02", Type: domain.ChargeModeFast, PowerKW: 30, State: domain.PileStateOffline},
	}
	req := &domain.ChargingRequest{CarID: "CAR-A", Mode: domain.ChargeModeFast, AmountKWh: 30}

	best, err := svc.BestPile(context.Background(), req, piles)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if best != nil {
		t.Errorf("expected no pile, got %s", best.ID)
	}
}

func TestBestPile_SkipsFullLocalQueues(t *testing.T) {
	svc := NewService(requestsByCar(map[string]*domain.ChargingRequest{
		"CAR-1": {CarID: "CAR-1", AmountKWh: 10},
		"CAR-2": {CarID: "CAR-2", AmountKWh: 10},
	}), newTestLogger())

	piles := []domain.ChargingPile{
		{ID: "F01", Type: domain.ChargeModeFast, PowerKW: 30, State: domain.PileStateCharging, LocalQueue: []string{"CAR-1", "CAR-2"}},
	}
	req := &domain.ChargingRequest{CarID: "CAR-A", Mode: domain.ChargeModeFast, AmountKWh: 30}

	best, err := svc.BestPile(context.Background(), req, piles)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if best != nil {
		t.Errorf("expected no pile when local queues are full, got %s", best.ID)
	}
}

func TestBestPile_TieBreaksOnID(t *testing.T) {
	svc := NewService(requestsByCar(nil), newTestLogger())

	piles := []domain.ChargingPile{
		{ID: "F02", Type: domain.ChargeModeFast, PowerKW: 30, State: domain.PileStateIdle},
		{ID: "F01", Type: domain.ChargeModeFast, PowerKW: 30, State: domain.PileStateIdle},
	}
	req := &domain.ChargingRequest{CarID: "CAR-A", Mode: domain.ChargeModeFast, AmountKWh: 30}

	best, err := svc.BestPile(context.Background(), req, piles)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if best == nil || best.ID != "F01" {
		t.Errorf("expected F01 on tie, got %+v", best)
	}
}
