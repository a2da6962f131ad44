package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/voltgrid/evstation/internal/adapter/storage/memory"
	"github.com/voltgrid/evstation/internal/domain"
	"github.com/voltgrid/evstation/internal/mocks"
	"github.com/voltgrid/evstation/internal/service/charging"
	"github.com/voltgrid/evstation/internal/service/dispatch"
	"github.com/voltgrid/evstation/internal/service/waiting"
)

// The fault path end to end: an interrupted charge returns to the queue head
// and a tick after recovery puts it back on the pile with its full request.
func TestTick_ReassignsAfterFaultRecovery(t *testing.T) {
	ctx := context.Background()
	log := newTestLogger()

	users := memory.NewUserRepository(nil)
	piles := memory.NewPileRepository(nil)
	requests := memory.NewRequestRepository(nil)
	sessions := memory.NewSessionRepository(nil)
	bills := memory.NewBillRepository(nil)
	queue := waiting.NewQueue(10, log)

	svc := charging.NewService(
		users, piles, requests, sessions, bills,
		queue, charging.NewBillingService(nil, log), mocks.NewMockPublisher(), log,
	)

	users.Save(ctx, &domain.User{ID: "alice", Car: domain.Car{ID: "CAR-A", UserID: "alice", CapacityKWh: 50}})
	piles.Save(ctx, &domain.ChargingPile{ID: "F01", Type: domain.ChargeModeFast, PowerKW: 30, State: domain.PileStateIdle})

	if _, err := svc.CreateRequest(ctx, "CAR-A", domain.ChargeModeFast, 30); err != nil {
		t.Fatalf("create: %v", err)
	}

	s := New(piles, queue, svc, nil, dispatch.PolicyFCFS, time.Second, log)
	s.Tick(ctx)

	pile, _ := piles.FindByID(ctx, "F01")
	if pile.State != domain.PileStateCharging {
		t.Fatalf("expected F01 CHARGING after first tick, got %s", pile.State)
	}

	if err := svc.ReportFault(ctx, "F01"); err != nil {
		t.Fatalf("fault: %v", err)
	}
	if snap := queue.Snapshot(domain.ChargeModeFast); len(snap) != 1 || snap[0] != "CAR-A" {
		t.Fatalf("expected CAR-A back at the head, got %v", snap)
	}

	// With the only fast pile faulty, a tick must leave the car waiting.
	s.Tick(ctx)
	if snap := queue.Snapshot(domain.ChargeModeFast); len(snap) != 1 {
		t.Fatalf("expected CAR-A still waiting, got %v", snap)
	}

	if err := svc.RecoverPile(ctx, "F01"); err != nil {
		t.Fatalf("recover: %v", err)
	}
	s.Tick(ctx)

	pile, _ = piles.FindByID(ctx, "F01")
	if pile.State != domain.PileStateCharging {
		t.Errorf("expected F01 CHARGING after recovery, got %s", pile.State)
	}
	session, _ := sessions.FindByCarID(ctx, "CAR-A")
	if session == nil {
		t.Fatal("expected a fresh session for CAR-A")
	}
	if session.AmountKWh != 30 {
		t.Errorf("expected the full requested amount 30, got %.2f", session.AmountKWh)
	}
	if queue.Len(domain.ChargeModeFast) != 0 {
		t.Errorf("expected the queue drained, len %d", queue.Len(domain.ChargeModeFast))
	}
}
