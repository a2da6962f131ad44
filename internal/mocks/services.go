package mocks

import (
	"context"

	"github.com/voltgrid/evstation/internal/domain"
	"github.com/voltgrid/evstation/internal/ports"
)

// MockAccountService is a mock implementation of AccountService
type MockAccountService struct {
	RegisterFunc func(ctx context.Context, userID, password, carID string, capacityKWh float64) (*domain.User, error)
	LoginFunc    func(ctx context.Context, userID, password string) (*domain.User, string, error)
}

func (m *MockAccountService) Register(ctx context.Context, userID, password, carID string, capacityKWh float64) (*domain.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, userID, password, carID, capacityKWh)
	}
	return nil, nil
}

func (m *MockAccountService) Login(ctx context.Context, userID, password string) (*domain.User, string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, userID, password)
	}
	return nil, "", nil
}

// MockChargingService is a mock implementation of ChargingService
type MockChargingService struct {
	CreateRequestFunc func(ctx context.Context, carID string, mode domain.ChargeMode, amountKWh float64) (*domain.ChargingRequest, error)
	StartChargingFunc func(ctx context.Context, pileID, carID string) (*domain.ChargingSession, error)
	AssignToPileFunc  func(ctx context.Context, pileID, carID string) error
	EndChargingFunc   func(ctx context.Context, carID string) (*domain.Bill, error)
	ReportFaultFunc   func(ctx context.Context, pileID string) error
	RecoverPileFunc   func(ctx context.Context, pileID string) error
	SetPileOnlineFunc func(ctx context.Context, pileID string, online bool) error
	DetailsFunc       func(ctx context.Context, carID string) (*ports.ChargingDetails, error)
	PilesFunc         func(ctx context.Context) ([]domain.ChargingPile, error)
	PileQueueFunc     func(ctx context.Context, pileID string) ([]ports.QueueEntry, error)
}

func (m *MockChargingService) CreateRequest(ctx context.Context, carID string, mode domain.ChargeMode, amountKWh float64) (*domain.ChargingRequest, error) {
	if m.CreateRequestFunc != nil {
		return m.CreateRequestFunc(ctx, carID, mode, amountKWh)
	}
	return nil, nil
}

func (m *MockChargingService) StartCharging(ctx context.Context, pileID, carID string) (*domain.ChargingSession, error) {
	if m.StartChargingFunc != nil {
		return m.StartChargingFunc(ctx, pileID, carID)
	}
	return nil, nil
}

func (m *MockChargingService) AssignToPile(ctx context.Context, pileID, carID string) error {
	if m.AssignToPileFunc != nil {
		return m.AssignToPileFunc(ctx, pileID, carID)
	}
	return nil
}

func (m *MockChargingService) EndCharging(ctx context.Context, carID string) (*domain.Bill, error) {
	if m.EndChargingFunc != nil {
		return m.EndChargingFunc(ctx, carID)
	}
	return nil, nil
}

func (m *MockChargingService) ReportFault(ctx context.Context, pileID string) error {
	if m.ReportFaultFunc != nil {
		return m.ReportFaultFunc(ctx, pileID)
	}
	return nil
}

func (m *MockChargingService) RecoverPile(ctx context.Context, pileID string) error {
	if m.RecoverPileFunc != nil {
		return m.RecoverPileFunc(ctx, pileID)
	}
	return nil
}

func (m *MockChargingService) SetPileOnline(ctx context.Context, pileID string, online bool) error {
	if m.SetPileOnlineFunc != nil {
		return m.SetPileOnlineFunc(ctx, pileID, online)
	}
	return nil
}

func (m *MockChargingService) Details(ctx context.Context, carID string) (*ports.ChargingDetails, error) {
	if m.DetailsFunc != nil {
		return m.DetailsFunc(ctx, carID)
	}
	return nil, nil
}

func (m *MockChargingService) Piles(ctx context.Context) ([]domain.ChargingPile, error) {
	if m.PilesFunc != nil {
		return m.PilesFunc(ctx)
	}
	return nil, nil
}

func (m *MockChargingService) PileQueue(ctx context.Context, pileID string) ([]ports.QueueEntry, error) {
	if m.PileQueueFunc != nil {
		return m.PileQueueFunc(ctx, pileID)
	}
	return nil, nil
}

// MockReportService is a mock implementation of ReportService
type MockReportService struct {
	ReportFunc func(ctx context.Context, timeRange string) ([]ports.PileReport, error)
}

func (m *MockReportService) Report(ctx context.Context, timeRange string) ([]ports.PileReport, error) {
	if m.ReportFunc != nil {
		return m.ReportFunc(ctx, timeRange)
	}
	return nil, nil
}
