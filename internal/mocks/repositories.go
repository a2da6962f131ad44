// Package mocks provides hand-written test doubles for the port interfaces.
package mocks

import (
	"context"

	"github.com/voltgrid/evstation/internal/domain"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	SaveFunc         func(ctx context.Context, user *domain.User) error
	SaveIfAbsentFunc func(ctx context.Context, user *domain.User) (bool, error)
	FindByIDFunc     func(ctx context.Context, id string) (*domain.User, error)
	FindByCarIDFunc  func(ctx context.Context, carID string) (*domain.User, error)
}

func (m *MockUserRepository) Save(ctx context.Context, user *domain.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, user)
	}
	return nil
}

func (m *MockUserRepository) SaveIfAbsent(ctx context.Context, user *domain.User) (bool, error) {
	if m.SaveIfAbsentFunc != nil {
		return m.SaveIfAbsentFunc(ctx, user)
	}
	return true, nil
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockUserRepository) FindByCarID(ctx context.Context, carID string) (*domain.User, error) {
	if m.FindByCarIDFunc != nil {
		return m.FindByCarIDFunc(ctx, carID)
	}
	return nil, nil
}

// MockPileRepository is a mock implementation of PileRepository
type MockPileRepository struct {
	SaveFunc     func(ctx context.Context, pile *domain.ChargingPile) error
	FindByIDFunc func(ctx context.Context, id string) (*domain.ChargingPile, error)
	FindAllFunc  func(ctx context.Context) ([]domain.ChargingPile, error)
}

func (m *MockPileRepository) Save(ctx context.Context, pile *domain.ChargingPile) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, pile)
	}
	return nil
}

func (m *MockPileRepository) FindByID(ctx context.Context, id string) (*domain.ChargingPile, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockPileRepository) FindAll(ctx context.Context) ([]domain.ChargingPile, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return nil, nil
}

// MockRequestRepository is a mock implementation of RequestRepository
type MockRequestRepository struct {
	SaveFunc        func(ctx context.Context, req *domain.ChargingRequest) error
	FindByCarIDFunc func(ctx context.Context, carID string) (*domain.ChargingRequest, error)
	FindAllFunc     func(ctx context.Context) ([]domain.ChargingRequest, error)
	DeleteFunc      func(ctx context.Context, carID string) error
}

func (m *MockRequestRepository) Save(ctx context.Context, req *domain.ChargingRequest) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, req)
	}
	return nil
}

func (m *MockRequestRepository) FindByCarID(ctx context.Context, carID string) (*domain.ChargingRequest, error) {
	if m.FindByCarIDFunc != nil {
		return m.FindByCarIDFunc(ctx, carID)
	}
	return nil, nil
}

func (m *MockRequestRepository) FindAll(ctx context.Context) ([]domain.ChargingRequest, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return nil, nil
}

func (m *MockRequestRepository) Delete(ctx context.Context, carID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, carID)
	}
	return nil
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	SaveFunc        func(ctx context.Context, session *domain.ChargingSession) error
	FindByIDFunc    func(ctx context.Context, id string) (*domain.ChargingSession, error)
	FindByCarIDFunc func(ctx context.Context, carID string) (*domain.ChargingSession, error)
	FindAllFunc     func(ctx context.Context) ([]domain.ChargingSession, error)
	DeleteFunc      func(ctx context.Context, id string) error
}

func (m *MockSessionRepository) Save(ctx context.Context, session *domain.ChargingSession) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, session)
	}
	return nil
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id string) (*domain.ChargingSession, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockSessionRepository) FindByCarID(ctx context.Context, carID string) (*domain.ChargingSession, error) {
	if m.FindByCarIDFunc != nil {
		return m.FindByCarIDFunc(ctx, carID)
	}
	return nil, nil
}

func (m *MockSessionRepository) FindAll(ctx context.Context) ([]domain.ChargingSession, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return nil, nil
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockBillRepository is a mock implementation of BillRepository
type MockBillRepository struct {
	SaveFunc        func(ctx context.Context, bill *domain.Bill) error
	FindByCarIDFunc func(ctx context.Context, carID string) ([]domain.Bill, error)
	FindAllFunc     func(ctx context.Context) ([]domain.Bill, error)
}

func (m *MockBillRepository) Save(ctx context.Context, bill *domain.Bill) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, bill)
	}
	return nil
}

func (m *MockBillRepository) FindByCarID(ctx context.Context, carID string) ([]domain.Bill, error) {
	if m.FindByCarIDFunc != nil {
		return m.FindByCarIDFunc(ctx, carID)
	}
	return nil, nil
}

func (m *MockBillRepository) FindAll(ctx context.Context) ([]domain.Bill, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return nil, nil
}
