package ports

import (
	"context"
	"time"

	"github.com/voltgrid/evstation/internal/domain"
)

type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	// SaveIfAbsent atomically persists the user unless the ID is taken.
	SaveIfAbsent(ctx context.Context, user *domain.User) (bool, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByCarID(ctx context.Context, carID string) (*domain.User, error)
}

type PileRepository interface {
	Save(ctx context.Context, pile *domain.ChargingPile) error
	FindByID(ctx context.Context, id string) (*domain.ChargingPile, error)
	FindAll(ctx context.Context) ([]domain.ChargingPile, error)
}

type RequestRepository interface {
	Save(ctx context.Context, req *domain.ChargingRequest) error
	FindByCarID(ctx context.Context, carID string) (*domain.ChargingRequest, error)
	FindAll(ctx context.Context) ([]domain.ChargingRequest, error)
	Delete(ctx context.Context, carID string) error
}

type SessionRepository interface {
	Save(ctx context.Context, session *domain.ChargingSession) error
	FindByID(ctx context.Context, id string) (*domain.ChargingSession, error)
	FindByCarID(ctx context.Context, carID string) (*domain.ChargingSession, error)
	FindAll(ctx context.Context) ([]domain.ChargingSession, error)
	Delete(ctx context.Context, id string) error
}

type BillRepository interface {
	Save(ctx context.Context, bill *domain.Bill) error
	FindByCarID(ctx context.Context, carID string) ([]domain.Bill, error)
	FindAll(ctx context.Context) ([]domain.Bill, error)
}

// Cache is a TTL key/value store used for login sessions. Backed by Redis in
// deployment, by an in-process map when Redis is not configured.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}
