package ports

import (
	"context"

	"github.com/voltgrid/evstation/internal/domain"
)

type AccountService interface {
	Register(ctx context.Context, userID, password, carID string, capacityKWh float64) (*domain.User, error)
	// Login returns the user and a signed access token.
	Login(ctx context.Context, userID, password string) (*domain.User, string, error)
}

// ChargingDetails is the driver-facing view of a car's charging status.
// QueuePosition is 1-based and zero unless the car waits in the main queue;
// EstimatedWaitHours projects the time until its turn from the energy queued
// ahead of it and the serving power of its mode.
type ChargingDetails struct {
	CurrentRequest     *domain.ChargingRequest `json:"current_request"`
	CurrentSession     *domain.ChargingSession `json:"current_session"`
	QueuePosition      int                     `json:"queue_position,omitempty"`
	EstimatedWaitHours float64                 `json:"estimated_wait_hours,omitempty"`
	Bills              []domain.Bill           `json:"bills"`
}

// QueueEntry is one waiting car in a pile's queue view.
type QueueEntry struct {
	CarID        string  `json:"user_id"`
	QueueNumber  string  `json:"queue_number"`
	AmountKWh    float64 `json:"request_amount"`
	WaitingHours float64 `json:"waiting_time"`
}

type ChargingService interface {
	CreateRequest(ctx context.Context, carID string, mode domain.ChargeMode, amountKWh float64) (*domain.ChargingRequest, error)
	StartCharging(ctx context.Context, pileID, carID string) (*domain.ChargingSession, error)
	AssignToPile(ctx context.Context, pileID, carID string) error
	EndCharging(ctx context.Context, carID string) (*domain.Bill, error)
	ReportFault(ctx context.Context, pileID string) error
	RecoverPile(ctx context.Context, pileID string) error
	SetPileOnline(ctx context.Context, pileID string, online bool) error
	Details(ctx context.Context, carID string) (*ChargingDetails, error)
	Piles(ctx context.Context) ([]domain.ChargingPile, error)
	PileQueue(ctx context.Context, pileID string) ([]QueueEntry, error)
}

// PileReport aggregates the bills a pile produced inside one reporting bucket.
type PileReport struct {
	PileID       string  `json:"pile_id"`
	Sessions     int     `json:"sessions"`
	TotalHours   float64 `json:"total_hours"`
	TotalKWh     float64 `json:"total_kwh"`
	ChargeFee    float64 `json:"charge_fee"`
	ServiceFee   float64 `json:"service_fee"`
	TotalFee     float64 `json:"total_fee"`
}

type ReportService interface {
	Report(ctx context.Context, timeRange string) ([]PileReport, error)
}
