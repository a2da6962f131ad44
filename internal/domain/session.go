package domain

import (
	"math"
	"time"
)

// ChargingSession ties one car to one pile between start and end of a charge.
// It exists only while the charge is active; ending or interrupting the charge
// deletes it.
type ChargingSession struct {
	ID        string    `json:"session_id"`
	CarID     string    `json:"car_id"`
	PileID    string    `json:"pile_id"`
	StartTime time.Time `json:"start_time"`
	AmountKWh float64   `json:"request_amount_kwh"`
}

// DeliveredKWh meters the session at the given instant assuming uniform power:
// delivered energy never exceeds the requested amount.
func (s *ChargingSession) DeliveredKWh(powerKW float64, at time.Time) float64 {
	elapsed := at.Sub(s.StartTime).Hours()
	if elapsed <= 0 {
		return 0
	}
	return math.Min(powerKW*elapsed, s.AmountKWh)
}
