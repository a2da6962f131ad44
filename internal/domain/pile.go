package domain

import (
	"time"
)

type PileState string

const (
	PileStateIdle     PileState = "IDLE"
	PileStateCharging PileState = "CHARGING"
	PileStateFaulty   PileState = "FAULTY"
	PileStateOffline  PileState = "OFFLINE"
)

// LocalQueueCapacity bounds the per-pile pre-charge buffer.
const LocalQueueCapacity = 2

// ChargingPile is one physical charging point. It owns a small state machine,
// a bounded local queue of car IDs and at most one active session, referenced
// by ID so that repository snapshots never alias live session records.
type ChargingPile struct {
	ID               string     `json:"id"`
	Type             ChargeMode `json:"type"`
	PowerKW          float64    `json:"power_kw"`
	State            PileState  `json:"state"`
	LocalQueue       []string   `json:"local_queue"`
	CurrentSessionID string     `json:"current_session_id,omitempty"`

	// Cumulative counters, updated when a session ends.
	TotalSessions  int     `json:"total_sessions"`
	TotalHours     float64 `json:"total_hours"`
	TotalEnergyKWh float64 `json:"total_energy_kwh"`
	TotalIncome    float64 `json:"total_income"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanServe reports whether the pile may take new assignments.
func (p *ChargingPile) CanServe() bool {
	return p.State != PileStateFaulty && p.State != PileStateOffline
}

// EnqueueLocal appends a car to the pile's local queue. It refuses when the
// pile is faulty or offline, or when the queue is full.
func (p *ChargingPile) EnqueueLocal(carID string) bool {
	if !p.CanServe() || len(p.LocalQueue) >= LocalQueueCapacity {
		return false
	}
	p.LocalQueue = append(p.LocalQueue, carID)
	return true
}

// DequeueLocal removes and returns the head of the local queue.
func (p *ChargingPile) DequeueLocal() (string, bool) {
	if len(p.LocalQueue) == 0 {
		return "", false
	}
	carID := p.LocalQueue[0]
	p.LocalQueue = append([]string(nil), p.LocalQueue[1:]...)
	return carID, true
}
