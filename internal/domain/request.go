package domain

import (
	"time"
)

type ChargeMode string

const (
	ChargeModeFast    ChargeMode = "FAST"
	ChargeModeTrickle ChargeMode = "TRICKLE"
)

// ParseChargeMode maps a wire mode to a ChargeMode. The legacy clients send
// the Chinese labels, newer ones the enum names; both are accepted.
func ParseChargeMode(s string) (ChargeMode, bool) {
	switch s {
	case "FAST", "快充":
		return ChargeModeFast, true
	case "TRICKLE", "慢充":
		return ChargeModeTrickle, true
	}
	return "", false
}

// Letter returns the queue-number prefix for the mode.
func (m ChargeMode) Letter() string {
	if m == ChargeModeFast {
		return "F"
	}
	return "T"
}

type RequestState string

const (
	RequestStateWaitingMain     RequestState = "WAITING_MAIN"
	RequestStateWaitingAtPile   RequestState = "WAITING_AT_PILE"
	RequestStateCharging        RequestState = "CHARGING"
	RequestStateAwaitingPayment RequestState = "AWAITING_PAYMENT"
	RequestStateCompleted       RequestState = "COMPLETED"
)

// Active reports whether the request still occupies the car: only a completed
// request frees the car for a new submission.
func (s RequestState) Active() bool {
	return s != RequestStateCompleted
}

// ChargingRequest is a driver's request to charge, keyed by car ID. A car has
// at most one active request at any time.
type ChargingRequest struct {
	CarID       string       `json:"car_id"`
	Mode        ChargeMode   `json:"request_mode"`
	AmountKWh   float64      `json:"request_amount_kwh"`
	RequestTime time.Time    `json:"request_time"`
	State       RequestState `json:"status"`
	QueueNumber string       `json:"queue_number,omitempty"`
	PileID      string       `json:"pile_id,omitempty"`
}
