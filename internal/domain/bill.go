package domain

import (
	"time"
)

// Bill is the immutable itemized cost record produced when a session ends.
// Monetary fields are rounded to two decimals.
type Bill struct {
	ID           string     `json:"bill_id"`
	CarID        string     `json:"car_id"`
	PileID       string     `json:"pile_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"`
	DeliveredKWh float64    `json:"charged_kwh"`
	Mode         ChargeMode `json:"charge_mode"`
	ChargeFee    float64    `json:"charge_fee"`
	ServiceFee   float64    `json:"service_fee"`
	TotalFee     float64    `json:"total_fee"`
}
