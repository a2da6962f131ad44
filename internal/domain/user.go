package domain

import (
	"time"
)

// Car is a registered electric vehicle bound to one user account.
type Car struct {
	ID          string  `json:"car_id"`
	UserID      string  `json:"user_id"`
	CapacityKWh float64 `json:"battery_capacity_kwh"`
}

type User struct {
	ID           string    `json:"user_id"`
	PasswordHash string    `json:"password_digest"`
	Car          Car       `json:"car"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
