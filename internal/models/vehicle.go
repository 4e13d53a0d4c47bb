package models

import "time"

type Vehicle struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	RegistrationNumber string `gorm:"size:32;unique;not null;index" json:"registration_number"`
	VIN                string `gorm:"size:32;index" json:"vin"`
	OwnerName          string `gorm:"size:128;not null" json:"owner_name"`
	OwnerContact       string `gorm:"size:128;not null" json:"owner_contact"`
	CurrentMileage     int    `gorm:"not null;default:0" json:"current_mileage"`
	Make               string `gorm:"size:64" json:"make"`
	Model              string `gorm:"size:64" json:"model"`
	Year               int    `json:"year"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// ServiceHistory records past services per vehicle; it feeds the
// next-service recommendation heuristic.
type ServiceHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	VehicleID   uint      `gorm:"not null;index" json:"vehicle_id"`
	Date        time.Time `gorm:"not null" json:"date"`
	Mileage     int       `gorm:"not null" json:"mileage"`
	ServiceType string    `gorm:"size:64;not null" json:"service_type"`
	Notes       string    `json:"notes"`
}
