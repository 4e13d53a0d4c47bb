package models

import "time"

// Appointment statuses.
const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	VehicleID   uint      `gorm:"not null;index" json:"vehicle_id"`
	ServiceType string    `gorm:"size:64;not null" json:"service_type"`
	ScheduledAt time.Time `gorm:"not null" json:"scheduled_at"`
	Notes       string    `json:"notes"`
	Status      string    `gorm:"size:32;not null;index;default:'scheduled'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// Reminder is a queued notification. SentAt doubles as the idempotency
// marker: the sweeper only dispatches rows it managed to stamp first.
type Reminder struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AppointmentID *uint     `gorm:"index" json:"appointment_id"`
	Channel       string    `gorm:"size:32;not null;default:'log'" json:"channel"`
	Recipient     string    `gorm:"size:128" json:"recipient"`
	Message       string    `gorm:"not null" json:"message"`
	ScheduledFor  time.Time `gorm:"not null;index" json:"scheduled_for"`

	SentAt    *time.Time `json:"sent_at"`
	CreatedAt time.Time  `json:"created_at"`
}
