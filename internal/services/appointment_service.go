package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/amos-netizen/MotoTrack/internal/apperr"
	"github.com/amos-netizen/MotoTrack/internal/models"
	"github.com/amos-netizen/MotoTrack/internal/validation"
)

// AppointmentService books future service visits and maintains the
// reminder row attached to each one. Reminders fire 24 hours before the
// scheduled time; rescheduling an appointment moves its pending reminder.
type AppointmentService struct {
	db *gorm.DB
}

func NewAppointmentService(db *gorm.DB) *AppointmentService {
	return &AppointmentService{db: db}
}

const reminderLeadTime = 24 * time.Hour

type CreateAppointmentInput struct {
	RegistrationNumber string    `json:"registration_number"`
	VIN                string    `json:"vin"`
	OwnerName          string    `json:"owner_name"`
	OwnerContact       string    `json:"owner_contact"`
	ServiceType        string    `json:"service_type"`
	ScheduledAt        time.Time `json:"scheduled_at"`
	Notes              string    `json:"notes"`
}

type UpdateAppointmentInput struct {
	ServiceType *string    `json:"service_type"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Notes       *string    `json:"notes"`
	Status      *string    `json:"status"`
}

func reminderMessage(a *models.Appointment, v *models.Vehicle) string {
	return fmt.Sprintf("Reminder: %s appointment for vehicle %s on %s",
		a.ServiceType, v.RegistrationNumber, a.ScheduledAt.Format(time.RFC1123))
}

// Create books an appointment. The vehicle is matched by registration
// number and created on first sight, same as job intake.
func (s *AppointmentService) Create(ctx context.Context, in CreateAppointmentInput) (*models.Appointment, error) {
	v := make(validation.Violations)
	validation.Required("registration_number", in.RegistrationNumber, v)
	validation.Required("owner_name", in.OwnerName, v)
	validation.Required("owner_contact", in.OwnerContact, v)
	validation.Required("service_type", in.ServiceType, v)
	if in.ScheduledAt.IsZero() || in.ScheduledAt.Before(time.Now()) {
		v["scheduled_at"] = "must_be_in_the_future"
	}
	if !v.Empty() {
		return nil, apperr.Validation("invalid_input", "%s", v.String())
	}

	var appt *models.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vehicle models.Vehicle
		err := tx.Where("registration_number = ?", in.RegistrationNumber).First(&vehicle).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			vehicle = models.Vehicle{
				RegistrationNumber: in.RegistrationNumber,
				VIN:                in.VIN,
				OwnerName:          in.OwnerName,
				OwnerContact:       in.OwnerContact,
			}
			if err := tx.Create(&vehicle).Error; err != nil {
				return apperr.Internal(err)
			}
		} else if err != nil {
			return apperr.Internal(err)
		}

		appt = &models.Appointment{
			VehicleID:   vehicle.ID,
			ServiceType: in.ServiceType,
			ScheduledAt: in.ScheduledAt,
			Notes:       in.Notes,
			Status:      models.AppointmentScheduled,
		}
		if err := tx.Create(appt).Error; err != nil {
			return apperr.Internal(err)
		}

		rem := models.Reminder{
			AppointmentID: &appt.ID,
			Channel:       "log",
			Recipient:     vehicle.OwnerContact,
			Message:       reminderMessage(appt, &vehicle),
			ScheduledFor:  appt.ScheduledAt.Add(-reminderLeadTime),
		}
		if err := tx.Create(&rem).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// Update edits an appointment. Rescheduling moves the unsent reminder to
// the new lead time; an already-sent reminder stays sent.
func (s *AppointmentService) Update(ctx context.Context, appointmentID uint, in UpdateAppointmentInput) (*models.Appointment, error) {
	if in.Status != nil {
		switch *in.Status {
		case models.AppointmentScheduled, models.AppointmentCompleted, models.AppointmentCancelled:
		default:
			return nil, apperr.Validation("invalid_status", "unknown appointment status %q", *in.Status)
		}
	}
	if in.ScheduledAt != nil && in.ScheduledAt.Before(time.Now()) {
		return nil, apperr.Validation("invalid_schedule", "scheduled_at must be in the future")
	}

	var appt models.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&appt, appointmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("appointment_not_found", "appointment %d not found", appointmentID)
			}
			return apperr.Internal(err)
		}
		if appt.Status != models.AppointmentScheduled && (in.ScheduledAt != nil || in.ServiceType != nil) {
			return apperr.Conflict("appointment_closed", "appointment %d is %s", appointmentID, appt.Status)
		}

		if in.ServiceType != nil {
			appt.ServiceType = *in.ServiceType
		}
		if in.Notes != nil {
			appt.Notes = *in.Notes
		}
		if in.Status != nil {
			appt.Status = *in.Status
		}
		rescheduled := false
		if in.ScheduledAt != nil && !in.ScheduledAt.Equal(appt.ScheduledAt) {
			appt.ScheduledAt = *in.ScheduledAt
			rescheduled = true
		}
		if err := tx.Save(&appt).Error; err != nil {
			return apperr.Internal(err)
		}

		if rescheduled {
			var vehicle models.Vehicle
			if err := tx.First(&vehicle, appt.VehicleID).Error; err != nil {
				return apperr.Internal(err)
			}
			err := tx.Model(&models.Reminder{}).
				Where("appointment_id = ? AND sent_at IS NULL", appt.ID).
				Updates(map[string]any{
					"scheduled_for": appt.ScheduledAt.Add(-reminderLeadTime),
					"message":       reminderMessage(&appt, &vehicle),
				}).Error
			if err != nil {
				return apperr.Internal(err)
			}
		}
		// Cancelling drops the pending reminder so the sweep never fires it.
		if in.Status != nil && *in.Status == models.AppointmentCancelled {
			if err := tx.Where("appointment_id = ? AND sent_at IS NULL", appt.ID).
				Delete(&models.Reminder{}).Error; err != nil {
				return apperr.Internal(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// Get loads one appointment.
func (s *AppointmentService) Get(ctx context.Context, appointmentID uint) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).First(&appt, appointmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("appointment_not_found", "appointment %d not found", appointmentID)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &appt, nil
}

// List returns appointments, optionally filtered by status, soonest first.
func (s *AppointmentService) List(ctx context.Context, status string) ([]models.Appointment, error) {
	q := s.db.WithContext(ctx).Model(&models.Appointment{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var appts []models.Appointment
	if err := q.Order("scheduled_at asc").Find(&appts).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return appts, nil
}

// NextServiceRecommendation is the advisory output of the service
// history heuristic.
type NextServiceRecommendation struct {
	VehicleID          uint       `json:"vehicle_id"`
	RecommendedMileage int        `json:"recommended_mileage"`
	RecommendedDate    *time.Time `json:"recommended_date"`
	LastServiceDate    *time.Time `json:"last_service_date"`
	LastServiceMileage int        `json:"last_service_mileage"`
}

// Recommend computes the next-service suggestion: last recorded service
// mileage plus 10000 km (falling back to current mileage when the vehicle
// has no history), and one year after the last service date when known.
func (s *AppointmentService) Recommend(ctx context.Context, vehicleID uint) (*NextServiceRecommendation, error) {
	var vehicle models.Vehicle
	err := s.db.WithContext(ctx).First(&vehicle, vehicleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("vehicle_not_found", "vehicle %d not found", vehicleID)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	rec := &NextServiceRecommendation{VehicleID: vehicle.ID}
	var last models.ServiceHistory
	err = s.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicle.ID).
		Order("date desc").First(&last).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec.RecommendedMileage = vehicle.CurrentMileage + 10000
	case err != nil:
		return nil, apperr.Internal(err)
	default:
		rec.LastServiceDate = &last.Date
		rec.LastServiceMileage = last.Mileage
		rec.RecommendedMileage = last.Mileage + 10000
		due := last.Date.AddDate(1, 0, 0)
		rec.RecommendedDate = &due
	}
	return rec, nil
}
