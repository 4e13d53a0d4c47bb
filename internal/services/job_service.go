package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/amos-netizen/MotoTrack/internal/apperr"
	"github.com/amos-netizen/MotoTrack/internal/auth"
	"github.com/amos-netizen/MotoTrack/internal/models"
	"github.com/amos-netizen/MotoTrack/internal/validation"
)

// JobService owns the job lifecycle state machine. Every transition runs
// in one transaction; a violated guard aborts the transaction, so a
// rejected operation never partially mutates state.
type JobService struct {
	db *gorm.DB
}

func NewJobService(db *gorm.DB) *JobService { return &JobService{db: db} }

type CreateJobInput struct {
	RegistrationNumber string `json:"registration_number"`
	VIN                string `json:"vin"`
	OwnerName          string `json:"owner_name"`
	OwnerContact       string `json:"owner_contact"`
	CurrentMileage     int    `json:"current_mileage"`
	Make               string `json:"make"`
	Model              string `json:"model"`
	Year               int    `json:"year"`
	OperationsStream   string `json:"operations_stream"`
	RevenueStream      string `json:"revenue_stream"`
	IssuesReported     string `json:"issues_reported"`
}

type UpdateJobInput struct {
	WorkDone *string `json:"work_done"`
	Status   *string `json:"status"`
}

type JobFilter struct {
	Status           string
	OperationsStream string
	RevenueStream    string
}

// scopedJob loads a job confined to the caller's garage.
func scopedJob(tx *gorm.DB, jobID, garageID uint) (*models.Job, error) {
	var job models.Job
	err := tx.Where("id = ? AND garage_id = ?", jobID, garageID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("job_not_found", "job %d not found", jobID)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &job, nil
}

// ownJob rejects technicians touching jobs assigned to someone else.
func ownJob(ident auth.Identity, job *models.Job) error {
	if ident.Role != models.RoleTechnician {
		return nil
	}
	if job.TechnicianID == nil || *job.TechnicianID != ident.UserID {
		return apperr.Forbidden("access_denied", "job %d is not assigned to you", job.ID)
	}
	return nil
}

// countOpenRequests returns how many pending/approved part requests block
// job completion.
func countOpenRequests(tx *gorm.DB, jobID uint) (int64, error) {
	var n int64
	err := tx.Model(&models.SparePartRequest{}).
		Where("job_id = ? AND status IN ?", jobID, models.OpenRequestStatuses).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

// Create registers a new job for a vehicle, looking the vehicle up by
// registration number and creating it on first visit.
func (s *JobService) Create(ctx context.Context, ident auth.Identity, in CreateJobInput) (*models.Job, error) {
	v := make(validation.Violations)
	validation.Required("registration_number", in.RegistrationNumber, v)
	validation.Required("issues_reported", in.IssuesReported, v)
	validation.OneOf("operations_stream", in.OperationsStream, models.OperationsStreams, v)
	validation.OneOf("revenue_stream", in.RevenueStream, models.RevenueStreams, v)
	if !v.Empty() {
		return nil, apperr.Validation("invalid_input", "%s", v.String())
	}

	var job *models.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vehicle models.Vehicle
		err := tx.Where("registration_number = ?", in.RegistrationNumber).First(&vehicle).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			vehicle = models.Vehicle{
				RegistrationNumber: in.RegistrationNumber,
				VIN:                in.VIN,
				OwnerName:          in.OwnerName,
				OwnerContact:       in.OwnerContact,
				CurrentMileage:     in.CurrentMileage,
				Make:               in.Make,
				Model:              in.Model,
				Year:               in.Year,
			}
			if err := tx.Create(&vehicle).Error; err != nil {
				return apperr.Internal(err)
			}
		} else if err != nil {
			return apperr.Internal(err)
		} else if in.CurrentMileage > vehicle.CurrentMileage {
			vehicle.CurrentMileage = in.CurrentMileage
			if err := tx.Save(&vehicle).Error; err != nil {
				return apperr.Internal(err)
			}
		}

		job = &models.Job{
			VehicleID:        vehicle.ID,
			GarageID:         ident.GarageID,
			SiteManagerID:    ident.UserID,
			OperationsStream: in.OperationsStream,
			RevenueStream:    in.RevenueStream,
			IssuesReported:   in.IssuesReported,
			Status:           models.JobReceived,
		}
		if err := tx.Create(job).Error; err != nil {
			return apperr.Internal(err)
		}
		job.Vehicle = &vehicle
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Assign hands the job to a technician of the same garage.
func (s *JobService) Assign(ctx context.Context, ident auth.Identity, jobID, technicianID uint) (*models.Job, error) {
	var job *models.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		job, err = scopedJob(tx, jobID, ident.GarageID)
		if err != nil {
			return err
		}
		if models.TerminalJobStatus(job.Status) {
			return apperr.Conflict("job_closed", "job %d is %s", jobID, job.Status)
		}
		var tech models.User
		err = tx.Where("id = ? AND garage_id = ? AND role = ?",
			technicianID, ident.GarageID, models.RoleTechnician).First(&tech).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("technician_not_found", "technician %d not found in your garage", technicianID)
		}
		if err != nil {
			return apperr.Internal(err)
		}
		now := time.Now().UTC()
		job.TechnicianID = &tech.ID
		job.Status = models.JobAssigned
		job.AssignedAt = &now
		if err := tx.Save(job).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Update applies work-done text and/or a status change. A transition to
// completed is blocked while any part request for the job is outstanding.
func (s *JobService) Update(ctx context.Context, ident auth.Identity, jobID uint, in UpdateJobInput) (*models.Job, error) {
	if in.Status != nil && !models.ValidJobStatus(*in.Status) {
		return nil, apperr.Validation("invalid_status", "unknown job status %q", *in.Status)
	}
	var job *models.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		job, err = scopedJob(tx, jobID, ident.GarageID)
		if err != nil {
			return err
		}
		if err := ownJob(ident, job); err != nil {
			return err
		}
		if in.WorkDone != nil {
			job.WorkDone = *in.WorkDone
		}
		if in.Status != nil {
			if models.TerminalJobStatus(job.Status) {
				return apperr.Conflict("job_closed", "job %d is %s", jobID, job.Status)
			}
			if *in.Status == models.JobCompleted {
				open, err := countOpenRequests(tx, jobID)
				if err != nil {
					return err
				}
				if open > 0 {
					return apperr.Conflict("pending_parts_requests",
						"cannot complete job with %d outstanding parts requests", open)
				}
				now := time.Now().UTC()
				job.CompletedAt = &now
			}
			job.Status = *in.Status
		}
		if err := tx.Save(job).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Complete marks the job completed, subject to the same open-requests guard.
func (s *JobService) Complete(ctx context.Context, ident auth.Identity, jobID uint) (*models.Job, error) {
	status := models.JobCompleted
	return s.Update(ctx, ident, jobID, UpdateJobInput{Status: &status})
}

// ManagerReview moves a completed job into review.
func (s *JobService) ManagerReview(ctx context.Context, ident auth.Identity, jobID uint, notes string) (*models.Job, error) {
	return s.transition(ctx, ident, jobID, models.JobCompleted, models.JobManagerReview, func(job *models.Job) {
		if notes != "" {
			job.ManagerNotes = notes
		}
	})
}

// MoveToBilling releases a reviewed job to the billing desk.
func (s *JobService) MoveToBilling(ctx context.Context, ident auth.Identity, jobID uint) (*models.Job, error) {
	return s.transition(ctx, ident, jobID, models.JobManagerReview, models.JobBilling, nil)
}

// Cancel terminates any non-terminal job.
func (s *JobService) Cancel(ctx context.Context, ident auth.Identity, jobID uint) (*models.Job, error) {
	var job *models.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		job, err = scopedJob(tx, jobID, ident.GarageID)
		if err != nil {
			return err
		}
		if models.TerminalJobStatus(job.Status) {
			return apperr.Conflict("job_closed", "job %d is %s", jobID, job.Status)
		}
		job.Status = models.JobCancelled
		if err := tx.Save(job).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// transition is the shared guarded move: job must currently be in `from`.
func (s *JobService) transition(ctx context.Context, ident auth.Identity, jobID uint, from, to string, mutate func(*models.Job)) (*models.Job, error) {
	var job *models.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		job, err = scopedJob(tx, jobID, ident.GarageID)
		if err != nil {
			return err
		}
		if job.Status != from {
			return apperr.Conflict("invalid_transition",
				"job %d is %s, expected %s", jobID, job.Status, from)
		}
		if mutate != nil {
			mutate(job)
		}
		job.Status = to
		if err := tx.Save(job).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// List returns the garage's jobs, newest first. Technicians only see jobs
// assigned to them.
func (s *JobService) List(ctx context.Context, ident auth.Identity, filter JobFilter) ([]models.Job, error) {
	q := s.db.WithContext(ctx).Where("garage_id = ?", ident.GarageID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OperationsStream != "" {
		q = q.Where("operations_stream = ?", filter.OperationsStream)
	}
	if filter.RevenueStream != "" {
		q = q.Where("revenue_stream = ?", filter.RevenueStream)
	}
	if ident.Role == models.RoleTechnician {
		q = q.Where("technician_id = ?", ident.UserID)
	}
	var jobs []models.Job
	if err := q.Order("created_at desc").Find(&jobs).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return jobs, nil
}

// Get loads one job with its vehicle.
func (s *JobService) Get(ctx context.Context, ident auth.Identity, jobID uint) (*models.Job, error) {
	var job models.Job
	err := s.db.WithContext(ctx).Preload("Vehicle").
		Where("id = ? AND garage_id = ?", jobID, ident.GarageID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("job_not_found", "job %d not found", jobID)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := ownJob(ident, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
