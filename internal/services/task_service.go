package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/amos-netizen/MotoTrack/internal/apperr"
	"github.com/amos-netizen/MotoTrack/internal/auth"
	"github.com/amos-netizen/MotoTrack/internal/models"
)

// TaskService manages the labor catalog and the task actions attached to
// individual jobs.
type TaskService struct {
	db *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService { return &TaskService{db: db} }

type TaskActionInput struct {
	OperationsStream string  `json:"operations_stream"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	DefaultLaborCost float64 `json:"default_labor_cost"`
}

type UpdateTaskActionInput struct {
	Name             *string  `json:"name"`
	Description      *string  `json:"description"`
	DefaultLaborCost *float64 `json:"default_labor_cost"`
	IsActive         *bool    `json:"is_active"`
}

type AddJobTaskInput struct {
	TaskActionID uint    `json:"task_action_id"`
	LaborCost    float64 `json:"labor_cost"`
	Notes        string  `json:"notes"`
}

// CreateAction adds a catalog entry.
func (s *TaskService) CreateAction(ctx context.Context, in TaskActionInput) (*models.TaskAction, error) {
	if in.Name == "" {
		return nil, apperr.Validation("missing_name", "name is required")
	}
	if !models.ValidOperationsStream(in.OperationsStream) {
		return nil, apperr.Validation("invalid_operations_stream", "unknown operations stream %q", in.OperationsStream)
	}
	if in.DefaultLaborCost < 0 {
		return nil, apperr.Validation("invalid_labor_cost", "default_labor_cost must not be negative")
	}
	action := &models.TaskAction{
		OperationsStream: in.OperationsStream,
		Name:             in.Name,
		Description:      in.Description,
		DefaultLaborCost: in.DefaultLaborCost,
		IsActive:         true,
	}
	if err := s.db.WithContext(ctx).Create(action).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return action, nil
}

// UpdateAction edits a catalog entry. Deactivation hides it from new
// jobs; existing job attachments keep working.
func (s *TaskService) UpdateAction(ctx context.Context, actionID uint, in UpdateTaskActionInput) (*models.TaskAction, error) {
	var action models.TaskAction
	err := s.db.WithContext(ctx).First(&action, actionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("task_action_not_found", "task action %d not found", actionID)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperr.Validation("missing_name", "name must not be empty")
		}
		action.Name = *in.Name
	}
	if in.Description != nil {
		action.Description = *in.Description
	}
	if in.DefaultLaborCost != nil {
		if *in.DefaultLaborCost < 0 {
			return nil, apperr.Validation("invalid_labor_cost", "default_labor_cost must not be negative")
		}
		action.DefaultLaborCost = *in.DefaultLaborCost
	}
	if in.IsActive != nil {
		action.IsActive = *in.IsActive
	}
	if err := s.db.WithContext(ctx).Save(&action).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return &action, nil
}

// ListActions returns catalog entries, optionally filtered by stream.
// Inactive entries stay listed so administrators can reactivate them.
func (s *TaskService) ListActions(ctx context.Context, stream string) ([]models.TaskAction, error) {
	q := s.db.WithContext(ctx).Model(&models.TaskAction{})
	if stream != "" {
		q = q.Where("operations_stream = ?", stream)
	}
	var actions []models.TaskAction
	if err := q.Order("name asc").Find(&actions).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return actions, nil
}

// AddToJob attaches a catalog task to a job. A task can be attached to a
// job once; the attachment carries its own labor cost, falling back to
// the catalog default when zero.
func (s *TaskService) AddToJob(ctx context.Context, ident auth.Identity, jobID uint, in AddJobTaskInput) (*models.JobTaskAction, error) {
	if in.LaborCost < 0 {
		return nil, apperr.Validation("invalid_labor_cost", "labor_cost must not be negative")
	}
	var link *models.JobTaskAction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := scopedJob(tx, jobID, ident.GarageID)
		if err != nil {
			return err
		}
		if err := ownJob(ident, job); err != nil {
			return err
		}
		if models.TerminalJobStatus(job.Status) {
			return apperr.Conflict("job_closed", "job %d is %s", jobID, job.Status)
		}

		var action models.TaskAction
		err = tx.Where("id = ? AND is_active = ?", in.TaskActionID, true).First(&action).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("task_action_not_found", "task action %d not found", in.TaskActionID)
		}
		if err != nil {
			return apperr.Internal(err)
		}

		var count int64
		if err := tx.Model(&models.JobTaskAction{}).
			Where("job_id = ? AND task_action_id = ?", jobID, in.TaskActionID).
			Count(&count).Error; err != nil {
			return apperr.Internal(err)
		}
		if count > 0 {
			return apperr.Conflict("task_already_attached", "task action %d is already on job %d", in.TaskActionID, jobID)
		}

		cost := in.LaborCost
		if cost == 0 {
			cost = action.DefaultLaborCost
		}
		link = &models.JobTaskAction{
			JobID:        jobID,
			TaskActionID: in.TaskActionID,
			LaborCost:    cost,
			Notes:        in.Notes,
		}
		if err := tx.Create(link).Error; err != nil {
			return apperr.Internal(err)
		}
		link.TaskAction = &action
		return nil
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// CompleteOnJob marks one attached task done.
func (s *TaskService) CompleteOnJob(ctx context.Context, ident auth.Identity, jobID, linkID uint) (*models.JobTaskAction, error) {
	var link models.JobTaskAction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := scopedJob(tx, jobID, ident.GarageID)
		if err != nil {
			return err
		}
		if err := ownJob(ident, job); err != nil {
			return err
		}
		if models.TerminalJobStatus(job.Status) {
			return apperr.Conflict("job_closed", "job %d is %s", jobID, job.Status)
		}

		err = tx.Where("id = ? AND job_id = ?", linkID, jobID).First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("job_task_not_found", "task %d not found on job %d", linkID, jobID)
		}
		if err != nil {
			return apperr.Internal(err)
		}
		if link.Completed {
			return nil
		}
		link.Completed = true
		if err := tx.Save(&link).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// ListForJob returns the tasks attached to a job.
func (s *TaskService) ListForJob(ctx context.Context, ident auth.Identity, jobID uint) ([]models.JobTaskAction, error) {
	if _, err := scopedJob(s.db.WithContext(ctx), jobID, ident.GarageID); err != nil {
		return nil, err
	}
	var links []models.JobTaskAction
	err := s.db.WithContext(ctx).Preload("TaskAction").
		Where("job_id = ?", jobID).Order("created_at asc").Find(&links).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return links, nil
}
