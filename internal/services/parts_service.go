package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/amos-netizen/MotoTrack/internal/apperr"
	"github.com/amos-netizen/MotoTrack/internal/auth"
	"github.com/amos-netizen/MotoTrack/internal/models"
)

// PartsService drives the spare part request workflow:
// pending -> approved -> issued -> completed, or pending -> rejected.
// It is the only writer of WarehouseItem.quantity_in_stock, and the only
// place the parts workflow reaches into the job state machine: raising a
// request pauses an in_progress job, issuing the last outstanding request
// resumes it.
type PartsService struct {
	db *gorm.DB
}

func NewPartsService(db *gorm.DB) *PartsService { return &PartsService{db: db} }

type CreateRequestInput struct {
	WarehouseItemID uint   `json:"warehouse_item_id"`
	Quantity        int    `json:"quantity"`
	Notes           string `json:"notes"`
}

// scopedRequest loads a request confined to the caller's garage via its job.
func scopedRequest(tx *gorm.DB, requestID, garageID uint) (*models.SparePartRequest, error) {
	var req models.SparePartRequest
	err := tx.Joins("JOIN jobs ON jobs.id = spare_part_requests.job_id").
		Where("spare_part_requests.id = ? AND jobs.garage_id = ?", requestID, garageID).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("request_not_found", "spare part request %d not found", requestID)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &req, nil
}

// CreateRequest raises a requisition against a job. Stock sufficiency is
// checked (not reserved) at creation; issuance re-verifies it. If the job
// is currently in_progress it flips to awaiting_parts.
func (s *PartsService) CreateRequest(ctx context.Context, ident auth.Identity, jobID uint, in CreateRequestInput) (*models.SparePartRequest, error) {
	if in.Quantity <= 0 {
		return nil, apperr.Validation("invalid_quantity", "quantity must be positive")
	}
	var req *models.SparePartRequest
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
		// A completed job must never reacquire open requests, so requests
		// stop at completion, not only at the terminal statuses.
		switch job.Status {
		case models.JobCompleted, models.JobManagerReview, models.JobBilling:
			return apperr.Conflict("job_not_active", "job %d is %s", jobID, job.Status)
		}
		var item models.WarehouseItem
		err = tx.Where("id = ?", in.WarehouseItemID).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("warehouse_item_not_found", "warehouse item %d not found", in.WarehouseItemID)
		}
		if err != nil {
			return apperr.Internal(err)
		}
		if item.QuantityInStock < in.Quantity {
			return apperr.Conflict("insufficient_stock",
				"insufficient stock, available: %d", item.QuantityInStock)
		}

		req = &models.SparePartRequest{
			JobID:           jobID,
			WarehouseItemID: in.WarehouseItemID,
			Quantity:        in.Quantity,
			Status:          models.RequestPending,
			RequestedByID:   ident.UserID,
			Notes:           in.Notes,
			RequestedAt:     time.Now().UTC(),
		}
		if err := tx.Create(req).Error; err != nil {
			return apperr.Internal(err)
		}
		if job.Status == models.JobInProgress {
			if err := tx.Model(job).Update("status", models.JobAwaitingParts).Error; err != nil {
				return apperr.Internal(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Approve moves a pending request to approved.
func (s *PartsService) Approve(ctx context.Context, ident auth.Identity, requestID uint) (*models.SparePartRequest, error) {
	var req *models.SparePartRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = scopedRequest(tx, requestID, ident.GarageID)
		if err != nil {
			return err
		}
		if req.Status != models.RequestPending {
			return apperr.Conflict("request_not_pending", "request %d is %s", requestID, req.Status)
		}
		now := time.Now().UTC()
		req.Status = models.RequestApproved
		req.ApprovedByID = &ident.UserID
		req.ApprovedAt = &now
		if err := tx.Save(req).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Reject terminates a pending request. The reason is appended to the
// notes, not overwritten.
func (s *PartsService) Reject(ctx context.Context, ident auth.Identity, requestID uint, reason string) (*models.SparePartRequest, error) {
	var req *models.SparePartRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = scopedRequest(tx, requestID, ident.GarageID)
		if err != nil {
			return err
		}
		if req.Status != models.RequestPending {
			return apperr.Conflict("request_not_pending", "request %d is %s", requestID, req.Status)
		}
		now := time.Now().UTC()
		req.Status = models.RequestRejected
		req.ApprovedByID = &ident.UserID
		req.ApprovedAt = &now
		if reason != "" {
			req.Notes = fmt.Sprintf("%s\nRejection reason: %s", req.Notes, reason)
		}
		if err := tx.Save(req).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Issue hands the parts out of the warehouse. Stock is decremented with a
// conditional update so that two concurrent issuances against the same
// item can never combine past the available quantity. If this was the last
// outstanding request for a job sitting in awaiting_parts, the job resumes
// in_progress.
func (s *PartsService) Issue(ctx context.Context, ident auth.Identity, requestID uint) (*models.SparePartRequest, error) {
	var req *models.SparePartRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = scopedRequest(tx, requestID, ident.GarageID)
		if err != nil {
			return err
		}
		if req.Status != models.RequestApproved {
			return apperr.Conflict("request_not_approved", "request %d is %s", requestID, req.Status)
		}

		// Compare-and-swap on the stock row; zero rows affected means the
		// stock moved since approval and the issuance must be refused.
		res := tx.Model(&models.WarehouseItem{}).
			Where("id = ? AND quantity_in_stock >= ?", req.WarehouseItemID, req.Quantity).
			UpdateColumn("quantity_in_stock", gorm.Expr("quantity_in_stock - ?", req.Quantity))
		if res.Error != nil {
			return apperr.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("insufficient_stock",
				"insufficient stock to issue %d units of item %d", req.Quantity, req.WarehouseItemID)
		}

		now := time.Now().UTC()
		req.Status = models.RequestIssued
		req.IssuedByID = &ident.UserID
		req.IssuedAt = &now
		if err := tx.Save(req).Error; err != nil {
			return apperr.Internal(err)
		}

		open, err := countOpenRequests(tx, req.JobID)
		if err != nil {
			return err
		}
		if open == 0 {
			res := tx.Model(&models.Job{}).
				Where("id = ? AND status = ?", req.JobID, models.JobAwaitingParts).
				Update("status", models.JobInProgress)
			if res.Error != nil {
				return apperr.Internal(res.Error)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Complete finalizes usage of issued parts. No further state changes.
func (s *PartsService) Complete(ctx context.Context, ident auth.Identity, requestID uint) (*models.SparePartRequest, error) {
	var req *models.SparePartRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = scopedRequest(tx, requestID, ident.GarageID)
		if err != nil {
			return err
		}
		if req.Status != models.RequestIssued {
			return apperr.Conflict("request_not_issued", "request %d is %s", requestID, req.Status)
		}
		req.Status = models.RequestCompleted
		if err := tx.Save(req).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListForJob returns all requests raised against one job.
func (s *PartsService) ListForJob(ctx context.Context, ident auth.Identity, jobID uint) ([]models.SparePartRequest, error) {
	if _, err := scopedJob(s.db.WithContext(ctx), jobID, ident.GarageID); err != nil {
		return nil, err
	}
	var reqs []models.SparePartRequest
	err := s.db.WithContext(ctx).Preload("WarehouseItem").
		Where("job_id = ?", jobID).Order("requested_at desc").Find(&reqs).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return reqs, nil
}

// ListPending returns the caller's work queue: pending requests for
// workshop managers, approved ones for warehouse managers, own requests
// for everyone else.
func (s *PartsService) ListPending(ctx context.Context, ident auth.Identity) ([]models.SparePartRequest, error) {
	q := s.db.WithContext(ctx).Preload("WarehouseItem").
		Joins("JOIN jobs ON jobs.id = spare_part_requests.job_id").
		Where("jobs.garage_id = ?", ident.GarageID)
	switch ident.Role {
	case models.RoleWorkshopManager:
		q = q.Where("spare_part_requests.status = ?", models.RequestPending)
	case models.RoleWarehouseManager:
		q = q.Where("spare_part_requests.status = ?", models.RequestApproved)
	case models.RoleAdmin:
		q = q.Where("spare_part_requests.status IN ?", models.OpenRequestStatuses)
	default:
		q = q.Where("spare_part_requests.requested_by_id = ?", ident.UserID)
	}
	var reqs []models.SparePartRequest
	if err := q.Order("spare_part_requests.requested_at desc").Find(&reqs).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return reqs, nil
}
