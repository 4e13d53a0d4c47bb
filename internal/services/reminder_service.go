package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/amos-netizen/MotoTrack/internal/apperr"
	"github.com/amos-netizen/MotoTrack/internal/models"
	"github.com/amos-netizen/MotoTrack/internal/notify"
)

// ReminderService dispatches due reminders. SweepDue is run from the
// background sweeper; a row is dispatched at most once because the
// sent_at stamp is taken with a conditional update before sending.
type ReminderService struct {
	db       *gorm.DB
	notifier notify.Notifier
}

func NewReminderService(db *gorm.DB, notifier notify.Notifier) *ReminderService {
	return &ReminderService{db: db, notifier: notifier}
}

// SweepDue finds unsent reminders whose scheduled time has passed and
// dispatches each one it wins the stamp for. Returns the dispatch count.
func (s *ReminderService) SweepDue(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	var due []models.Reminder
	err := s.db.WithContext(ctx).
		Where("sent_at IS NULL AND scheduled_for <= ?", now).
		Order("scheduled_for asc").Find(&due).Error
	if err != nil {
		return 0, apperr.Internal(err)
	}

	sent := 0
	for _, rem := range due {
		// Concurrent sweeps race on the same rows; only the stamp winner
		// sends.
		res := s.db.WithContext(ctx).Model(&models.Reminder{}).
			Where("id = ? AND sent_at IS NULL", rem.ID).
			Update("sent_at", now)
		if res.Error != nil {
			return sent, apperr.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}
		s.notifier.Send(rem.Channel, rem.Recipient, "Service appointment reminder", rem.Message)
		sent++
	}
	return sent, nil
}

// Sweep adapts SweepDue to the scheduler task signature.
func (s *ReminderService) Sweep(ctx context.Context) error {
	_, err := s.SweepDue(ctx)
	return err
}
