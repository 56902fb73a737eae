package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medlit/paperclass/internal/domain"
	"gorm.io/gorm"
)

// GormJobStore persists jobs through GORM. Transitions run inside a
// transaction so status, payload, and completion timestamp land together.
type GormJobStore struct {
	db *gorm.DB
}

// NewGormJobStore creates a GormJobStore bound to db.
func NewGormJobStore(db *gorm.DB) *GormJobStore {
	return &GormJobStore{db: db}
}

// Create registers a new pending job.
func (s *GormJobStore) Create(ctx context.Context, job *domain.Job) error {
	return s.db.WithContext(ctx).Create(job).Error
}

// Get returns the job, or ErrJobNotFound.
func (s *GormJobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	var job domain.Job
	if err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// MarkProcessing transitions a pending job to processing.
func (s *GormJobStore) MarkProcessing(ctx context.Context, id string) error {
	return s.transition(ctx, id, func(job *domain.Job) error {
		if job.Status != domain.JobStatusPending {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, domain.JobStatusProcessing)
		}
		job.Status = domain.JobStatusProcessing
		return nil
	})
}

// Complete transitions the job to completed with its terminal payload.
func (s *GormJobStore) Complete(ctx context.Context, id string, results []domain.PaperResult, summary *domain.Summary) error {
	return s.transition(ctx, id, func(job *domain.Job) error {
		if job.Status.Terminal() {
			return fmt.Errorf("%w: job %s is already %s", ErrInvalidTransition, id, job.Status)
		}
		now := time.Now().UTC()
		job.Status = domain.JobStatusCompleted
		job.Results = results
		job.Summary = summary
		job.CompletedAt = &now
		return nil
	})
}

// Fail transitions the job to failed with a descriptive message.
func (s *GormJobStore) Fail(ctx context.Context, id string, message string) error {
	return s.transition(ctx, id, func(job *domain.Job) error {
		if job.Status.Terminal() {
			return fmt.Errorf("%w: job %s is already %s", ErrInvalidTransition, id, job.Status)
		}
		now := time.Now().UTC()
		job.Status = domain.JobStatusFailed
		job.Error = message
		job.CompletedAt = &now
		return nil
	})
}

func (s *GormJobStore) transition(ctx context.Context, id string, fn func(*domain.Job) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job domain.Job
		if err := tx.First(&job, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return err
		}
		if err := fn(&job); err != nil {
			return err
		}
		return tx.Save(&job).Error
	})
}

var _ JobStore = (*GormJobStore)(nil)
