package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/medlit/paperclass/internal/domain"
)

// MemoryJobStore is the default process-local JobStore. Records are replaced
// wholesale under the write lock and handed out as deep copies, so readers
// never see a job mid-mutation.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[string]*domain.Job),
	}
}

// Create registers a new pending job.
// Parameters:
//   - ctx: unused; kept for interface symmetry with durable stores.
//   - job: job record to register.
// Returns:
//   - error: non-nil if a job with the same id already exists.
func (s *MemoryJobStore) Create(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get returns a snapshot of the job, or ErrJobNotFound.
func (s *MemoryJobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// MarkProcessing transitions a pending job to processing.
func (s *MemoryJobStore) MarkProcessing(ctx context.Context, id string) error {
	return s.transition(id, func(job *domain.Job) error {
		if job.Status != domain.JobStatusPending {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, domain.JobStatusProcessing)
		}
		job.Status = domain.JobStatusProcessing
		return nil
	})
}

// Complete transitions the job to completed with its terminal payload.
func (s *MemoryJobStore) Complete(ctx context.Context, id string, results []domain.PaperResult, summary *domain.Summary) error {
	return s.transition(id, func(job *domain.Job) error {
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
func (s *MemoryJobStore) Fail(ctx context.Context, id string, message string) error {
	return s.transition(id, func(job *domain.Job) error {
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

// transition applies fn to a private copy of the record and swaps it in only
// on success, keeping status and payload visible together.
func (s *MemoryJobStore) transition(id string, fn func(*domain.Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}

	next := job.Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.jobs[id] = next
	return nil
}

var _ JobStore = (*MemoryJobStore)(nil)
