package repository

import (
	"context"
	"errors"

	"github.com/medlit/paperclass/internal/domain"
)

// ErrJobNotFound is returned by Get for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// ErrInvalidTransition is returned when a transition would regress a job's
// status or modify a terminal job.
var ErrInvalidTransition = errors.New("invalid job status transition")

// JobStore holds one record per submitted batch. A job is written by exactly
// one controller goroutine; reads may happen concurrently from any number of
// request handlers and must never observe a half-applied transition. Jobs are
// never deleted; records live for the lifetime of the backing store.
type JobStore interface {
	// Create registers a new pending job.
	Create(ctx context.Context, job *domain.Job) error

	// Get returns a snapshot of the job, or ErrJobNotFound.
	Get(ctx context.Context, id string) (*domain.Job, error)

	// MarkProcessing transitions a pending job to processing.
	MarkProcessing(ctx context.Context, id string) error

	// Complete transitions the job to completed, attaching results, summary,
	// and the completion timestamp in a single atomic step.
	Complete(ctx context.Context, id string, results []domain.PaperResult, summary *domain.Summary) error

	// Fail transitions the job to failed with a human-readable message and
	// stamps the completion timestamp.
	Fail(ctx context.Context, id string, message string) error
}
