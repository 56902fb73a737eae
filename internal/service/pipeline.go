package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medlit/paperclass/internal/domain"
	"github.com/medlit/paperclass/internal/logger"
	"github.com/medlit/paperclass/internal/repository"
	"github.com/medlit/paperclass/internal/storage"
)

// acceptedExtension is the only tabular format the upload surface accepts.
const acceptedExtension = ".csv"

// PipelineService owns the batch classification pipeline: it accepts uploads,
// creates jobs, and drives each job through ingest, dispatch, and aggregation
// in a background goroutine. All job state flows through the JobStore; the
// transient upload is deleted when the job reaches a terminal state.
type PipelineService struct {
	store      repository.JobStore
	uploads    storage.UploadStorage
	classifier Classifier
	logger     *logger.Logger
	batchSize  int
	threshold  float64
	maxBytes   int64
}

// PipelineConfig holds configuration for the pipeline service.
type PipelineConfig struct {
	BatchSize      int
	Threshold      float64
	MaxUploadBytes int64
}

// NewPipelineService creates a new pipeline service.
func NewPipelineService(
	store repository.JobStore,
	uploads storage.UploadStorage,
	classifier Classifier,
	log *logger.Logger,
	cfg *PipelineConfig,
) *PipelineService {
	return &PipelineService{
		store:      store,
		uploads:    uploads,
		classifier: classifier,
		logger:     log,
		batchSize:  cfg.BatchSize,
		threshold:  cfg.Threshold,
		maxBytes:   cfg.MaxUploadBytes,
	}
}

// log returns a logger from context if available, otherwise the service logger
func (s *PipelineService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Submit validates and stores an uploaded batch file, creates a pending job,
// and schedules background processing. It returns as soon as the job exists;
// no classification happens on the caller's path.
// Parameters:
//   - ctx: request context; used only for the synchronous part.
//   - filename: declared upload filename, used for extension validation.
//   - size: declared upload size in bytes.
//   - reader: upload contents.
// Returns:
//   - *domain.Job: the pending job.
//   - error: ErrInvalidFileType, ErrFileTooLarge, or a storage failure.
func (s *PipelineService) Submit(ctx context.Context, filename string, size int64, reader io.Reader) (*domain.Job, error) {
	if strings.ToLower(filepath.Ext(filename)) != acceptedExtension {
		return nil, ErrInvalidFileType
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return nil, fmt.Errorf("%w: max size is %dMB", ErrFileTooLarge, s.maxBytes/1024/1024)
	}

	jobID := uuid.New().String()
	key := fmt.Sprintf("%s_%s", jobID, filepath.Base(filename))

	if err := s.uploads.Save(ctx, key, reader, size); err != nil {
		return nil, fmt.Errorf("failed to save uploaded file: %w", err)
	}

	job := domain.NewJob(jobID)
	if err := s.store.Create(ctx, job); err != nil {
		// job never became visible; don't leak the upload
		if delErr := s.uploads.Delete(ctx, key); delErr != nil {
			s.log(ctx).WithError(delErr).Error("Failed to clean up upload after store failure")
		}
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	bgCtx := logger.WithFields(context.Background(), logger.Fields{
		logger.FieldJobID:     jobID,
		logger.FieldComponent: "pipeline",
	})
	go s.run(bgCtx, jobID, key)

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldJobID: jobID,
		"filename":        filename,
		logger.FieldSize:  size,
	}).Info("Accepted upload, job scheduled")

	return job, nil
}

// run drives one job to a terminal state. It is the only writer for its job
// id, and it always removes the transient upload on the way out, whichever
// phase failed.
func (s *PipelineService) run(ctx context.Context, jobID, key string) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log(ctx).Errorf("Panic while processing job: %v", r)
			s.fail(ctx, jobID, fmt.Sprintf("internal error: %v", r))
		}
	}()
	defer func() {
		if err := s.uploads.Delete(ctx, key); err != nil {
			s.log(ctx).WithError(err).Error("Failed to delete uploaded file")
		}
	}()

	if err := s.store.MarkProcessing(ctx, jobID); err != nil {
		s.log(ctx).WithError(err).Error("Failed to mark job processing")
		return
	}
	s.log(ctx).Info("Started processing job")

	upload, err := s.uploads.Open(ctx, key)
	if err != nil {
		s.fail(ctx, jobID, fmt.Sprintf("failed to read uploaded file: %v", err))
		return
	}
	records, err := ParseRecords(upload)
	upload.Close()
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			s.fail(ctx, jobID, vErr.Message)
		} else {
			s.fail(ctx, jobID, fmt.Sprintf("failed to parse uploaded file: %v", err))
		}
		return
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.CombinedText()
	}

	agg := NewAggregator(records, s.threshold)
	dispatcher := NewBatchDispatcher(s.classifier, s.batchSize)

	if err := dispatcher.Dispatch(ctx, texts, agg.AddChunk); err != nil {
		s.fail(ctx, jobID, err.Error())
		return
	}

	results, summary, err := agg.Finalize()
	if err != nil {
		s.fail(ctx, jobID, err.Error())
		return
	}

	if err := s.store.Complete(ctx, jobID, results, summary); err != nil {
		s.log(ctx).WithError(err).Error("Failed to complete job")
		return
	}

	s.log(ctx).WithFields(logger.Fields{
		"papers":                len(records),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("Job completed")
}

// fail records a terminal failure; every failure ends up as the job's error
// string, never as a crash of the serving process.
func (s *PipelineService) fail(ctx context.Context, jobID, message string) {
	s.log(ctx).WithField("reason", message).Warn("Job failed")
	if err := s.store.Fail(ctx, jobID, message); err != nil {
		s.log(ctx).WithError(err).Error("Failed to mark job failed")
	}
}
