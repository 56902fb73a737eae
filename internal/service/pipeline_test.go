package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/medlit/paperclass/internal/domain"
	"github.com/medlit/paperclass/internal/repository"
	"github.com/medlit/paperclass/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "title;abstract\n" +
	"Paper A;About brains\n" +
	"Paper B;About more brains\n" +
	"Paper C;About even more brains\n"

type pipelineFixture struct {
	store     *repository.MemoryJobStore
	uploads   *storage.LocalStorage
	uploadDir string
	service   *PipelineService
}

func newPipelineFixture(t *testing.T, classifier Classifier, batchSize int) *pipelineFixture {
	t.Helper()

	dir := t.TempDir()
	uploads, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	store := repository.NewMemoryJobStore()
	svc := NewPipelineService(store, uploads, classifier, nil, &PipelineConfig{
		BatchSize:      batchSize,
		Threshold:      0.5,
		MaxUploadBytes: 1024 * 1024,
	})

	return &pipelineFixture{store: store, uploads: uploads, uploadDir: dir, service: svc}
}

func (f *pipelineFixture) waitTerminal(t *testing.T, jobID string) *domain.Job {
	t.Helper()

	var job *domain.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = f.store.Get(context.Background(), jobID)
		if err != nil {
			return false
		}
		return job.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond, "job never reached a terminal state")
	return job
}

func (f *pipelineFixture) uploadedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.uploadDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// requireUploadsGone waits for the background goroutine's deferred cleanup,
// which runs after the terminal store write becomes visible.
func (f *pipelineFixture) requireUploadsGone(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(f.uploadedFiles(t)) == 0
	}, 5*time.Second, 10*time.Millisecond, "transient upload was not removed")
}

func TestPipelineCompletesJob(t *testing.T) {
	mock := &mockClassifier{
		classifyF: func(call int, texts []string) ([][]domain.Prediction, error) {
			preds := make([][]domain.Prediction, len(texts))
			for i := range texts {
				preds[i] = []domain.Prediction{{Category: "neurological", Probability: 0.9}}
			}
			return preds, nil
		},
	}
	// batch size 2 forces two chunks for three records
	f := newPipelineFixture(t, mock, 2)

	job, err := f.service.Submit(context.Background(), "papers.csv", int64(len(sampleCSV)), strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status)

	done := f.waitTerminal(t, job.ID)
	require.Equal(t, domain.JobStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.Empty(t, done.Error)

	require.NotNil(t, done.Summary)
	assert.Equal(t, 3, done.Summary.TotalPapers)
	assert.Equal(t, 3, done.Summary.CategoryCounts["neurological"])

	require.Len(t, done.Results, 3)
	for i, r := range done.Results {
		assert.Equal(t, i, r.ID)
	}
	assert.Equal(t, "Paper A", done.Results[0].Title)

	// combined text reached the model with the separator marker
	require.Len(t, mock.calls, 2)
	assert.Equal(t, "Paper A [SEP] About brains", mock.calls[0][0])

	f.requireUploadsGone(t)
}

func TestPipelineFailsOnMissingColumn(t *testing.T) {
	mock := &mockClassifier{}
	f := newPipelineFixture(t, mock, 32)

	csv := "title,authors\nPaper A,Jones\n"
	job, err := f.service.Submit(context.Background(), "papers.csv", int64(len(csv)), strings.NewReader(csv))
	require.NoError(t, err)

	done := f.waitTerminal(t, job.ID)
	require.Equal(t, domain.JobStatusFailed, done.Status)
	assert.Contains(t, done.Error, "abstract")
	assert.Empty(t, done.Results)
	assert.Nil(t, done.Summary)

	// validation failures never reach the model service
	assert.Empty(t, mock.calls)
	f.requireUploadsGone(t)
}

func TestPipelineFailsWhenModelUnavailable(t *testing.T) {
	mock := &mockClassifier{
		classifyF: func(call int, texts []string) ([][]domain.Prediction, error) {
			if call == 1 {
				return nil, fmt.Errorf("%w: request timed out", ErrModelUnavailable)
			}
			return echoPredictions(texts), nil
		},
	}
	// three records, batch size 2: second chunk fails
	f := newPipelineFixture(t, mock, 2)

	job, err := f.service.Submit(context.Background(), "papers.csv", int64(len(sampleCSV)), strings.NewReader(sampleCSV))
	require.NoError(t, err)

	done := f.waitTerminal(t, job.ID)
	require.Equal(t, domain.JobStatusFailed, done.Status)
	assert.Contains(t, done.Error, "unavailable")

	// first chunk's predictions are discarded, not partially surfaced
	assert.Empty(t, done.Results)
	assert.Nil(t, done.Summary)
	f.requireUploadsGone(t)
}

func TestPipelineFailsOnModelError(t *testing.T) {
	mock := &mockClassifier{
		classifyF: func(call int, texts []string) ([][]domain.Prediction, error) {
			return nil, fmt.Errorf("%w: HTTP 500: boom", ErrModelError)
		},
	}
	f := newPipelineFixture(t, mock, 32)

	job, err := f.service.Submit(context.Background(), "papers.csv", int64(len(sampleCSV)), strings.NewReader(sampleCSV))
	require.NoError(t, err)

	done := f.waitTerminal(t, job.ID)
	require.Equal(t, domain.JobStatusFailed, done.Status)
	assert.Contains(t, done.Error, "returned an error")
	assert.NotContains(t, done.Error, "unavailable")
}

func TestSubmitRejectsBadExtension(t *testing.T) {
	f := newPipelineFixture(t, &mockClassifier{}, 32)

	_, err := f.service.Submit(context.Background(), "papers.txt", 10, strings.NewReader("whatever"))
	require.ErrorIs(t, err, ErrInvalidFileType)
	assert.Empty(t, f.uploadedFiles(t), "rejected uploads must not be stored")
}

func TestSubmitRejectsOversizedFile(t *testing.T) {
	f := newPipelineFixture(t, &mockClassifier{}, 32)

	_, err := f.service.Submit(context.Background(), "papers.csv", 2*1024*1024, strings.NewReader(sampleCSV))
	require.ErrorIs(t, err, ErrFileTooLarge)
	assert.Empty(t, f.uploadedFiles(t))
}

func TestPipelineEmptyDataFile(t *testing.T) {
	mock := &mockClassifier{}
	f := newPipelineFixture(t, mock, 32)

	csv := "title,abstract\n"
	job, err := f.service.Submit(context.Background(), "papers.csv", int64(len(csv)), strings.NewReader(csv))
	require.NoError(t, err)

	done := f.waitTerminal(t, job.ID)
	require.Equal(t, domain.JobStatusCompleted, done.Status)
	require.NotNil(t, done.Summary)
	assert.Equal(t, 0, done.Summary.TotalPapers)
	assert.Empty(t, mock.calls)
}
