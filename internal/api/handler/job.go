package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medlit/paperclass/internal/domain"
	"github.com/medlit/paperclass/internal/repository"
	"github.com/medlit/paperclass/internal/service"
)

// JobHandler handles batch upload and job polling endpoints.
type JobHandler struct {
	pipeline *service.PipelineService
	store    repository.JobStore
}

// NewJobHandler creates a new job handler.
// Parameters:
//   - pipeline: pipeline service accepting uploads.
//   - store: job store for status and result lookups.
// Returns:
//   - *JobHandler: initialized handler.
func NewJobHandler(pipeline *service.PipelineService, store repository.JobStore) *JobHandler {
	return &JobHandler{
		pipeline: pipeline,
		store:    store,
	}
}

// Upload handles POST /api/v1/upload. Processing happens in the background;
// the response carries the job id to poll.
func (h *JobHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "File is required: " + err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	job, err := h.pipeline.Submit(c.Request.Context(), fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFileType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save uploaded file"})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// Status handles GET /api/v1/status/:job_id.
func (h *JobHandler) Status(c *gin.Context) {
	job, ok := h.getJob(c)
	if !ok {
		return
	}

	resp := gin.H{
		"job_id": job.ID,
		"status": job.Status,
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	c.JSON(http.StatusOK, resp)
}

// Results handles GET /api/v1/results/:job_id. While the job is still in
// flight it answers 202 with the current status; that is an expected caller
// state, not an error.
func (h *JobHandler) Results(c *gin.Context) {
	job, ok := h.getJob(c)
	if !ok {
		return
	}

	switch {
	case job.Status == domain.JobStatusFailed:
		c.JSON(http.StatusInternalServerError, gin.H{
			"job_id": job.ID,
			"error":  job.Error,
		})
	case job.Status != domain.JobStatusCompleted:
		c.JSON(http.StatusAccepted, gin.H{
			"job_id": job.ID,
			"status": job.Status,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"job_id":       job.ID,
			"status":       job.Status,
			"completed_at": job.CompletedAt.UTC().Format(time.RFC3339),
			"results":      job.Results,
			"summary":      job.Summary,
		})
	}
}

// getJob resolves the job_id path parameter, writing the NotFound response
// itself when the job is unknown.
func (h *JobHandler) getJob(c *gin.Context) (*domain.Job, bool) {
	id := c.Param("job_id")

	job, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up job"})
		}
		return nil, false
	}
	return job, true
}
