package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JobStatus represents the lifecycle state of a classification job.
// Values include JobStatusPending, JobStatusProcessing, JobStatusCompleted,
// and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
// Parameters: none.
// Returns:
//   - bool: true for JobStatusCompleted and JobStatusFailed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Prediction is a single category score returned by the model service.
type Prediction struct {
	Category    string  `json:"category"`
	Probability float64 `json:"probability"`
}

// PaperResult holds the predictions for one ingested record. ID equals the
// record's 0-based position among the surviving rows of the uploaded file.
type PaperResult struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Predictions []Prediction `json:"predictions"`
}

// Summary aggregates a completed job. CategoryCounts holds, per category, the
// number of papers whose probability for that category exceeded the threshold.
type Summary struct {
	TotalPapers    int            `json:"total_papers"`
	CategoryCounts map[string]int `json:"category_counts"`
}

// PaperResults is a custom type for storing result lists as JSON in the database.
type PaperResults []PaperResult

// Value implements the driver.Valuer interface for database serialization.
func (r PaperResults) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (r *PaperResults) Scan(value interface{}) error {
	if value == nil {
		*r = PaperResults{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan PaperResults")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, r)
}

// Value implements the driver.Valuer interface for database serialization.
func (s Summary) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (s *Summary) Scan(value interface{}) error {
	if value == nil {
		*s = Summary{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan Summary")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, s)
}

// Job tracks one uploaded batch from submission to a terminal state.
// Results and Summary are populated only on completion; Error only on failure;
// CompletedAt is set exactly once, together with the terminal transition.
type Job struct {
	ID          string       `gorm:"type:text;primaryKey" json:"job_id"`
	Status      JobStatus    `gorm:"type:text;index:idx_jobs_status;default:pending" json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Results     PaperResults `gorm:"type:text" json:"results,omitempty"`
	Summary     *Summary     `gorm:"type:text" json:"summary,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// TableName returns the database table name for Job.
func (Job) TableName() string {
	return "classification_jobs"
}

// NewJob creates a pending job with the given identifier.
// Parameters:
//   - id: opaque unique job identifier.
// Returns:
//   - *Job: pending job stamped with the current time.
func NewJob(id string) *Job {
	return &Job{
		ID:        id,
		Status:    JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy of the job so that readers never alias the
// store's internal record.
func (j *Job) Clone() *Job {
	cp := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	if j.Results != nil {
		cp.Results = make(PaperResults, len(j.Results))
		for i, r := range j.Results {
			preds := make([]Prediction, len(r.Predictions))
			copy(preds, r.Predictions)
			cp.Results[i] = PaperResult{ID: r.ID, Title: r.Title, Predictions: preds}
		}
	}
	if j.Summary != nil {
		s := Summary{TotalPapers: j.Summary.TotalPapers}
		if j.Summary.CategoryCounts != nil {
			s.CategoryCounts = make(map[string]int, len(j.Summary.CategoryCounts))
			for k, v := range j.Summary.CategoryCounts {
				s.CategoryCounts[k] = v
			}
		}
		cp.Summary = &s
	}
	return &cp
}
