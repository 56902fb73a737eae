package service

import (
	"fmt"

	"github.com/medlit/paperclass/internal/domain"
)

// Aggregator folds per-chunk predictions back into per-record results and
// running summary statistics. Results keep the records' original post-skip
// order no matter how the dispatcher chunked them; the summary counts a
// (record, category) pair whenever its probability strictly exceeds the
// threshold, so one record may land in zero or several categories.
type Aggregator struct {
	threshold float64
	records   []domain.Record
	results   []domain.PaperResult
	counts    map[string]int
}

// NewAggregator creates an aggregator for one job's records.
// Parameters:
//   - records: the ingested records, in post-skip order.
//   - threshold: probability above which a category counts toward the summary.
// Returns:
//   - *Aggregator: initialized aggregator.
func NewAggregator(records []domain.Record, threshold float64) *Aggregator {
	return &Aggregator{
		threshold: threshold,
		records:   records,
		results:   make([]domain.PaperResult, 0, len(records)),
		counts:    make(map[string]int),
	}
}

// AddChunk consumes the predictions for the chunk starting at offset in the
// record sequence. Chunks must arrive in order, as the dispatcher emits them.
func (a *Aggregator) AddChunk(offset int, preds [][]domain.Prediction) error {
	if offset != len(a.results) {
		return fmt.Errorf("chunk offset %d does not follow %d aggregated results", offset, len(a.results))
	}
	if offset+len(preds) > len(a.records) {
		return fmt.Errorf("chunk of %d predictions at offset %d exceeds %d records", len(preds), offset, len(a.records))
	}

	for i, recordPreds := range preds {
		record := a.records[offset+i]
		a.results = append(a.results, domain.PaperResult{
			ID:          record.Index,
			Title:       record.Title,
			Predictions: recordPreds,
		})
		for _, p := range recordPreds {
			if p.Probability > a.threshold {
				a.counts[p.Category]++
			}
		}
	}
	return nil
}

// Finalize returns the accumulated results and summary. It fails if any
// record is still missing its predictions.
func (a *Aggregator) Finalize() ([]domain.PaperResult, *domain.Summary, error) {
	if len(a.results) != len(a.records) {
		return nil, nil, fmt.Errorf("aggregated %d results for %d records", len(a.results), len(a.records))
	}
	return a.results, &domain.Summary{
		TotalPapers:    len(a.records),
		CategoryCounts: a.counts,
	}, nil
}
