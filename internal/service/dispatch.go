package service

import (
	"context"

	"github.com/medlit/paperclass/internal/domain"
)

// defaultBatchSize bounds how many texts go to the model service per request.
const defaultBatchSize = 32

// BatchDispatcher partitions an ordered text sequence into contiguous chunks
// and classifies them one request at a time. Chunks for a single job are
// dispatched sequentially to bound peak load on the model service; the final
// output order always matches the input order.
type BatchDispatcher struct {
	classifier Classifier
	batchSize  int
}

// NewBatchDispatcher creates a dispatcher over the given classifier.
// Parameters:
//   - classifier: classification capability to invoke per chunk.
//   - batchSize: maximum texts per request; defaults to 32 when <= 0.
// Returns:
//   - *BatchDispatcher: initialized dispatcher.
func NewBatchDispatcher(classifier Classifier, batchSize int) *BatchDispatcher {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &BatchDispatcher{
		classifier: classifier,
		batchSize:  batchSize,
	}
}

// Dispatch classifies texts chunk by chunk, handing each chunk's predictions
// to sink together with the chunk's offset into the input sequence. Any chunk
// failure aborts the whole dispatch; nothing partial survives.
func (d *BatchDispatcher) Dispatch(ctx context.Context, texts []string, sink func(offset int, preds [][]domain.Prediction) error) error {
	for start := 0; start < len(texts); start += d.batchSize {
		end := start + d.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		preds, err := d.classifier.Classify(ctx, texts[start:end])
		if err != nil {
			return err
		}

		if err := sink(start, preds); err != nil {
			return err
		}
	}
	return nil
}

// DispatchAll classifies texts and returns the full ordered prediction list,
// equal in length to the input regardless of chunk size.
func (d *BatchDispatcher) DispatchAll(ctx context.Context, texts []string) ([][]domain.Prediction, error) {
	all := make([][]domain.Prediction, 0, len(texts))
	err := d.Dispatch(ctx, texts, func(offset int, preds [][]domain.Prediction) error {
		all = append(all, preds...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
