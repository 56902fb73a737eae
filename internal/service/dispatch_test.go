package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/medlit/paperclass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClassifier satisfies Classifier for testing.
type mockClassifier struct {
	calls     [][]string
	classifyF func(call int, texts []string) ([][]domain.Prediction, error)
}

func (m *mockClassifier) Classify(ctx context.Context, texts []string) ([][]domain.Prediction, error) {
	call := len(m.calls)
	m.calls = append(m.calls, texts)
	if m.classifyF != nil {
		return m.classifyF(call, texts)
	}
	return echoPredictions(texts), nil
}

// echoPredictions builds one distinguishable prediction per text so order can
// be asserted end to end.
func echoPredictions(texts []string) [][]domain.Prediction {
	preds := make([][]domain.Prediction, len(texts))
	for i, text := range texts {
		preds[i] = []domain.Prediction{{Category: text, Probability: 0.9}}
	}
	return preds
}

func textsOfLen(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("text-%03d", i)
	}
	return texts
}

func TestDispatchAllLengthAndOrder(t *testing.T) {
	testCases := []struct {
		name      string
		inputLen  int
		batchSize int
		wantCalls int
	}{
		{name: "empty input", inputLen: 0, batchSize: 32, wantCalls: 0},
		{name: "single short chunk", inputLen: 5, batchSize: 32, wantCalls: 1},
		{name: "exact multiple", inputLen: 64, batchSize: 32, wantCalls: 2},
		{name: "ragged last chunk", inputLen: 70, batchSize: 32, wantCalls: 3},
		{name: "chunk size one", inputLen: 4, batchSize: 1, wantCalls: 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &mockClassifier{}
			d := NewBatchDispatcher(mock, tc.batchSize)

			texts := textsOfLen(tc.inputLen)
			preds, err := d.DispatchAll(context.Background(), texts)
			require.NoError(t, err)

			require.Len(t, preds, tc.inputLen)
			assert.Len(t, mock.calls, tc.wantCalls)

			for i, p := range preds {
				require.Len(t, p, 1)
				assert.Equal(t, texts[i], p[0].Category, "prediction %d out of order", i)
			}

			for i, call := range mock.calls {
				if i < len(mock.calls)-1 {
					assert.Len(t, call, tc.batchSize)
				}
				assert.LessOrEqual(t, len(call), tc.batchSize)
			}
		})
	}
}

func TestDispatchSinkOffsets(t *testing.T) {
	mock := &mockClassifier{}
	d := NewBatchDispatcher(mock, 3)

	var offsets []int
	err := d.Dispatch(context.Background(), textsOfLen(8), func(offset int, preds [][]domain.Prediction) error {
		offsets = append(offsets, offset)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6}, offsets)
}

func TestDispatchAbortsOnChunkFailure(t *testing.T) {
	mock := &mockClassifier{
		classifyF: func(call int, texts []string) ([][]domain.Prediction, error) {
			if call == 1 {
				return nil, fmt.Errorf("%w: connection refused", ErrModelUnavailable)
			}
			return echoPredictions(texts), nil
		},
	}
	d := NewBatchDispatcher(mock, 2)

	var delivered int
	err := d.Dispatch(context.Background(), textsOfLen(4), func(offset int, preds [][]domain.Prediction) error {
		delivered += len(preds)
		return nil
	})

	require.ErrorIs(t, err, ErrModelUnavailable)
	// chunk 1 was delivered before chunk 2 failed; the caller discards it
	assert.Equal(t, 2, delivered)
	assert.Len(t, mock.calls, 2)
}

func TestDispatchDefaultBatchSize(t *testing.T) {
	mock := &mockClassifier{}
	d := NewBatchDispatcher(mock, 0)

	_, err := d.DispatchAll(context.Background(), textsOfLen(33))
	require.NoError(t, err)
	require.Len(t, mock.calls, 2)
	assert.Len(t, mock.calls[0], 32)
	assert.Len(t, mock.calls[1], 1)
}
