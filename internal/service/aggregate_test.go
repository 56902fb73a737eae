package service

import (
	"testing"

	"github.com/medlit/paperclass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func someRecords(n int) []domain.Record {
	records := make([]domain.Record, n)
	for i := range records {
		records[i] = domain.Record{Index: i, Title: "Paper", Abstract: "Text"}
	}
	return records
}

func TestAggregatorOrderAcrossChunks(t *testing.T) {
	records := someRecords(5)
	agg := NewAggregator(records, 0.5)

	require.NoError(t, agg.AddChunk(0, [][]domain.Prediction{
		{{Category: "neurological", Probability: 0.9}},
		{{Category: "cardiovascular", Probability: 0.8}},
	}))
	require.NoError(t, agg.AddChunk(2, [][]domain.Prediction{
		{{Category: "hepatorenal", Probability: 0.7}},
		{{Category: "oncological", Probability: 0.6}},
		{{Category: "neurological", Probability: 0.2}},
	}))

	results, summary, err := agg.Finalize()
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, r := range results {
		assert.Equal(t, i, r.ID, "result ids must equal record positions")
	}
	assert.Equal(t, 5, summary.TotalPapers)
}

func TestAggregatorThresholdStrictlyGreater(t *testing.T) {
	agg := NewAggregator(someRecords(3), 0.5)

	require.NoError(t, agg.AddChunk(0, [][]domain.Prediction{
		{{Category: "neurological", Probability: 0.51}},
		{{Category: "neurological", Probability: 0.5}}, // exactly at threshold: not counted
		{{Category: "neurological", Probability: 0.49}},
	}))

	_, summary, err := agg.Finalize()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"neurological": 1}, summary.CategoryCounts)
}

func TestAggregatorMultiLabel(t *testing.T) {
	agg := NewAggregator(someRecords(2), 0.5)

	require.NoError(t, agg.AddChunk(0, [][]domain.Prediction{
		{
			{Category: "neurological", Probability: 0.9},
			{Category: "oncological", Probability: 0.8},
			{Category: "hepatorenal", Probability: 0.1},
		},
		{
			{Category: "neurological", Probability: 0.6},
			{Category: "oncological", Probability: 0.2},
		},
	}))

	_, summary, err := agg.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 2, summary.CategoryCounts["neurological"])
	assert.Equal(t, 1, summary.CategoryCounts["oncological"])
	assert.Zero(t, summary.CategoryCounts["hepatorenal"])
}

func TestAggregatorRejectsOutOfOrderChunk(t *testing.T) {
	agg := NewAggregator(someRecords(4), 0.5)

	err := agg.AddChunk(2, [][]domain.Prediction{
		{{Category: "neurological", Probability: 0.9}},
	})
	require.Error(t, err)
}

func TestAggregatorFinalizeIncomplete(t *testing.T) {
	agg := NewAggregator(someRecords(3), 0.5)

	require.NoError(t, agg.AddChunk(0, [][]domain.Prediction{
		{{Category: "neurological", Probability: 0.9}},
	}))

	_, _, err := agg.Finalize()
	require.Error(t, err)
}

func TestAggregatorEmptyJob(t *testing.T) {
	agg := NewAggregator(nil, 0.5)

	results, summary, err := agg.Finalize()
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, summary.TotalPapers)
}
