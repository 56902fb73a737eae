package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecordsDelimiters(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{
			name:  "comma",
			input: "title,abstract\nPaper A,About hearts\nPaper B,About brains\n",
		},
		{
			name:  "semicolon",
			input: "title;abstract\nPaper A;About hearts\nPaper B;About brains\n",
		},
		{
			name:  "tab",
			input: "title\tabstract\nPaper A\tAbout hearts\nPaper B\tAbout brains\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := ParseRecords(strings.NewReader(tc.input))
			require.NoError(t, err)
			require.Len(t, records, 2)

			assert.Equal(t, "Paper A", records[0].Title)
			assert.Equal(t, "About hearts", records[0].Abstract)
			assert.Equal(t, "Paper B", records[1].Title)
		})
	}
}

func TestParseRecordsMissingColumns(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		missing string
	}{
		{
			name:    "no abstract",
			input:   "title,authors\nPaper A,Jones\n",
			missing: "abstract",
		},
		{
			name:    "no title",
			input:   "abstract,authors\nSome text,Jones\n",
			missing: "title",
		},
		{
			name:    "neither",
			input:   "id,authors\n1,Jones\n",
			missing: "title, abstract",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRecords(strings.NewReader(tc.input))
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Message, tc.missing)
		})
	}
}

func TestParseRecordsEmptyFile(t *testing.T) {
	_, err := ParseRecords(strings.NewReader(""))

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestParseRecordsSkipsMalformedRows(t *testing.T) {
	input := "title,abstract\n" +
		"Paper A,About hearts\n" +
		"only-one-column\n" +
		",\n" +
		"Paper B,About brains\n"

	records, err := ParseRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	// indices are positions among surviving rows, not raw file lines
	assert.Equal(t, 0, records[0].Index)
	assert.Equal(t, "Paper A", records[0].Title)
	assert.Equal(t, 1, records[1].Index)
	assert.Equal(t, "Paper B", records[1].Title)
}

func TestParseRecordsHeaderNormalization(t *testing.T) {
	input := "\ufeffTitle; Abstract \nPaper A;About hearts\n"

	records, err := ParseRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Paper A", records[0].Title)
}

func TestParseRecordsExtraColumnsPassThrough(t *testing.T) {
	input := "id,title,abstract,journal\n1,Paper A,About hearts,JACC\n"

	records, err := ParseRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Paper A", records[0].Title)
	assert.Equal(t, "About hearts", records[0].Abstract)
}

func TestRecordCombinedText(t *testing.T) {
	records, err := ParseRecords(strings.NewReader("title,abstract\nPaper A,About hearts\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Paper A [SEP] About hearts", records[0].CombinedText())
}
