package domain

// CombinedTextSeparator joins title and abstract into the single text blob
// the model service was trained on. The marker is fixed, not configurable.
const CombinedTextSeparator = " [SEP] "

// Record is one surviving row of an uploaded file. Index is the 0-based
// position among surviving rows (rows skipped during parsing do not count)
// and becomes the id of the corresponding PaperResult.
type Record struct {
	Index    int
	Title    string
	Abstract string
}

// CombinedText returns the classification input for the record.
func (r Record) CombinedText() string {
	return r.Title + CombinedTextSeparator + r.Abstract
}
