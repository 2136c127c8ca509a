// Package ranking orders a subject's OTU measurements for display.
package ranking

import (
	"errors"
	"fmt"
	"slices"

	"github.com/junkd0g/bellybutton/internal/dataset"
)

// BarK is the number of entries shown by the ranked bar chart.
const BarK = 10

var (
	// ErrMalformedSample is returned when a sample's parallel arrays differ in length.
	ErrMalformedSample = errors.New("malformed sample")
	// ErrInvalidK is returned for a non-positive k.
	ErrInvalidK = errors.New("k must be positive")
)

// Entry is one OTU measurement.
type Entry struct {
	ID    int     `json:"id"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Zip combines the parallel slices of a sample into entries, in source order.
func Zip(sample *dataset.SubjectSample) ([]Entry, error) {
	n := sample.Len()
	if n < 0 {
		return nil, fmt.Errorf("%w: subject %q has %d ids, %d labels, %d values",
			ErrMalformedSample, sample.ID, len(sample.OTUIDs), len(sample.OTULabels), len(sample.SampleValues))
	}

	entries := make([]Entry, n)
	for i := 0; i < n; i++ {
		entries[i] = Entry{
			ID:    sample.OTUIDs[i],
			Label: sample.OTULabels[i],
			Value: sample.SampleValues[i],
		}
	}
	return entries, nil
}

// TopK returns the k highest-valued entries of sample in ascending order of
// value, so the largest entry is last. Entries with equal values keep their
// source order relative to each other before the final reversal.
func TopK(sample *dataset.SubjectSample, k int) ([]Entry, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	entries, err := Zip(sample)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		default:
			return 0
		}
	})

	if len(entries) > k {
		entries = entries[:k]
	}
	slices.Reverse(entries)
	return entries, nil
}
