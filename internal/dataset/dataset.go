package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidDataset is wrapped by every validation failure reported by Validate.
var ErrInvalidDataset = errors.New("invalid dataset")

// SubjectKey identifies a test subject. The source document stores sample
// ids and names as strings but metadata ids as numbers, so a key decodes
// from either and always compares by its decimal string form.
type SubjectKey string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (k *SubjectKey) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*k = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = SubjectKey(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("subject key must be a string or number: %w", err)
	}
	*k = SubjectKey(n.String())
	return nil
}

func (k SubjectKey) String() string { return string(k) }

// SubjectSample holds one subject's OTU measurements as three parallel
// sequences: index i of each slice describes the same OTU.
type SubjectSample struct {
	ID           SubjectKey `json:"id"`
	OTUIDs       []int      `json:"otu_ids"`
	OTULabels    []string   `json:"otu_labels"`
	SampleValues []float64  `json:"sample_values"`
}

// Len returns the number of OTUs, or -1 when the parallel slices disagree.
func (s *SubjectSample) Len() int {
	n := len(s.OTUIDs)
	if len(s.OTULabels) != n || len(s.SampleValues) != n {
		return -1
	}
	return n
}

// SubjectMetadata holds the descriptive fields of a subject.
type SubjectMetadata struct {
	ID        SubjectKey `json:"id"`
	Ethnicity string     `json:"ethnicity"`
	Gender    string     `json:"gender"`
	Age       *float64   `json:"age"`
	Location  string     `json:"location"`
	BBType    string     `json:"bbtype"`
	WFreq     *float64   `json:"wfreq"`
}

// Dataset is the full document: selectable names plus the sample and
// metadata records they refer to.
type Dataset struct {
	Names    []SubjectKey      `json:"names"`
	Metadata []SubjectMetadata `json:"metadata"`
	Samples  []SubjectSample   `json:"samples"`
}

// Sample returns the sample recorded for key. A miss is not an error.
func (d *Dataset) Sample(key SubjectKey) (*SubjectSample, bool) {
	for i := range d.Samples {
		if d.Samples[i].ID == key {
			return &d.Samples[i], true
		}
	}
	return nil, false
}

// MetadataFor returns the metadata recorded for key. A miss is not an error.
func (d *Dataset) MetadataFor(key SubjectKey) (*SubjectMetadata, bool) {
	for i := range d.Metadata {
		if d.Metadata[i].ID == key {
			return &d.Metadata[i], true
		}
	}
	return nil, false
}

// MaxCategoryID scans every OTU id of every sample and returns the largest,
// or 0 when the dataset holds no ids.
func (d *Dataset) MaxCategoryID() int {
	maxID := 0
	for _, s := range d.Samples {
		for _, id := range s.OTUIDs {
			if id > maxID {
				maxID = id
			}
		}
	}
	return maxID
}

// Validate checks the structural invariants of the dataset: parallel
// slices of equal length, non-negative ids and values, and at most one
// sample and one metadata record per key.
func (d *Dataset) Validate() error {
	var errs []error

	seenSamples := make(map[SubjectKey]bool, len(d.Samples))
	for i := range d.Samples {
		s := &d.Samples[i]
		if seenSamples[s.ID] {
			errs = append(errs, fmt.Errorf("duplicate sample for subject %q", s.ID))
		}
		seenSamples[s.ID] = true

		if s.Len() < 0 {
			errs = append(errs, fmt.Errorf("sample %q: parallel arrays differ in length (ids=%d labels=%d values=%d)",
				s.ID, len(s.OTUIDs), len(s.OTULabels), len(s.SampleValues)))
			continue
		}
		for j, id := range s.OTUIDs {
			if id < 0 {
				errs = append(errs, fmt.Errorf("sample %q: negative otu id %d at index %d", s.ID, id, j))
			}
			if s.SampleValues[j] < 0 {
				errs = append(errs, fmt.Errorf("sample %q: negative value %s at index %d",
					s.ID, strconv.FormatFloat(s.SampleValues[j], 'f', -1, 64), j))
			}
		}
	}

	seenMeta := make(map[SubjectKey]bool, len(d.Metadata))
	for _, m := range d.Metadata {
		if seenMeta[m.ID] {
			errs = append(errs, fmt.Errorf("duplicate metadata for subject %q", m.ID))
		}
		seenMeta[m.ID] = true
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidDataset, errors.Join(errs...))
}
