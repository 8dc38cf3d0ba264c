package encoder

import (
	"encoding/json"
	"math"
)

// Task selects which model the encoded features are prepared for.
type Task string

const (
	// TaskClassification prepares features for the treatment classifier.
	TaskClassification Task = "classification"
	// TaskRegression prepares features for the age regressor.
	TaskRegression Task = "regression"
)

// Kind describes how a survey field is turned into a number.
type Kind int

const (
	KindPruned Kind = iota
	KindNumeric
	KindBinary
	KindTrinary
	KindOrdinal
	KindGender
)

func (k Kind) String() string {
	switch k {
	case KindPruned:
		return "pruned"
	case KindNumeric:
		return "numeric"
	case KindBinary:
		return "binary"
	case KindTrinary:
		return "trinary"
	case KindOrdinal:
		return "ordinal"
	case KindGender:
		return "gender"
	default:
		return "unknown"
	}
}

// GenderCoding selects how gender buckets are turned into integer codes.
type GenderCoding string

const (
	// GenderCodingFixed uses the versioned table returned by FixedGenderCodes.
	GenderCodingFixed GenderCoding = "fixed"
	// GenderCodingBatch assigns codes from the sorted buckets seen in the
	// current batch. Codes are not stable across calls.
	GenderCodingBatch GenderCoding = "batch"
)

// Response is one raw survey row keyed by field name. Values are strings,
// numbers or nil for a missing answer.
type Response map[string]any

// Options tunes how strictly an Encoder treats its input.
type Options struct {
	// Strict rejects unrecognised categorical values instead of defaulting them.
	Strict bool `json:"strict" yaml:"strict"`
	// RequireAllFields rejects batches that do not carry every schema column.
	RequireAllFields bool `json:"requireAllFields" yaml:"require_all_fields"`
	// GenderCoding defaults to GenderCodingFixed.
	GenderCoding GenderCoding `json:"genderCoding" yaml:"gender_coding"`
}

// ApplyDefaults populates zero values.
func (o *Options) ApplyDefaults() {
	switch o.GenderCoding {
	case GenderCodingFixed, GenderCodingBatch:
	default:
		o.GenderCoding = GenderCodingFixed
	}
}

// FeatureTable is the numeric output of an Encoder. Columns follow the
// declared survey order.
type FeatureTable struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// Len returns the number of encoded rows.
func (t FeatureTable) Len() int {
	return len(t.Rows)
}

// Row returns row i keyed by column name.
func (t FeatureTable) Row(i int) map[string]float64 {
	out := make(map[string]float64, len(t.Columns))
	for j, col := range t.Columns {
		out[col] = t.Rows[i][j]
	}
	return out
}

// Column returns the values of the named column and whether it exists.
func (t FeatureTable) Column(name string) ([]float64, bool) {
	idx := indexOf(t.Columns, name)
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// Select returns a copy of the table restricted to columns, in that order.
func (t FeatureTable) Select(columns []string) (FeatureTable, error) {
	idx := make([]int, len(columns))
	for i, col := range columns {
		idx[i] = indexOf(t.Columns, col)
		if idx[i] < 0 {
			return FeatureTable{}, &FieldError{Field: col, Row: -1, Err: ErrMissingField}
		}
	}
	out := FeatureTable{
		Columns: cloneStrings(columns),
		Rows:    make([][]float64, len(t.Rows)),
	}
	for i, row := range t.Rows {
		picked := make([]float64, len(idx))
		for j, k := range idx {
			picked[j] = row[k]
		}
		out.Rows[i] = picked
	}
	return out, nil
}

type featureTableJSON struct {
	Columns []string     `json:"columns"`
	Rows    [][]*float64 `json:"rows"`
}

// MarshalJSON writes NaN cells, such as a missing Age, as null.
func (t FeatureTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(featureTableJSON{Columns: t.Columns, Rows: NullableRows(t.Rows)})
}

// UnmarshalJSON reads null cells back as NaN.
func (t *FeatureTable) UnmarshalJSON(data []byte) error {
	var raw featureTableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Columns = raw.Columns
	t.Rows = make([][]float64, len(raw.Rows))
	for i, row := range raw.Rows {
		t.Rows[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				t.Rows[i][j] = math.NaN()
				continue
			}
			t.Rows[i][j] = *v
		}
	}
	return nil
}

// NullableRows converts rows for JSON output: NaN cells become nil.
func NullableRows(rows [][]float64) [][]*float64 {
	out := make([][]*float64, len(rows))
	for i, row := range rows {
		out[i] = make([]*float64, len(row))
		for j := range row {
			if math.IsNaN(row[j]) {
				continue
			}
			out[i][j] = &row[j]
		}
	}
	return out
}

// Report describes what an Encode call did beyond the feature values.
type Report struct {
	BatchID string         `json:"batchId,omitempty"`
	Task    Task           `json:"task"`
	Rows    int            `json:"rows"`
	Pruned  []string       `json:"pruned,omitempty"`
	Ignored []string       `json:"ignored,omitempty"`
	Absent  []string       `json:"absent,omitempty"`
	Gender  map[string]int `json:"genderCodes,omitempty"`
	// Defaulted counts cells per field that fell back to the field default.
	Defaulted map[string]int `json:"defaulted,omitempty"`
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
