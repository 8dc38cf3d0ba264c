package encoder

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Encoder turns raw survey responses into numeric features for one task.
// It holds no mutable state and is safe for concurrent use.
type Encoder struct {
	cfg  TaskConfig
	opts Options
}

// New builds an encoder from a task configuration.
func New(cfg TaskConfig, opts Options) *Encoder {
	opts.ApplyDefaults()
	fields := make([]Field, len(cfg.Fields))
	copy(fields, cfg.Fields)
	cfg.Fields = fields
	return &Encoder{cfg: cfg, opts: opts}
}

// NewClassificationEncoder returns the encoder used for the treatment classifier.
func NewClassificationEncoder(opts Options) *Encoder {
	return New(ClassificationConfig(), opts)
}

// NewRegressionEncoder returns the encoder used for the age regressor.
func NewRegressionEncoder(opts Options) *Encoder {
	return New(RegressionConfig(), opts)
}

// NewForTask returns the encoder of a named task.
func NewForTask(task Task, opts Options) (*Encoder, error) {
	cfg, err := ConfigForTask(task)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts), nil
}

// Task returns the task the encoder prepares features for.
func (e *Encoder) Task() Task {
	return e.cfg.Task
}

// Options returns the options the encoder was built with.
func (e *Encoder) Options() Options {
	return e.opts
}

// Schema returns the full list of feature columns in output order.
func (e *Encoder) Schema() []string {
	return e.cfg.FeatureNames()
}

// Encode encodes a batch. Columns absent from every response are left out
// of the output unless RequireAllFields is set; a column present in the
// batch but missing from one response is encoded with the field default.
// A missing or non-numeric Age has no default: it passes through as NaN, or
// fails with ErrInvalidValue in strict mode.
func (e *Encoder) Encode(responses []Response) (FeatureTable, Report, error) {
	columns := collectColumns(responses)
	report := Report{
		Task:      e.cfg.Task,
		Rows:      len(responses),
		Ignored:   e.ignoredColumns(columns),
		Defaulted: map[string]int{},
	}
	for _, f := range surveyFields {
		if _, ok := columns[f.Name]; !ok {
			continue
		}
		if f.Kind == KindPruned || f.Name == e.cfg.Target {
			report.Pruned = append(report.Pruned, f.Name)
		}
	}

	fields := make([]Field, 0, len(e.cfg.Fields))
	for _, f := range e.cfg.Fields {
		if _, ok := columns[f.Name]; ok {
			fields = append(fields, f)
			continue
		}
		if e.opts.RequireAllFields {
			return FeatureTable{}, report, &FieldError{Field: f.Name, Row: -1, Err: ErrMissingField}
		}
		report.Absent = append(report.Absent, f.Name)
	}

	var buckets []string
	var genderCodes map[string]int
	if indexOfField(fields, FieldGender) >= 0 {
		buckets = make([]string, len(responses))
		for i, r := range responses {
			buckets[i] = BucketGender(r[FieldGender])
		}
		genderCodes = GenderCodes(buckets, e.opts.GenderCoding)
		report.Gender = genderCodes
	}

	table := FeatureTable{
		Columns: make([]string, len(fields)),
		Rows:    make([][]float64, len(responses)),
	}
	for j, f := range fields {
		table.Columns[j] = f.Name
	}
	for i, r := range responses {
		row := make([]float64, len(fields))
		for j, f := range fields {
			raw := r[f.Name]
			switch f.Kind {
			case KindNumeric:
				v, err := toFloat(raw)
				if err != nil {
					if e.opts.Strict {
						return FeatureTable{}, report, &FieldError{Field: f.Name, Row: i, Value: raw, Err: err}
					}
					report.Defaulted[f.Name]++
					v = math.NaN()
				}
				row[j] = v
			case KindGender:
				row[j] = float64(genderCodes[buckets[i]])
			default:
				code, ok := f.Mapping.Lookup(raw)
				if !ok {
					if e.opts.Strict && !isMissing(raw) {
						return FeatureTable{}, report, &FieldError{Field: f.Name, Row: i, Value: raw, Err: ErrUnrecognizedValue}
					}
					report.Defaulted[f.Name]++
				}
				row[j] = float64(code)
			}
		}
		table.Rows[i] = row
	}
	return table, report, nil
}

// EncodeOne encodes a single response, keyed by feature name.
func (e *Encoder) EncodeOne(r Response) (map[string]float64, error) {
	table, _, err := e.Encode([]Response{r})
	if err != nil {
		return nil, err
	}
	return table.Row(0), nil
}

// Target extracts the training label of every response: treatment as 1/0
// for classification, Age for regression. Labels have no default.
func (e *Encoder) Target(responses []Response) ([]float64, error) {
	field, ok := LookupField(e.cfg.Target)
	if !ok {
		return nil, fmt.Errorf("%w: no target for task %q", ErrUnknownTask, e.cfg.Task)
	}
	out := make([]float64, len(responses))
	for i, r := range responses {
		raw := r[field.Name]
		switch field.Kind {
		case KindNumeric:
			v, err := toFloat(raw)
			if err != nil {
				return nil, &FieldError{Field: field.Name, Row: i, Value: raw, Err: err}
			}
			out[i] = v
		default:
			code, ok := field.Mapping.Lookup(raw)
			if !ok {
				return nil, &FieldError{Field: field.Name, Row: i, Value: raw, Err: ErrInvalidValue}
			}
			out[i] = float64(code)
		}
	}
	return out, nil
}

func (e *Encoder) ignoredColumns(columns map[string]struct{}) []string {
	var out []string
	for name := range columns {
		if _, ok := LookupField(name); !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func collectColumns(responses []Response) map[string]struct{} {
	columns := make(map[string]struct{})
	for _, r := range responses {
		for name := range r {
			columns[name] = struct{}{}
		}
	}
	return columns
}

func indexOfField(fields []Field, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func isMissing(raw any) bool {
	if raw == nil {
		return true
	}
	if f, ok := raw.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

func toFloat(raw any) (float64, error) {
	var v float64
	switch x := raw.(type) {
	case nil:
		return 0, fmt.Errorf("%w: missing number", ErrInvalidValue)
	case int:
		v = float64(x)
	case int32:
		v = float64(x)
	case int64:
		v = float64(x)
	case uint:
		v = float64(x)
	case uint32:
		v = float64(x)
	case uint64:
		v = float64(x)
	case float32:
		v = float64(x)
	case float64:
		v = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, x.String())
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, x)
		}
		v = f
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", ErrInvalidValue, v)
	}
	return v, nil
}
