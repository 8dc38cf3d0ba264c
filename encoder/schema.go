package encoder

import (
	"fmt"
	"slices"
	"strings"
)

// Survey field names.
const (
	FieldTimestamp               = "Timestamp"
	FieldAge                     = "Age"
	FieldGender                  = "Gender"
	FieldCountry                 = "Country"
	FieldState                   = "state"
	FieldSelfEmployed            = "self_employed"
	FieldFamilyHistory           = "family_history"
	FieldTreatment               = "treatment"
	FieldWorkInterfere           = "work_interfere"
	FieldNoEmployees             = "no_employees"
	FieldRemoteWork              = "remote_work"
	FieldTechCompany             = "tech_company"
	FieldBenefits                = "benefits"
	FieldCareOptions             = "care_options"
	FieldWellnessProgram         = "wellness_program"
	FieldSeekHelp                = "seek_help"
	FieldAnonymity               = "anonymity"
	FieldLeave                   = "leave"
	FieldMentalHealthConsequence = "mental_health_consequence"
	FieldPhysHealthConsequence   = "phys_health_consequence"
	FieldCoworkers               = "coworkers"
	FieldSupervisor              = "supervisor"
	FieldMentalHealthInterview   = "mental_health_interview"
	FieldPhysHealthInterview     = "phys_health_interview"
	FieldMentalVsPhysical        = "mental_vs_physical"
	FieldObsConsequence          = "obs_consequence"
	FieldComments                = "comments"
)

// Field declares one survey column and how it is encoded.
type Field struct {
	Name    string
	Kind    Kind
	Mapping Mapping
}

// surveyFields lists every survey column in questionnaire order. Output
// columns always follow this order.
var surveyFields = []Field{
	{Name: FieldTimestamp, Kind: KindPruned},
	{Name: FieldAge, Kind: KindNumeric},
	{Name: FieldGender, Kind: KindGender},
	{Name: FieldCountry, Kind: KindPruned},
	{Name: FieldState, Kind: KindPruned},
	{Name: FieldSelfEmployed, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldFamilyHistory, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldTreatment, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldWorkInterfere, Kind: KindOrdinal, Mapping: WorkInterfereMapping},
	{Name: FieldNoEmployees, Kind: KindOrdinal, Mapping: CompanySizeMapping},
	{Name: FieldRemoteWork, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldTechCompany, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldBenefits, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldCareOptions, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldWellnessProgram, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldSeekHelp, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldAnonymity, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldLeave, Kind: KindOrdinal, Mapping: LeaveMapping},
	{Name: FieldMentalHealthConsequence, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldPhysHealthConsequence, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldCoworkers, Kind: KindTrinary, Mapping: TrinaryMapping},
	{Name: FieldSupervisor, Kind: KindTrinary, Mapping: TrinaryMapping},
	{Name: FieldMentalHealthInterview, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldPhysHealthInterview, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldMentalVsPhysical, Kind: KindTrinary, Mapping: TrinaryMapping},
	{Name: FieldObsConsequence, Kind: KindBinary, Mapping: BinaryMapping},
	{Name: FieldComments, Kind: KindPruned},
}

// SurveyFields returns a copy of the declared survey columns in order.
func SurveyFields() []Field {
	out := make([]Field, len(surveyFields))
	copy(out, surveyFields)
	return out
}

// LookupField returns the declaration of a survey column.
func LookupField(name string) (Field, bool) {
	for _, f := range surveyFields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// TaskConfig parameterises the encoding core for one model.
type TaskConfig struct {
	Task Task
	// Target is pruned from the features and returned by Encoder.Target.
	Target string
	// Fields are the encoded columns in output order.
	Fields []Field
}

// ClassificationConfig keeps Age as a numeric feature and drops treatment,
// the label.
func ClassificationConfig() TaskConfig {
	return newTaskConfig(TaskClassification, FieldTreatment)
}

// RegressionConfig drops Age, the label, and keeps treatment as a binary
// feature.
func RegressionConfig() TaskConfig {
	return newTaskConfig(TaskRegression, FieldAge)
}

// ConfigForTask returns the configuration of a named task.
func ConfigForTask(task Task) (TaskConfig, error) {
	switch task {
	case TaskClassification:
		return ClassificationConfig(), nil
	case TaskRegression:
		return RegressionConfig(), nil
	default:
		return TaskConfig{}, fmt.Errorf("%w: %q", ErrUnknownTask, task)
	}
}

func newTaskConfig(task Task, target string) TaskConfig {
	cfg := TaskConfig{Task: task, Target: target}
	for _, f := range surveyFields {
		if f.Kind == KindPruned || f.Name == target {
			continue
		}
		cfg.Fields = append(cfg.Fields, f)
	}
	return cfg
}

// FeatureNames returns the output column names of the configuration.
func (c TaskConfig) FeatureNames() []string {
	out := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Name
	}
	return out
}

// ValidateSchema reports whether got matches the expected feature list
// exactly, including order.
func ValidateSchema(expected, got []string) error {
	if slices.Equal(expected, got) {
		return nil
	}
	var missing, extra []string
	for _, name := range expected {
		if indexOf(got, name) < 0 {
			missing = append(missing, name)
		}
	}
	for _, name := range got {
		if indexOf(expected, name) < 0 {
			extra = append(extra, name)
		}
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(extra, ", "))
	}
	if len(parts) == 0 {
		parts = append(parts, "columns out of order")
	}
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(parts, "; "))
}
