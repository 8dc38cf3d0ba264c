package encoder_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"yashubustudio/surveyencoder/encoder"
)

func TestValidateSchema(t *testing.T) {
	expected := []string{"Age", "Gender", "leave"}

	require.NoError(t, encoder.ValidateSchema(expected, []string{"Age", "Gender", "leave"}))

	err := encoder.ValidateSchema(expected, []string{"Age", "leave"})
	require.ErrorIs(t, err, encoder.ErrSchemaMismatch)
	require.Contains(t, err.Error(), "missing Gender")

	err = encoder.ValidateSchema(expected, []string{"Age", "Gender", "leave", "treatment"})
	require.ErrorIs(t, err, encoder.ErrSchemaMismatch)
	require.Contains(t, err.Error(), "unexpected treatment")

	err = encoder.ValidateSchema(expected, []string{"Gender", "Age", "leave"})
	require.ErrorIs(t, err, encoder.ErrSchemaMismatch)
	require.Contains(t, err.Error(), "out of order")
}

func TestSharedFieldsUseSameTables(t *testing.T) {
	clf := encoder.ClassificationConfig()
	reg := encoder.RegressionConfig()
	byName := func(cfg encoder.TaskConfig) map[string]encoder.Field {
		out := make(map[string]encoder.Field, len(cfg.Fields))
		for _, f := range cfg.Fields {
			out[f.Name] = f
		}
		return out
	}
	c, r := byName(clf), byName(reg)
	for name, f := range c {
		other, ok := r[name]
		if !ok {
			require.Equal(t, encoder.FieldAge, name)
			continue
		}
		require.Equal(t, f.Kind, other.Kind, name)
		require.Equal(t, f.Mapping, other.Mapping, name)
	}
	require.Equal(t, encoder.KindBinary, r[encoder.FieldTreatment].Kind)
}

func TestLookupField(t *testing.T) {
	f, ok := encoder.LookupField("no_employees")
	require.True(t, ok)
	require.Equal(t, encoder.KindOrdinal, f.Kind)
	require.Equal(t, "ordinal", f.Kind.String())

	_, ok = encoder.LookupField("shoe_size")
	require.False(t, ok)
	require.Len(t, encoder.SurveyFields(), 27)
}

func TestFeatureTableSelect(t *testing.T) {
	table := encoder.FeatureTable{
		Columns: []string{"Age", "Gender", "leave"},
		Rows:    [][]float64{{30, 1, 4}, {41, 0, 2}},
	}
	picked, err := table.Select([]string{"leave", "Age"})
	require.NoError(t, err)
	require.Equal(t, [][]float64{{4, 30}, {2, 41}}, picked.Rows)

	_, err = table.Select([]string{"coworkers"})
	require.ErrorIs(t, err, encoder.ErrMissingField)
}

func TestFeatureTableJSONCarriesMissingAsNull(t *testing.T) {
	table := encoder.FeatureTable{
		Columns: []string{"Age", "leave"},
		Rows:    [][]float64{{math.NaN(), 4}, {41, 2}},
	}
	data, err := json.Marshal(table)
	require.NoError(t, err)
	require.JSONEq(t, `{"columns":["Age","leave"],"rows":[[null,4],[41,2]]}`, string(data))

	var back encoder.FeatureTable
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, table.Columns, back.Columns)
	require.True(t, math.IsNaN(back.Rows[0][0]))
	require.Equal(t, []float64{41, 2}, back.Rows[1])
}
