package encoder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"yashubustudio/surveyencoder/encoder"
)

func TestBucketGender(t *testing.T) {
	cases := map[any]string{
		"Female":            encoder.GenderFemale,
		"f":                 encoder.GenderFemale,
		"F":                 encoder.GenderFemale,
		"woman-identifying": encoder.GenderFemale,
		"transwoman":        encoder.GenderFemale,
		"Cis Female":        encoder.GenderFemale,
		"Male":              encoder.GenderMale,
		"M":                 encoder.GenderMale,
		" m ":               encoder.GenderMale,
		" f":                encoder.GenderFemale,
		"cisman":            encoder.GenderMale,
		"Guy (-ish) ^_^":    encoder.GenderMale,
		"Non-binary":        encoder.GenderOther,
		"queer":             encoder.GenderOther,
		"":                  encoder.GenderOther,
		42:                  encoder.GenderOther,
		3.5:                 encoder.GenderOther,
	}
	for raw, want := range cases {
		require.Equal(t, want, encoder.BucketGender(raw), "raw=%v", raw)
	}
	require.Equal(t, encoder.GenderOther, encoder.BucketGender(nil))
}

func TestGenderCodesFixed(t *testing.T) {
	codes := encoder.GenderCodes([]string{encoder.GenderMale}, encoder.GenderCodingFixed)
	require.Equal(t, map[string]int{
		encoder.GenderFemale: 0,
		encoder.GenderMale:   1,
		encoder.GenderOther:  2,
	}, codes)

	codes[encoder.GenderMale] = 7
	require.Equal(t, 1, encoder.FixedGenderCodes()[encoder.GenderMale], "returned table must be a copy")
	require.Equal(t, 1, encoder.GenderCodes(nil, encoder.GenderCodingFixed)[encoder.GenderMale])
}

func TestGenderCodesBatch(t *testing.T) {
	single := encoder.GenderCodes([]string{encoder.GenderMale}, encoder.GenderCodingBatch)
	require.Equal(t, map[string]int{encoder.GenderMale: 0}, single)

	mixed := encoder.GenderCodes([]string{
		encoder.GenderOther, encoder.GenderMale, encoder.GenderFemale, encoder.GenderMale,
	}, encoder.GenderCodingBatch)
	require.Equal(t, map[string]int{
		encoder.GenderFemale: 0,
		encoder.GenderMale:   1,
		encoder.GenderOther:  2,
	}, mixed)
}
