package encoder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"yashubustudio/surveyencoder/encoder"
)

func TestNormalizeText(t *testing.T) {
	require.Equal(t, "Female", encoder.NormalizeText("  Ｆｅｍａｌｅ\x00 "))
	require.Equal(t, "a\tb", encoder.NormalizeText("a\tb\x07"))
	require.Empty(t, encoder.NormalizeText(" \r\n "))
	require.Equal(t, encoder.GenderFemale, encoder.BucketGender("Ｆ"))
}
