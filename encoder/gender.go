package encoder

import (
	"sort"
	"strings"
)

// Gender buckets.
const (
	GenderFemale = "Female"
	GenderMale   = "Male"
	GenderOther  = "Other/Non-Binary"
)

// GenderCodesVersion identifies the fixed gender code table. Bump it if the
// table ever changes so stored models can be matched to their coding.
const GenderCodesVersion = 1

// genderCodesV1 is the fixed gender coding.
var genderCodesV1 = map[string]int{
	GenderFemale: 0,
	GenderMale:   1,
	GenderOther:  2,
}

var (
	femaleMarkers = []string{"fem", "wom"}
	maleMarkers   = []string{"mal", "man", "guy"}
)

// FixedGenderCodes returns a copy of the fixed gender coding identified by
// GenderCodesVersion.
func FixedGenderCodes() map[string]int {
	out := make(map[string]int, len(genderCodesV1))
	for k, v := range genderCodesV1 {
		out[k] = v
	}
	return out
}

// BucketGender maps a free-text gender answer onto one of the three buckets.
// Female markers are checked first, so "transwoman" and "female" never reach
// the male rules. The answer is NFKC-normalised and trimmed for every task,
// so " f" is Female here where the legacy classifier bucketed it as Other.
func BucketGender(raw any) string {
	s, ok := raw.(string)
	if !ok {
		return GenderOther
	}
	g := normalizeKey(s)
	if g == "f" || containsAny(g, femaleMarkers) {
		return GenderFemale
	}
	if g == "m" || containsAny(g, maleMarkers) {
		return GenderMale
	}
	return GenderOther
}

// GenderCodes returns the bucket → code table for a batch of buckets.
// With GenderCodingBatch the codes are the positions of the distinct buckets
// in sorted order, so they depend on which buckets the batch contains.
func GenderCodes(buckets []string, coding GenderCoding) map[string]int {
	if coding != GenderCodingBatch {
		return FixedGenderCodes()
	}
	seen := make(map[string]struct{})
	distinct := make([]string, 0, 3)
	for _, b := range buckets {
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		distinct = append(distinct, b)
	}
	sort.Strings(distinct)
	out := make(map[string]int, len(distinct))
	for i, b := range distinct {
		out[b] = i
	}
	return out
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
