package encoder

import "sort"

// Mapping associates raw categorical answers with integer codes. Values not
// found in the table resolve to the default code. A Mapping is immutable once
// built.
type Mapping struct {
	codes map[string]int
	def   int
}

func newMapping(def int, codes map[string]int) Mapping {
	return Mapping{codes: codes, def: def}
}

// Default returns the code used for missing and unrecognised answers.
func (m Mapping) Default() int {
	return m.def
}

// Codes returns a copy of the answer → code table.
func (m Mapping) Codes() map[string]int {
	out := make(map[string]int, len(m.codes))
	for k, v := range m.codes {
		out[k] = v
	}
	return out
}

// Lookup returns the code for raw and whether raw was recognised. Non-string
// and missing values are never recognised.
func (m Mapping) Lookup(raw any) (int, bool) {
	s, ok := raw.(string)
	if !ok {
		return m.def, false
	}
	code, ok := m.codes[s]
	if !ok {
		return m.def, false
	}
	return code, true
}

// Levels returns the closed set of codes the mapping can produce.
func (m Mapping) Levels() []int {
	seen := map[int]struct{}{m.def: {}}
	out := []int{m.def}
	for _, code := range m.codes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	sort.Ints(out)
	return out
}

// Shared tables. Both task configurations point at these values.
var (
	// BinaryMapping encodes yes/no answers; absence counts as "No".
	BinaryMapping = newMapping(0, map[string]int{"Yes": 1, "No": 0})

	// TrinaryMapping encodes comfort answers; uncertainty and absence are neutral.
	TrinaryMapping = newMapping(1, map[string]int{
		"No":           0,
		"Don't know":   1,
		"Some of them": 1,
		"Not sure":     1,
		"Maybe":        1,
		"Yes":          2,
	})

	LeaveMapping = newMapping(2, map[string]int{
		"Very difficult":     0,
		"Somewhat difficult": 1,
		"Don't know":         2,
		"Somewhat easy":      3,
		"Very easy":          4,
	})

	WorkInterfereMapping = newMapping(2, map[string]int{
		"Never":     0,
		"Rarely":    1,
		"Sometimes": 2,
		"Often":     3,
	})

	// CompanySizeMapping encodes no_employees; unknown sizes fall in the middle.
	CompanySizeMapping = newMapping(2, map[string]int{
		"1-5":            0,
		"6-25":           1,
		"26-100":         2,
		"100-500":        3,
		"500-1000":       4,
		"More than 1000": 5,
	})
)
