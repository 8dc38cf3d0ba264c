package encoder

import (
	"strings"
	"sync"
)

// ColumnAliases maps a survey field name to alternative header spellings
// accepted when reading CSV/TSV exports. Field names themselves always match
// case-insensitively.
type ColumnAliases map[string][]string

var (
	columnAliasesMu     sync.RWMutex
	activeColumnAliases = defaultColumnAliases()
)

func defaultColumnAliases() ColumnAliases {
	return ColumnAliases{
		FieldTimestamp:     {"submitted_at", "date"},
		FieldGender:        {"sex"},
		FieldState:         {"us_state"},
		FieldSelfEmployed:  {"self-employed"},
		FieldFamilyHistory: {"family-history"},
		FieldNoEmployees:   {"employees", "company_size"},
		FieldWorkInterfere: {"work-interfere"},
		FieldComments:      {"comment", "notes"},
	}
}

// DefaultColumnAliases returns the built-in header aliases.
func DefaultColumnAliases() ColumnAliases {
	return defaultColumnAliases().clone()
}

// SetColumnAliases updates the aliases used during header detection. Fields
// left nil fall back to the built-in defaults.
func SetColumnAliases(aliases ColumnAliases) {
	columnAliasesMu.Lock()
	defer columnAliasesMu.Unlock()
	activeColumnAliases = aliases.withDefaults()
}

func getColumnAliases() ColumnAliases {
	columnAliasesMu.RLock()
	defer columnAliasesMu.RUnlock()
	return activeColumnAliases.clone()
}

func (a ColumnAliases) withDefaults() ColumnAliases {
	out := defaultColumnAliases()
	for field, names := range a {
		if names == nil {
			continue
		}
		out[field] = cloneStrings(names)
	}
	return out
}

func (a ColumnAliases) clone() ColumnAliases {
	out := make(ColumnAliases, len(a))
	for field, names := range a {
		out[field] = cloneStrings(names)
	}
	return out
}

// canonicalColumn returns the survey field a header refers to, or the
// cleaned header unchanged when it matches nothing.
func canonicalColumn(header string, aliases ColumnAliases) string {
	for _, f := range surveyFields {
		if strings.EqualFold(header, f.Name) {
			return f.Name
		}
	}
	for _, f := range surveyFields {
		for _, alias := range aliases[f.Name] {
			if strings.EqualFold(header, alias) {
				return f.Name
			}
		}
	}
	return header
}
