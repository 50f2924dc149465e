// Package matching turns student profiles into weighted token queries,
// scores them against the BM25 index, and assembles ranked match results.
package matching

import (
	"encoding/json"
	"strings"
)

// Role categories inside job_preferences. Values under these keys (compared
// case-insensitively) are treated as job roles/titles and weighted highest
// in the query.
var roleCategories = map[string]struct{}{
	"job_roles":  {},
	"job_titles": {},
}

// IsRoleCategory reports whether a job_preferences category names job
// roles/titles.
func IsRoleCategory(category string) bool {
	_, ok := roleCategories[strings.ToLower(category)]
	return ok
}

// PreferenceValue is the value of one job_preferences category: either a
// single text item or a list of text items. Unexpected shapes decode to an
// empty value rather than failing the profile.
type PreferenceValue struct {
	list   []string
	text   string
	isList bool
}

// Text creates a single-item preference value.
func Text(s string) PreferenceValue {
	return PreferenceValue{text: s}
}

// List creates a multi-item preference value.
func List(items []string) PreferenceValue {
	return PreferenceValue{list: items, isList: true}
}

// Flatten returns the value's items as a slice, one element for text values.
func (v PreferenceValue) Flatten() []string {
	if v.isList {
		return v.list
	}
	if v.text == "" {
		return nil
	}
	return []string{v.text}
}

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (v *PreferenceValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Text(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*v = List(items)
		return nil
	}
	// Best-effort defaulting: unexpected shapes become an empty value.
	*v = PreferenceValue{}
	return nil
}

// MarshalJSON emits the original shape: a string for text values, an array
// for lists.
func (v PreferenceValue) MarshalJSON() ([]byte, error) {
	if v.isList {
		return json.Marshal(v.list)
	}
	return json.Marshal(v.text)
}

// FromAny converts a loosely-typed decoded value (string, []string, or
// []any of strings) into a PreferenceValue. Anything else is empty.
func FromAny(value any) PreferenceValue {
	switch val := value.(type) {
	case string:
		return Text(val)
	case []string:
		return List(val)
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		return List(items)
	}
	return PreferenceValue{}
}

// Profile is one student as decoded from the inbound request. Missing
// fields default to empty; the engine never validates schema beyond that.
type Profile struct {
	FirstName      string                     `json:"first_name" mapstructure:"first_name"`
	LastName       string                     `json:"last_name" mapstructure:"last_name"`
	JobPreferences map[string]PreferenceValue `json:"job_preferences" mapstructure:"job_preferences"`
	Skills         []string                   `json:"skills" mapstructure:"skills"`
	Interests      []string                   `json:"interests" mapstructure:"interests"`
}

// DisplayName returns "first last" trimmed, or "Unnamed" when both parts
// are empty. Students sharing a display name overwrite each other in the
// result mapping; last one wins.
func (p Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return "Unnamed"
	}
	return name
}
