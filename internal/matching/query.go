package matching

import (
	"sort"
	"strings"

	"github.com/studentbridge/jobmatch/internal/textnorm"
)

// Query term weights, expressed as repetition counts in the raw term list.
// Under BM25 scoring only term presence matters on the query side, so the
// repetition does not amplify scores; the weighting is preserved for
// compatibility with the observed matching behavior.
const (
	roleRepeat       = 5
	preferenceRepeat = 2
)

// BuildQuery turns a student profile into a single normalized token query:
// role preferences repeated 5x, other preferences 2x, then skills and
// interests once each, joined and run through the normalizer. An empty
// profile yields an empty query.
func BuildQuery(p Profile) []string {
	var roles, preferences []string
	for _, category := range sortedCategories(p.JobPreferences) {
		values := p.JobPreferences[category].Flatten()
		if IsRoleCategory(category) {
			roles = append(roles, values...)
		} else {
			preferences = append(preferences, values...)
		}
	}

	terms := make([]string, 0,
		len(roles)*roleRepeat+len(preferences)*preferenceRepeat+len(p.Skills)+len(p.Interests))
	for i := 0; i < roleRepeat; i++ {
		terms = append(terms, roles...)
	}
	for i := 0; i < preferenceRepeat; i++ {
		terms = append(terms, preferences...)
	}
	terms = append(terms, p.Skills...)
	terms = append(terms, p.Interests...)

	if len(terms) == 0 {
		return nil
	}
	return textnorm.Tokens(strings.Join(terms, " "))
}

// sortedCategories returns the preference category keys in a stable order,
// so query construction is deterministic across runs.
func sortedCategories(prefs map[string]PreferenceValue) []string {
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
