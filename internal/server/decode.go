package server

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/studentbridge/jobmatch/internal/matching"
)

var preferenceValueType = reflect.TypeOf(matching.PreferenceValue{})

// decodeProfiles converts the loosely-typed student maps from the request
// payload into Profiles. Decoding is best-effort: malformed fields are
// logged and defaulted, never failing the batch.
func decodeProfiles(raw []map[string]any, logger *slog.Logger) []matching.Profile {
	profiles := make([]matching.Profile, 0, len(raw))
	for i, studentMap := range raw {
		var profile matching.Profile
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &profile,
			WeaklyTypedInput: true,
			DecodeHook:       preferenceValueHook,
		})
		if err != nil {
			logger.Warn("profile decoder setup failed", "student", i, "error", err)
			profiles = append(profiles, profile)
			continue
		}
		if err := decoder.Decode(studentMap); err != nil {
			// Valid fields were already set; the rest default to empty.
			logger.Warn("student profile partially decoded", "student", i, "error", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles
}

// preferenceValueHook converts raw job_preferences values (string, list, or
// anything else) into the Text|List tagged union.
func preferenceValueHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to == preferenceValueType {
		return matching.FromAny(data), nil
	}
	return data, nil
}

// injectInterests splits the request-level interests string on "+" and
// stores it as the "interests" preference category of every student,
// mirroring how profiles arrive from the intake form.
func injectInterests(students []map[string]any, interests string) {
	if strings.TrimSpace(interests) == "" {
		return
	}
	parts := strings.Split(interests, "+")
	values := make([]any, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	for _, student := range students {
		prefs, ok := student["job_preferences"].(map[string]any)
		if !ok {
			prefs = make(map[string]any)
			student["job_preferences"] = prefs
		}
		prefs["interests"] = values
	}
}
