package matching

import (
	"reflect"
	"testing"
)

func TestBuildQueryRolesAndSkills(t *testing.T) {
	p := Profile{
		JobPreferences: map[string]PreferenceValue{
			"job_roles": List([]string{"Data Engineer"}),
			"locations": Text("Remote"),
		},
		Skills:    []string{"Python", "SQL"},
		Interests: []string{"machine learning"},
	}

	got := BuildQuery(p)

	// "data engineer" repeated 5x, "remote" 2x, then skills and interests.
	want := []string{
		"data", "engineer", "data", "engineer", "data", "engineer",
		"data", "engineer", "data", "engineer",
		"remote", "remote",
		"python", "sql", "machine", "learning",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildQuery = %v, want %v", got, want)
	}
}

func TestBuildQueryRoleCategoryCaseInsensitive(t *testing.T) {
	p := Profile{
		JobPreferences: map[string]PreferenceValue{
			"Job_Titles": List([]string{"analyst"}),
		},
	}
	got := BuildQuery(p)
	if len(got) != roleRepeat {
		t.Errorf("got %d terms %v, want %d repetitions of the role", len(got), got, roleRepeat)
	}
}

func TestBuildQueryEmptyProfile(t *testing.T) {
	tests := []struct {
		name string
		p    Profile
	}{
		{name: "zero profile", p: Profile{}},
		{name: "empty preference values", p: Profile{
			JobPreferences: map[string]PreferenceValue{"job_roles": List(nil)},
		}},
		{name: "only whitespace text", p: Profile{
			JobPreferences: map[string]PreferenceValue{"locations": Text("   ")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildQuery(tt.p); len(got) != 0 {
				t.Errorf("BuildQuery = %v, want empty", got)
			}
		})
	}
}

func TestBuildQueryDeterministic(t *testing.T) {
	p := Profile{
		JobPreferences: map[string]PreferenceValue{
			"job_roles":  List([]string{"engineer"}),
			"locations":  Text("berlin"),
			"industries": List([]string{"fintech", "health"}),
			"seniority":  Text("junior"),
		},
		Skills: []string{"go"},
	}
	first := BuildQuery(p)
	for i := 0; i < 20; i++ {
		if again := BuildQuery(p); !reflect.DeepEqual(first, again) {
			t.Fatalf("BuildQuery not deterministic: %v vs %v", first, again)
		}
	}
}

func TestIsRoleCategory(t *testing.T) {
	tests := []struct {
		category string
		want     bool
	}{
		{"job_roles", true},
		{"job_titles", true},
		{"JOB_ROLES", true},
		{"locations", false},
		{"roles", false},
	}
	for _, tt := range tests {
		if got := IsRoleCategory(tt.category); got != tt.want {
			t.Errorf("IsRoleCategory(%q) = %v, want %v", tt.category, got, tt.want)
		}
	}
}
