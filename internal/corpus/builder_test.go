package corpus

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	apperrors "github.com/studentbridge/jobmatch/pkg/errors"
)

func TestBuildSkipsEmptyRecords(t *testing.T) {
	records := []JobRecord{
		{
			"title":          "Data Engineer",
			"tagsAndSkills":  "python,sql",
			"jobDescription": "<p>Build data pipelines.</p>",
		},
		{
			"title":          "",
			"tagsAndSkills":  "",
			"jobDescription": "<style>.x{}</style>",
		},
		{
			"title":          "Frontend Developer",
			"tagsAndSkills":  "react, typescript",
			"jobDescription": "Ship UI features.",
		},
	}

	docs, indexMap, err := Build(records)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if !reflect.DeepEqual(indexMap, []int{0, 2}) {
		t.Errorf("indexMap = %v, want [0 2]", indexMap)
	}

	wantFirst := []string{"data", "engineer", "python", "sql", "build", "data", "pipelines"}
	if !reflect.DeepEqual(docs[0], wantFirst) {
		t.Errorf("docs[0] = %v, want %v", docs[0], wantFirst)
	}
	wantSecond := []string{"frontend", "developer", "react", "typescript", "ship", "ui", "features"}
	if !reflect.DeepEqual(docs[1], wantSecond) {
		t.Errorf("docs[1] = %v, want %v", docs[1], wantSecond)
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	tests := []struct {
		name    string
		records []JobRecord
	}{
		{name: "no records", records: nil},
		{name: "all records empty", records: []JobRecord{{}, {"title": ""}}},
		{name: "only non-alphabetic content", records: []JobRecord{{"title": "12345 !!!"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Build(tt.records)
			if !stderrors.Is(err, apperrors.ErrEmptyCorpus) {
				t.Errorf("Build error = %v, want ErrEmptyCorpus", err)
			}
		})
	}
}

func TestBuildMissingFieldsTolerated(t *testing.T) {
	records := []JobRecord{
		{"title": "SRE"},                        // only a title
		{"jobDescription": "operate clusters"},  // only a description
		{"tagsAndSkills": "kubernetes,ansible"}, // only tags
	}
	docs, indexMap, err := Build(records)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(docs) != 3 || !reflect.DeepEqual(indexMap, []int{0, 1, 2}) {
		t.Fatalf("got %d docs, indexMap %v", len(docs), indexMap)
	}
	if !reflect.DeepEqual(docs[2], []string{"kubernetes", "ansible"}) {
		t.Errorf("docs[2] = %v, want [kubernetes ansible]", docs[2])
	}
}

func TestFingerprintStability(t *testing.T) {
	records := []JobRecord{
		{"title": "Data Engineer", "tagsAndSkills": "python", "jobDescription": "pipelines", "companyName": "Acme"},
		{"title": "SRE", "companyName": "Globex"},
	}

	first := Fingerprint(records)
	second := Fingerprint(records)
	if first != second {
		t.Errorf("fingerprint not stable: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(first))
	}

	changed := []JobRecord{
		{"title": "Data Engineer", "tagsAndSkills": "python", "jobDescription": "pipelines", "companyName": "Acme"},
		{"title": "SRE", "companyName": "Initech"},
	}
	if Fingerprint(changed) == first {
		t.Error("fingerprint unchanged after record content changed")
	}

	// Unrecognized fields do not affect identity.
	annotated := []JobRecord{
		{"title": "Data Engineer", "tagsAndSkills": "python", "jobDescription": "pipelines", "companyName": "Acme", "internalID": float64(7)},
		{"title": "SRE", "companyName": "Globex"},
	}
	if Fingerprint(annotated) != first {
		t.Error("fingerprint changed when only an unrecognized field differed")
	}
}

func TestJSONLSourceLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.jsonl")
	content := `{"title":"Data Engineer","companyName":"Acme"}

{"title":"SRE","tagsAndSkills":"linux,go"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewJSONLSource([]string{path})
	records, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Title() != "Data Engineer" || records[1].Tags() != "linux,go" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestJSONLSourceErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		src := NewJSONLSource([]string{filepath.Join(t.TempDir(), "absent.jsonl")})
		_, err := src.Load(context.Background())
		if !stderrors.Is(err, apperrors.ErrMissingSource) {
			t.Errorf("Load error = %v, want ErrMissingSource", err)
		}
	})

	t.Run("malformed line", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "bad.jsonl")
		if err := os.WriteFile(path, []byte("{\"title\":\"ok\"}\nnot json\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		src := NewJSONLSource([]string{path})
		_, err := src.Load(context.Background())
		if err == nil {
			t.Fatal("Load succeeded on malformed input")
		}
	})

	t.Run("no paths configured", func(t *testing.T) {
		src := NewJSONLSource(nil)
		_, err := src.Load(context.Background())
		if !stderrors.Is(err, apperrors.ErrMissingSource) {
			t.Errorf("Load error = %v, want ErrMissingSource", err)
		}
	})
}
