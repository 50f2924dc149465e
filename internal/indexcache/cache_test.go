package indexcache

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/studentbridge/jobmatch/internal/bm25"
	"github.com/studentbridge/jobmatch/internal/corpus"
	apperrors "github.com/studentbridge/jobmatch/pkg/errors"
)

func testIndex(t *testing.T) (*bm25.Index, []int, string) {
	t.Helper()
	records := []corpus.JobRecord{
		{"title": "Data Engineer", "tagsAndSkills": "python,sql", "jobDescription": "build pipelines"},
		{"title": ""},
		{"title": "Frontend Developer", "tagsAndSkills": "react", "jobDescription": "ship features"},
	}
	docs, indexMap, err := corpus.Build(records)
	if err != nil {
		t.Fatalf("corpus.Build: %v", err)
	}
	return bm25.Build(docs), indexMap, corpus.Fingerprint(records)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	idx, indexMap, fp := testIndex(t)

	if err := store.Save("jobs", fp, idx, indexMap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, loadedMap, ok, err := store.Load("jobs", fp)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load reported a miss for a fresh artifact")
	}
	if loaded.DocCount() != idx.DocCount() {
		t.Errorf("loaded DocCount = %d, want %d", loaded.DocCount(), idx.DocCount())
	}
	if len(loadedMap) != len(indexMap) {
		t.Fatalf("loaded map length = %d, want %d", len(loadedMap), len(indexMap))
	}
	for i := range indexMap {
		if loadedMap[i] != indexMap[i] {
			t.Errorf("loadedMap[%d] = %d, want %d", i, loadedMap[i], indexMap[i])
		}
	}

	query := []string{"python", "react"}
	orig := idx.Scores(query)
	rest := loaded.Scores(query)
	for i := range orig {
		if orig[i] != rest[i] {
			t.Errorf("doc %d: loaded score %v, original %v", i, rest[i], orig[i])
		}
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	store := NewStore(t.TempDir())
	_, _, fp := testIndex(t)

	_, _, ok, err := store.Load("absent", fp)
	if err != nil {
		t.Fatalf("Load of absent artifact returned error: %v", err)
	}
	if ok {
		t.Error("Load reported a hit for an absent artifact")
	}
}

func TestLoadStaleFingerprintIsCleanMiss(t *testing.T) {
	store := NewStore(t.TempDir())
	idx, indexMap, fp := testIndex(t)
	if err := store.Save("jobs", fp, idx, indexMap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other := corpus.Fingerprint([]corpus.JobRecord{{"title": "different corpus"}})
	_, _, ok, err := store.Load("jobs", other)
	if err != nil {
		t.Fatalf("stale load returned error: %v", err)
	}
	if ok {
		t.Error("Load reported a hit for a stale fingerprint")
	}
}

func TestLoadCorruptArtifact(t *testing.T) {
	corruptions := []struct {
		name   string
		mangle func(data []byte) []byte
	}{
		{
			name:   "truncated header",
			mangle: func(data []byte) []byte { return data[:10] },
		},
		{
			name: "bad magic",
			mangle: func(data []byte) []byte {
				data[0] ^= 0xFF
				return data
			},
		},
		{
			name: "unsupported version",
			mangle: func(data []byte) []byte {
				data[4] = 0xFE
				return data
			},
		},
		{
			name: "payload checksum mismatch",
			mangle: func(data []byte) []byte {
				data[len(data)-1] ^= 0xFF
				return data
			},
		},
		{
			name:   "payload size mismatch",
			mangle: func(data []byte) []byte { return data[:len(data)-4] },
		},
	}

	for _, tt := range corruptions {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			store := NewStore(dir)
			idx, indexMap, fp := testIndex(t)
			if err := store.Save("jobs", fp, idx, indexMap); err != nil {
				t.Fatalf("Save: %v", err)
			}

			path := filepath.Join(dir, "jobs"+fileExt)
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, tt.mangle(data), 0o644); err != nil {
				t.Fatal(err)
			}

			_, _, ok, err := store.Load("jobs", fp)
			if ok {
				t.Error("Load reported a hit for a corrupt artifact")
			}
			if !stderrors.Is(err, apperrors.ErrCacheCorrupt) {
				t.Errorf("Load error = %v, want ErrCacheCorrupt", err)
			}
		})
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	idx, indexMap, fp := testIndex(t)
	if err := store.Save("jobs", fp, idx, indexMap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file %s left behind after commit", e.Name())
		}
	}
}

func TestSaveRejectsBadFingerprint(t *testing.T) {
	store := NewStore(t.TempDir())
	idx, indexMap, _ := testIndex(t)
	if err := store.Save("jobs", "not-hex", idx, indexMap); err == nil {
		t.Error("Save accepted a malformed fingerprint")
	}
}
