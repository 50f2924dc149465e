package bm25

import (
	"math"
	"testing"
)

var testDocs = [][]string{
	{"data", "engineer", "python", "sql"},
	{"frontend", "developer", "react"},
	{"data", "scientist", "python", "statistics", "python"},
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestBuildStatistics(t *testing.T) {
	idx := Build(testDocs)

	if idx.DocCount() != 3 {
		t.Errorf("DocCount = %d, want 3", idx.DocCount())
	}
	if want := (4.0 + 3.0 + 5.0) / 3.0; !almostEqual(idx.AvgDocLength(), want) {
		t.Errorf("AvgDocLength = %v, want %v", idx.AvgDocLength(), want)
	}
	if idx.DocFreq("python") != 2 {
		t.Errorf("DocFreq(python) = %d, want 2", idx.DocFreq("python"))
	}
	if idx.DocFreq("react") != 1 {
		t.Errorf("DocFreq(react) = %d, want 1", idx.DocFreq("react"))
	}
	if idx.DocFreq("golang") != 0 {
		t.Errorf("DocFreq(golang) = %d, want 0", idx.DocFreq("golang"))
	}
}

func TestIDFNonNegative(t *testing.T) {
	// A term in every document gets the smallest IDF; the +1 smoothing
	// keeps even that weight above zero.
	docs := [][]string{
		{"common", "alpha"},
		{"common", "beta"},
		{"common", "gamma"},
	}
	idx := Build(docs)
	if idf := idx.IDF("common"); idf <= 0 {
		t.Errorf("IDF(common) = %v, want > 0", idf)
	}
	if idx.IDF("alpha") <= idx.IDF("common") {
		t.Error("rare term should have larger IDF than ubiquitous term")
	}
}

func TestScoresFormula(t *testing.T) {
	idx := Build(testDocs)
	scores := idx.Scores([]string{"python"})

	// Hand-computed: python appears in docs 0 (tf=1) and 2 (tf=2).
	n := 3.0
	df := 2.0
	idf := math.Log((n-df+0.5)/(df+0.5) + 1)
	avgdl := idx.AvgDocLength()

	norm0 := 1 - b + b*4.0/avgdl
	want0 := idf * 1 * (k1 + 1) / (1 + k1*norm0)
	norm2 := 1 - b + b*5.0/avgdl
	want2 := idf * 2 * (k1 + 1) / (2 + k1*norm2)

	if !almostEqual(scores[0], want0) {
		t.Errorf("scores[0] = %v, want %v", scores[0], want0)
	}
	if scores[1] != 0 {
		t.Errorf("scores[1] = %v, want 0", scores[1])
	}
	if !almostEqual(scores[2], want2) {
		t.Errorf("scores[2] = %v, want %v", scores[2], want2)
	}
}

func TestScoresUnknownTerms(t *testing.T) {
	idx := Build(testDocs)
	scores := idx.Scores([]string{"golang", "rust", "haskell"})
	for i, s := range scores {
		if s != 0 {
			t.Errorf("scores[%d] = %v, want 0 for out-of-corpus query", i, s)
		}
	}
}

func TestScoresQueryRepetitionInert(t *testing.T) {
	idx := Build(testDocs)
	once := idx.Scores([]string{"data", "python"})
	repeated := idx.Scores([]string{"data", "data", "python", "data", "python"})
	for i := range once {
		if once[i] != repeated[i] {
			t.Errorf("doc %d: repeated query scored %v, single occurrence %v", i, repeated[i], once[i])
		}
	}
}

func TestScoresDeterministic(t *testing.T) {
	idx := Build(testDocs)
	query := []string{"data", "engineer", "python", "react", "statistics"}
	first := idx.Scores(query)
	for run := 0; run < 10; run++ {
		again := idx.Scores(query)
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("run %d doc %d: score %v differs from first run %v", run, i, again[i], first[i])
			}
		}
	}
}

func TestScoresEmptyInputs(t *testing.T) {
	idx := Build(testDocs)
	if scores := idx.Scores(nil); len(scores) != 3 {
		t.Errorf("nil query: got %d scores, want 3", len(scores))
	}

	empty := Build(nil)
	if scores := empty.Scores([]string{"data"}); len(scores) != 0 {
		t.Errorf("empty index: got %d scores, want 0", len(scores))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	idx := Build(testDocs)
	restored := FromSnapshot(idx.Snapshot())

	if restored.DocCount() != idx.DocCount() {
		t.Errorf("restored DocCount = %d, want %d", restored.DocCount(), idx.DocCount())
	}
	if !almostEqual(restored.AvgDocLength(), idx.AvgDocLength()) {
		t.Errorf("restored AvgDocLength = %v, want %v", restored.AvgDocLength(), idx.AvgDocLength())
	}

	query := []string{"python", "react", "engineer"}
	orig := idx.Scores(query)
	rest := restored.Scores(query)
	for i := range orig {
		if orig[i] != rest[i] {
			t.Errorf("doc %d: restored score %v, original %v", i, rest[i], orig[i])
		}
	}
}
