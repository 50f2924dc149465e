package matching

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/studentbridge/jobmatch/internal/corpus"
	"github.com/studentbridge/jobmatch/internal/indexcache"
)

type countingSource struct {
	records []corpus.JobRecord
	err     error
	loads   atomic.Int64
}

func (s *countingSource) Load(ctx context.Context) ([]corpus.JobRecord, error) {
	s.loads.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func TestProviderBuildsOnce(t *testing.T) {
	source := &countingSource{records: testRecords}
	provider := NewProvider(source, nil, "jobs", nil)

	if provider.Ready() {
		t.Error("provider ready before first Session call")
	}

	const callers = 16
	sessions := make([]*Session, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := provider.Session(context.Background())
			if err != nil {
				t.Errorf("Session: %v", err)
				return
			}
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("concurrent callers got different sessions")
		}
	}
	if loads := source.loads.Load(); loads != 1 {
		t.Errorf("source loaded %d times, want 1", loads)
	}
	if !provider.Ready() {
		t.Error("provider not ready after build")
	}
}

func TestProviderPropagatesSourceError(t *testing.T) {
	wantErr := errors.New("source down")
	provider := NewProvider(&countingSource{err: wantErr}, nil, "jobs", nil)

	if _, err := provider.Session(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Session error = %v, want %v", err, wantErr)
	}
	if provider.Ready() {
		t.Error("provider ready after failed build")
	}

	// A failed build must not be cached; the next call retries.
	if _, err := provider.Session(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("retry error = %v, want %v", err, wantErr)
	}
}

func TestProviderWarmStartFromCache(t *testing.T) {
	store := indexcache.NewStore(t.TempDir())
	source := &countingSource{records: testRecords}

	first := NewProvider(source, store, "jobs", nil)
	warm, err := first.Session(context.Background())
	if err != nil {
		t.Fatalf("first Session: %v", err)
	}

	// A fresh provider over the same cache directory loads the persisted
	// artifact instead of rebuilding, and scores identically.
	second := NewProvider(&countingSource{records: testRecords}, store, "jobs", nil)
	cached, err := second.Session(context.Background())
	if err != nil {
		t.Fatalf("second Session: %v", err)
	}

	query := []string{"python", "react"}
	built := warm.Index.Scores(query)
	restored := cached.Index.Scores(query)
	for i := range built {
		if built[i] != restored[i] {
			t.Errorf("doc %d: cached score %v, built %v", i, restored[i], built[i])
		}
	}
	if cached.Fingerprint != warm.Fingerprint {
		t.Errorf("fingerprint mismatch: %s vs %s", cached.Fingerprint, warm.Fingerprint)
	}
}

func TestProviderRebuildsOnChangedCorpus(t *testing.T) {
	store := indexcache.NewStore(t.TempDir())

	first := NewProvider(&countingSource{records: testRecords}, store, "jobs", nil)
	if _, err := first.Session(context.Background()); err != nil {
		t.Fatalf("first Session: %v", err)
	}

	changed := append([]corpus.JobRecord{}, testRecords...)
	changed = append(changed, corpus.JobRecord{"title": "Platform Engineer", "companyName": "Hooli"})

	second := NewProvider(&countingSource{records: changed}, store, "jobs", nil)
	session, err := second.Session(context.Background())
	if err != nil {
		t.Fatalf("second Session: %v", err)
	}
	if session.Index.DocCount() != 4 {
		t.Errorf("DocCount = %d, want 4 after corpus change", session.Index.DocCount())
	}
}
