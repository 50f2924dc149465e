package matching

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/studentbridge/jobmatch/internal/bm25"
	"github.com/studentbridge/jobmatch/internal/corpus"
	"github.com/studentbridge/jobmatch/internal/indexcache"
	"github.com/studentbridge/jobmatch/pkg/metrics"
)

// Provider owns the shared matching session: it loads the corpus, builds or
// cache-loads the BM25 index exactly once per cache key, and hands out the
// immutable Session to concurrent match requests. Build-or-load is
// serialized through a singleflight group so racing first requests neither
// rebuild twice nor write a torn artifact.
type Provider struct {
	source corpus.Source
	cache  *indexcache.Store
	key    string
	stats  *metrics.Metrics

	group  singleflight.Group
	mu     sync.RWMutex
	ready  *Session
	logger *slog.Logger
}

// NewProvider creates a Provider. cache and stats may be nil (no
// persistence, no metrics).
func NewProvider(source corpus.Source, cache *indexcache.Store, key string, stats *metrics.Metrics) *Provider {
	return &Provider{
		source: source,
		cache:  cache,
		key:    key,
		stats:  stats,
		logger: slog.Default().With("component", "index-provider"),
	}
}

// Session returns the shared matching session, building or loading it on
// first use. Concurrent callers share a single build.
func (p *Provider) Session(ctx context.Context) (*Session, error) {
	p.mu.RLock()
	session := p.ready
	p.mu.RUnlock()
	if session != nil {
		return session, nil
	}

	value, err, _ := p.group.Do(p.key, func() (any, error) {
		p.mu.RLock()
		existing := p.ready
		p.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}
		built, err := p.buildOrLoad(ctx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.ready = built
		p.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*Session), nil
}

// Ready reports whether a session has been built, without triggering a
// build. Used by readiness checks.
func (p *Provider) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready != nil
}

func (p *Provider) buildOrLoad(ctx context.Context) (*Session, error) {
	start := time.Now()

	records, err := p.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	fingerprint := corpus.Fingerprint(records)

	if p.cache != nil {
		idx, indexMap, ok, err := p.cache.Load(p.key, fingerprint)
		if err != nil {
			// Corruption is a miss, never served as data.
			p.logger.Warn("index cache invalid, rebuilding", "error", err)
		}
		if ok {
			p.observeBuild(start, true, idx.DocCount())
			return &Session{
				Index:       idx,
				IndexMap:    indexMap,
				Records:     records,
				Fingerprint: fingerprint,
			}, nil
		}
	}

	docs, indexMap, err := corpus.Build(records)
	if err != nil {
		return nil, err
	}
	idx := bm25.Build(docs)

	if p.cache != nil {
		if err := p.cache.Save(p.key, fingerprint, idx, indexMap); err != nil {
			// The built index is still good; persistence is an optimization.
			p.logger.Error("saving index cache failed", "error", err)
		}
	}

	p.observeBuild(start, false, idx.DocCount())
	return &Session{
		Index:       idx,
		IndexMap:    indexMap,
		Records:     records,
		Fingerprint: fingerprint,
	}, nil
}

func (p *Provider) observeBuild(start time.Time, cacheHit bool, docCount int) {
	elapsed := time.Since(start)
	p.logger.Info("matching session ready",
		"cache_hit", cacheHit,
		"documents", docCount,
		"elapsed", elapsed,
	)
	if p.stats == nil {
		return
	}
	p.stats.IndexBuildSeconds.Observe(elapsed.Seconds())
	p.stats.IndexedDocuments.Set(float64(docCount))
	if cacheHit {
		p.stats.IndexCacheHitsTotal.Inc()
	} else {
		p.stats.IndexCacheMissTotal.Inc()
	}
}
