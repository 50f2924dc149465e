// Package results persists match output for the downstream analysis step
// and returns a reference to where it was stored. Redis is the primary
// store; when it is unavailable the output is written to a local file.
package results

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/studentbridge/jobmatch/internal/matching"
	"github.com/studentbridge/jobmatch/pkg/redis"
)

const keyPrefix = "match-results:"

// Store saves match mappings and hands back an opaque reference string
// ("redis:<key>" or "file:<path>").
type Store struct {
	client *redis.Client
	dir    string
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore creates a Store. client may be nil, in which case every save
// goes to a file under dir.
func NewStore(client *redis.Client, dir string, ttl time.Duration) *Store {
	return &Store{
		client: client,
		dir:    dir,
		ttl:    ttl,
		logger: slog.Default().With("component", "result-store"),
	}
}

// Save persists the match mapping and returns its reference.
func (s *Store) Save(ctx context.Context, matches map[string][]matching.MatchResult) (string, error) {
	data, err := json.Marshal(matches)
	if err != nil {
		return "", fmt.Errorf("encoding match results: %w", err)
	}
	digest := blake3.Sum256(data)
	id := hex.EncodeToString(digest[:16])

	if s.client != nil {
		key := keyPrefix + id
		if err := s.client.Set(ctx, key, data, s.ttl); err == nil {
			s.logger.Debug("match results stored", "key", key, "bytes", len(data))
			return "redis:" + key, nil
		} else {
			s.logger.Warn("redis store failed, falling back to file", "error", err)
		}
	}
	return s.saveFile(id, data)
}

// Load retrieves a previously saved match mapping by its reference.
func (s *Store) Load(ctx context.Context, ref string) (map[string][]matching.MatchResult, error) {
	var data []byte
	switch {
	case len(ref) > 6 && ref[:6] == "redis:":
		if s.client == nil {
			return nil, fmt.Errorf("redis reference %q but no redis client configured", ref)
		}
		value, err := s.client.Get(ctx, ref[6:])
		if err != nil {
			return nil, fmt.Errorf("loading match results %s: %w", ref, err)
		}
		data = []byte(value)
	case len(ref) > 5 && ref[:5] == "file:":
		raw, err := os.ReadFile(ref[5:])
		if err != nil {
			return nil, fmt.Errorf("loading match results %s: %w", ref, err)
		}
		data = raw
	default:
		return nil, fmt.Errorf("unrecognized results reference %q", ref)
	}

	var matches map[string][]matching.MatchResult
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil, fmt.Errorf("decoding match results %s: %w", ref, err)
	}
	return matches, nil
}

func (s *Store) saveFile(id string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}
	path := filepath.Join(s.dir, "matches_"+id+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing match results: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("committing match results: %w", err)
	}
	s.logger.Debug("match results stored", "path", path, "bytes", len(data))
	return "file:" + path, nil
}
