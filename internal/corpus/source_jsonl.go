package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/studentbridge/jobmatch/pkg/errors"
)

// Source supplies the raw job records a matching session indexes.
type Source interface {
	Load(ctx context.Context) ([]JobRecord, error)
}

// JSONLSource reads job records from newline-delimited JSON files.
type JSONLSource struct {
	paths  []string
	logger *slog.Logger
}

// NewJSONLSource creates a source over the given file paths.
func NewJSONLSource(paths []string) *JSONLSource {
	return &JSONLSource{
		paths:  paths,
		logger: slog.Default().With("component", "jsonl-source"),
	}
}

// Load reads every configured file in order. Blank lines are skipped;
// malformed lines fail with file and line context. A missing file is
// reported as ErrMissingSource.
func (s *JSONLSource) Load(ctx context.Context) ([]JobRecord, error) {
	if len(s.paths) == 0 {
		return nil, fmt.Errorf("%w: no jsonl paths configured", errors.ErrMissingSource)
	}
	var records []JobRecord
	for _, path := range s.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := s.loadFile(path)
		if err != nil {
			return nil, err
		}
		records = append(records, loaded...)
	}
	s.logger.Info("job records loaded", "files", len(s.paths), "records", len(records))
	return records, nil
}

func (s *JSONLSource) loadFile(path string) ([]JobRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: job file %s", errors.ErrMissingSource, path)
		}
		return nil, fmt.Errorf("opening job file %s: %w", path, err)
	}
	defer f.Close()

	var records []JobRecord
	scanner := bufio.NewScanner(f)
	// Descriptions can be large HTML blobs; default token size is too small.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec JobRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("invalid JSON in %s at line %d: %w", path, lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading job file %s: %w", path, err)
	}
	return records, nil
}
