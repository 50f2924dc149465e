// Package analysis defines the boundary to the downstream step that turns
// ranked matches into natural-language commentary. The analysis itself is an
// external collaborator; this package only fixes the data it receives.
package analysis

import (
	"context"

	"github.com/studentbridge/jobmatch/internal/matching"
)

// Analyzer consumes ranked matches and produces commentary text for the
// response payload. A failed analysis fails the whole match request.
type Analyzer interface {
	Analyze(ctx context.Context, students []matching.Profile, matches map[string][]matching.MatchResult) (string, error)
}

// Disabled is the no-analysis implementation wired when no downstream
// analyzer is configured.
type Disabled struct{}

// Analyze returns empty commentary.
func (Disabled) Analyze(ctx context.Context, students []matching.Profile, matches map[string][]matching.MatchResult) (string, error) {
	return "", nil
}
