package matching

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/studentbridge/jobmatch/internal/corpus"
	"github.com/studentbridge/jobmatch/internal/textnorm"
)

const (
	// DefaultTopN is the number of matches returned per student when the
	// caller does not override it.
	DefaultTopN = 10

	snippetMaxLen  = 150
	defaultCompany = "Unknown Company"
	defaultTitle   = "No Title"
)

// MatchResult is one ranked job for one student.
type MatchResult struct {
	Company string  `json:"company"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// Matcher ranks student profiles against a prepared matching session. The
// session's index and identity map are read-only, so a Matcher may serve
// concurrent Match calls.
type Matcher struct {
	session *Session
	topN    int
	logger  *slog.Logger
}

// NewMatcher creates a Matcher over a session. topN <= 0 selects
// DefaultTopN.
func NewMatcher(session *Session, topN int) *Matcher {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Matcher{
		session: session,
		topN:    topN,
		logger:  slog.Default().With("component", "matcher"),
	}
}

// Match ranks every student against the indexed corpus and returns the
// top-N matches keyed by display name (last write wins on collisions).
// Students with empty queries get an empty match list. Any unexpected fault
// aborts the whole batch; partial results are never returned.
func (m *Matcher) Match(ctx context.Context, students []Profile) (map[string][]MatchResult, error) {
	allMatches := make(map[string][]MatchResult, len(students))

	for _, student := range students {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := student.DisplayName()

		query := BuildQuery(student)
		if len(query) == 0 {
			allMatches[name] = []MatchResult{}
			continue
		}

		matches, err := m.rank(query)
		if err != nil {
			return nil, fmt.Errorf("matching student %q: %w", name, err)
		}
		allMatches[name] = matches

		m.logger.Debug("student matched",
			"student", name,
			"query_terms", len(query),
			"matches", len(matches),
		)
	}
	return allMatches, nil
}

// rank scores one query against the session index and assembles the top-N
// results with display metadata resolved from the original records.
func (m *Matcher) rank(query []string) ([]MatchResult, error) {
	scores := m.session.Index.Scores(query)

	type ranked struct {
		position int
		score    float64
	}
	order := make([]ranked, len(scores))
	for i, score := range scores {
		order[i] = ranked{position: m.session.IndexMap[i], score: score}
	}
	// Stable sort: among equal scores the document earlier in corpus order
	// wins.
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].score > order[j].score
	})

	limit := m.topN
	if limit > len(order) {
		limit = len(order)
	}
	matches := make([]MatchResult, 0, limit)
	for _, entry := range order[:limit] {
		if entry.position < 0 || entry.position >= len(m.session.Records) {
			return nil, fmt.Errorf("index map position %d out of range (%d records)",
				entry.position, len(m.session.Records))
		}
		record := m.session.Records[entry.position]

		company := record.Company()
		if company == "" {
			company = defaultCompany
		}
		title := record.Title()
		if title == "" {
			title = defaultTitle
		}

		matches = append(matches, MatchResult{
			Company: company,
			Title:   title,
			Score:   entry.score,
			Snippet: snippet(record.Description()),
		})
	}
	return matches, nil
}

// snippet extracts the visible description text and truncates it to 150
// characters, appending an ellipsis marker when truncation occurred.
func snippet(description string) string {
	text := textnorm.StripMarkup(description)
	runes := []rune(text)
	if len(runes) <= snippetMaxLen {
		return text
	}
	return string(runes[:snippetMaxLen]) + "..."
}

// Session is the shared-read state of one matching deployment: the built
// index, the identity map back to record positions, and the original
// records for metadata resolution. Immutable once constructed.
type Session struct {
	Index       Scorer
	IndexMap    []int
	Records     []corpus.JobRecord
	Fingerprint string
}

// Scorer is the slice of the BM25 index the matcher needs.
type Scorer interface {
	Scores(query []string) []float64
	DocCount() int
}
