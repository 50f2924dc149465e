package corpus

import (
	"log/slog"
	"strings"

	"github.com/studentbridge/jobmatch/internal/textnorm"
	"github.com/studentbridge/jobmatch/pkg/errors"
)

// Build converts raw job records into the token corpus and its identity map.
//
// For each record, in input order, it concatenates the title, the
// tags-and-skills field (commas replaced by spaces), and the markup-stripped
// description, then normalizes the combined text. Records that yield no
// tokens are silently skipped. indexMap[i] holds the original position of
// the record behind docs[i]; its values are strictly increasing.
//
// Returns ErrEmptyCorpus when no record produces a usable document.
func Build(records []JobRecord) (docs [][]string, indexMap []int, err error) {
	docs = make([][]string, 0, len(records))
	indexMap = make([]int, 0, len(records))

	for i, rec := range records {
		tags := strings.ReplaceAll(rec.Tags(), ",", " ")
		plain := textnorm.StripMarkup(rec.Description())
		combined := joinFields(rec.Title(), tags, plain)
		if combined == "" {
			continue
		}
		tokens := textnorm.Tokens(combined)
		if len(tokens) == 0 {
			continue
		}
		docs = append(docs, tokens)
		indexMap = append(indexMap, i)
	}

	if len(docs) == 0 {
		return nil, nil, errors.ErrEmptyCorpus
	}

	slog.Default().With("component", "corpus-builder").Info("corpus built",
		"records", len(records),
		"documents", len(docs),
		"skipped", len(records)-len(docs),
	)
	return docs, indexMap, nil
}
