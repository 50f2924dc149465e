// Package bm25 implements BM25 (Okapi variant) relevance scoring over a
// token corpus. An Index is built once, is read-only afterwards, and may be
// scored against concurrently.
package bm25

import "math"

// Standard BM25 constants: k1 saturates document term frequency, b controls
// document-length normalization.
const (
	k1 = 1.5
	b  = 0.75
)

// Index holds the precomputed corpus statistics BM25 scoring needs: total
// document count, average document length, per-document lengths, sparse
// per-document term counts, per-term document frequency, and the smoothed
// inverse document frequency derived from it.
type Index struct {
	docCount   int
	avgDocLen  float64
	docLens    []int
	termCounts []map[string]int
	docFreq    map[string]int
	idf        map[string]float64
}

// Build constructs an Index from the token corpus. Documents must be
// non-empty; the corpus builder guarantees that.
func Build(docs [][]string) *Index {
	idx := &Index{
		docCount:   len(docs),
		docLens:    make([]int, len(docs)),
		termCounts: make([]map[string]int, len(docs)),
		docFreq:    make(map[string]int),
	}

	var totalLen int
	for i, doc := range docs {
		counts := make(map[string]int, len(doc))
		for _, term := range doc {
			counts[term]++
		}
		idx.termCounts[i] = counts
		idx.docLens[i] = len(doc)
		totalLen += len(doc)
		for term := range counts {
			idx.docFreq[term]++
		}
	}
	if idx.docCount > 0 {
		idx.avgDocLen = float64(totalLen) / float64(idx.docCount)
	}
	idx.idf = computeIDF(idx.docFreq, idx.docCount)
	return idx
}

// computeIDF returns the smoothed inverse document frequency per term:
// ln((N - df + 0.5)/(df + 0.5) + 1). The "+1" keeps IDF non-negative for
// every document frequency, so single-occurrence terms never carry negative
// weight.
func computeIDF(docFreq map[string]int, docCount int) map[string]float64 {
	idf := make(map[string]float64, len(docFreq))
	n := float64(docCount)
	for term, df := range docFreq {
		d := float64(df)
		idf[term] = math.Log((n-d+0.5)/(d+0.5) + 1)
	}
	return idf
}

// Scores computes the BM25 score of every indexed document against the
// query, returned in build order. Each distinct query term contributes
//
//	idf(t) * tf(t,d) * (k1+1) / (tf(t,d) + k1*(1 - b + b*|d|/avgdl))
//
// Terms absent from the corpus contribute zero, and repeating a term in the
// query has no effect beyond its presence: scoring is a sum over the set of
// distinct query terms, weighted only by in-document term frequency.
func (idx *Index) Scores(query []string) []float64 {
	scores := make([]float64, idx.docCount)
	if idx.docCount == 0 {
		return scores
	}
	seen := make(map[string]struct{}, len(query))
	for _, term := range query {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		termIDF, known := idx.idf[term]
		if !known {
			continue
		}
		for d := 0; d < idx.docCount; d++ {
			tf := idx.termCounts[d][term]
			if tf == 0 {
				continue
			}
			freq := float64(tf)
			lengthNorm := 1 - b + b*float64(idx.docLens[d])/idx.avgDocLen
			scores[d] += termIDF * freq * (k1 + 1) / (freq + k1*lengthNorm)
		}
	}
	return scores
}

// DocCount returns the number of indexed documents.
func (idx *Index) DocCount() int { return idx.docCount }

// AvgDocLength returns the corpus mean document length in tokens.
func (idx *Index) AvgDocLength() float64 { return idx.avgDocLen }

// DocFreq returns the number of documents containing term.
func (idx *Index) DocFreq(term string) int { return idx.docFreq[term] }

// IDF returns the smoothed inverse document frequency of term, zero for
// terms absent from the corpus.
func (idx *Index) IDF(term string) float64 { return idx.idf[term] }

// Snapshot is the serializable form of an Index. IDF and the average
// document length are derived deterministically on restore, so they are not
// stored.
type Snapshot struct {
	DocCount   int              `cbor:"doc_count"`
	DocLens    []int            `cbor:"doc_lens"`
	DocFreq    map[string]int   `cbor:"doc_freq"`
	TermCounts []map[string]int `cbor:"term_counts"`
}

// Snapshot captures the index state for persistence.
func (idx *Index) Snapshot() Snapshot {
	return Snapshot{
		DocCount:   idx.docCount,
		DocLens:    idx.docLens,
		DocFreq:    idx.docFreq,
		TermCounts: idx.termCounts,
	}
}

// FromSnapshot reconstructs an Index. The restored index scores identically
// to the one that produced the snapshot.
func FromSnapshot(s Snapshot) *Index {
	idx := &Index{
		docCount:   s.DocCount,
		docLens:    s.DocLens,
		termCounts: s.TermCounts,
		docFreq:    s.DocFreq,
	}
	var totalLen int
	for _, l := range idx.docLens {
		totalLen += l
	}
	if idx.docCount > 0 {
		idx.avgDocLen = float64(totalLen) / float64(idx.docCount)
	}
	idx.idf = computeIDF(idx.docFreq, idx.docCount)
	return idx
}
