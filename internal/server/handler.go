// Package server hosts the HTTP request layer in front of the matching
// engine: payload decoding, the match orchestration call, result
// persistence, downstream analysis, and audit recording.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/studentbridge/jobmatch/internal/analysis"
	"github.com/studentbridge/jobmatch/internal/audit"
	"github.com/studentbridge/jobmatch/internal/matching"
	"github.com/studentbridge/jobmatch/internal/results"
	"github.com/studentbridge/jobmatch/pkg/errors"
	"github.com/studentbridge/jobmatch/pkg/logger"
	"github.com/studentbridge/jobmatch/pkg/metrics"
)

// MatchRequest is the inbound payload: a batch of student records plus a
// free-text interests string shared by the batch.
type MatchRequest struct {
	InternName string           `json:"intern_name"`
	Students   []map[string]any `json:"students"`
	Interests  string           `json:"interests"`
}

// MatchResponse mirrors the original service contract: a success flag and
// the downstream analysis text, plus a reference to the stored results.
type MatchResponse struct {
	Success     bool                              `json:"success"`
	LLMAnalysis string                            `json:"llm_analysis"`
	ResultsRef  string                            `json:"results_ref,omitempty"`
	Matches     map[string][]matching.MatchResult `json:"matches,omitempty"`
}

// Handler serves the match endpoint.
type Handler struct {
	provider    *matching.Provider
	analyzer    analysis.Analyzer
	resultStore *results.Store
	recorder    *audit.Recorder
	stats       *metrics.Metrics
	topN        int
	maxStudents int
	logger      *slog.Logger
}

// New creates a Handler. resultStore, recorder, and stats may be nil.
func New(
	provider *matching.Provider,
	analyzer analysis.Analyzer,
	resultStore *results.Store,
	recorder *audit.Recorder,
	stats *metrics.Metrics,
	topN, maxStudents int,
) *Handler {
	return &Handler{
		provider:    provider,
		analyzer:    analyzer,
		resultStore: resultStore,
		recorder:    recorder,
		stats:       stats,
		topN:        topN,
		maxStudents: maxStudents,
		logger:      slog.Default().With("component", "match-handler"),
	}
}

// Match handles POST /api/v1/match. Matching faults abort the whole batch
// and surface as a 500 with the fault message; partial results are never
// returned.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}
	if len(req.Students) == 0 {
		h.writeError(w, http.StatusBadRequest, "students list is empty")
		return
	}
	if h.maxStudents > 0 && len(req.Students) > h.maxStudents {
		h.writeError(w, http.StatusBadRequest, "students list exceeds batch limit")
		return
	}

	injectInterests(req.Students, req.Interests)
	students := decodeProfiles(req.Students, log)

	session, err := h.provider.Session(ctx)
	if err != nil {
		log.Error("matching session unavailable", "error", err)
		h.writeError(w, errors.HTTPStatusCode(err), err.Error())
		h.observeRun(start, "error", 0)
		return
	}

	matcher := matching.NewMatcher(session, h.topN)
	matches, err := matcher.Match(ctx, students)
	if err != nil {
		log.Error("match run failed", "error", err)
		h.writeError(w, errors.HTTPStatusCode(err), err.Error())
		h.observeRun(start, "error", len(students))
		return
	}

	var resultsRef string
	if h.resultStore != nil {
		if ref, err := h.resultStore.Save(ctx, matches); err != nil {
			log.Warn("storing match results failed", "error", err)
		} else {
			resultsRef = ref
		}
	}

	analysisText, err := h.analyzer.Analyze(ctx, students, matches)
	if err != nil {
		log.Error("match analysis failed", "error", err)
		h.writeError(w, errors.HTTPStatusCode(err), err.Error())
		h.observeRun(start, "error", len(students))
		return
	}

	if h.recorder != nil {
		h.recorder.Record(ctx, audit.Event{
			Timestamp:      time.Now().UTC(),
			RequestID:      logger.RequestID(ctx),
			InternName:     req.InternName,
			StudentProfile: students,
			Matches:        matches,
			Analysis:       analysisText,
			ResultsRef:     resultsRef,
		})
	}

	log.Info("match run completed",
		"intern", req.InternName,
		"students", len(students),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.observeRun(start, "ok", len(students))
	if h.stats != nil {
		for _, list := range matches {
			h.stats.MatchResultsCount.Observe(float64(len(list)))
		}
	}

	h.writeJSON(w, http.StatusOK, MatchResponse{
		Success:     true,
		LLMAnalysis: analysisText,
		ResultsRef:  resultsRef,
		Matches:     matches,
	})
}

func (h *Handler) observeRun(start time.Time, outcome string, students int) {
	if h.stats == nil {
		return
	}
	h.stats.MatchRunsTotal.WithLabelValues(outcome).Inc()
	h.stats.MatchRunDuration.Observe(time.Since(start).Seconds())
	h.stats.StudentsMatched.Add(float64(students))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("writing response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
