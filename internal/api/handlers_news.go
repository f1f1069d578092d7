package api

import (
	"net/http"
	"time"

	"github.com/RobinCoderZhao/quicknews/internal/rank"
)

// isoMillis matches the millisecond ISO-8601 timestamps clients already parse.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func (s *Server) handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondText(w, http.StatusOK, "Quick NewsGPT backend running with free RSS mode ✅")
	}
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.news.Snapshot()
		var updated string
		if !snap.UpdatedAt.IsZero() {
			updated = snap.UpdatedAt.UTC().Format(isoMillis)
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"uptime": s.uptime(),
			"feeds": map[string]interface{}{
				"updatedAt": updated,
				"items":     len(snap.Items),
			},
		})
	}
}

func (s *Server) handleNews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := s.news.Items(r.Context())
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"date":  s.now().UTC().Format(isoMillis),
			"items": rank.Top(items, s.opts.ListLimit),
		})
	}
}

func (s *Server) handleAsk() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		question := stringField(r, "question")
		if question == "" {
			respondError(w, http.StatusBadRequest, "Missing question")
			return
		}

		start := time.Now()
		results := rank.Rank(question, s.news.Items(r.Context()), s.opts.AskLimit)
		s.logger.Debug("ask answered", "query", question, "results", len(results), "duration", time.Since(start))

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"mode":    "free-rss",
			"query":   question,
			"results": results,
		})
	}
}
