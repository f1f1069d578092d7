package api

import (
	"errors"
	"net/http"

	"github.com/RobinCoderZhao/quicknews/internal/ledger"
	"github.com/RobinCoderZhao/quicknews/internal/tracking"
)

func (s *Server) handleRedirect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		target, err := s.tracker.Dereference(r.Context(), id, r.URL.Query().Get("to"))
		if errors.Is(err, tracking.ErrMissingTarget) {
			respondText(w, http.StatusBadRequest, "Missing redirect target")
			return
		}
		if err != nil {
			s.logger.Error("failed to record click", "id", id, "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to record click")
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

func (s *Server) handleCreateLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := stringField(r, "target")
		link, err := s.tracker.CreateLink(r.Context(), s.baseURL(r), target)
		if errors.Is(err, tracking.ErrMissingTarget) {
			respondError(w, http.StatusBadRequest, "Missing target URL")
			return
		}
		if err != nil {
			s.logger.Error("failed to create link", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to create link")
			return
		}
		respondJSON(w, http.StatusOK, link)
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := s.store.Read(r.Context())
		if l == nil {
			l = ledger.Ledger{}
		}
		if s.opts.IncludeUptime {
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"uptime": s.uptime(),
				"stats":  l,
			})
			return
		}
		respondJSON(w, http.StatusOK, l)
	}
}

func (s *Server) handleSendSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := s.summary.Send(r.Context())
		if err != nil {
			s.logger.Error("summary send failed", "date", sum.Date, "error", err)
			respondJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "Failed to send email",
				"details": err.Error(),
			})
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"total":  sum.Total,
		})
	}
}
