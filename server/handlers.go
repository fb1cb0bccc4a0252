package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/etnz/pit/date"
	"github.com/etnz/pit/renderer"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"service":  "pit",
		"database": s.store.Path(),
	})
}

// reportParams reads the optional date and currency query parameters.
func (s *Server) reportParams(r *http.Request) (date.Date, string, error) {
	on := s.cfg.Today()
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := date.Parse(v)
		if err != nil {
			return on, "", err
		}
		on = d
	}
	return on, r.URL.Query().Get("currency"), nil
}

// handleHoldingsReport renders the holdings report as an HTML page.
func (s *Server) handleHoldingsReport(w http.ResponseWriter, r *http.Request) {
	on, currency, err := s.reportParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.holdings(r.Context(), on, currency)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	page, err := renderer.HTML("Holdings", renderer.HoldingsMarkdown(report))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

// handleAllocationChart draws the allocation by asset type.
func (s *Server) handleAllocationChart(w http.ResponseWriter, r *http.Request) {
	on, currency, err := s.reportParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.holdings(r.Context(), on, currency)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	alloc := report.Allocation()
	if len(alloc) == 0 {
		s.writeError(w, http.StatusNotFound, "no holdings to chart")
		return
	}
	var buf bytes.Buffer
	if err := renderer.AllocationChart(&buf, alloc, renderer.SVG); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, failure{Error: message})
}
