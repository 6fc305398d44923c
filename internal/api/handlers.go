package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Nurdvu1et/email-archiver/internal/scheduler"
	"github.com/Nurdvu1et/email-archiver/internal/store"
)

// StatsResponse represents the archive statistics.
type StatsResponse struct {
	TotalEmails     int64  `json:"total_emails"`
	TotalKeywords   int64  `json:"total_keywords"`
	DistinctSenders int64  `json:"distinct_senders"`
	LastProcessedAt string `json:"last_processed_at,omitempty"`
	DatabaseSize    int64  `json:"database_size_bytes"`
}

// SchedulerStatusResponse represents scheduler status.
type SchedulerStatusResponse struct {
	Running bool                  `json:"running"`
	Jobs    []scheduler.JobStatus `json:"jobs"`
}

// SearchResponse wraps search results with the query that produced
// them. The result set is the store's capped set, not a page.
type SearchResponse struct {
	Query   string               `json:"query"`
	Count   int                  `json:"count"`
	Results []store.SearchResult `json:"results"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

// handleStats returns archive statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats()
	if err != nil {
		s.logger.Error("failed to get stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve statistics")
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		TotalEmails:     stats.EmailCount,
		TotalKeywords:   stats.KeywordCount,
		DistinctSenders: stats.SenderCount,
		LastProcessedAt: stats.LastProcessedAt,
		DatabaseSize:    stats.DatabaseSize,
	})
}

// handleListEmails returns a paginated list of archived emails.
func (s *Server) handleListEmails(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	emails, total, err := s.store.ListArchived(offset, pageSize)
	if err != nil {
		s.logger.Error("failed to list emails", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve emails")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"emails":    emails,
	})
}

// handleGetEmail returns a single archived email by ID.
func (s *Server) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Email ID must be a number")
		return
	}

	email, err := s.store.GetArchived(id)
	if err != nil {
		s.logger.Error("failed to get email", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve email")
		return
	}
	if email == nil {
		writeError(w, http.StatusNotFound, "not_found", "Email not found")
		return
	}

	writeJSON(w, http.StatusOK, email)
}

// handleSearch searches the archive.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "Query parameter 'q' is required")
		return
	}

	results, err := s.store.SearchArchived(query)
	if err != nil {
		s.logger.Error("search failed", "query", query, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Search failed")
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   query,
		Count:   len(results),
		Results: results,
	})
}

// handleSchedulerStatus returns the scheduler status.
func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SchedulerStatusResponse{
		Running: s.scheduler.IsRunning(),
		Jobs:    s.scheduler.Status(),
	})
}

// handleTriggerRun starts an archive run outside the schedule.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.Trigger(s.jobName); err != nil {
		s.logger.Error("failed to trigger run", "job", s.jobName, "error", err)
		writeError(w, http.StatusConflict, "run_error", err.Error())
		return
	}

	s.logger.Info("archive run triggered via API", "job", s.jobName)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"message": "Archive run started",
	})
}
