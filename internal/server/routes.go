package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/models"
)

// healthTimeout bounds the store probe behind /api/health.
const healthTimeout = 3 * time.Second

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Metadata refresh
	mux.HandleFunc("/api/refresh/status", s.handleRefreshStatus)
	mux.HandleFunc("/api/refresh", s.handleRefresh)

	// Search and classification
	mux.HandleFunc("/api/search/company", s.handleSearchCompany)
	mux.HandleFunc("/api/search/industry", s.handleSearchIndustry)
	mux.HandleFunc("/api/labels", s.handleLabels)
	mux.HandleFunc("/api/top", s.handleTopCompanies)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	running := s.app.RefreshService.Running()
	n, err := s.app.Store.Count(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Health check: metadata store unreachable")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":          "degraded",
			"store":           "unavailable",
			"error":           err.Error(),
			"refresh_running": running,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"store":           "ok",
		"metadata_rows":   n,
		"refresh_running": running,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

// handleRefresh handles POST /api/refresh by starting a background reconciliation.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	id, err := s.app.RefreshService.TriggerAsync(models.RefreshTriggerManual)
	if errors.Is(err, common.ErrRefreshInProgress) {
		WriteErrorWithCode(w, http.StatusConflict, "A metadata refresh is already running", "refresh_in_progress")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Metadata refresh could not start")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info().Str("run_id", id).Msg("Metadata refresh requested via HTTP")
	WriteJSON(w, http.StatusAccepted, map[string]string{
		"run_id": id,
		"status": models.RefreshStatusRunning,
	})
}

// handleRefreshStatus handles GET /api/refresh/status.
func (s *Server) handleRefreshStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running":  s.app.RefreshService.Running(),
		"last_run": s.app.RefreshService.LastRun(),
	})
}
