package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/services/classify"
)

// writeServiceError maps a service failure onto an HTTP status.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, common.ErrInvalidArgument):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrStoreUnavailable):
		s.logger.Error().Err(err).Msg(msg)
		WriteError(w, http.StatusServiceUnavailable, "Metadata store unavailable")
	default:
		s.logger.Error().Err(err).Msg(msg)
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleSearchCompany handles GET /api/search/company?q=
func (s *Server) handleSearchCompany(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	q, ok := RequireQuery(w, r, "q")
	if !ok {
		return
	}

	matches, err := s.app.SearchService.SearchCompanies(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, err, "Company search failed")
		return
	}
	WriteJSON(w, http.StatusOK, matches)
}

// handleSearchIndustry handles GET /api/search/industry?q=
func (s *Server) handleSearchIndustry(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	q, ok := RequireQuery(w, r, "q")
	if !ok {
		return
	}

	labels, err := s.app.SearchService.SearchIndustries(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, err, "Industry search failed")
		return
	}
	WriteJSON(w, http.StatusOK, labels)
}

// handleLabels handles GET /api/labels
func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	labels, err := s.app.ClassifyService.ListLabels(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "Listing classification labels failed")
		return
	}
	WriteJSON(w, http.StatusOK, labels)
}

// handleTopCompanies handles GET /api/top?label=..&label=..&n=
func (s *Server) handleTopCompanies(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var labels []string
	for _, l := range r.URL.Query()["label"] {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		WriteError(w, http.StatusBadRequest, "At least one 'label' query parameter is required")
		return
	}
	n, ok := QueryInt(w, r, "n", classify.DefaultTopN)
	if !ok {
		return
	}

	companies, err := s.app.ClassifyService.TopCompaniesIn(r.Context(), labels, n)
	if err != nil {
		s.writeServiceError(w, err, "Top companies lookup failed")
		return
	}
	WriteJSON(w, http.StatusOK, companies)
}
