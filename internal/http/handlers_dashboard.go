package http

import "net/http"

// handleDashboard serves the month rollup; year and month default to now.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	dashboard, err := s.deps.Dashboard.Get(r.Context(), ownerID(r), params.Year, params.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newDashboardResponse(dashboard)).Write(w)
}
