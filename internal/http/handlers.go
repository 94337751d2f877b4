package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	if s.deps.Store == nil {
		checks["database"] = "not_configured"
	} else if err := s.deps.Store.Ping(ctx); err != nil {
		checks["database"] = "failed: " + err.Error()
	}

	if checks["database"] != "ok" {
		s.logger.WarnContext(ctx, "Readiness check failed", "checks", checks)
		NewResponse().
			Status(http.StatusServiceUnavailable).
			Error("not ready: database " + checks["database"]).
			Write(w)
		return
	}
	OK(map[string]any{"status": "ready", "checks": checks}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	traceMetrics := s.trace.GetMetrics()
	apiLimit := s.apiLimiter.GetMetrics()
	loginLimit := s.loginLimiter.GetMetrics()
	authMetrics := s.authMW.GetMetrics()

	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_client_errors_total", "counter", "Responses with a 4xx status", traceMetrics.ClientErrors)
	writeMetric(w, "http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	writeMetric(w, "http_response_time_avg_ms", "gauge", "Mean response time in milliseconds", traceMetrics.AverageResponseTime().Milliseconds())

	fmt.Fprintf(w, "# HELP rate_limit_rejected_total Requests rejected by a rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_rejected_total counter\n")
	fmt.Fprintf(w, "rate_limit_rejected_total{limiter=\"api\"} %d\n", apiLimit.Rejected)
	fmt.Fprintf(w, "rate_limit_rejected_total{limiter=\"login\"} %d\n\n", loginLimit.Rejected)
	writeMetric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", apiLimit.ClientCount+loginLimit.ClientCount)

	writeMetric(w, "auth_rejected_total", "counter", "Requests rejected for a missing or invalid token", authMetrics.Rejected)
	writeMetric(w, "suspicious_requests_total", "counter", "Total suspicious requests detected", s.detector.GetMetrics().SuspiciousRequests)

	if s.deps.Transactions != nil {
		ledger := s.deps.Transactions.GetMetrics()
		fmt.Fprintf(w, "# HELP ledger_transactions_total Transaction writes by kind\n")
		fmt.Fprintf(w, "# TYPE ledger_transactions_total counter\n")
		fmt.Fprintf(w, "ledger_transactions_total{op=\"created\"} %d\n", ledger.Created)
		fmt.Fprintf(w, "ledger_transactions_total{op=\"updated\"} %d\n", ledger.Updated)
		fmt.Fprintf(w, "ledger_transactions_total{op=\"deleted\"} %d\n\n", ledger.Deleted)
	}
	if s.deps.Projector != nil {
		p := s.deps.Projector.GetMetrics()
		writeMetric(w, "balance_projections_total", "counter", "Account balance projections written", p.Projections)
		writeMetric(w, "balance_projection_failures_total", "counter", "Account balance projections that failed", p.Failures)
	}
	if s.deps.UserCache != nil {
		c := s.deps.UserCache.GetStats()
		writeMetric(w, "cache_hits_total", "counter", "Total cache hits", c.Hits)
		writeMetric(w, "cache_misses_total", "counter", "Total cache misses", c.Misses)
		writeMetric(w, "cache_entries", "gauge", "Current cache entries", int64(c.Size))
	}

	writeMetric(w, "uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.started).Seconds()))
}

func writeMetric(w io.Writer, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}
