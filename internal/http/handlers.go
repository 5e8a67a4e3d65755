package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"zodiac/internal/core"
	"zodiac/internal/log"
	"zodiac/internal/middleware/trace"
	"zodiac/internal/services"
)

const (
	msgInvalidDate = "Invalid date. Please enter a valid month and day."
	msgNoMatch     = "Could not determine zodiac sign. Please check your date."
	msgBadRequest  = "Invalid request format"
	msgRateLimited = "Rate limit exceeded. Please try again later."
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady reports whether templates and the sign table are usable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	table := s.lookup.Table()
	if table.Len() == 0 {
		checks["sign_table"] = "failed: no signs loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		coverage := "ok"
		// A table with gaps still serves the dates it covers.
		if err := table.Verify(); err != nil {
			coverage = "degraded: " + err.Error()
		}
		checks["sign_table"] = map[string]any{
			"signs":    table.Len(),
			"coverage": coverage,
		}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}
	checks["events"] = map[string]any{
		"publishing": s.lookup.PublishingEnabled(),
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_errors_total HTTP responses by error class\n")
	fmt.Fprintf(w, "# TYPE http_errors_total counter\n")
	fmt.Fprintf(w, "http_errors_total{class=\"4xx\"} %d\n", traceMetrics.ClientErrors)
	fmt.Fprintf(w, "http_errors_total{class=\"5xx\"} %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_avg_microseconds Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP sign_lookups_total Successful lookups\n")
	fmt.Fprintf(w, "# TYPE sign_lookups_total counter\n")
	fmt.Fprintf(w, "sign_lookups_total %d\n", atomic.LoadInt64(&s.appMetrics.lookups))
	for _, sign := range s.lookup.Signs() {
		fmt.Fprintf(w, "sign_lookups_total{sign=%q} %d\n", sign.Name, s.appMetrics.signCount(sign.Name))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP sign_lookup_failures_total Failed lookups by reason\n")
	fmt.Fprintf(w, "# TYPE sign_lookup_failures_total counter\n")
	fmt.Fprintf(w, "sign_lookup_failures_total{reason=\"invalid_date\"} %d\n", atomic.LoadInt64(&s.appMetrics.invalidDates))
	fmt.Fprintf(w, "sign_lookup_failures_total{reason=\"no_match\"} %d\n\n", atomic.LoadInt64(&s.appMetrics.noMatches))

	dropped, failed := s.lookup.PublishFailures()
	fmt.Fprintf(w, "# HELP sign_events_lost_total Sign events not delivered to the broker\n")
	fmt.Fprintf(w, "# TYPE sign_events_lost_total counter\n")
	fmt.Fprintf(w, "sign_events_lost_total{reason=\"queue_full\"} %d\n", dropped)
	fmt.Fprintf(w, "sign_events_lost_total{reason=\"publish_failed\"} %d\n\n", failed)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldOperation, log.OpRender)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	data := struct {
		Months []monthOption
		Days   []dayOption
		Signs  []signRow
	}{
		Months: monthOptions(int(now.Month())),
		Days:   dayOptions(int(now.Month()), now.Day()),
		Signs:  signRows(s.lookup.Signs()),
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.logRenderError(r, "index.html", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleLookup answers the HTMX form post with a result partial. Accepts
// form-encoded or JSON bodies.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Parse body error",
			log.FieldError, err,
			log.FieldPath, r.URL.Path)
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	log.FromContext(r.Context()).DebugContext(r.Context(), "Lookup body parsed", "json", parser.IsJSON())

	params, err := ParseDateParams(parser.Get)
	if err != nil {
		s.lookupFailed(r, err)
		// Bad and impossible dates get the same message on the form.
		ErrorResponse(statusForError(err), msgInvalidDate).Write(w)
		return
	}

	sign, err := s.lookup.Lookup(r.Context(), params.Month, params.Day)
	if err != nil {
		s.lookupFailed(r, err)
		switch statusForError(err) {
		case http.StatusUnprocessableEntity:
			UnprocessableEntityError(msgInvalidDate).Write(w)
		case http.StatusNotFound:
			NotFoundError(msgNoMatch).Write(w)
		default:
			InternalServerError("Something went wrong").Write(w)
		}
		return
	}
	s.lookupSucceeded(r, params, sign)

	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "result.html", newResultView(sign)); err != nil {
		s.logRenderError(r, "result.html", err)
		InternalServerError("failed to render result").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerSignResolved(sign.Name, params.Month, params.Day).
		BodyHTML(buf.String()).
		Write(w)
}

// handleDayOptions returns the <option> list for a month's day select,
// keeping the current day when it still fits.
func (s *Server) handleDayOptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := parseMonthValue(sanitizeInput(q.Get("month")))
	if err != nil || core.MaxDay(month) == 0 {
		BadRequestError("invalid month").Write(w)
		return
	}
	selected, _ := parseDayValue(q.Get("day"))

	var buf bytes.Buffer
	for _, d := range dayOptions(month, selected) {
		if d.Selected {
			fmt.Fprintf(&buf, `<option value="%d" selected>%d</option>`, d.Value, d.Value)
		} else {
			fmt.Fprintf(&buf, `<option value="%d">%d</option>`, d.Value, d.Value)
		}
	}
	NewHTMXResponse().BodyHTML(buf.String()).Write(w)
}

// handleAPISign is the JSON form of a lookup.
func (s *Server) handleAPISign(w http.ResponseWriter, r *http.Request) {
	params, err := ParseQueryDate(r.URL.Query())
	if err != nil {
		s.lookupFailed(r, err)
		writeJSON(w, statusForError(err), errorJSON{Error: err.Error()})
		return
	}

	sign, err := s.lookup.Lookup(r.Context(), params.Month, params.Day)
	if err != nil {
		s.lookupFailed(r, err)
		status := statusForError(err)
		msg := err.Error()
		if status == http.StatusNotFound {
			msg = msgNoMatch
		}
		writeJSON(w, status, errorJSON{Error: msg})
		return
	}
	s.lookupSucceeded(r, params, sign)

	writeJSON(w, http.StatusOK, toSignJSON(sign))
}

// handleAPISigns lists the table in resolution order.
func (s *Server) handleAPISigns(w http.ResponseWriter, r *http.Request) {
	signs := s.lookup.Signs()
	out := make([]signJSON, 0, len(signs))
	for _, sign := range signs {
		out = append(out, toSignJSON(sign))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAPISignByName returns one sign, matched case-insensitively.
func (s *Server) handleAPISignByName(w http.ResponseWriter, r *http.Request) {
	sign, ok := s.lookup.Find(r.PathValue("name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorJSON{Error: "unknown sign"})
		return
	}
	writeJSON(w, http.StatusOK, toSignJSON(sign))
}

func (s *Server) lookupSucceeded(r *http.Request, params DateParams, sign core.Sign) {
	s.appMetrics.recordSign(sign.Name)
	log.NewStructuredLogger(log.FromContext(r.Context())).LogLookup(r.Context(), params.Month, params.Day, sign.Name)
}

func (s *Server) lookupFailed(r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNoMatch):
		atomic.AddInt64(&s.appMetrics.noMatches, 1)
	case services.IsUserError(err), errors.Is(err, ErrMissingParam), errors.Is(err, ErrMalformedParam):
		atomic.AddInt64(&s.appMetrics.invalidDates, 1)
		log.FromContext(r.Context()).DebugContext(r.Context(), "Rejected lookup input",
			log.FieldError, err,
			log.FieldOperation, log.OpValidate)
	}
}

// logRenderError reports a template failure on the server logger, tagged with
// the request ID.
func (s *Server) logRenderError(r *http.Request, name string, err error) {
	fields := log.NewFields().WithRequestID(trace.RequestID(r))
	fields["template"] = name
	log.NewStructuredLogger(s.logger).LogError(r.Context(), "Template execution failed", err, log.OpRender, fields)
}
