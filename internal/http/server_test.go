package http

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"zodiac/internal/core"
	"zodiac/internal/log"
	"zodiac/internal/services"
)

func newTestServer(t *testing.T, table core.Table, opts Options) *Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Output: &bytes.Buffer{}})
	}
	srv := NewServer(":0", services.NewLookupService(table, nil, opts.Logger), opts)
	t.Cleanup(func() { srv.rateLimiter.Stop() })
	return srv
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, core.DefaultTable(), Options{})

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Zodiac Sign Finder", "Capricorn", "Dec 22 - Jan 19", `name="month"`, "February"} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers not applied")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request ID not set")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}

	rr = do(srv, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown path status=%d", rr.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t, core.DefaultTable(), Options{})
	rr := do(srv, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("static status=%d", rr.Code)
	}
	if rr.Header().Get("Cache-Control") != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", rr.Header().Get("Cache-Control"))
	}
}

func TestLookupForm(t *testing.T) {
	srv := newTestServer(t, core.DefaultTable(), Options{})

	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantBody   string
	}{
		{name: "aries start", form: url.Values{"month": {"3"}, "day": {"21"}}, wantStatus: 200, wantBody: "Aries"},
		{name: "wraparound december", form: url.Values{"month": {"12"}, "day": {"25"}}, wantStatus: 200, wantBody: "Capricorn"},
		{name: "wraparound january", form: url.Values{"month": {"1"}, "day": {"5"}}, wantStatus: 200, wantBody: "Capricorn"},
		{name: "element fact", form: url.Values{"month": {"8"}, "day": {"1"}}, wantStatus: 200, wantBody: "Fun Facts"},
		{name: "leap day", form: url.Values{"month": {"2"}, "day": {"29"}}, wantStatus: 200, wantBody: "Pisces"},
		{name: "february 30", form: url.Values{"month": {"2"}, "day": {"30"}}, wantStatus: 422, wantBody: msgInvalidDate},
		{name: "month 13", form: url.Values{"month": {"13"}, "day": {"1"}}, wantStatus: 422, wantBody: msgInvalidDate},
		{name: "missing day", form: url.Values{"month": {"1"}}, wantStatus: 400, wantBody: msgInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(srv, postForm("/lookup", tt.form))
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tt.wantBody) {
				t.Fatalf("body missing %q: %s", tt.wantBody, rr.Body.String())
			}
			trigger := rr.Header().Get("HX-Trigger")
			if tt.wantStatus == 200 && !strings.Contains(trigger, `"sign:resolved"`) {
				t.Errorf("missing sign:resolved trigger: %q", trigger)
			}
			if tt.wantStatus != 200 && trigger != "" {
				t.Errorf("unexpected trigger on failure: %q", trigger)
			}
		})
	}
}

func TestLookupFormMethodAndBody(t *testing.T) {
	srv := newTestServer(t, core.DefaultTable(), Options{})

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/lookup", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if rr.Header().Get("Allow") != http.MethodPost {
		t.Errorf("Allow = %q", rr.Header().Get("Allow"))
	}

	req := httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader(`{"month":"oct","day":23}`))
	req.Header.Set("Content-Type", "application/json")
	rr = do(srv, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Scorpio") {
		t.Fatalf("JSON body lookup: %d %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader(`{"month":`))
	rr = do(srv, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("broken body: expected 400, got %d", rr.Code)
	}
}

func TestLookupNoMatch(t *testing.T) {
	gapped := core.NewTable(core.DefaultSigns()[:11]) // no Pisces
	srv := newTestServer(t, gapped, Options{})

	rr := do(srv, postForm("/lookup", url.Values{"month": {"3"}, "day": {"1"}}))
	if rr.Code != http.StatusNotFound || !strings.Contains(rr.Body.String(), msgNoMatch) {
		t.Fatalf("form no-match: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(srv, httptest.NewRequest(http.MethodGet, "/api/sign?month=3&day=1", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("api no-match: %d", rr.Code)
	}

	rr = do(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "degraded") {
		t.Fatalf("readyz with gaps: %d %s", rr.Code, rr.Body.String())
	}
}

func TestAPISign(t *testing.T) {
	srv := newTestServer(t, core.DefaultTable(), Options{})

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/api/sign?month=12&day=22", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got signJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Capricorn" || got.Element != "Earth" || got.RulingPlanet != "Saturn" {
		t.Errorf("got %+v", got)
	}
	if got.Start != (monthDayJSON{12, 22}) || got.End != (monthDayJSON{1, 19}) {
		t.Errorf("range = %+v - %+v", got.Start, got.End)
	}
	if got.ElementFact == "" {
		t.Error("element_fact should be set")
	}

	for _, tt := range []struct {
		query string
		want  int
	}{
		{"month=4&day=31", http.StatusUnprocessableEntity},
		{"month=13&day=1", http.StatusUnprocessableEntity},
		{"month=4", http.StatusBadRequest},
		{"month=smarch&day=1", http.StatusBadRequest},
		{"month=jan&day=x", http.StatusBadRequest},
	} {
		rr := do(srv, httptest.NewRequest(http.MethodGet, "/api/sign?"+tt.query, nil))
		if rr.Code != tt.want {
			t.Errorf("%s: status=%d want %d", tt.query, rr.Code, tt.want)
		}
		var e errorJSON
		if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil || e.Error == "" {
			t.Errorf("%s: expected JSON error body, got %s", tt.query, rr.Body.String())
		}
	}
}

func TestAPISigns(t *testing.T) {
	srv := newTestServer(t, core.DefaultTable(), Options{})

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/api/signs", nil))
	var got []signJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 12 || got[0].Name != "Aries" || got[11].Name != "Pisces" {
		t.Fatalf("signs = %+v", got)
	}

	rr = do(srv, httptest.NewRequest(http.MethodGet, "/api/signs/SCORPIO", nil))
	var one signJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &one); err != nil || rr.Code != http.StatusOK || one.Name != "Scorpio" {
		t.Fatalf("by name: status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(srv, httptest.NewRequest(http.MethodGet, "/api/signs/ophiuchus", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown sign: expected 404, got %d", rr.Code)
	}
}

func TestDayOptions(t *testing.T) {
	srv := newTestServer(t, core.DefaultTable(), Options{})

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/ui/days?month=2&day=31", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if n := strings.Count(body, "<option"); n != 29 {
		t.Errorf("February should offer 29 days, got %d", n)
	}
	if !strings.Contains(body, `<option value="29" selected>`) {
		t.Errorf("day 31 should clamp to 29: %s", body)
	}

	rr = do(srv, httptest.NewRequest(http.MethodGet, "/ui/days?month=April", nil))
	if n := strings.Count(rr.Body.String(), "<option"); n != 30 {
		t.Errorf("April should offer 30 days, got %d", n)
	}

	rr = do(srv, httptest.NewRequest(http.MethodGet, "/ui/days?month=13", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("month 13: status=%d", rr.Code)
	}
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, core.DefaultTable(), Options{})

	do(srv, httptest.NewRequest(http.MethodGet, "/api/sign?month=3&day=21", nil))
	do(srv, httptest.NewRequest(http.MethodGet, "/api/sign?month=2&day=30", nil))

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, want := range []string{
		`sign_lookups_total 1`,
		`sign_lookups_total{sign="Aries"} 1`,
		`sign_lookups_total{sign="Leo"} 0`,
		`sign_lookup_failures_total{reason="invalid_date"} 1`,
		`http_errors_total{class="4xx"} 1`,
		`sign_events_lost_total{reason="queue_full"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, core.DefaultTable(), Options{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		rr := do(srv, httptest.NewRequest(http.MethodGet, "/api/sign?month=6&day=1", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status=%d", i, rr.Code)
		}
	}
	rr := do(srv, httptest.NewRequest(http.MethodGet, "/api/sign?month=6&day=1", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}

	// Pages are not limited
	rr = do(srv, httptest.NewRequest(http.MethodGet, "/api/signs", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/api/signs should not be limited, got %d", rr.Code)
	}
}

func TestLookupWrongMethodSkipsRateLimit(t *testing.T) {
	srv := newTestServer(t, core.DefaultTable(), Options{RateLimitPerMinute: 1})

	for i := 0; i < 3; i++ {
		rr := do(srv, httptest.NewRequest(http.MethodGet, "/lookup", nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("GET %d: expected 405, got %d", i, rr.Code)
		}
	}

	rr := do(srv, postForm("/lookup", url.Values{"month": {"3"}, "day": {"21"}}))
	if rr.Code != http.StatusOK {
		t.Fatalf("first POST should not be limited, got %d", rr.Code)
	}

	rr = do(srv, postForm("/lookup", url.Values{"month": {"3"}, "day": {"21"}}))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST: expected 429, got %d", rr.Code)
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, "show-notification") || !strings.Contains(trigger, "Rate limit exceeded") {
		t.Errorf("HX-Trigger = %q", trigger)
	}
}

func TestTrustedProxies(t *testing.T) {
	var logs bytes.Buffer
	srv := newTestServer(t, core.DefaultTable(), Options{
		Logger:             log.New(log.Config{Output: &logs}),
		RateLimitPerMinute: 1,
		TrustedProxies:     []string{"203.0.113.0/24", "not-a-cidr"},
	})
	if !strings.Contains(logs.String(), "Ignoring trusted proxy") {
		t.Errorf("bad CIDR not reported: %s", logs.String())
	}

	get := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/sign?month=6&day=1", nil)
		req.RemoteAddr = "203.0.113.5:4000"
		req.Header.Set("X-Forwarded-For", client)
		return do(srv, req).Code
	}

	if code := get("198.51.100.1"); code != http.StatusOK {
		t.Fatalf("first client: status=%d", code)
	}
	if code := get("198.51.100.2"); code != http.StatusOK {
		t.Fatalf("second client behind the same proxy should have its own window, got %d", code)
	}
	if code := get("198.51.100.1"); code != http.StatusTooManyRequests {
		t.Fatalf("first client again: expected 429, got %d", code)
	}
}

func TestRenderErrorLogged(t *testing.T) {
	var logs bytes.Buffer
	srv := newTestServer(t, core.DefaultTable(), Options{Logger: log.New(log.Config{Output: &logs})})
	srv.templates = template.Must(template.New("index.html").Parse(`{{.Missing}}`))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req_render1")
	rr := do(srv, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	out := logs.String()
	for _, want := range []string{`msg="Template execution failed"`, "template=index.html", "request_id=req_render1", "operation=render"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}

func TestTemplatesMissing(t *testing.T) {
	srv := newTestServer(t, core.DefaultTable(), Options{})
	srv.templates = nil

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing templates, got %d", rr.Code)
	}
	rr = do(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz without templates: %d", rr.Code)
	}
}

func TestReadyWithEmptyTable(t *testing.T) {
	srv := newTestServer(t, core.NewTable(nil), Options{})
	rr := do(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with empty table: %d", rr.Code)
	}
}
