package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"zodiac/internal/log"
	"zodiac/internal/middleware/ratelimit"
	"zodiac/internal/middleware/security"
	"zodiac/internal/middleware/trace"
	"zodiac/internal/services"
	appweb "zodiac/web"
)

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	ReadHeaderTimeout  time.Duration
	TrustedProxies     []string // CIDRs trusted in addition to loopback and private ranges
}

type Server struct {
	http.Server
	templates *template.Template
	lookup    *services.LookupService
	logger    *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// appMetrics counts lookup outcomes.
type appMetrics struct {
	uptime       time.Time
	lookups      int64
	invalidDates int64
	noMatches    int64

	mu      sync.Mutex
	perSign map[string]int64
}

func newAppMetrics() *appMetrics {
	return &appMetrics{uptime: time.Now(), perSign: make(map[string]int64)}
}

func (m *appMetrics) recordSign(name string) {
	atomic.AddInt64(&m.lookups, 1)
	m.mu.Lock()
	m.perSign[name]++
	m.mu.Unlock()
}

func (m *appMetrics) signCount(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.perSign[name]
}

// NewServer configures routes, templates and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, lookup *services.LookupService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}
	readHeaderTimeout := opts.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 10 * time.Second
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s := &Server{
		lookup:           lookup,
		logger:           logger.WithComponent(log.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       newAppMetrics(),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("/lookup", requirePOST(s.limited(s.handleLookup)))
	mux.HandleFunc("GET /ui/days", s.handleDayOptions)
	mux.HandleFunc("GET /api/sign", s.limited(s.handleAPISign))
	mux.HandleFunc("GET /api/signs", s.handleAPISigns)
	mux.HandleFunc("GET /api/signs/{name}", s.handleAPISignByName)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = detector.Middleware(logger)(handler)
	handler = headers.Middleware(handler)
	handler = log.RequestIDMiddleware(trace.RequestID)(handler)
	handler = log.Middleware(logger.WithComponent(log.ComponentHTTP))(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// limited applies per-client rate limiting to lookup endpoints.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	logger := s.logger.WithComponent(log.ComponentRateLimit)
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, msgRateLimited).
			TriggerErrorNotification(msgRateLimited).
			Write(w)
	}
	return s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, onLimit)(next).ServeHTTP
}

// requirePOST answers other methods with 405 before any rate limiting runs.
func requirePOST(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resp := RequirePOST(r); resp != nil {
			resp.Write(w)
			return
		}
		next(w, r)
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
