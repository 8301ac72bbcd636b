package http

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"roommates/internal/log"
	"roommates/internal/metrics"
	"roommates/internal/middleware/ratelimit"
	"roommates/internal/middleware/security"
	"roommates/internal/middleware/trace"
	"roommates/internal/services"
	appweb "roommates/web"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds what NewServer needs besides the services.
type Config struct {
	Addr               string
	StaticDir          string
	RateLimitPerMinute int
	Logger             *log.Logger
	// ReadyChecks are probed by /readyz, keyed by the name reported back.
	ReadyChecks map[string]Pinger
}

type Server struct {
	http.Server
	expenses    *services.ExpenseService
	roommates   *services.RoommateService
	readyChecks map[string]Pinger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(cfg Config, expenses *services.ExpenseService, roommates *services.RoommateService) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	limitCfg := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = cfg.RateLimitPerMinute
	}

	detector := security.NewDetector()
	s := &Server{
		expenses:    expenses,
		roommates:   roommates,
		readyChecks: cfg.ReadyChecks,
		limiter:     ratelimit.NewLimiter(limitCfg),
		detector:    detector,
		tracer:      trace.NewMiddleware(logger, detector.ExtractClientIP),
		started:     time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /roommates", s.handleListRoommates)
	mux.HandleFunc("POST /roommate", s.handleCreateRoommate)
	mux.HandleFunc("GET /gastos", s.handleListExpenses)
	mux.HandleFunc("POST /gasto", s.handleCreateExpense)
	mux.HandleFunc("PUT /gasto/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /gasto", s.handleDeleteExpense)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	if static, err := staticFS(cfg.StaticDir); err == nil {
		mux.Handle("GET /", security.StaticAssetMiddleware(300)(http.FileServerFS(static)))
	} else {
		logger.Warn("Failed to mount static files", log.FieldError, err)
	}

	// metrics.Middleware reads r.Pattern, which the mux sets, so it wraps the
	// mux directly.
	var handler http.Handler = metrics.Middleware(mux)
	handler = s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimited)(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.Recover(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// staticFS serves dir when set and the embedded frontend otherwise.
func staticFS(dir string) (fs.FS, error) {
	if dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
		return os.DirFS(dir), nil
	}
	return fs.Sub(appweb.StaticFS, "static")
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, MsgRateLimited).Write(w)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
