package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/report"
	"fintrack/internal/store"
)

// Config holds server settings.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	CacheSize          int
	CacheTTL           time.Duration
	TrustedProxies     []string

	// Ready reports whether storage can serve requests. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Server is the JSON API over a record store.
type Server struct {
	http.Server
	store    *store.Store
	logger   *log.Logger
	renderer *report.Renderer
	now      func() time.Time
	ready    func(ctx context.Context) error

	dashboards *cache.LRU[analytics.Dashboard]
	caches     *cache.Manager
	cacheTTL   time.Duration

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithClock replaces time.Now for dashboard dates and report footers.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, st *store.Store, logger *log.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	renderer, err := report.NewRenderer(logger)
	if err != nil {
		return nil, fmt.Errorf("load report template: %w", err)
	}

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	limits := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		limits.RequestsPerMinute = cfg.RateLimitPerMinute
	}

	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 64
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}

	s := &Server{
		store:      st,
		logger:     logger,
		renderer:   renderer,
		now:        time.Now,
		ready:      cfg.Ready,
		dashboards: cache.NewLRU[analytics.Dashboard](cfg.CacheSize, cfg.CacheTTL),
		caches:     cache.NewManager(logger),
		cacheTTL:   cfg.CacheTTL,
		limiter:    ratelimit.NewLimiter(limits),
		detector:   detector,
		tracer:     trace.NewMiddleware(logger, detector.ExtractClientIP),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.caches.Register(s.dashboards)

	s.Addr = cfg.Addr
	s.Handler = s.middleware(s.routes())
	return s, nil
}

// middleware wraps h so that the outermost layer runs first.
func (s *Server) middleware(h http.Handler) http.Handler {
	h = s.detector.Middleware(s.logger)(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = s.tracer.Middleware(h)
	return log.Middleware(s.logger)(h)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	s.route(mux, "GET /api/categories", s.handleCategories)

	s.route(mux, "GET /api/transactions", s.handleListTransactions)
	s.route(mux, "POST /api/transactions", s.handleCreateTransaction)
	s.route(mux, "PUT /api/transactions/{id}", s.handleUpdateTransaction)
	s.route(mux, "DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	s.route(mux, "GET /api/tasks", s.handleListTasks)
	s.route(mux, "POST /api/tasks", s.handleCreateTask)
	s.route(mux, "PUT /api/tasks/{id}", s.handleUpdateTask)
	s.route(mux, "DELETE /api/tasks/{id}", s.handleDeleteTask)
	s.route(mux, "POST /api/tasks/{id}/toggle", s.handleToggleTask)

	s.route(mux, "GET /api/budgets", s.handleListBudgets)
	s.route(mux, "PUT /api/budgets/{category}", s.handleSetBudget)

	s.route(mux, "GET /api/period", s.handleGetPeriod)
	s.route(mux, "PUT /api/period", s.handleSetPeriod)
	s.route(mux, "POST /api/period/next", s.handleShiftPeriod(1))
	s.route(mux, "POST /api/period/prev", s.handleShiftPeriod(-1))

	s.route(mux, "GET /api/dashboard", s.handleDashboard)
	s.route(mux, "GET /api/analytics/budgets", s.handleBudgetAnalytics)
	s.route(mux, "GET /api/analytics/monthly", s.handleMonthlyAnalytics)

	s.route(mux, "GET /api/export", s.handleExport)
	s.route(mux, "POST /api/import", s.handleImport)

	s.route(mux, "GET /api/settings", s.handleGetSettings)
	s.route(mux, "PUT /api/settings", s.handleUpdateSettings)
	s.route(mux, "GET /api/profile", s.handleGetProfile)
	s.route(mux, "PUT /api/profile", s.handleUpdateProfile)
	s.route(mux, "POST /api/auth/login", s.handleLogin)
	s.route(mux, "POST /api/auth/register", s.handleRegister)
	s.route(mux, "POST /api/auth/logout", s.handleLogout)

	s.route(mux, "GET /report", s.handleReport)

	return mux
}

// route registers h, rate limiting every method except GET.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	var handler http.Handler = h
	if method, _, _ := strings.Cut(pattern, " "); method != http.MethodGet {
		handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited)(handler)
	}
	mux.Handle(pattern, handler)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError(msgRateLimited).Write(w)
}

// StartBackground starts the periodic cache sweep. It stops with ctx or Shutdown.
func (s *Server) StartBackground(ctx context.Context) {
	s.caches.Start(ctx, s.cacheTTL)
}

// Shutdown stops background work, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}

// Stats reports request and limiter counters.
type Stats struct {
	Requests   trace.Metrics     `json:"requests"`
	RateLimit  ratelimit.Metrics `json:"rateLimit"`
	Suspicious int64             `json:"suspicious"`
	Cached     int               `json:"cachedDashboards"`
}

func (s *Server) Stats() Stats {
	return Stats{
		Requests:   s.tracer.Metrics(),
		RateLimit:  s.limiter.Metrics(),
		Suspicious: s.detector.SuspiciousCount(),
		Cached:     s.dashboards.Size(),
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// dashboard builds the dashboard for a period and search term, cached per
// store revision.
// dashboard builds or reuses the view for period. Matching ignores case, so
// the term is lower-cased before it becomes part of the key or the result.
func (s *Server) dashboard(ctx context.Context, period core.Period, search string) analytics.Dashboard {
	search = strings.ToLower(strings.TrimSpace(search))
	snap := s.store.Snapshot()
	today := s.now()
	key := cacheKey(snap.Revision, period, search, today)

	if d, found := s.dashboards.Get(key); found {
		s.logger.DebugContext(ctx, "Dashboard cache hit", log.FieldRevision, snap.Revision)
		return d
	}

	d := analytics.Build(analytics.Input{
		Transactions: snap.Transactions,
		Tasks:        snap.Tasks,
		Budgets:      snap.Budgets,
		Period:       period,
		Search:       search,
		Today:        today,
	})
	s.dashboards.Set(key, d)
	s.logger.DebugContext(ctx, "Dashboard cached",
		log.FieldRevision, snap.Revision, log.FieldYear, period.Year, log.FieldMonth, period.Month)
	return d
}

func cacheKey(revision uint64, p core.Period, search string, today time.Time) string {
	return strconv.FormatUint(revision, 10) + "|" + p.String() + "|" + today.Format(core.DateLayout) + "|" + search
}
