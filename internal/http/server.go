package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budget/internal/cache"
	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/services"
)

// Config tunes the HTTP adapter.
type Config struct {
	Addr               string
	LedgerCSVPath      string
	RateLimitPerMinute int
	// TrustedProxies are CIDRs whose X-Forwarded-For headers are believed.
	TrustedProxies []string
	ChartCacheSize     int
	ChartCacheTTL      time.Duration
	Logger             *log.Logger
	// Ready reports dependency health for /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	ledger     *services.LedgerService
	ledgerPath string
	logger     *log.Logger
	ready      func(ctx context.Context) error

	limiter    *ratelimit.Limiter
	charts     *cache.LRUCache[[]byte]
	cacheMgr   *cache.Manager
	trace      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, ledger *services.LedgerService) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.ChartCacheSize <= 0 {
		cfg.ChartCacheSize = 64
	}
	if cfg.ChartCacheTTL <= 0 {
		cfg.ChartCacheTTL = 5 * time.Minute
	}

	ipResolver := security.NewClientIPResolver()
	for _, cidr := range cfg.TrustedProxies {
		if err := ipResolver.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}

	s := &Server{
		ledger:     ledger,
		ledgerPath: cfg.LedgerCSVPath,
		logger:     logger.WithComponent(log.ComponentHTTP),
		ready:      cfg.Ready,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		charts:     cache.NewLRUCache[[]byte](cfg.ChartCacheSize, cfg.ChartCacheTTL),
		cacheMgr:   cache.NewManager(logger),
		trace:      trace.NewMiddleware(logger, ipResolver.ClientIP),
	}
	s.cacheMgr.Register(s.charts)
	s.cacheMgr.StartCleanup(cfg.ChartCacheTTL)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions", s.handleClearTransactions)
	mux.HandleFunc("GET /api/summary", s.handleSummary)

	mux.HandleFunc("GET /api/export.csv", s.handleExportCSV)
	mux.HandleFunc("POST /api/import", s.handleImportCSV)
	mux.HandleFunc("POST /api/export/sheet", s.handleExportSheet)
	mux.HandleFunc("POST /api/ledger/save", s.handleSaveLedger)
	mux.HandleFunc("POST /api/ledger/load", s.handleLoadLedger)

	mux.HandleFunc("GET /api/chart/categories.png", s.handleCategoryChart)
	mux.HandleFunc("GET /api/chart/totals.png", s.handleTotalsChart)

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, ipResolver.ClientIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
	}

	var handler http.Handler = mux
	handler = s.limiter.Middleware(ipResolver.ClientIP, ratelimit.MutatingOnly, onLimit)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.trace.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background routines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns request counters gathered by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.trace.GetMetrics()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
