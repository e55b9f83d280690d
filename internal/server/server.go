package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/perfutils/internal/formula"
	"github.com/claude/perfutils/internal/importer"
	"github.com/claude/perfutils/internal/ingest/alpha"
	"github.com/claude/perfutils/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    storage.LogStore
	importer *importer.Importer
	alpha    *alpha.Provider
	formula  formula.Formula
	log      *slog.Logger
	apiKey   string
	validate *validator.Validate
	metrics  *Metrics
	registry *prometheus.Registry
	identity func(http.Handler) http.Handler
	router   chi.Router
}

// New creates a new Server with all routes configured. def is the formula
// used when a request names none.
func New(store storage.LogStore, def formula.Formula, apiKey string, log *slog.Logger) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		store:    store,
		importer: importer.New(store, log, false),
		alpha:    alpha.NewProvider(store, log),
		formula:  def,
		log:      log,
		apiKey:   apiKey,
		validate: newValidator(),
		metrics:  NewMetrics(reg),
		registry: reg,
		identity: DevIdentity,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Registry exposes the server's metric registry so other components can
// add collectors.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Server) routes() {
	s.router.Use(func(next http.Handler) http.Handler {
		// Resolved per request so SetTailscale can swap it after New.
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.identity(next).ServeHTTP(w, r)
		})
	})
	s.router.Use(RequestLogging(s.log))
	s.router.Use(s.metrics.Handler)
	s.router.Use(CORS)

	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.router.Get("/api/v1/me", s.handleMe)

	// Calculators
	s.router.Get("/api/v1/formulas", s.handleListFormulas)
	s.router.Route("/api/v1/formulas/{name}", func(r chi.Router) {
		r.Get("/one-rep-max", s.handleOneRepMax)
		r.Get("/rep-max", s.handleRepMax)
		r.Get("/reps", s.handleReps)
		r.Get("/table", s.handleTable)
	})
	s.router.Get("/api/v1/estimates", s.handleEstimates)
	s.router.Route("/api/v1/parameters", func(r chi.Router) {
		r.Get("/fvp", s.handleFVP)
		r.Get("/inol", s.handleINOL)
		r.Get("/req", s.handleREQ)
		r.Get("/vfi", s.handleVFI)
		r.Get("/max-reps", s.handleMaxReps)
		r.Post("/microcycle", s.handleMicrocycle)
	})
	s.router.Post("/api/v1/logfilter", s.handleLogFilter)

	// Training logs. Reads are open, writes need the API key.
	s.router.Route("/api/v1/logs", func(r chi.Router) {
		r.Get("/", s.handleListLogs)
		r.With(APIKeyAuth(s.apiKey)).Post("/", s.handleCreateLog)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetLog)
			r.Get("/items", s.handleListItems)
			r.Get("/items/{itemID}", s.handleGetItem)

			r.Group(func(r chi.Router) {
				r.Use(APIKeyAuth(s.apiKey))
				r.Delete("/", s.handleDeleteLog)
				r.Post("/items", s.handleInsertItem)
				r.Patch("/items/{itemID}", s.handleUpdateItem)
				r.Delete("/items/{itemID}", s.handleDeleteItem)
				r.Post("/import", s.handleImportLog)
				r.Post("/import/alpha", s.handleImportAlpha)
				r.Post("/estimate", s.handleEstimateLog)
			})
		})
	})
}

// SetTailscale replaces the development identity with one resolved from
// the tailnet for every request.
func (s *Server) SetTailscale(whois WhoIsFunc) {
	s.identity = TailscaleIdentity(whois, s.log)
}

// MountMCP serves an MCP handler under /mcp.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
	s.router.Handle("/mcp/*", h)
}
