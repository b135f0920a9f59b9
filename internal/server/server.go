// Package server exposes upload, insight and chart operations over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"

	"github.com/KaramelBytes/insightify-cli/internal/ai"
	"github.com/KaramelBytes/insightify-cli/internal/config"
	"github.com/KaramelBytes/insightify-cli/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RuntimeFactory resolves an AI runtime for a provider name.
type RuntimeFactory func(provider string, cfg ai.RuntimeConfig) (ai.Runtime, error)

// Options configures a Server.
type Options struct {
	Config *config.Global
	Logger *logging.Logger
	// NewRuntime defaults to ai.NewRuntime.
	NewRuntime RuntimeFactory
	Store      *Store
}

// Server wires the HTTP routes to a session store.
type Server struct {
	cfg        *config.Global
	log        *logging.Logger
	newRuntime RuntimeFactory
	store      *Store
	router     *chi.Mux
}

func New(opt Options) *Server {
	s := &Server{
		cfg:        opt.Config,
		log:        opt.Logger,
		newRuntime: opt.NewRuntime,
		store:      opt.Store,
		router:     chi.NewRouter(),
	}
	if s.cfg == nil {
		s.cfg = &config.Global{}
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.newRuntime == nil {
		s.newRuntime = ai.NewRuntime
	}
	if s.store == nil {
		s.store = NewStore()
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Store() *Store { return s.store }

// HTTPServer returns an http.Server bound to addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api/datasets", func(r chi.Router) {
		r.Post("/", s.handleUpload)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDataset)
			r.Delete("/", s.handleDeleteDataset)
			r.Post("/insights", s.handleInsights)
			r.Post("/chart", s.handleChart)
			r.Get("/chart.html", s.handleChartHTML)
			r.Get("/report.html", s.handleReportHTML)
		})
	})
}

// requestLogger logs one line per request at INFO, with the request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.log.Info("%s %s -> %d (%d bytes, %s) req=%s", r.Method, r.URL.Path, status,
			ww.BytesWritten(), time.Since(start).Round(time.Millisecond), middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAIError adds a remediation hint when one is known.
func writeAIError(w http.ResponseWriter, status int, err error) {
	body := map[string]string{"error": err.Error()}
	if hint := ai.Hint(err); hint != "" {
		body["hint"] = hint
	}
	writeJSON(w, status, body)
}
