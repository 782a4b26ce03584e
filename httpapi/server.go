package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	goBank "github.com/MrEthical07/goBank"
	bankmw "github.com/MrEthical07/goBank/middleware"
	"github.com/MrEthical07/goBank/metrics/export/prometheus"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const defaultMaxBodyBytes = 4 << 10

// Options tunes the HTTP surface.
type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// MaxBodyBytes caps request bodies. Zero selects 4 KiB.
	MaxBodyBytes int64
	// RequestTimeout bounds each request. Zero disables the timeout.
	RequestTimeout time.Duration
	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable it only behind a proxy that overwrites those headers;
	// per-IP throttling keys on this address.
	TrustProxyHeaders bool
}

// Server serves the bank API for one Engine.
type Server struct {
	engine  *goBank.Engine
	metrics *prometheus.PrometheusExporter
	logger  *slog.Logger
	opts    Options
}

// NewServer returns a Server for engine.
func NewServer(engine *goBank.Engine, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{
		engine:  engine,
		metrics: prometheus.NewPrometheusExporter(engine),
		logger:  opts.Logger,
		opts:    opts,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	if s.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
	}
	r.Use(bankmw.ClientIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(bankmw.BearerWith(http.HandlerFunc(unauthenticated)))
			r.Get("/balance", s.handleBalance)
			r.Post("/deposit", s.handleTransaction(goBank.Deposit))
			r.Post("/withdraw", s.handleTransaction(goBank.Withdraw))
		})
	})

	return r
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_format")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

func unauthenticated(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusUnauthorized, "unauthenticated")
}
