package httpapi

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/micaelgg/buutech/internal/metrics"
)

// Router uses the standard http.ServeMux with method patterns
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	r.mux.ServeHTTP(rec, req)
	// the mux sets Pattern on the request; unmatched requests count as "unmatched"
	route := req.Pattern
	if route == "" {
		route = "unmatched"
	}
	metrics.IncAPIRequest(route, rec.status)
}

func (r *Router) RegisterTemperatureRoutes(h *TemperatureHandler) {
	r.Handle("POST /temperatures", h.Create)
	r.Handle("GET /temperatures", h.List)
	r.Handle("GET /temperatures/export", h.Export)
	r.Handle("GET /temperatures/{id}", h.Get)
	r.Handle("PUT /temperatures/{id}", h.Update)
	r.Handle("DELETE /temperatures/{id}", h.Delete)
}

func (r *Router) RegisterSensorRoutes(h *SensorHandler) {
	r.Handle("GET /sensors", h.List)
	r.Handle("GET /sensors/{tag}/latest", h.Latest)
}

func (r *Router) RegisterOpsRoutes(h *HealthHandler) {
	r.Handle("GET /health", h.Health)
	r.HandleHandler("GET /metrics", promhttp.Handler())
}

// WithCORS wraps h for the given origins. Empty or "*" allows any origin.
func WithCORS(h http.Handler, allowedOrigins string) http.Handler {
	origins := []string{"*"}
	if s := strings.TrimSpace(allowedOrigins); s != "" && s != "*" {
		origins = origins[:0]
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(h)
}
