package server

import (
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/jackzampolin/textjson/internal/svcctx"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// middleware wraps the mux, outermost first: CORS, request ID, access
// logging, panic recovery, service context.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := s.withServices(next)
	h = s.withRecovery(h)
	h = s.withLogging(h)
	h = withRequestID(h)
	return newCORS().Handler(h)
}

// standardMethods share one CORS policy; other methods get their own.
var standardMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodHead,
}

// anyCORS allows every origin, method and header, with credentials. rs/cors
// has no method wildcard, so a request naming a method outside
// standardMethods is handled by a policy built for that method.
type anyCORS struct {
	standard *cors.Cors
}

func newCORS() *anyCORS {
	return &anyCORS{standard: corsFor(standardMethods)}
}

// corsFor builds a policy allowing methods. Origins are matched by function
// so the request origin is echoed back, which credentialed requests require.
func corsFor(methods []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowOriginFunc:  func(string) bool { return true },
		AllowedMethods:   methods,
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
	})
}

func (c *anyCORS) Handler(next http.Handler) http.Handler {
	standard := c.standard.Handler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		if r.Method == http.MethodOptions {
			if requested := r.Header.Get("Access-Control-Request-Method"); requested != "" {
				method = requested
			}
		}
		if slices.Contains(standardMethods, method) {
			standard.ServeHTTP(w, r)
			return
		}
		corsFor(append(slices.Clone(standardMethods), method)).Handler(next).ServeHTTP(w, r)
	})
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withRequestID echoes the caller's X-Request-ID or assigns a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(svcctx.WithRequestID(r.Context(), id)))
	})
}

// statusRecorder captures the response status for access logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info("request",
			"request_id", svcctx.RequestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
		)
	})
}

// withRecovery turns handler panics into 500 responses.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("handler panic",
					"request_id", svcctx.RequestIDFrom(r.Context()),
					"path", r.URL.Path,
					"panic", rec,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"detail":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
