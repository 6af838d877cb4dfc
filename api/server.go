package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"websift/session"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Server exposes a search session over HTTP.
type Server struct {
	session     *session.Session
	port        int
	corsOrigins []string
	logger      *zap.Logger
	httpServer  *http.Server
}

// NewServer creates a new Server for the given session.
func NewServer(s *session.Session, port int, corsOrigins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		session:     s,
		port:        port,
		corsOrigins: corsOrigins,
		logger:      logger,
	}
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/search", s.SubmitHandler)
	mux.HandleFunc("GET /api/search", s.SearchHandler)
	mux.HandleFunc("GET /api/results", s.ResultsHandler)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(mux)
}

// Start serves until ctx is cancelled, then shuts down and waits for
// in-flight searches.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server", zap.Int("port", s.port))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.session.Cancel()
	s.session.Wait()
	return err
}
