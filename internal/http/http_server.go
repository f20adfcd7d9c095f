package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/ports/primary"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/services/benchmark"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/services/run"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/handlers"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/handlers/benchmarks"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/handlers/runs"
)

type ServiceProvider struct {
	benchmarkService benchmark.IBenchmarkService
	runService       run.IRunService

	redisClient *redis.Client
	db          *sqlx.DB
}

func NewServiceProvider(
	benchmarkService benchmark.IBenchmarkService,
	runService run.IRunService,
	redisClient *redis.Client,
	db *sqlx.DB,
) *ServiceProvider {
	return &ServiceProvider{
		benchmarkService: benchmarkService,
		runService:       runService,
		redisClient:      redisClient,
		db:               db,
	}
}

type Server struct {
	router          *mux.Router
	Port            int
	ServiceName     string
	ServiceProvider ServiceProvider
	JwtSecret       string
	logger          primary.Logger
	srv             *http.Server
}

func NewServer(port int, serviceName string, serviceProvider ServiceProvider, jwtSecret string, logger primary.Logger) *Server {
	return &Server{
		Port:            port,
		ServiceName:     serviceName,
		ServiceProvider: serviceProvider,
		JwtSecret:       jwtSecret,
		logger:          logger,
	}
}

func (s *Server) Init() error {
	r := mux.NewRouter()

	// Cancellation is the only mutating control operation; it is the
	// one route behind JWT when a secret is configured.
	var authMW mux.MiddlewareFunc
	if s.JwtSecret != "" {
		authMW = handlers.New(s.JwtSecret).JWTMiddleware
	}

	benchmarks.
		NewBenchmarkHandler(s.ServiceProvider.benchmarkService, s.logger).
		RegisterRoutes(r)
	runs.
		NewRunHandler(s.ServiceProvider.runService, authMW, s.logger).
		RegisterRoutes(r)
	handlers.
		NewHealthHandler(s.ServiceProvider.redisClient, s.ServiceProvider.db, s.logger).
		RegisterRoutes(r)

	s.router = r
	return nil
}

func (s *Server) Start(ctx context.Context) {
	// Set up server. The run endpoint holds its response open for the
	// whole run, so there is no write timeout.
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	s.srv = srv

	// Start the server in a goroutine
	go func() {
		s.logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

}

func (s *Server) Stop() {
	s.logger.Info("Shutting down http server...")
	if s.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shut down http server", "error", err)
		}
	}
}
