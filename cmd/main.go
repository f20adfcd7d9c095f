package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/adapter/postgres/reportrepository"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/adapter/redis/benchmarkport"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/config"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/services/benchmark"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/services/connector"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/services/judge"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/core/services/run"
	logger2 "github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/global/logger"
	http2 "github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/http"
	"github.com/jasonlhamazon/agent-health-jasonlh-sub001/internal/runreaper"
)

func main() {
	InitReader()
	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	logger2.Info("Starting benchmark orchestrator service")

	logger := logger2.Logger

	sysCfg := config.NewSystemConfig()
	orchCfg := sysCfg.OrchestratorCfg

	db, err := setupDatabase(sysCfg)
	if err != nil {
		panic(err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     sysCfg.RedisConfig.Url,
		Password: sysCfg.RedisConfig.Password, // no password set
		DB:       sysCfg.RedisConfig.DB,       // use default DB
	})

	// SECONDARY PORTS
	benchmarkRepo := benchmarkport.NewBenchmarkRepository(redisClient, logger)
	testCaseRepo := benchmarkport.NewTestCaseRepository(redisClient, logger)
	runRepo := benchmarkport.NewRunRepository(redisClient, logger)
	reportRepo := reportrepository.NewReportRepository(db, logger)

	// connectors
	httpClient := &http.Client{Timeout: 5 * time.Minute}
	connectors := connector.NewRegistry(orchCfg.DefaultConnector, logger)
	connectors.Register(connector.NewStreamingHTTPConnector(httpClient, logger))
	connectors.Register(connector.NewChatCompletionConnector(httpClient, logger))
	if orchCfg.SubprocessCommand != "" {
		connectors.Register(connector.NewSubprocessConnector(connector.SubprocessConfig{
			Command:      orchCfg.SubprocessCommand,
			Args:         orchCfg.SubprocessArgs,
			InputMode:    connector.SubprocessInputMode(orchCfg.SubprocessInput),
			OutputFormat: connector.SubprocessOutputFormat(orchCfg.SubprocessOutput),
			Timeout:      orchCfg.SubprocessTimeout,
		}, logger))
	}

	// judges
	judgeClient := &http.Client{Timeout: 2 * time.Minute}
	judges := judge.NewRegistry(orchCfg.DefaultJudge, logger)
	judges.Register(judge.NewLLMJudge(
		judge.ProviderOpenAI,
		judge.NewOpenAIBackend(judgeClient, orchCfg.JudgeBaseURL, orchCfg.JudgeAPIKey),
		orchCfg.JudgeModel,
		logger))
	judges.Register(judge.NewLLMJudge(
		judge.ProviderAnthropic,
		judge.NewAnthropicBackend(judgeClient, orchCfg.AnthropicBaseURL, orchCfg.AnthropicAPIKey),
		orchCfg.JudgeModel,
		logger))
	judges.Register(judge.NewMockJudge())

	// services
	tokens := run.NewCancelRegistry()
	runSvc := run.NewRunService(benchmarkRepo, testCaseRepo, runRepo, reportRepo, connectors, judges, tokens, logger)
	benchmarkSvc := benchmark.NewBenchmarkService(benchmarkRepo, testCaseRepo, logger)

	ctxBg := context.Background()

	if sysCfg.SuitePath != "" {
		suite, err := config.LoadBenchmarkSuite(sysCfg.SuitePath)
		if err != nil {
			panic(err)
		}
		if err := benchmarkSvc.SeedSuite(ctxBg, suite); err != nil {
			panic(err)
		}
	}

	// server
	serviceProvider := http2.NewServiceProvider(benchmarkSvc, runSvc, redisClient, db)
	httServer := http2.NewServer(sysCfg.ServerPort, "benchmarkOrchestrator", *serviceProvider, sysCfg.JwtConfig.Secret, logger)
	err = httServer.Init()
	if err != nil {
		panic(err)
	}
	httServer.Start(ctxBg)

	reaperCtx, stopReaper := context.WithCancel(ctxBg)
	reaper := runreaper.NewRunReaper(orchCfg, tokens, runRepo, logger)
	reaper.Start(reaperCtx)

	<-quit
	logger.Info("Shutting down server...")

	stopReaper()
	httServer.Stop()
	_ = redisClient.Close()
	_ = db.Close()

	logger.Info("successfully shutdown server")

}

// setupDatabase sets up the PostgreSQL connection
func setupDatabase(sysCfg *config.AppConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", sysCfg.PostgresConfig.Url)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func InitReader() {
	environment := ""
	if len(os.Args) < 2 {
		log.Fatalf("Env not supplied in argument")
	} else {
		environment = os.Args[1]
	}

	err := godotenv.Load(environment + ".env")
	if err != nil {
		log.Fatalf("Error loading %s.env file", environment)
	}
}
