package config

import (
	"os"
	"strconv"
)

type AppConfig struct {
	DebugMode       bool
	ServerPort      int
	OrchestratorCfg *OrchestratorCfg
	RedisConfig     *RedisConfig
	PostgresConfig  *PostgresConfig
	JwtConfig       *JwtConfig
	SuitePath       string
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:       os.Getenv("DEBUG_MODE") == "true",
		ServerPort:      getIntEnv("SERVER_PORT", 8082),
		OrchestratorCfg: NewOrchestratorCfg(),
		RedisConfig:     NewRedisConfig(),
		PostgresConfig:  NewPostgresConfig(),
		JwtConfig:       NewJwtConfig(),
		SuitePath:       getEnv("BENCHMARK_SUITE_FILE", ""),
	}
}

// getEnv gets an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getIntEnv gets an environment variable as an integer with a fallback
func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}
