package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/localnerve/pagesdb/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestContainers are the postgres and redis containers of a test run
type TestContainers struct {
	SessionID      string
	DBContainer    testcontainers.Container
	RedisContainer testcontainers.Container

	DBHost   string
	DBPort   string
	RedisURL string
}

// Terminate stops every started container. t may be nil outside tests.
func (tc *TestContainers) Terminate(t *testing.T) {
	ctx := context.Background()
	if tc.RedisContainer != nil {
		if err := tc.RedisContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Redis: %v", err)
		}
	}
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Postgres: %v", err)
		}
	}
}

// Config returns a configuration pointing at the containers
func (tc *TestContainers) Config() *config.Config {
	return &config.Config{
		Port:              getEnv("PORT", "3000"),
		CORSOrigins:       "*",
		DBType:            "postgres",
		DBHost:            tc.DBHost,
		DBPort:            tc.DBPort,
		DBDatabase:        getEnv("DB_DATABASE", "pagesdb"),
		DBUser:            getEnv("DB_USER", "pagesdb"),
		DBPassword:        getEnv("DB_PASSWORD", "pagesdb"),
		DBConnectionLimit: 5,
		AuthzURL:          getEnv("AUTHZ_URL", "http://localhost:8080"),
		AuthzClientID:     getEnv("AUTHZ_CLIENT_ID", "test_client"),
		RedisURL:          tc.RedisURL,
		SessionCacheTTL:   30 * time.Second,
		OpenAIModel:       "gpt-4o",
		AIRateLimit:       20,
		LogLevel:          "warn",
		LogFormat:         "console",
	}
}

// StartContainers starts postgres and, when withRedis is set, redis.
// Images come from DB_IMAGE and REDIS_IMAGE.
func StartContainers(ctx context.Context, t *testing.T, withRedis bool) (*TestContainers, error) {
	tc := &TestContainers{SessionID: uuid.New().String()}
	labels := map[string]string{"pagesdb.test-session": tc.SessionID}

	tcpDBPort, err := nat.NewPort("tcp", "5432")
	if err != nil {
		return nil, fmt.Errorf("postgres port: %w", err)
	}

	// Keep the data directory in memory
	hostConfigModifier := func(hostConfig *container.HostConfig) {
		hostConfig.Tmpfs = map[string]string{"/var/lib/postgresql/data": "rw"}
	}

	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        getEnv("DB_IMAGE", "postgres:17-alpine"),
			ExposedPorts: []string{string(tcpDBPort)},
			Env: map[string]string{
				"POSTGRES_DB":       getEnv("DB_DATABASE", "pagesdb"),
				"POSTGRES_USER":     getEnv("DB_USER", "pagesdb"),
				"POSTGRES_PASSWORD": getEnv("DB_PASSWORD", "pagesdb"),
			},
			Labels:             labels,
			HostConfigModifier: hostConfigModifier,
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort(tcpDBPort),
			).WithDeadline(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}
	tc.DBContainer = dbContainer

	dbHost, err := dbContainer.Host(ctx)
	if err != nil {
		tc.Terminate(t)
		return nil, fmt.Errorf("postgres host: %w", err)
	}
	dbPort, err := dbContainer.MappedPort(ctx, tcpDBPort)
	if err != nil {
		tc.Terminate(t)
		return nil, fmt.Errorf("postgres port: %w", err)
	}
	tc.DBHost = dbHost
	tc.DBPort = dbPort.Port()
	logMessage(t, "DB_HOST=%s DB_PORT=%s", tc.DBHost, tc.DBPort)

	if !withRedis {
		return tc, nil
	}

	tcpRedisPort, err := nat.NewPort("tcp", "6379")
	if err != nil {
		tc.Terminate(t)
		return nil, fmt.Errorf("redis port: %w", err)
	}
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        getEnv("REDIS_IMAGE", "redis:7-alpine"),
			ExposedPorts: []string{string(tcpRedisPort)},
			Labels:       labels,
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		tc.Terminate(t)
		return nil, fmt.Errorf("start redis: %w", err)
	}
	tc.RedisContainer = redisContainer

	redisHost, err := redisContainer.Host(ctx)
	if err != nil {
		tc.Terminate(t)
		return nil, fmt.Errorf("redis host: %w", err)
	}
	redisPort, err := redisContainer.MappedPort(ctx, tcpRedisPort)
	if err != nil {
		tc.Terminate(t)
		return nil, fmt.Errorf("redis port: %w", err)
	}
	tc.RedisURL = fmt.Sprintf("redis://%s:%s/0", redisHost, redisPort.Port())
	logMessage(t, "REDIS_URL=%s", tc.RedisURL)

	return tc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func logMessage(t *testing.T, format string, args ...interface{}) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
