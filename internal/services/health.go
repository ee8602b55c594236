package services

import (
	"context"
	"fmt"

	"github.com/localnerve/pagesdb/internal/config"
	"github.com/localnerve/pagesdb/internal/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Pinger is anything that can report reachability, such as the session cache
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Authorizer   string            `json:"authorizer"`
	Redis        string            `json:"redis,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(detailKey string, err error, message string) {
	r.Status = "unhealthy"
	r.Details[detailKey] = err.Error()
	if r.ErrorMessage == "" {
		r.ErrorMessage = fmt.Sprintf("%s: %v", message, err)
	} else {
		r.ErrorMessage += fmt.Sprintf("; %s: %v", message, err)
	}
	log.Warn().Err(err).Str("check", detailKey).Msg("Health check failed")
}

// HealthCheck checks the database, the Authorizer and, when cache is non nil, Redis
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, cache Pinger) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.fail("database_error", err, "Database connection error")
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.fail("database_ping_error", err, "Database ping failed")
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	// Check Authorizer connectivity
	if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
		result.Authorizer = "unreachable"
		result.fail("authorizer_error", err, "Authorizer ping failed")
	} else {
		result.Authorizer = "ok"
		result.Details["authorizer_url"] = cfg.AuthzURL
	}

	if cache != nil {
		if err := cache.Ping(ctx); err != nil {
			result.Redis = "unreachable"
			result.fail("redis_error", err, "Redis ping failed")
		} else {
			result.Redis = "ok"
		}
	}

	if result.Status == "healthy" {
		log.Debug().Msg("Health check passed - all systems operational")
	}

	return result
}
