package db

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/unklstewy/atc-ingest/pkg/config"
)

// connErrorPatterns are substrings of database/sql driver errors that
// indicate a transient connection problem rather than a fatal one, per the
// "database transient" error taxonomy.
var connErrorPatterns = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"EOF",
	"timeout",
}

// ReconnectWithRetry attempts to reconnect to the database with exponential
// backoff. maxRetries of 0 means retry indefinitely.
func ReconnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration) (*DB, error) {
	delay := initialDelay
	attempt := 0

	for {
		attempt++
		slog.Info("database connection attempt", "attempt", attempt)

		database, err := Connect(cfg)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			pingErr := database.PingContext(pingCtx)
			cancel()

			if pingErr == nil {
				slog.Info("database reconnected")
				return database, nil
			}

			database.Close()
			err = pingErr
		}

		if maxRetries > 0 && attempt >= maxRetries {
			slog.Error("failed to reconnect to database", "attempts", attempt, "error", err)
			return nil, err
		}

		slog.Warn("database connection failed, retrying", "error", err, "delay", delay)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}

// EnsureConnection checks if the database connection is alive and
// reconnects if needed.
func EnsureConnection(ctx context.Context, database *DB, cfg config.DatabaseConfig) (*DB, error) {
	if database == nil {
		slog.Warn("database connection is nil, reconnecting")
		return ReconnectWithRetry(ctx, cfg, 3, time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := database.PingContext(pingCtx); err != nil {
		slog.Warn("database connection lost, reconnecting", "error", err)
		database.Close()
		return ReconnectWithRetry(ctx, cfg, 3, time.Second)
	}

	return database, nil
}

// HealthCheck performs a comprehensive health check on the database.
func HealthCheck(ctx context.Context, database *DB) bool {
	if database == nil {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := database.PingContext(pingCtx); err != nil {
		slog.Error("health check failed", "error", err)
		return false
	}

	var result int
	if err := database.QueryRowContext(pingCtx, "SELECT 1").Scan(&result); err != nil {
		slog.Error("health check query failed", "error", err)
		return false
	}

	return result == 1
}

// IsConnectionError reports whether err looks like a transient connection
// failure rather than a fatal one (schema mismatch, constraint violation).
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range connErrorPatterns {
		if strings.Contains(msg, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// WithRetry executes a database operation with automatic retry on
// connection failures, per the "database transient" error policy: retry up
// to maxRetries times with small backoff, then give up.
func WithRetry(ctx context.Context, operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsConnectionError(err) {
			return err
		}

		if attempt < maxRetries {
			waitTime := time.Duration(attempt+1) * time.Second
			slog.Warn("database operation failed, retrying", "attempt", attempt+1, "max", maxRetries+1, "error", err, "wait", waitTime)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}
		}
	}

	return lastErr
}
