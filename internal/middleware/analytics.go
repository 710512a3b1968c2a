package middleware

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// RequestLog holds one API request record for the analytics store
type RequestLog struct {
	RequestID      string
	Endpoint       string
	Method         string
	ResponseTimeMs int
	ResponseStatus int
	FromStation    string
	ToStation      string
	CacheHit       bool
	IPAddress      string
	UserAgent      string
	Timestamp      time.Time
}

// AnalyticsStore persists request logs to a local SQLite file. It is
// fully offline; a nil store disables analytics.
type AnalyticsStore struct {
	db *sql.DB
}

// NewAnalyticsStore opens (or creates) the SQLite database at path
func NewAnalyticsStore(path string) (*AnalyticsStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics db: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS request_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			method TEXT NOT NULL,
			response_time_ms INTEGER NOT NULL,
			response_status INTEGER NOT NULL,
			from_station TEXT,
			to_station TEXT,
			cache_hit INTEGER NOT NULL DEFAULT 0,
			ip_address TEXT,
			user_agent TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create analytics schema: %w", err)
	}

	return &AnalyticsStore{db: db}, nil
}

// Close closes the underlying database
func (s *AnalyticsStore) Close() error {
	return s.db.Close()
}

// Insert writes one request log row
func (s *AnalyticsStore) Insert(ctx context.Context, reqLog *RequestLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO request_log
			(request_id, endpoint, method, response_time_ms, response_status,
			 from_station, to_station, cache_hit, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		reqLog.RequestID, reqLog.Endpoint, reqLog.Method, reqLog.ResponseTimeMs,
		reqLog.ResponseStatus, reqLog.FromStation, reqLog.ToStation,
		boolToInt(reqLog.CacheHit), reqLog.IPAddress, reqLog.UserAgent, reqLog.Timestamp,
	)
	return err
}

// RequestCount returns the number of logged requests
func (s *AnalyticsStore) RequestCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM request_log").Scan(&count)
	return count, err
}

// AnalyticsMiddleware records every API request asynchronously. A nil
// store turns the middleware into a request-ID tagger only. Logging
// failures never fail the request.
func AnalyticsMiddleware(store *AnalyticsStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.NewString()
		c.Locals("request_id", requestID)

		err := c.Next()

		responseTime := time.Since(start)
		c.Set("X-Request-ID", requestID)
		c.Set("X-Response-Time", responseTime.String())

		if store == nil {
			return err
		}

		cacheHit := false
		if val := c.Locals("cache_hit"); val != nil {
			cacheHit, _ = val.(bool)
		}

		reqLog := &RequestLog{
			RequestID:      requestID,
			Endpoint:       c.Path(),
			Method:         c.Method(),
			ResponseTimeMs: int(responseTime.Milliseconds()),
			ResponseStatus: c.Response().StatusCode(),
			FromStation:    c.Query("from"),
			ToStation:      c.Query("to"),
			CacheHit:       cacheHit,
			IPAddress:      c.IP(),
			UserAgent:      c.Get("User-Agent"),
			Timestamp:      time.Now(),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Insert(ctx, reqLog); err != nil {
				log.Printf("Warning: failed to log request: %v", err)
			}
		}()

		return err
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
