// Package notify holds the end-of-run collaborators: downstream cache
// invalidation and run summary posting.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	DefaultInvalidateTimeout = 120 * time.Second
	DefaultRedisPattern      = "cache:v1:*"
	scanBatch                = 100
)

// HTTPInvalidator asks a downstream API to drop its cache with a POST to a
// fixed endpoint.
type HTTPInvalidator struct {
	url    string
	client *http.Client
	log    logrus.FieldLogger
}

// NewHTTPInvalidator creates an invalidator posting to url. A zero timeout
// uses DefaultInvalidateTimeout.
func NewHTTPInvalidator(url string, timeout time.Duration, log logrus.FieldLogger) *HTTPInvalidator {
	if timeout <= 0 {
		timeout = DefaultInvalidateTimeout
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &HTTPInvalidator{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Invalidate posts to the endpoint. Any status other than 200 is an error.
func (h *HTTPInvalidator) Invalidate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create invalidation request: %w", err)
	}

	h.log.WithField("url", h.url).Info("Triggering cache invalidation")
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cache invalidation returned status %d", resp.StatusCode)
	}
	return nil
}

// RedisInvalidator deletes every key matching a pattern.
type RedisInvalidator struct {
	client  *redis.Client
	pattern string
	log     logrus.FieldLogger
}

// RedisConfig holds the connection settings for RedisInvalidator.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Pattern  string
}

// NewRedisInvalidator connects to Redis and checks the connection.
func NewRedisInvalidator(cfg RedisConfig, log logrus.FieldLogger) (*RedisInvalidator, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultRedisPattern
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisInvalidator{client: client, pattern: cfg.Pattern, log: log}, nil
}

// Invalidate scans for matching keys and deletes them in batches.
func (r *RedisInvalidator) Invalidate(ctx context.Context) error {
	deleted, err := r.Purge(ctx)
	if err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{
		"pattern": r.pattern,
		"deleted": deleted,
	}).Info("Invalidated cache keys")
	return nil
}

// Purge deletes every key matching the pattern and returns how many were
// deleted.
func (r *RedisInvalidator) Purge(ctx context.Context) (int64, error) {
	var (
		deleted int64
		batch   []string
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := r.client.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
		deleted += n
		batch = batch[:0]
		return nil
	}

	iter := r.client.Scan(ctx, 0, r.pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= scanBatch {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// Close closes the Redis connection.
func (r *RedisInvalidator) Close() error {
	return r.client.Close()
}

// Invalidators runs several invalidators and joins their errors.
type Invalidators []interface {
	Invalidate(ctx context.Context) error
}

// Invalidate calls every invalidator even when an earlier one fails.
func (m Invalidators) Invalidate(ctx context.Context) error {
	var errs []error
	for _, inv := range m {
		if err := inv.Invalidate(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
