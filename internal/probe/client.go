package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/WakiJi/wmscan/internal/scan"
)

const defaultUserAgent = "wmscan/0.1"

// Config controls the HTTP prober.
type Config struct {
	// Timeout bounds a single attempt's round trip.
	Timeout time.Duration
	// MaxAttempts caps attempts per target, first try included.
	MaxAttempts int
	// BackoffBase and BackoffMax shape the retry schedule.
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// Pacing is slept after every probe, inside the worker's call.
	Pacing time.Duration
	// MaxRPS gates probe admission process-wide; zero means unlimited.
	MaxRPS float64
	// Workers sizes the shared connection pool.
	Workers int
	// UserAgent overrides the default request identity.
	UserAgent string
}

// Client performs HEAD existence checks over a shared pooled transport. It is
// stateless beyond the connection pool and safe for concurrent use.
type Client struct {
	http      *http.Client
	policy    *RetryPolicy
	timeout   time.Duration
	pacing    time.Duration
	limiter   *rate.Limiter
	userAgent string
	logger    *zap.Logger
}

// NewClient builds a Client with a transport sized for the worker count.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   cfg.Workers,
		MaxConnsPerHost:       cfg.Workers * 2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	}
	var limiter *rate.Limiter
	if cfg.MaxRPS > 0 {
		burst := int(cfg.MaxRPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), burst)
	}
	return &Client{
		http: &http.Client{
			Transport: transport,
			// A redirect is a definitive answer for an existence check.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		policy:    NewRetryPolicy(cfg.MaxAttempts, cfg.BackoffBase, cfg.BackoffMax),
		timeout:   cfg.Timeout,
		pacing:    cfg.Pacing,
		limiter:   limiter,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Check probes one URL and classifies the final answer. Failures come back as
// outcomes, never as errors; cancellation yields a skipped outcome. The pacing
// delay applies on every return path.
func (c *Client) Check(ctx context.Context, url string) scan.Outcome {
	defer c.pause(ctx, c.pacing)
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return scan.Skipped()
		}
	}
	last := scan.Skipped()
	for attempt := 0; attempt < c.policy.MaxAttempts(); attempt++ {
		if attempt > 0 {
			c.pause(ctx, c.policy.Backoff(attempt-1))
		}
		if ctx.Err() != nil {
			return scan.Skipped()
		}
		status, err := c.head(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return scan.Skipped()
			}
			last = scan.NetworkFailure(err)
			if !c.policy.RetryableError(err) {
				return last
			}
			c.logger.Debug("probe attempt failed",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}
		switch {
		case status >= 200 && status < 300:
			return scan.Success(url, status)
		case c.policy.RetryableStatus(status):
			last = scan.HTTPFailure(status)
		default:
			return scan.HTTPFailure(status)
		}
	}
	return last
}

func (c *Client) head(ctx context.Context, url string) (int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("head request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // HEAD responses carry no body
	return resp.StatusCode, nil
}

func (c *Client) pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
