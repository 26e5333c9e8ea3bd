package resilience

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	defaultTimeout         = 10 * time.Second
	defaultMaxRetries      = 3
	defaultInitialInterval = 100 * time.Millisecond
	defaultMaxInterval     = 5 * time.Second
)

// ClientConfig configures a Client. Zero durations and a zero MaxRetries take
// the package defaults.
type ClientConfig struct {
	Name string // circuit breaker and registry key

	Timeout         time.Duration // per attempt
	MaxRetries      uint64
	InitialInterval time.Duration // first backoff step
	MaxInterval     time.Duration // backoff ceiling

	// CircuitBreaker defaults to DefaultCircuitBreakerConfig(Name).
	CircuitBreaker *CircuitBreakerConfig

	// Registry, when set, tracks the client and every call outcome.
	Registry *Registry

	// Logger receives circuit transitions unless CircuitBreaker sets
	// OnStateChange.
	Logger zerolog.Logger
}

// DefaultClientConfig returns the configuration used for upstream providers.
func DefaultClientConfig(name string) ClientConfig {
	cb := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         defaultTimeout,
		MaxRetries:      defaultMaxRetries,
		InitialInterval: defaultInitialInterval,
		MaxInterval:     defaultMaxInterval,
		CircuitBreaker:  &cb,
		Logger:          zerolog.Nop(),
	}
}

func (cfg ClientConfig) withDefaults() ClientConfig {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = defaultInitialInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = defaultMaxInterval
	}
	return cfg
}

// Client wraps an http.Client with retries and a circuit breaker.
type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	cfg     ClientConfig
}

// NewClient builds a Client and registers it with cfg.Registry.
func NewClient(cfg ClientConfig) *Client {
	cfg = cfg.withDefaults()

	cb := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cb = *cfg.CircuitBreaker
	}
	if cb.OnStateChange == nil {
		cb.OnStateChange = logTransition(cfg.Logger)
	}

	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: newBreaker(cb),
		cfg:     cfg,
	}
	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, c)
	}
	return c
}

func logTransition(logger zerolog.Logger) func(string, gobreaker.State, gobreaker.State) {
	return func(name string, from, to gobreaker.State) {
		logger.Warn().
			Str("provider", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state changed")
	}
}

// Name returns the configured client name.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Do sends req using its own context. See DoWithContext.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext sends req, retrying network errors, 5xx and 429 with
// exponential backoff. While the circuit is open it fails fast with
// ErrCircuitOpen. When retries run out on a retryable status the last
// response is returned with a nil error so the caller can read it.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	var last *http.Response
	keep := func(resp *http.Response) {
		if last != nil && last != resp {
			discard(last)
		}
		last = resp
	}

	err := backoff.Retry(func() error {
		resp, err := c.attempt(ctx, req)
		if resp != nil {
			keep(resp)
		}
		return err
	}, c.policy(ctx))

	switch {
	case err == nil:
		c.record(nil)
		return last, nil
	case errors.Is(err, ErrCircuitOpen):
		c.record(err)
		if last != nil {
			discard(last)
		}
		return nil, err
	case last != nil:
		c.record(err)
		return last, nil
	default:
		c.record(err)
		return nil, err
	}
}

// attempt performs one call through the breaker. Retryable statuses come
// back as errors so they count against the circuit.
func (c *Client) attempt(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to caller
		r, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if retryableStatus(r.StatusCode) {
			return r, &ServerError{StatusCode: r.StatusCode}
		}
		return r, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, backoff.Permanent(ErrCircuitOpen)
	}
	return resp, err
}

func (c *Client) policy(ctx context.Context) backoff.BackOffContext {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)
}

func (c *Client) record(err error) {
	if c.cfg.Registry == nil {
		return
	}
	if err != nil {
		c.cfg.Registry.RecordFailure(c.cfg.Name, err)
		return
	}
	c.cfg.Registry.RecordSuccess(c.cfg.Name)
}

// retryableStatus reports whether a response status is worth retrying.
// data.go.kr answers 429 when a key's per-second quota is exceeded.
func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// ServerError is a retryable upstream HTTP status.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "upstream error: " + http.StatusText(e.StatusCode)
}

// CircuitBreakerState returns the breaker's current state.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.breaker.State()
}

// CircuitBreakerCounts returns the breaker's counts for the current interval.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}
