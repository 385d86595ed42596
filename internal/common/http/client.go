// internal/common/http/client.go
package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"lunch-roulette/internal/common/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned without calling upstream while the breaker is open.
var ErrCircuitOpen = gobreaker.ErrOpenState

// errServerStatus marks 5xx responses as breaker failures; callers still get the response.
var errServerStatus = errors.New("upstream server error")

// Options configures a provider client. A zero MaxFailures disables the breaker.
type Options struct {
	Name        string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Client is an http.Client with a per-provider circuit breaker. It never retries.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	name       string
}

func NewClient(timeout time.Duration) *Client {
	return NewBreakerClient(Options{Name: "default", Timeout: timeout})
}

func NewBreakerClient(opts Options) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		name:       opts.Name,
	}
	if opts.MaxFailures == 0 {
		return c
	}

	metrics.CircuitBreakerState.WithLabelValues(opts.Name).Set(0)
	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
	return c
}

// Do sends req through the breaker. Transport errors and 5xx responses count
// as failures; 4xx responses do not.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	defer func() {
		metrics.UpstreamDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	}()

	if c.breaker == nil {
		resp, err := c.httpClient.Do(req)
		c.record(resp, err)
		return resp, err
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.UpstreamRequests.WithLabelValues(c.name, "rejected").Inc()
		return nil, fmt.Errorf("%s: %w", c.name, ErrCircuitOpen)
	}
	if errors.Is(err, errServerStatus) {
		err = nil
	}
	c.record(resp, err)
	return resp, err
}

// State reports the breaker state; "closed" when no breaker is configured.
func (c *Client) State() string {
	if c.breaker == nil {
		return gobreaker.StateClosed.String()
	}
	return c.breaker.State().String()
}

// record counts transport errors and 5xx responses as failures.
func (c *Client) record(resp *http.Response, err error) {
	outcome := "success"
	if err != nil || (resp != nil && resp.StatusCode >= http.StatusInternalServerError) {
		outcome = "failure"
	}
	metrics.UpstreamRequests.WithLabelValues(c.name, outcome).Inc()
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
