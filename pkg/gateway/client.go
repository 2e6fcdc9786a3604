package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"shareit/pkg/circuitbreaker"
	"shareit/pkg/config"
	"shareit/pkg/logging"
	"shareit/pkg/metrics"

	"github.com/rs/zerolog"
)

// ErrUnavailable means the server could not be reached or the breaker is open.
var ErrUnavailable = errors.New("service unavailable")

// Call is one request relayed to the server.
type Call struct {
	Method    string
	Path      string
	Query     url.Values
	UserID    string
	RequestID string
	Body      []byte
}

// Response is what the server answered, relayed verbatim.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

type errServer struct {
	status int
}

func (e errServer) Error() string {
	return fmt.Sprintf("server answered %d", e.status)
}

// Client forwards calls to the server through a circuit breaker. Transport
// errors and 5xx answers count as breaker failures.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *zerolog.Logger
}

func NewClient(cfg config.GatewayConfig, logger *zerolog.Logger) *Client {
	breaker := circuitbreaker.NewCircuitBreakerWithWindow(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout, cfg.Breaker.Window)
	breaker.OnStateChange(func(s circuitbreaker.State) {
		metrics.SetBreakerState(int(s))
		logger.Warn().Str("state", s.String()).Msg("circuit breaker state changed")
	})
	return &Client{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

func (c *Client) Do(ctx context.Context, call Call) (*Response, error) {
	var resp *Response
	err := c.breaker.Execute(func() error {
		var err error
		resp, err = c.send(ctx, call)
		if err != nil {
			return err
		}
		if resp.Status >= http.StatusInternalServerError {
			return errServer{status: resp.Status}
		}
		return nil
	}, nil)

	var serverErr errServer
	switch {
	case err == nil:
		return resp, nil
	case errors.As(err, &serverErr):
		return resp, nil
	case errors.Is(err, circuitbreaker.ErrOpen):
		c.logger.Warn().Str("path", call.Path).Msg("circuit breaker open, rejecting call")
		return nil, ErrUnavailable
	default:
		c.logger.Error().Err(err).Str("method", call.Method).Str("path", call.Path).Msg("server call failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (c *Client) send(ctx context.Context, call Call) (*Response, error) {
	target := c.baseURL + call.Path
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		body = bytes.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if call.UserID != "" {
		req.Header.Set(UserIDHeader, call.UserID)
	}
	if call.RequestID != "" {
		req.Header.Set(logging.RequestIDHeader, call.RequestID)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{Status: res.StatusCode, ContentType: res.Header.Get("Content-Type"), Body: data}, nil
}
