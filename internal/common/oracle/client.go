// internal/common/oracle/client.go
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	commonhttp "phone-finder-workers/internal/common/http"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/metrics"

	"github.com/go-resty/resty/v2"
)

var (
	ErrOracleUnavailable = errors.New("ORACLE_UNAVAILABLE")
	ErrOracleTimeout     = errors.New("ORACLE_TIMEOUT")
	ErrMalformedResponse = errors.New("ORACLE_MALFORMED_RESPONSE")
)

// Roles accepted by chat-completion endpoints.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is one oracle call. Call names the call site for logs and
// metrics ("filters", "number").
type CompletionRequest struct {
	Call        string
	Messages    []Message
	Temperature float64
	JSONMode    bool
}

// Oracle turns a conversation into text. Implementations must honor ctx.
type Oracle interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryWait  time.Duration
}

// Client talks to an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	config *Config
	http   *resty.Client
	logger logger.Logger
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewClient(config *Config, log logger.Logger) *Client {
	c := &Client{
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "oracle"}),
	}

	c.http = commonhttp.NewClient(commonhttp.Options{
		BaseURL:    strings.TrimRight(config.BaseURL, "/"),
		Timeout:    config.Timeout,
		BearerAuth: config.APIKey,
		RetryCount: config.MaxRetries,
		RetryWait:  config.RetryWait,
	}).AddRetryHook(func(resp *resty.Response, err error) {
		fields := map[string]interface{}{}
		if resp != nil && resp.Request != nil {
			fields["attempt"] = resp.Request.Attempt
		}
		if err != nil {
			fields["error"] = err.Error()
		} else if resp != nil {
			fields["status"] = resp.StatusCode()
		}
		c.logger.Warn("retrying oracle call", fields)
	})

	return c
}

// Complete sends the conversation and returns the first choice's content.
// The whole call, retries included, is bounded by the configured timeout.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	content, err := c.complete(ctx, req)
	metrics.OracleRequestDuration.WithLabelValues(req.Call).Observe(time.Since(start).Seconds())
	metrics.OracleRequestsTotal.WithLabelValues(req.Call, statusLabel(err)).Inc()

	return content, err
}

func (c *Client) complete(ctx context.Context, req CompletionRequest) (string, error) {
	body := chatRequest{
		Model:       c.config.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var out chatResponse
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/chat/completions")

	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return "", ErrOracleTimeout
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrOracleUnavailable, resp.StatusCode(), msg)
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrMalformedResponse)
	}

	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}

	c.logger.Debug("oracle call completed", map[string]interface{}{
		"call":     req.Call,
		"attempts": resp.Request.Attempt,
		"chars":    len(content),
	})

	return content, nil
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrOracleTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}
