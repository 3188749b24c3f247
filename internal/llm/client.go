package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/tribunal/internal/logging"
	"github.com/ppiankov/tribunal/internal/worker"
)

// ErrDisabled is returned when no provider is configured
var ErrDisabled = errors.New("generation provider not configured")

// Client is the rate-limited Generator handed to the orchestrators
type Client struct {
	provider Provider
	limiter  *worker.Limiter
	config   Config
	logger   *logging.Logger
}

// NewClient creates a client from configuration
func NewClient(config Config, logger *logging.Logger) (*Client, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return NewClientWithProvider(provider, config, logger), nil
}

// NewClientWithProvider wraps an existing provider.
// A nil provider yields a disabled client whose calls fail with ErrDisabled.
func NewClientWithProvider(provider Provider, config Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NopLogger()
	}
	var limiter *worker.Limiter
	if config.RatePerSecond > 0 {
		limiter = worker.NewLimiter(config.RatePerSecond, config.Burst)
	}
	return &Client{
		provider: provider,
		limiter:  limiter,
		config:   config,
		logger:   logger,
	}
}

// IsEnabled returns whether a provider is configured
func (c *Client) IsEnabled() bool {
	return c.provider != nil
}

// ProviderName returns the configured provider name, or empty when disabled
func (c *Client) ProviderName() string {
	if c.provider == nil {
		return ""
	}
	return c.provider.Name()
}

// IsAvailable checks the provider is reachable
func (c *Client) IsAvailable(ctx context.Context) bool {
	return c.provider != nil && c.provider.IsAvailable(ctx)
}

// Generate implements Generator
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.GenerateWithMedia(ctx, prompt, nil)
}

// GenerateWithMedia implements MediaGenerator
func (c *Client) GenerateWithMedia(ctx context.Context, prompt string, attachments []Attachment) (string, error) {
	if c.provider == nil {
		return "", ErrDisabled
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.provider.Name()); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.provider.Generate(ctx, GenerateRequest{
		Prompt:      prompt,
		Attachments: attachments,
	})
	if err != nil {
		c.logger.Error("generation failed", "provider", c.provider.Name(), "error", err.Error())
		return "", err
	}

	c.logger.Debug("generation completed",
		"provider", c.provider.Name(),
		"model", resp.Model,
		"tokens", resp.TokensUsed,
		"attachments", len(attachments),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp.Text, nil
}
