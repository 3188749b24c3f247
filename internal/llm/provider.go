package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Provider defines the interface for text generation backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate turns a prompt (plus optional media) into free text
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Generator is the capability consumed by the orchestrators:
// given a prompt, return text. No conversation state is kept between calls.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MediaGenerator is a Generator that can also take binary attachments
type MediaGenerator interface {
	Generator
	GenerateWithMedia(ctx context.Context, prompt string, attachments []Attachment) (string, error)
}

// Attachment is binary media sent alongside a prompt
type Attachment struct {
	MIMEType string
	Data     []byte
}

// IsImage reports whether the attachment can be sent as an image part
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIMEType, "image/")
}

// Base64 returns the standard base64 encoding of the data
func (a Attachment) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Data)
}

// DataURI returns the attachment as a data: URI
func (a Attachment) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MIMEType, a.Base64())
}

// GenerateRequest contains the input for a generation call
type GenerateRequest struct {
	// Prompt is the full user prompt; context is re-embedded on every call
	Prompt string

	// System overrides the default system instruction
	System string

	// Attachments are optional media (images are sent natively where supported)
	Attachments []Attachment

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// GenerateResponse contains the generated text
type GenerateResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds generation provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32

	// Rate limiting of outbound calls
	RatePerSecond float64
	Burst         int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:      "", // Disabled by default
		Timeout:       60,
		MaxTokens:     1200,
		Temperature:   0.4,
		RatePerSecond: 2,
		Burst:         4,
	}
}

// DefaultSystemPrompt frames every agent call
const DefaultSystemPrompt = "You are one participant in an insurance claim tribunal. Stay in the role you are given, argue only from the evidence provided, and follow the requested output format exactly."

// resolve fills request defaults from the provider config
func resolve(req GenerateRequest, config Config, defaultModel string) (system, model string, maxTokens int) {
	system = req.System
	if system == "" {
		system = DefaultSystemPrompt
	}

	model = req.Model
	if model == "" {
		model = config.Model
	}
	if model == "" {
		model = defaultModel
	}

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1200
	}
	return system, model, maxTokens
}

// attachmentNotes renders non-image attachments as text for providers
// that only accept images natively
func attachmentNotes(attachments []Attachment) string {
	var b strings.Builder
	for i, a := range attachments {
		if a.IsImage() {
			continue
		}
		fmt.Fprintf(&b, "\n\nATTACHMENT %d (%s, base64):\n%s", i+1, a.MIMEType, a.Base64())
	}
	return b.String()
}

// images returns only the image attachments
func images(attachments []Attachment) []Attachment {
	var out []Attachment
	for _, a := range attachments {
		if a.IsImage() {
			out = append(out, a)
		}
	}
	return out
}
