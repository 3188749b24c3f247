package llm

import (
	"context"
	"errors"
	"testing"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *GenerateResponse
	err       error
	requests  []GenerateRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func TestNewClient_DisabledProvider(t *testing.T) {
	client, err := NewClient(Config{Provider: ""}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if client.IsEnabled() {
		t.Error("Expected client to be disabled")
	}
	if client.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}

	_, err = client.Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Expected ErrDisabled, got %v", err)
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	if _, err := NewClient(Config{Provider: "gemini"}, nil); err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}

func TestClient_Generate(t *testing.T) {
	mock := &MockProvider{
		name:      "mock",
		available: true,
		response:  &GenerateResponse{Text: "argument", Model: "m", TokensUsed: 12},
	}
	client := NewClientWithProvider(mock, Config{RatePerSecond: 100, Burst: 10}, nil)

	text, err := client.Generate(context.Background(), "argue")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "argument" {
		t.Errorf("Expected 'argument', got %q", text)
	}
	if len(mock.requests) != 1 || mock.requests[0].Prompt != "argue" {
		t.Errorf("Unexpected requests: %+v", mock.requests)
	}
	if !client.IsAvailable(context.Background()) {
		t.Error("Expected client to be available")
	}
}

func TestClient_GenerateWithMedia_PassesAttachments(t *testing.T) {
	mock := &MockProvider{name: "mock", response: &GenerateResponse{Text: "{}"}}
	client := NewClientWithProvider(mock, Config{}, nil)

	attachments := []Attachment{{MIMEType: "audio/webm", Data: []byte("a")}}
	if _, err := client.GenerateWithMedia(context.Background(), "listen", attachments); err != nil {
		t.Fatalf("GenerateWithMedia failed: %v", err)
	}
	if len(mock.requests[0].Attachments) != 1 {
		t.Errorf("Expected attachment to be forwarded")
	}
}

func TestClient_Generate_PropagatesError(t *testing.T) {
	mock := &MockProvider{name: "mock", err: errors.New("upstream down")}
	client := NewClientWithProvider(mock, Config{}, nil)

	if _, err := client.Generate(context.Background(), "x"); err == nil {
		t.Fatal("Expected error to propagate")
	}
}

func TestClient_Generate_CancelledWhileThrottled(t *testing.T) {
	mock := &MockProvider{name: "mock", response: &GenerateResponse{Text: "ok"}}
	client := NewClientWithProvider(mock, Config{RatePerSecond: 0.001, Burst: 1}, nil)

	if _, err := client.Generate(context.Background(), "first"); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Generate(ctx, "second"); err == nil {
		t.Fatal("Expected error when context is cancelled while waiting for rate limit")
	}
}

func TestAttachment_DataURI(t *testing.T) {
	a := Attachment{MIMEType: "image/png", Data: []byte("hi")}
	if a.DataURI() != "data:image/png;base64,aGk=" {
		t.Errorf("Unexpected data URI: %s", a.DataURI())
	}
	if !a.IsImage() {
		t.Error("Expected image attachment")
	}
}
