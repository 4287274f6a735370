package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sante-qc/chatsante/pkg/model"
)

// LLM is the interface for single-prompt chat completion
type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const defaultMistralURL = "https://api.mistral.ai/v1/chat/completions"

// MistralClient implements LLM against the Mistral chat completions API
type MistralClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

type MistralOption func(*MistralClient)

func WithMistralModel(model string) MistralOption {
	return func(m *MistralClient) {
		m.model = model
	}
}

func WithMistralEndpoint(endpoint string) MistralOption {
	return func(m *MistralClient) {
		m.endpoint = endpoint
	}
}

func WithMistralHTTPClient(client *http.Client) MistralOption {
	return func(m *MistralClient) {
		m.httpClient = client
	}
}

// NewMistral creates a Mistral API client. The key is sanitized because keys
// pasted into .env files tend to pick up quotes and stray non-ASCII bytes.
func NewMistral(apiKey string, opts ...MistralOption) (*MistralClient, error) {
	key := cleanAPIKey(apiKey)
	if key == "" {
		return nil, goerr.New("mistral api key is not configured")
	}

	m := &MistralClient{
		apiKey:     key,
		model:      "mistral-medium",
		endpoint:   defaultMistralURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func cleanAPIKey(raw string) string {
	key := strings.TrimSpace(raw)
	key = strings.Trim(key, `"'`)
	return strings.Map(func(r rune) rune {
		if r > 0x7F {
			return -1
		}
		return r
	}, key)
}

type mistralRequest struct {
	Model    string           `json:"model"`
	Messages []mistralMessage `json:"messages"`
}

type mistralMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type mistralResponse struct {
	Choices []struct {
		Message mistralMessage `json:"message"`
	} `json:"choices"`
}

func (m *MistralClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(mistralRequest{
		Model:    m.model,
		Messages: []mistralMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal mistral request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", goerr.Wrap(err, "failed to create mistral request")
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", goerr.Wrap(model.ErrUpstream, "mistral request failed", goerr.V("error", err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", goerr.Wrap(model.ErrUpstream, "failed to read mistral response", goerr.V("error", err.Error()))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", goerr.Wrap(model.ErrRateLimited, "mistral api is saturated")
	}
	if resp.StatusCode != http.StatusOK {
		return "", goerr.Wrap(model.ErrUpstream, "mistral api error",
			goerr.V("status", resp.StatusCode), goerr.V("body", string(body)))
	}

	var parsed mistralResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", goerr.Wrap(model.ErrUpstream, "unexpected mistral response format", goerr.V("error", err.Error()))
	}
	if len(parsed.Choices) == 0 {
		return "", goerr.Wrap(model.ErrUpstream, "mistral response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
