package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the external AI backend that generates assistant replies
// and receives notebook lifecycle notifications.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type NotebookCreatedRequest struct {
	NotebookId string `json:"notebook_id"`
	UserId     string `json:"user_id"`
	Name       string `json:"name"`
}

type ChatRequest struct {
	Message    string   `json:"message"`
	NotebookId string   `json:"notebook_id"`
	UserId     string   `json:"user_id"`
	SourceIds  []string `json:"source_ids,omitempty"`
}

// ChatResponse carries the assistant reply. Citations stays raw JSON; it is
// persisted verbatim and only interpreted at normalization time.
type ChatResponse struct {
	Output    string          `json:"output"`
	Citations json.RawMessage `json:"citations,omitempty"`

	// Raw is the full response body, passed through to the caller.
	Raw json.RawMessage `json:"-"`
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}
	return bodyBytes, nil
}

// NotifyNotebookCreated tells the backend a notebook now exists so it can
// prepare retrieval state. Callers treat failures as non-fatal.
func (c *Client) NotifyNotebookCreated(ctx context.Context, req NotebookCreatedRequest) (json.RawMessage, error) {
	body, err := c.post(ctx, "/create-notebook", req)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// SendChatMessage forwards one user turn and returns the assistant reply.
func (c *Client) SendChatMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := c.post(ctx, "/send-chat-message", req)
	if err != nil {
		return nil, err
	}

	var parsed ChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse backend response: %w", err)
	}
	parsed.Raw = json.RawMessage(body)
	return &parsed, nil
}
