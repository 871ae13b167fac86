// Package embedding is the client for the external text-embedding model
// service. The service is an opaque embed(text) -> 384-float vector
// capability; everything else about the model is its own concern.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/miro-4231/BackendSN/internal/models"

	"github.com/pgvector/pgvector-go"
)

// ErrDisabled is returned when no embedding service is configured.
var ErrDisabled = errors.New("embedding service not configured")

// Client calls the embedding model service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client for the service at baseURL. An empty baseURL
// yields a disabled client whose Embed always fails with ErrDisabled.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a service endpoint is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns the model's vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	body, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embedding response decode failed: %w", err)
	}

	if len(out.Embedding) != models.EmbeddingDim {
		return nil, fmt.Errorf("embedding service returned %d dimensions, want %d",
			len(out.Embedding), models.EmbeddingDim)
	}

	return out.Embedding, nil
}

// EmbedVector is Embed wrapped into the store's vector type.
func (c *Client) EmbedVector(ctx context.Context, text string) (pgvector.Vector, error) {
	raw, err := c.Embed(ctx, text)
	if err != nil {
		return pgvector.Vector{}, err
	}
	return pgvector.NewVector(raw), nil
}
