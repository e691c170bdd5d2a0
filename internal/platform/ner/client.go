// Package ner is the HTTP client for the external clinical named-entity
// recognition service.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/medrec/medrec/internal/domain/nlp"
)

// Client calls the NER service. It implements nlp.Recognizer.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a recognizer client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type recognizeRequest struct {
	Text string `json:"text"`
}

type recognizeResponse struct {
	Entities []nlp.Mention `json:"entities"`
}

// Recognize posts one window of text and returns the raw mentions.
// Connection and timeout failures map to nlp.ErrUnavailable so the caller
// can tell a dead backend from a bad document.
func (c *Client) Recognize(ctx context.Context, text string) ([]nlp.Mention, error) {
	payload, err := json.Marshal(recognizeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("ner: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/entities", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ner: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", nlp.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("ner: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: service returned status %d", nlp.ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("ner: service returned status %d", resp.StatusCode)
	}

	var body recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ner: decode response: %w", err)
	}
	return body.Entities, nil
}
