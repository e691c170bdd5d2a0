// Package ocr is the HTTP client for the external OCR service that turns
// scanned PDF documents into per-page text.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/medrec/medrec/internal/domain/extract"
)

// Client calls the OCR service. It implements extract.OCR.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates an OCR client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type recognizeResponse struct {
	Pages []struct {
		Number int    `json:"number"`
		Text   string `json:"text"`
	} `json:"pages"`
}

// Recognize posts the whole PDF and returns the recognized pages.
func (c *Client) Recognize(ctx context.Context, pdf []byte) ([]extract.OCRPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/recognize", bytes.NewReader(pdf))
	if err != nil {
		return nil, fmt.Errorf("ocr: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("ocr: service returned status %d", resp.StatusCode)
	}

	var body recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ocr: decode response: %w", err)
	}

	pages := make([]extract.OCRPage, 0, len(body.Pages))
	for _, p := range body.Pages {
		pages = append(pages, extract.OCRPage{Number: p.Number, Text: p.Text})
	}
	return pages, nil
}
