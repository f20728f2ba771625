package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ShortenerClient talks to an external link shortener. A failed or slow
// shortener never fails an upload; callers treat errors as "no short link".
type ShortenerClient struct {
	endpoint string
	client   *http.Client
}

func NewShortenerClient(endpoint string) *ShortenerClient {
	return &ShortenerClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type shortenRequest struct {
	URL string `json:"url"`
}

type shortenResponse struct {
	Slug string `json:"slug"`
}

// Shorten submits a URL and returns the slug assigned by the shortener.
func (c *ShortenerClient) Shorten(ctx context.Context, url string) (string, error) {
	body, err := json.Marshal(shortenRequest{URL: url})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("shortener returned status %d", resp.StatusCode)
	}

	var sr shortenResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", err
	}
	if sr.Slug == "" {
		return "", fmt.Errorf("shortener returned empty slug")
	}
	return sr.Slug, nil
}
