// Package backend talks to the TradeLM main backend on behalf of tool
// calls. Summaries are anonymized aggregates keyed by user ID.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client fetches an anonymized trade summary for a user.
type Client interface {
	TradeSummary(ctx context.Context, userID string) (string, error)
}

// HTTPClient fetches summaries from the main backend over HTTP,
// authenticating with the shared microservice secret.
type HTTPClient struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewHTTPClient creates a backend client rooted at baseURL.
func NewHTTPClient(baseURL, secret string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) TradeSummary(ctx context.Context, userID string) (string, error) {
	endpoint := fmt.Sprintf("%s/internal/ai/users/%s/trade-summary", c.baseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Microservice-Auth", c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching trade summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("backend returned %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding summary: %w", err)
	}
	return result.Summary, nil
}

// MockClient returns a canned anonymized summary without touching the
// network. Used for local development when the backend endpoint is not
// deployed yet.
type MockClient struct{}

func (MockClient) TradeSummary(_ context.Context, userID string) (string, error) {
	return fmt.Sprintf(`[Anonymized Trade Summary for ID %s]:
- Total Trades in Q4: 150
- Net P/L: +$12,500
- Best Strategy: Breakout (70%% Win Rate)
- Worst Mistake: Over-leveraging on Fridays.`, userID), nil
}
