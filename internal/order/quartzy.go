package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the production ordering API endpoint.
const DefaultBaseURL = "https://api.quartzy.com"

// Client submits order requests to the Quartzy ordering API.
type Client struct {
	http *resty.Client
}

// NewClient creates a Client carrying the access token on every call.
func NewClient(token string, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Access-Token", token).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	return &Client{http: client}
}

// SubmitAll issues one create call per request, strictly in input order. A
// failed row (transport error, non-2xx status, unparsable body) is captured
// at its position and does not stop the remaining rows. Nothing is retried
// or rolled back, so a batch can be partially applied; re-submitting it will
// re-create rows that already succeeded.
func (c *Client) SubmitAll(ctx context.Context, requests []Request) []json.RawMessage {
	results := make([]json.RawMessage, 0, len(requests))
	for i, req := range requests {
		results = append(results, c.submit(ctx, i, req))
	}
	return results
}

func (c *Client) submit(ctx context.Context, row int, req Request) json.RawMessage {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/order-requests")
	if err != nil {
		slog.Error("Order request failed", "row", row, "name", req.Name, "error", err)
		return errorPayload(err.Error())
	}

	body := resp.Body()
	if !json.Valid(body) {
		slog.Error("Order response is not JSON", "row", row, "status", resp.StatusCode())
		return errorPayload(fmt.Sprintf("status %d: unparsable response body", resp.StatusCode()))
	}
	if resp.IsError() {
		slog.Warn("Order request rejected", "row", row, "name", req.Name, "status", resp.StatusCode())
	}

	// The response body is returned verbatim, success and API error payloads
	// alike; no schema is imposed on it.
	result := make(json.RawMessage, len(body))
	copy(result, body)
	return result
}

func errorPayload(message string) json.RawMessage {
	payload, _ := json.Marshal(map[string]string{"error": message})
	return payload
}
