package emojiapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	errors "github.com/Laisky/errors/v2"
)

const (
	SearchPath = "/api/emoji/search"
	AllPath    = "/api/emoji/all"
	GroupsPath = "/api/emoji/groups"
	GroupPath  = "/api/emoji/group/"
	HealthPath = "/api/health"

	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 512
)

type Client struct {
	http    *http.Client
	baseURL string
}

// Emoji is one record as returned by the service. Score is only set by the
// search endpoint.
type Emoji struct {
	Emoji string   `json:"emoji"`
	Name  string   `json:"name"`
	Group string   `json:"group"`
	Score *float64 `json:"score,omitempty"`
}

type SearchResponse struct {
	Query   string  `json:"query"`
	Results []Emoji `json:"results"`
}

// searchPayload tells a missing or null results field apart from an empty one.
type searchPayload struct {
	Query   string   `json:"query"`
	Results *[]Emoji `json:"results"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// ErrMissingResults is returned when a successful search response carries no
// results array.
var ErrMissingResults = errors.New("response has no results")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api error: %d", e.Code)
	}
	return fmt.Sprintf("api error: %d: %s", e.Code, e.Body)
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SearchURL builds the search request URL. Spaces are sent as %20 rather
// than '+' so the query survives any decoder.
func (c *Client) SearchURL(query string, topK int) string {
	return c.baseURL + SearchPath + "?query=" + escapeQuery(query) + "&top_k=" + strconv.Itoa(topK)
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (c *Client) Search(ctx context.Context, requestID, query string, topK int) (*SearchResponse, error) {
	var payload searchPayload
	if err := c.get(ctx, requestID, c.SearchURL(query, topK), &payload); err != nil {
		return nil, errors.Wrapf(err, "search %q", query)
	}
	if payload.Results == nil {
		return nil, errors.Wrapf(ErrMissingResults, "search %q", query)
	}
	return &SearchResponse{Query: payload.Query, Results: *payload.Results}, nil
}

func (c *Client) All(ctx context.Context) ([]Emoji, error) {
	var emojis []Emoji
	if err := c.get(ctx, "", c.baseURL+AllPath, &emojis); err != nil {
		return nil, errors.Wrap(err, "list all emojis")
	}
	return emojis, nil
}

func (c *Client) Groups(ctx context.Context) ([]string, error) {
	var groups []string
	if err := c.get(ctx, "", c.baseURL+GroupsPath, &groups); err != nil {
		return nil, errors.Wrap(err, "list emoji groups")
	}
	return groups, nil
}

func (c *Client) ByGroup(ctx context.Context, group string) ([]Emoji, error) {
	var emojis []Emoji
	if err := c.get(ctx, "", c.baseURL+GroupPath+url.PathEscape(group), &emojis); err != nil {
		return nil, errors.Wrapf(err, "list emojis in group %q", group)
	}
	return emojis, nil
}

// Health checks that the base URL points at a running search service.
func (c *Client) Health(ctx context.Context) error {
	var resp healthResponse
	if err := c.get(ctx, "", c.baseURL+HealthPath, &resp); err != nil {
		return errors.Wrap(err, "health check")
	}
	if resp.Status == "" {
		return errors.New("health check returned no status")
	}
	return nil
}

func (c *Client) get(ctx context.Context, requestID, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set(RequestIDHeader, requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
