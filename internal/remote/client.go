package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client implements Store against a PostgREST-style HTTP API: one route per
// table, rows filtered by id equality.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (c *Client) Insert(ctx context.Context, table string, row json.RawMessage) error {
	req, err := c.newRequest(ctx, http.MethodPost, c.tableURL(table), row)
	if err != nil {
		return err
	}
	// Duplicate ids merge instead of erroring; pushes are at-least-once.
	req.Header.Set("Prefer", "resolution=merge-duplicates")
	return c.do(req, nil)
}

func (c *Client) Update(ctx context.Context, table, id string, row json.RawMessage) error {
	req, err := c.newRequest(ctx, http.MethodPatch, c.rowURL(table, id), row)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) Delete(ctx context.Context, table, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.rowURL(table, id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) SelectAll(ctx context.Context, table string) ([]json.RawMessage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.tableURL(table)+"?select=*", nil)
	if err != nil {
		return nil, err
	}

	var rows []json.RawMessage
	if err := c.do(req, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) tableURL(table string) string {
	return c.baseURL + "/" + url.PathEscape(table)
}

func (c *Client) rowURL(table, id string) string {
	return c.tableURL(table) + "?id=eq." + url.QueryEscape(id)
}

func (c *Client) newRequest(ctx context.Context, method, u string, body json.RawMessage) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call remote store: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("remote store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
