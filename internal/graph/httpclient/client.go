// Package httpclient implements the graph store client contracts over the
// store's JSON HTTP API.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"casegraph/internal/graph"
)

// Client talks to the backing graph store. It implements graph.Store.
// Timeouts live here at the transport boundary; workflows above carry none.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient replaces the default pooled client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a client for the store at baseURL authenticating with a
// bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphWriteRequest struct {
	EntityData      graph.EntityBundle      `json:"entityData"`
	AssociationData graph.AssociationBundle `json:"associationData"`
}

type partialReplaceRequest struct {
	EntityData graph.ReplaceBundle `json:"entityData"`
}

type neighborSearchRequest struct {
	EntitySetID graph.CollectionID   `json:"entitySetId"`
	Filter      graph.NeighborFilter `json:"filter"`
}

// SubmitGraph writes a multi-entity, multi-association bundle in one call.
func (c *Client) SubmitGraph(ctx context.Context, entities graph.EntityBundle, associations graph.AssociationBundle) (*graph.WriteResult, error) {
	var result graph.WriteResult
	req := graphWriteRequest{EntityData: entities, AssociationData: associations}
	if err := c.do(ctx, "submit graph", http.MethodPost, "/api/data/graph", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitPartialReplace overwrites the named properties of existing records.
func (c *Client) SubmitPartialReplace(ctx context.Context, entities graph.ReplaceBundle) error {
	return c.do(ctx, "partial replace", http.MethodPatch, "/api/data/partial", partialReplaceRequest{EntityData: entities}, nil)
}

// DeleteRecords removes the named records without touching their edges.
func (c *Client) DeleteRecords(ctx context.Context, specs []graph.DeletionSpec) error {
	return c.do(ctx, "delete records", http.MethodPost, "/api/data/delete", specs, nil)
}

// QueryNeighbors runs a direction-filtered one-hop traversal.
func (c *Client) QueryNeighbors(ctx context.Context, source graph.CollectionID, filter graph.NeighborFilter) (graph.NeighborMap, error) {
	var result graph.NeighborMap
	req := neighborSearchRequest{EntitySetID: source, Filter: filter}
	if err := c.do(ctx, "neighbor search", http.MethodPost, "/api/search/neighbors", req, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = graph.NeighborMap{}
	}
	return result, nil
}

// GetRecord fetches one record's full raw payload.
func (c *Client) GetRecord(ctx context.Context, collection graph.CollectionID, id graph.RecordID) (graph.RawRecord, error) {
	var result graph.RawRecord
	path := fmt.Sprintf("/api/data/%s/%s", url.PathEscape(string(collection)), url.PathEscape(string(id)))
	if err := c.do(ctx, "get record", http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &graph.TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &graph.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &graph.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &graph.TransportError{Op: op, Status: resp.StatusCode, Err: graph.ErrRecordNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &graph.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", bytes.TrimSpace(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &graph.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
