package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gaoych/bean-analyze/internal/graph"
)

// DefaultCacheSize bounds the in-process snapshot cache. Snapshots for a
// repeated (root, filters) query are served from memory; nothing outlives
// the process.
const DefaultCacheSize = 32

// ProviderError is a network failure or non-2xx response from the graph
// provider.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("graph provider unreachable: %s", e.Body)
	}
	return fmt.Sprintf("graph provider returned status %d: %s", e.Status, e.Body)
}

// RootList is the response of the provider's roots listing.
type RootList struct {
	Roots              []string                `json:"roots"`
	UnusedChains       []graph.UnusedChainInfo `json:"unusedChains"`
	ThirdPartyPackages []graph.PackageInfo     `json:"thirdPartyPackages"`
}

// Client talks to the external graph provider over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
	cache   *lru.Cache[string, *graph.Snapshot]
}

// NewClient creates a provider client for the given base URL. cacheSize <= 0
// uses DefaultCacheSize.
func NewClient(baseURL string, cacheSize int) (*Client, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *graph.Snapshot](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot cache: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		cache:   cache,
	}, nil
}

// ListRoots fetches the root list, unused chains, and known third-party
// packages under the given filters. List responses are never cached: the
// coordinator relies on a fresh list to decide whether the current root
// survived a filter change.
func (c *Client) ListRoots(ctx context.Context, f Filters) (*RootList, error) {
	body, err := c.get(ctx, "/roots", f.encode().Encode())
	if err != nil {
		return nil, err
	}

	var probe struct {
		Roots *json.RawMessage `json:"roots"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || probe.Roots == nil {
		return nil, fmt.Errorf("%w: roots listing", graph.ErrMalformedPayload)
	}

	var list RootList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrMalformedPayload, err)
	}
	return &list, nil
}

// LoadSnapshot fetches (or serves from cache) the graph snapshot for the
// given query.
func (c *Client) LoadSnapshot(ctx context.Context, q Query) (*graph.Snapshot, error) {
	key := q.CacheKey()
	if snap, ok := c.cache.Get(key); ok {
		return snap, nil
	}

	body, err := c.get(ctx, "/graph-data", q.Encode().Encode())
	if err != nil {
		return nil, err
	}

	snap, err := graph.DecodeSnapshot(body)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, snap)
	return snap, nil
}

// InvalidateCache drops all cached snapshots.
func (c *Client) InvalidateCache() {
	c.cache.Purge()
}

func (c *Client) get(ctx context.Context, path, rawQuery string) ([]byte, error) {
	u := c.baseURL + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building provider request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &ProviderError{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Status: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
