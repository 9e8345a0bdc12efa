// Package qdrant implements the metadata and chunk stores on two Qdrant
// collections through Qdrant's REST API.
//
// The metadata collection holds one point per link with the document under
// the "metadata" payload key. Qdrant requires a vector on every point, so
// metadata points carry a random placeholder vector that is regenerated on
// every write and never searched. The chunk collection holds one point per
// chunk with "link_id", "chunk" and "url" payload keys.
//
// Grouped search uses the points/search/groups endpoint. Ties between
// equal scores are ordered by Qdrant.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/linkrank/internal/core/ports/driven"
	"github.com/custodia-labs/linkrank/internal/logger"
)

// Defaults applied by New.
const (
	DefaultMetadataCollection = "links_metadata"
	DefaultChunkCollection    = "links_chunks"
	DefaultMetadataDimensions = 768
	DefaultTimeout            = 15 * time.Second
)

// errCollectionMissing is returned by the collection probe on 404.
var errCollectionMissing = errors.New("collection does not exist")

// Config configures the Qdrant client.
type Config struct {
	URL    string
	APIKey string

	MetadataCollection string
	ChunkCollection    string

	// ChunkDimensions is the embedding size of the chunk collection.
	ChunkDimensions int

	// MetadataDimensions is the size of the placeholder vectors.
	MetadataDimensions int

	Timeout time.Duration
}

// Client is a minimal REST client to Qdrant.
type Client struct {
	url    string
	apiKey string
	cfg    Config
	client *http.Client
}

// New creates a client. Missing collection names and sizes take defaults.
func New(cfg Config) *Client {
	if cfg.MetadataCollection == "" {
		cfg.MetadataCollection = DefaultMetadataCollection
	}
	if cfg.ChunkCollection == "" {
		cfg.ChunkCollection = DefaultChunkCollection
	}
	if cfg.MetadataDimensions <= 0 {
		cfg.MetadataDimensions = DefaultMetadataDimensions
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		url:    strings.TrimRight(cfg.URL, "/"),
		apiKey: cfg.APIKey,
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// MetadataStore returns the metadata collection view.
func (c *Client) MetadataStore() driven.MetadataStore {
	return &metadataStore{client: c, collection: c.cfg.MetadataCollection, dimensions: c.cfg.MetadataDimensions}
}

// ChunkStore returns the chunk collection view.
func (c *Client) ChunkStore() driven.ChunkStore {
	return &chunkStore{client: c, collection: c.cfg.ChunkCollection}
}

// EnsureCollections creates both collections with cosine distance when
// they do not exist yet, and indexes the payload keys used by filters.
func (c *Client) EnsureCollections(ctx context.Context) error {
	if c.cfg.ChunkDimensions <= 0 {
		return errors.New("qdrant: chunk dimensions must be positive")
	}
	if err := c.ensureCollection(ctx, c.cfg.MetadataCollection, c.cfg.MetadataDimensions); err != nil {
		return err
	}
	if err := c.ensureCollection(ctx, c.cfg.ChunkCollection, c.cfg.ChunkDimensions); err != nil {
		return err
	}
	return c.createIndex(ctx, c.cfg.ChunkCollection, "link_id")
}

func (c *Client) ensureCollection(ctx context.Context, name string, size int) error {
	err := c.do(ctx, http.MethodGet, "/collections/"+name, nil, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errCollectionMissing) {
		return err
	}
	logger.Info("Creating qdrant collection %s (size %d)", name, size)
	body := map[string]any{
		"vectors": map[string]any{
			"size":     size,
			"distance": "Cosine",
		},
	}
	return c.do(ctx, http.MethodPut, "/collections/"+name, body, nil)
}

func (c *Client) createIndex(ctx context.Context, collection, field string) error {
	body := map[string]any{
		"field_name":   field,
		"field_schema": "keyword",
	}
	return c.do(ctx, http.MethodPut, "/collections/"+collection+"/index?wait=true", body, nil)
}

// envelope is the common Qdrant response wrapper.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Status any             `json:"status"`
}

// do sends body as JSON and decodes the "result" field into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant: encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, reader)
	if err != nil {
		return fmt.Errorf("qdrant: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && method == http.MethodGet {
		return errCollectionMissing
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("qdrant: decoding response: %w", err)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("qdrant: decoding result: %w", err)
	}
	return nil
}

// pointID accepts both UUID strings and unsigned integer ids.
type pointID string

func (p *pointID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = pointID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("qdrant: unsupported point id %s", data)
	}
	*p = pointID(n.String())
	return nil
}

// condition is one clause of a Qdrant filter.
type condition struct {
	Key   string     `json:"key"`
	Match *match     `json:"match,omitempty"`
	Range *rangeCond `json:"range,omitempty"`
}

type match struct {
	Value any      `json:"value,omitempty"`
	Any   []string `json:"any,omitempty"`
}

type rangeCond struct {
	Gte float64 `json:"gte"`
	Lte float64 `json:"lte"`
}

// filter is a conjunction of conditions.
type filter struct {
	Must []condition `json:"must"`
}
