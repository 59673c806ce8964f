package cari

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// APIKey describes the rights of a key created with AddAPIKey.
type APIKey struct {
	ACL                    []string
	Indexes                []string
	Description            string
	Validity               int // seconds, 0 means forever
	MaxHitsPerQuery        int
	MaxQueriesPerIPPerHour int
}

func (k APIKey) record() Record {
	r := Record{"acl": k.ACL}
	if len(k.Indexes) > 0 {
		r["indexes"] = k.Indexes
	}
	if k.Description != "" {
		r["description"] = k.Description
	}
	if k.Validity > 0 {
		r["validity"] = k.Validity
	}
	if k.MaxHitsPerQuery > 0 {
		r["maxHitsPerQuery"] = k.MaxHitsPerQuery
	}
	if k.MaxQueriesPerIPPerHour > 0 {
		r["maxQueriesPerIPPerHour"] = k.MaxQueriesPerIPPerHour
	}
	return r
}

// ListAPIKeys lists the API keys of the application.
func (c *Client) ListAPIKeys(ctx context.Context) (Record, error) {
	return c.Do(ctx, readOp(http.MethodGet, "/1/keys", nil))
}

// GetAPIKey fetches the rights of one key.
func (c *Client) GetAPIKey(ctx context.Context, key string) (Record, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidOperation)
	}
	return c.Do(ctx, readOp(http.MethodGet, "/1/keys/"+url.PathEscape(key), nil))
}

// AddAPIKey creates a key. The response carries the new key.
func (c *Client) AddAPIKey(ctx context.Context, key APIKey) (Record, error) {
	if len(key.ACL) == 0 {
		return nil, fmt.Errorf("%w: key needs at least one ACL", ErrInvalidOperation)
	}
	return c.Do(ctx, writeOp(http.MethodPost, "/1/keys", key.record()))
}

// DeleteAPIKey revokes a key.
func (c *Client) DeleteAPIKey(ctx context.Context, key string) (Record, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidOperation)
	}
	return c.Do(ctx, writeOp(http.MethodDelete, "/1/keys/"+url.PathEscape(key), nil))
}
