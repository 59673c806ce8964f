package cari

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AddObject stores obj under a server-assigned objectID.
func (i *Index) AddObject(ctx context.Context, obj Record) (Record, error) {
	return i.write(ctx, writeOp(http.MethodPost, i.path(), obj))
}

// SaveObject creates or replaces obj, which must carry an objectID.
func (i *Index) SaveObject(ctx context.Context, obj Record) (Record, error) {
	id, _ := obj["objectID"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: object has no objectID", ErrInvalidOperation)
	}
	return i.write(ctx, writeOp(http.MethodPut, i.path(id), obj))
}

// GetObject fetches one object, optionally restricted to some attributes.
func (i *Index) GetObject(ctx context.Context, objectID string, attributes ...string) (Record, error) {
	if objectID == "" {
		return nil, fmt.Errorf("%w: empty objectID", ErrInvalidOperation)
	}
	path := i.path(objectID)
	if len(attributes) > 0 {
		path += "?" + url.Values{"attributesToRetrieve": {strings.Join(attributes, ",")}}.Encode()
	}
	return i.client.Do(ctx, readOp(http.MethodGet, path, nil))
}

// DeleteObject removes one object.
func (i *Index) DeleteObject(ctx context.Context, objectID string) (Record, error) {
	if objectID == "" {
		return nil, fmt.Errorf("%w: empty objectID", ErrInvalidOperation)
	}
	return i.write(ctx, writeOp(http.MethodDelete, i.path(objectID), nil))
}

// GetSettings fetches the index settings.
func (i *Index) GetSettings(ctx context.Context) (Record, error) {
	return i.client.Do(ctx, readOp(http.MethodGet, i.path("settings"), nil))
}

// SetSettings replaces the given index settings.
func (i *Index) SetSettings(ctx context.Context, settings Record) (Record, error) {
	return i.write(ctx, writeOp(http.MethodPut, i.path("settings"), settings))
}

// write dispatches a mutating operation and drops cached search results,
// which may no longer match the index content.
func (i *Index) write(ctx context.Context, op Operation) (Record, error) {
	res, err := i.client.Do(ctx, op)
	if err == nil {
		i.ClearCache()
	}
	return res, err
}

// ListIndexes lists the indexes of the application.
func (c *Client) ListIndexes(ctx context.Context) (Record, error) {
	return c.Do(ctx, readOp(http.MethodGet, "/1/indexes", nil))
}
