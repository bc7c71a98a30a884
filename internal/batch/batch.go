// In file: internal/batch/batch.go

// Package batch implements the shared request contract of the batch
// endpoints: a body is either one object or an array of at most MaxItems
// objects, every item runs concurrently, and each item reports its own
// success or failure.
package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquataze/tool-gateway/internal/api"

	"golang.org/x/sync/errgroup"
)

// MaxItems is the largest batch accepted in one call.
const MaxItems = 50

// Decode splits body into raw items. A single object becomes a batch of one.
// More than limit items fail the whole call before any item is processed.
func Decode(body []byte, limit int) ([]json.RawMessage, error) {
	if limit <= 0 {
		limit = MaxItems
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("request body is empty: %w", api.ErrInvalidArgument)
	}

	var items []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("malformed batch body: %w: %w", api.ErrInvalidArgument, err)
		}
	case '{':
		if !json.Valid(body) {
			return nil, fmt.Errorf("malformed request body: %w", api.ErrInvalidArgument)
		}
		items = []json.RawMessage{json.RawMessage(body)}
	default:
		return nil, fmt.Errorf("request body must be an object or an array: %w", api.ErrInvalidArgument)
	}

	if len(items) > limit {
		return nil, fmt.Errorf("too many requests, provide %d or fewer in a single call: %w", limit, api.ErrBatchLimitExceeded)
	}
	return items, nil
}

// ItemFunc handles one batch item.
type ItemFunc func(ctx context.Context, item json.RawMessage) (any, error)

// Run processes every item concurrently with no parallelism cap. Results keep
// the input order. An item error is recorded in its own slot and never cancels
// siblings, so Run itself only fails if the context was already done.
func Run(ctx context.Context, items []json.RawMessage, fn ItemFunc) ([]api.ItemResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]api.ItemResult, len(items))
	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			data, err := fn(ctx, item)
			if err != nil {
				results[i] = api.Failed(err)
				return nil
			}
			results[i] = api.OK(data)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}
