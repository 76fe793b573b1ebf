package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/alanhabib/elmify-backend-sub000/logger"
	"github.com/alanhabib/elmify-backend-sub000/storage"
)

// StreamResult is one bounded slice of an object, ready to be written as a
// range-family HTTP response. Body covers exactly [Start, End].
type StreamResult struct {
	Partial     bool // true when a range was requested or the object spans multiple chunks
	Start       int64
	End         int64
	Size        int64
	ContentType string
	Body        io.ReadCloser
}

// Proxy resolves client range requests into capped upstream fetches. It is
// stateless; every call stands alone and no locking is needed.
type Proxy struct {
	store        storage.ObjectStore
	maxChunkSize int64
}

// NewProxy creates a range streaming proxy serving at most maxChunkSize
// bytes per response.
func NewProxy(store storage.ObjectStore, maxChunkSize int64) *Proxy {
	return &Proxy{store: store, maxChunkSize: maxChunkSize}
}

// Resolve translates an object key plus an optional Range header into a
// bounded byte stream. An absent header means "whole object", which is still
// capped at one chunk; well-behaved players request the remainder with
// follow-up ranges. Upstream failures are surfaced, never retried here: a
// half-delivered stream cannot be resumed transparently.
func (p *Proxy) Resolve(ctx context.Context, key, rangeHeader string) (*StreamResult, error) {
	info, err := p.store.HeadObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", key, err)
	}

	// Empty objects have no valid byte range; serve them whole.
	if info.Size == 0 {
		if rangeHeader != "" {
			return nil, fmt.Errorf("%w: object %s is empty", ErrRangeNotSatisfiable, key)
		}
		return &StreamResult{
			Size:        0,
			End:         -1,
			ContentType: info.ContentType,
			Body:        io.NopCloser(bytes.NewReader(nil)),
		}, nil
	}

	spec := RangeSpec{Start: 0, End: info.Size - 1}
	if rangeHeader != "" {
		spec, err = ParseRange(rangeHeader, info.Size)
		if err != nil {
			return nil, err
		}
	}
	spec = spec.Clamp(p.maxChunkSize)

	body, err := p.store.GetRange(ctx, key, spec.Start, spec.End)
	if err != nil {
		logger.Error("range fetch failed",
			logger.String("key", key),
			logger.Int64("start", spec.Start),
			logger.Int64("end", spec.End),
			logger.ErrorField(err))
		return nil, fmt.Errorf("fetch %s [%d-%d]: %w", key, spec.Start, spec.End, err)
	}

	return &StreamResult{
		Partial:     rangeHeader != "" || spec.End < info.Size-1,
		Start:       spec.Start,
		End:         spec.End,
		Size:        info.Size,
		ContentType: info.ContentType,
		Body:        body,
	}, nil
}
