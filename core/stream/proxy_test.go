package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanhabib/elmify-backend-sub000/storage"
)

// fakeObjectStore serves objects out of a map and records range calls.
type fakeObjectStore struct {
	objects    map[string][]byte
	headErr    error
	getErr     error
	rangeCalls []RangeSpec
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) HeadObject(ctx context.Context, key string) (storage.ObjectInfo, error) {
	if f.headErr != nil {
		return storage.ObjectInfo{}, f.headErr
	}
	data, ok := f.objects[key]
	if !ok {
		return storage.ObjectInfo{}, fmt.Errorf("head %s: %w", key, storage.ErrObjectNotFound)
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: "audio/mpeg"}, nil
}

func (f *fakeObjectStore) GetRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	f.rangeCalls = append(f.rangeCalls, RangeSpec{Start: start, End: end})
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, storage.ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(data[start : end+1])), nil
}

func (f *fakeObjectStore) SignURL(ctx context.Context, key string, ttl time.Duration) (storage.SignedURL, error) {
	return storage.SignedURL{}, fmt.Errorf("not implemented")
}

func makeObject(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestProxyResolveFullObjectWithinOneChunk(t *testing.T) {
	store := newFakeObjectStore()
	store.objects["lectures/intro.mp3"] = makeObject(1024)

	proxy := NewProxy(store, 10*1024*1024)
	result, err := proxy.Resolve(context.Background(), "lectures/intro.mp3", "")
	require.NoError(t, err)
	defer result.Body.Close()

	assert.False(t, result.Partial)
	assert.Equal(t, int64(0), result.Start)
	assert.Equal(t, int64(1023), result.End)
	assert.Equal(t, int64(1024), result.Size)
	assert.Equal(t, "audio/mpeg", result.ContentType)

	body, err := io.ReadAll(result.Body)
	require.NoError(t, err)
	assert.Equal(t, store.objects["lectures/intro.mp3"], body)
}

func TestProxyResolveFullObjectLargerThanChunkIsCapped(t *testing.T) {
	const maxChunk = 4096
	store := newFakeObjectStore()
	store.objects["lectures/long.mp3"] = makeObject(3 * maxChunk)

	proxy := NewProxy(store, maxChunk)
	result, err := proxy.Resolve(context.Background(), "lectures/long.mp3", "")
	require.NoError(t, err)
	defer result.Body.Close()

	assert.True(t, result.Partial)
	assert.Equal(t, int64(0), result.Start)
	assert.Equal(t, int64(maxChunk-1), result.End)
	assert.Equal(t, int64(3*maxChunk), result.Size)

	body, err := io.ReadAll(result.Body)
	require.NoError(t, err)
	assert.Len(t, body, maxChunk)
}

func TestProxyResolveRangeRequest(t *testing.T) {
	const maxChunk = 4096
	store := newFakeObjectStore()
	store.objects["k"] = makeObject(10 * maxChunk)

	proxy := NewProxy(store, maxChunk)
	result, err := proxy.Resolve(context.Background(), "k", "bytes=8192-")
	require.NoError(t, err)
	defer result.Body.Close()

	assert.True(t, result.Partial)
	assert.Equal(t, int64(8192), result.Start)
	assert.Equal(t, int64(8192+maxChunk-1), result.End)

	require.Len(t, store.rangeCalls, 1)
	assert.Equal(t, RangeSpec{Start: 8192, End: 8192 + maxChunk - 1}, store.rangeCalls[0])
}

// For any object size and any requested range, the served length never
// exceeds the chunk cap and the end never passes the requested end or the
// object end.
func TestProxyChunkCapInvariant(t *testing.T) {
	const maxChunk = int64(1000)
	sizes := []int{1, 999, 1000, 1001, 5000}
	headers := []string{"", "bytes=0-", "bytes=0-100", "bytes=500-", "bytes=0-999999"}

	for _, size := range sizes {
		store := newFakeObjectStore()
		store.objects["k"] = makeObject(size)
		proxy := NewProxy(store, maxChunk)

		for _, header := range headers {
			result, err := proxy.Resolve(context.Background(), "k", header)
			if err != nil {
				// Only satisfiability errors are acceptable here.
				assert.ErrorIs(t, err, ErrRangeNotSatisfiable,
					"size=%d header=%q", size, header)
				continue
			}
			assert.LessOrEqual(t, result.End-result.Start+1, maxChunk,
				"size=%d header=%q", size, header)
			assert.LessOrEqual(t, result.End, result.Size-1,
				"size=%d header=%q", size, header)
			result.Body.Close()
		}
	}
}

func TestProxyResolveStartBeyondSize(t *testing.T) {
	store := newFakeObjectStore()
	store.objects["k"] = makeObject(100)

	proxy := NewProxy(store, 1000)
	_, err := proxy.Resolve(context.Background(), "k", "bytes=100-")
	assert.ErrorIs(t, err, ErrRangeNotSatisfiable)
	assert.Empty(t, store.rangeCalls, "no upstream fetch on an unsatisfiable range")
}

func TestProxyResolveObjectNotFound(t *testing.T) {
	proxy := NewProxy(newFakeObjectStore(), 1000)
	_, err := proxy.Resolve(context.Background(), "missing", "")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestProxyResolveStoreFailure(t *testing.T) {
	store := newFakeObjectStore()
	store.objects["k"] = makeObject(100)
	store.getErr = fmt.Errorf("boom: %w", storage.ErrStoreUnavailable)

	proxy := NewProxy(store, 1000)
	_, err := proxy.Resolve(context.Background(), "k", "bytes=0-10")
	assert.ErrorIs(t, err, storage.ErrStoreUnavailable)
}

func TestProxyResolveEmptyObject(t *testing.T) {
	store := newFakeObjectStore()
	store.objects["empty"] = []byte{}

	proxy := NewProxy(store, 1000)

	result, err := proxy.Resolve(context.Background(), "empty", "")
	require.NoError(t, err)
	defer result.Body.Close()
	assert.False(t, result.Partial)
	assert.Equal(t, int64(0), result.Size)

	_, err = proxy.Resolve(context.Background(), "empty", "bytes=0-")
	assert.ErrorIs(t, err, ErrRangeNotSatisfiable)
}
