package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/alanhabib/elmify-backend-sub000/logger"
	"github.com/alanhabib/elmify-backend-sub000/model"
)

// ManifestStore keeps rendered playlist manifests in Redis. The store is a
// performance layer only: a failing Redis is reported as a miss, never as an
// error, so manifests can always be resolved directly from the object store.
type ManifestStore struct {
	client *redis.Client
}

// NewManifestStore wraps a Redis client as a manifest store.
func NewManifestStore(client *redis.Client) *ManifestStore {
	return &ManifestStore{client: client}
}

// ManifestKey builds the cache key for a playlist as seen by one caller.
// Keys are namespaced "manifest:{playlistID}:{caller}" so a whole playlist
// can be purged across all caller variants with one prefix pattern.
func ManifestKey(playlistID, caller string) string {
	return fmt.Sprintf("manifest:%s:%s", playlistID, caller)
}

// manifestPattern builds the key pattern matching every caller variant of a
// playlist. A "*" playlist matches all manifests.
func manifestPattern(playlistID string) string {
	if playlistID == "*" {
		return "manifest:*"
	}
	return fmt.Sprintf("manifest:%s:*", playlistID)
}

// Get returns the cached manifest for (playlistID, caller), or nil on a miss.
// Redis failures are logged and reported as a miss.
func (s *ManifestStore) Get(ctx context.Context, playlistID, caller string) (*model.PlaylistManifest, error) {
	key := ManifestKey(playlistID, caller)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		logger.Warn("manifest cache read failed, treating as miss",
			logger.String("key", key),
			logger.ErrorField(err))
		return nil, nil
	}

	var manifest model.PlaylistManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		logger.Warn("manifest cache entry corrupt, treating as miss",
			logger.String("key", key),
			logger.ErrorField(err))
		return nil, nil
	}

	return &manifest, nil
}

// Set stores a manifest under (manifest.PlaylistID, caller) with the given TTL.
func (s *ManifestStore) Set(ctx context.Context, caller string, manifest *model.PlaylistManifest, ttl time.Duration) error {
	key := ManifestKey(manifest.PlaylistID, caller)

	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest %s: %w", key, err)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("store manifest %s: %w", key, err)
	}

	logger.Debug("manifest cached",
		logger.String("key", key),
		logger.Duration("ttl", ttl))
	return nil
}

// DeleteByPlaylist removes every caller variant of a playlist's manifest.
// Passing "*" purges all manifests. Returns the number of deleted keys.
func (s *ManifestStore) DeleteByPlaylist(ctx context.Context, playlistID string) (int64, error) {
	pattern := manifestPattern(playlistID)

	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return 0, fmt.Errorf("scan manifest keys %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("delete manifest keys %s: %w", pattern, err)
	}

	logger.Info("manifests invalidated",
		logger.String("pattern", pattern),
		logger.Int64("deleted", deleted))
	return deleted, nil
}
