package manifest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alanhabib/elmify-backend-sub000/logger"
	"github.com/alanhabib/elmify-backend-sub000/model"
	"github.com/alanhabib/elmify-backend-sub000/storage"
)

var (
	// ErrCatalogMismatch means the catalog resolved fewer (or more) tracks
	// than were requested. Missing tracks are never silently dropped.
	ErrCatalogMismatch = errors.New("catalog track count mismatch")
	// ErrSigningFailure means at least one track URL could not be signed.
	// A manifest is all-or-nothing; there is no partial-success result.
	ErrSigningFailure = errors.New("track signing failed")
)

// PublicCaller is the identity segment used for anonymous requests.
const PublicCaller = "public"

// TrackMeta is the catalog's view of one track: where its audio lives and
// how long it runs.
type TrackMeta struct {
	ID              string
	StorageKey      string
	DurationSeconds int64
}

// Catalog resolves track ids to storage keys and durations. Implementations
// must return resolved tracks in the requested order.
type Catalog interface {
	ResolveTracks(ctx context.Context, ids []string) ([]TrackMeta, error)
}

// Store is the manifest cache as the resolver sees it. A nil manifest from
// Get means miss; implementations are expected to swallow backend failures
// and report them as misses, since the cache is never a correctness
// dependency.
type Store interface {
	Get(ctx context.Context, playlistID, caller string) (*model.PlaylistManifest, error)
	Set(ctx context.Context, caller string, manifest *model.PlaylistManifest, ttl time.Duration) error
	DeleteByPlaylist(ctx context.Context, playlistID string) (int64, error)
}

// Config carries the manifest policy knobs.
type Config struct {
	SignedURLTTL          time.Duration
	CacheTTL              time.Duration
	SafetyMargin          time.Duration
	MaxConcurrentSignings int
}

// Resolver turns an ordered list of track ids into a playlist manifest of
// signed URLs, caching the result with a lifetime safely below the URLs' own
// expiry.
type Resolver struct {
	objects storage.ObjectStore
	cache   Store
	catalog Catalog
	cfg     Config
}

// NewResolver wires a manifest resolver.
func NewResolver(objects storage.ObjectStore, cache Store, catalog Catalog, cfg Config) *Resolver {
	return &Resolver{objects: objects, cache: cache, catalog: catalog, cfg: cfg}
}

// GetManifest returns the manifest for a playlist as seen by one caller.
// A cached manifest is reused only while its remaining lifetime exceeds the
// safety margin; an entry closer to expiry than that could hand out URLs
// that die mid-playback, so it counts as a miss.
func (r *Resolver) GetManifest(ctx context.Context, playlistID, caller string, trackIDs []string) (*model.PlaylistManifest, error) {
	if caller == "" {
		caller = PublicCaller
	}

	if cached, _ := r.cache.Get(ctx, playlistID, caller); cached != nil {
		if time.Until(cached.ExpiresAt) > r.cfg.SafetyMargin {
			cached.ServedFromCache = true
			logger.Debug("manifest served from cache",
				logger.String("playlistId", playlistID),
				logger.String("caller", caller))
			return cached, nil
		}
		logger.Debug("cached manifest inside safety margin, resolving fresh",
			logger.String("playlistId", playlistID))
	}

	manifest, err := r.resolve(ctx, playlistID, trackIDs)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, caller, manifest, r.cfg.CacheTTL); err != nil {
		// Cache writes are best effort; the manifest is already complete.
		logger.Warn("manifest cache write failed",
			logger.String("playlistId", playlistID),
			logger.ErrorField(err))
	}

	return manifest, nil
}

// Invalidate purges cached manifests for a playlist across all caller
// variants. Passing "*" purges everything. Already-issued URLs stay valid
// until their own expiry.
func (r *Resolver) Invalidate(ctx context.Context, playlistID string) (int64, error) {
	return r.cache.DeleteByPlaylist(ctx, playlistID)
}

// resolve builds a fresh manifest: catalog lookup, concurrent signing,
// reassembly in request order.
func (r *Resolver) resolve(ctx context.Context, playlistID string, trackIDs []string) (*model.PlaylistManifest, error) {
	metas, err := r.catalog.ResolveTracks(ctx, trackIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog for %s: %w", playlistID, err)
	}
	if len(metas) != len(trackIDs) {
		return nil, fmt.Errorf("%w: requested %d, resolved %d", ErrCatalogMismatch, len(trackIDs), len(metas))
	}

	maxConcurrent := r.cfg.MaxConcurrentSignings
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	// Sign every track concurrently, bounded by a semaphore. Results land in
	// an index-addressed slice so the manifest order always equals request
	// order, whatever order the signings complete in.
	entries := make([]model.TrackManifestEntry, len(metas))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var signErr error

	for i, meta := range metas {
		wg.Add(1)
		go func(i int, meta TrackMeta) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			signed, err := r.objects.SignURL(ctx, meta.StorageKey, r.cfg.SignedURLTTL)
			if err != nil {
				mu.Lock()
				if signErr == nil {
					signErr = fmt.Errorf("%w: track %s: %v", ErrSigningFailure, meta.ID, err)
				}
				mu.Unlock()
				return
			}

			entries[i] = model.TrackManifestEntry{
				TrackID:         meta.ID,
				SignedURL:       signed.URL,
				ExpiresAt:       signed.ExpiresAt,
				DurationSeconds: meta.DurationSeconds,
			}
		}(i, meta)
	}
	wg.Wait()

	if signErr != nil {
		logger.Error("manifest resolution failed",
			logger.String("playlistId", playlistID),
			logger.Int("tracks", len(trackIDs)),
			logger.ErrorField(signErr))
		return nil, signErr
	}

	var totalDuration int64
	expiresAt := time.Time{}
	for _, entry := range entries {
		totalDuration += entry.DurationSeconds
		if expiresAt.IsZero() || entry.ExpiresAt.Before(expiresAt) {
			expiresAt = entry.ExpiresAt
		}
	}

	return &model.PlaylistManifest{
		PlaylistID:           playlistID,
		Tracks:               entries,
		TotalTracks:          len(entries),
		TotalDurationSeconds: totalDuration,
		GeneratedAt:          time.Now(),
		ExpiresAt:            expiresAt,
		ServedFromCache:      false,
	}, nil
}
