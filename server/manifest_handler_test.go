package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanhabib/elmify-backend-sub000/core/auth"
	"github.com/alanhabib/elmify-backend-sub000/core/manifest"
	"github.com/alanhabib/elmify-backend-sub000/model"
)

// fakeLectureRepo implements repository.LectureRepository over a fixed set
// of lectures.
type fakeLectureRepo struct {
	lectures map[string]model.Lecture
	ordered  []string
}

func (r *fakeLectureRepo) Create(ctx context.Context, lecture *model.Lecture) error {
	r.lectures[lecture.ID] = *lecture
	r.ordered = append(r.ordered, lecture.ID)
	return nil
}

func (r *fakeLectureRepo) GetByID(ctx context.Context, id string) (*model.Lecture, error) {
	lecture, ok := r.lectures[id]
	if !ok {
		return nil, nil
	}
	return &lecture, nil
}

func (r *fakeLectureRepo) GetByCollection(ctx context.Context, collection string) ([]*model.Lecture, error) {
	var out []*model.Lecture
	for _, id := range r.ordered {
		lecture := r.lectures[id]
		if lecture.Collection == collection {
			out = append(out, &lecture)
		}
	}
	return out, nil
}

func (r *fakeLectureRepo) ResolveTracks(ctx context.Context, ids []string) ([]manifest.TrackMeta, error) {
	metas := make([]manifest.TrackMeta, 0, len(ids))
	for _, id := range ids {
		lecture, ok := r.lectures[id]
		if !ok {
			continue
		}
		metas = append(metas, manifest.TrackMeta{
			ID:              lecture.ID,
			StorageKey:      lecture.StorageKey,
			DurationSeconds: lecture.Duration,
		})
	}
	return metas, nil
}

// memStore is a minimal in-process manifest.Store.
type memStore struct {
	mu      sync.Mutex
	entries map[string]model.PlaylistManifest
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]model.PlaylistManifest)}
}

func (s *memStore) Get(ctx context.Context, playlistID, caller string) (*model.PlaylistManifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[playlistID+":"+caller]
	if !ok {
		return nil, nil
	}
	copied := entry
	return &copied, nil
}

func (s *memStore) Set(ctx context.Context, caller string, m *model.PlaylistManifest, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[m.PlaylistID+":"+caller] = *m
	return nil
}

func (s *memStore) DeleteByPlaylist(ctx context.Context, playlistID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key := range s.entries {
		if playlistID == "*" || strings.HasPrefix(key, playlistID+":") {
			delete(s.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

func newManifestTestRouter(t *testing.T, adminTokenHash string) (*mux.Router, *fakeLectureRepo) {
	t.Helper()

	repo := &fakeLectureRepo{lectures: make(map[string]model.Lecture)}
	for _, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, repo.Create(context.Background(), &model.Lecture{
			ID:         id,
			Title:      "Lecture " + id,
			Collection: "col-1",
			StorageKey: "lectures/" + id + ".mp3",
			Duration:   3600,
		}))
	}

	signer := &fakeObjectStore{objects: map[string][]byte{}}
	resolver := manifest.NewResolver(signer, newMemStore(), repo, manifest.Config{
		SignedURLTTL:          4 * time.Hour,
		CacheTTL:              3 * time.Hour,
		SafetyMargin:          5 * time.Minute,
		MaxConcurrentSignings: 4,
	})
	handler := NewManifestHandler(resolver, repo, adminTokenHash)

	router := mux.NewRouter()
	router.HandleFunc("/api/playlists/{id}/manifest", handler.GetManifestHandler).
		Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/manifest", handler.InvalidateHandler).
		Methods(http.MethodDelete)
	return router, repo
}

func decodeManifest(t *testing.T, rec *httptest.ResponseRecorder) model.PlaylistManifest {
	t.Helper()
	var m model.PlaylistManifest
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&m))
	return m
}

func TestManifestHandlerExplicitTracks(t *testing.T) {
	router, _ := newManifestTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/playlists/pl-1/manifest?tracks=t2,t1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	m := decodeManifest(t, rec)
	assert.Equal(t, "pl-1", m.PlaylistID)
	require.Len(t, m.Tracks, 2)
	assert.Equal(t, "t2", m.Tracks[0].TrackID)
	assert.Equal(t, "t1", m.Tracks[1].TrackID)
	assert.False(t, m.ServedFromCache)
	assert.Equal(t, int64(7200), m.TotalDurationSeconds)
}

func TestManifestHandlerPostBody(t *testing.T) {
	router, _ := newManifestTestRouter(t, "")

	body := strings.NewReader(`{"tracks":["t3","t1","t2"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/playlists/pl-1/manifest", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	m := decodeManifest(t, rec)
	require.Len(t, m.Tracks, 3)
	assert.Equal(t, []string{"t3", "t1", "t2"},
		[]string{m.Tracks[0].TrackID, m.Tracks[1].TrackID, m.Tracks[2].TrackID})
}

func TestManifestHandlerCollectionFallback(t *testing.T) {
	router, _ := newManifestTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/playlists/col-1/manifest", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	m := decodeManifest(t, rec)
	assert.Equal(t, 3, m.TotalTracks)
}

func TestManifestHandlerSecondCallServedFromCache(t *testing.T) {
	router, _ := newManifestTestRouter(t, "")

	for i, wantCached := range []bool{false, true} {
		req := httptest.NewRequest(http.MethodGet, "/api/playlists/pl-1/manifest?tracks=t1,t2,t3", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, "call %d", i)
		m := decodeManifest(t, rec)
		assert.Equal(t, wantCached, m.ServedFromCache, "call %d", i)
	}
}

func TestManifestHandlerUnknownTrack(t *testing.T) {
	router, _ := newManifestTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/playlists/pl-1/manifest?tracks=t1,nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestManifestHandlerEmptyPlaylist(t *testing.T) {
	router, _ := newManifestTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/playlists/no-such-collection/manifest", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManifestHandlerInvalidation(t *testing.T) {
	hash, err := auth.HashAdminToken("sekret")
	require.NoError(t, err)
	router, _ := newManifestTestRouter(t, hash)

	// Warm the cache first.
	req := httptest.NewRequest(http.MethodGet, "/api/playlists/pl-1/manifest?tracks=t1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("missing admin token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/playlists/pl-1/manifest", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid admin token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/playlists/pl-1/manifest", nil)
		req.Header.Set("X-Admin-Token", "sekret")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"deleted":1`)
	})
}

func TestManifestHandlerInvalidationDisabledWithoutHash(t *testing.T) {
	// No hash configured means the surface stays closed.
	router, _ := newManifestTestRouter(t, "")

	req := httptest.NewRequest(http.MethodDelete, "/api/playlists/pl-1/manifest", nil)
	req.Header.Set("X-Admin-Token", "anything")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
