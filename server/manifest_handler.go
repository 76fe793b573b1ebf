package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/alanhabib/elmify-backend-sub000/core/auth"
	"github.com/alanhabib/elmify-backend-sub000/core/manifest"
	"github.com/alanhabib/elmify-backend-sub000/logger"
	"github.com/alanhabib/elmify-backend-sub000/repository"
	"github.com/alanhabib/elmify-backend-sub000/storage"
)

// ManifestHandler exposes playlist manifests over HTTP: whole-playlist signed
// URL generation plus the administrative invalidation surface.
type ManifestHandler struct {
	resolver       *manifest.Resolver
	lectureRepo    repository.LectureRepository
	adminTokenHash string
}

// NewManifestHandler creates a ManifestHandler.
func NewManifestHandler(resolver *manifest.Resolver, lectureRepo repository.LectureRepository, adminTokenHash string) *ManifestHandler {
	return &ManifestHandler{
		resolver:       resolver,
		lectureRepo:    lectureRepo,
		adminTokenHash: adminTokenHash,
	}
}

// manifestRequest is the POST body: an explicit ordered track list.
type manifestRequest struct {
	Tracks []string `json:"tracks"`
}

// GetManifestHandler handles GET and POST requests for a playlist manifest.
// Track ids come from the POST body or the "tracks" query parameter; absent
// both, the playlist id is treated as a collection and its tracks are read
// from the catalog in collection order.
func (h *ManifestHandler) GetManifestHandler(w http.ResponseWriter, r *http.Request) {
	playlistID := mux.Vars(r)["id"]
	if playlistID == "" {
		http.Error(w, "Missing playlist id", http.StatusBadRequest)
		return
	}

	trackIDs, err := h.trackIDsFromRequest(r, playlistID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(trackIDs) == 0 {
		http.Error(w, "Playlist has no tracks", http.StatusBadRequest)
		return
	}

	caller := callerIdentity(r)

	m, err := h.resolver.GetManifest(r.Context(), playlistID, caller, trackIDs)
	if err != nil {
		h.writeManifestError(w, playlistID, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// InvalidateHandler purges cached manifests for one playlist, or all of them
// when the id is "*". Guarded by the admin token; already-issued URLs remain
// valid until they expire on their own.
func (h *ManifestHandler) InvalidateHandler(w http.ResponseWriter, r *http.Request) {
	if h.adminTokenHash == "" || !auth.CheckAdminToken(r.Header.Get("X-Admin-Token"), h.adminTokenHash) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	playlistID := mux.Vars(r)["id"]
	if playlistID == "" {
		http.Error(w, "Missing playlist id", http.StatusBadRequest)
		return
	}

	deleted, err := h.resolver.Invalidate(r.Context(), playlistID)
	if err != nil {
		logger.Error("manifest invalidation failed",
			logger.String("playlistId", playlistID),
			logger.ErrorField(err))
		http.Error(w, "Invalidation failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playlistId": playlistID,
		"deleted":    deleted,
	})
}

// trackIDsFromRequest extracts the ordered track list for a manifest request.
func (h *ManifestHandler) trackIDsFromRequest(r *http.Request, playlistID string) ([]string, error) {
	if r.Method == http.MethodPost {
		var req manifestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errors.New("invalid request body")
		}
		return req.Tracks, nil
	}

	if raw := r.URL.Query().Get("tracks"); raw != "" {
		return strings.Split(raw, ","), nil
	}

	// No explicit list: the playlist id names a collection.
	lectures, err := h.lectureRepo.GetByCollection(r.Context(), playlistID)
	if err != nil {
		logger.Error("collection lookup failed",
			logger.String("playlistId", playlistID),
			logger.ErrorField(err))
		return nil, errors.New("failed to resolve collection")
	}

	ids := make([]string, 0, len(lectures))
	for _, lecture := range lectures {
		ids = append(ids, lecture.ID)
	}
	return ids, nil
}

// writeManifestError maps resolver errors onto HTTP statuses.
func (h *ManifestHandler) writeManifestError(w http.ResponseWriter, playlistID string, err error) {
	switch {
	case errors.Is(err, manifest.ErrCatalogMismatch):
		http.Error(w, "One or more tracks do not exist", http.StatusNotFound)
	case errors.Is(err, manifest.ErrSigningFailure), errors.Is(err, storage.ErrStoreUnavailable):
		logger.Error("manifest resolution failed",
			logger.String("playlistId", playlistID),
			logger.ErrorField(err))
		http.Error(w, "Failed to generate manifest", http.StatusBadGateway)
	default:
		logger.Error("manifest request failed",
			logger.String("playlistId", playlistID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
