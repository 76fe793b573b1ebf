package model

import "time"

// TrackManifestEntry is one playable track inside a playlist manifest.
// Entries are immutable; re-signing a track always produces a new entry.
type TrackManifestEntry struct {
	TrackID         string    `json:"trackId"`
	SignedURL       string    `json:"signedUrl"`
	ExpiresAt       time.Time `json:"expiresAt"`
	DurationSeconds int64     `json:"durationSeconds,omitempty"`
}

// PlaylistManifest bundles signed URLs for an entire playlist in the order
// the caller requested them. A manifest is replaced wholesale in the cache,
// never patched field by field.
type PlaylistManifest struct {
	PlaylistID           string               `json:"playlistId"`
	Tracks               []TrackManifestEntry `json:"tracks"`
	TotalTracks          int                  `json:"totalTracks"`
	TotalDurationSeconds int64                `json:"totalDurationSeconds"`
	GeneratedAt          time.Time            `json:"generatedAt"`
	ExpiresAt            time.Time            `json:"expiresAt"`
	ServedFromCache      bool                 `json:"servedFromCache"`
}
