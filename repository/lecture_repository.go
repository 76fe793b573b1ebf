package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/alanhabib/elmify-backend-sub000/core/manifest"
	"github.com/alanhabib/elmify-backend-sub000/model"
)

// LectureRepository is the data access interface for the lecture catalog.
// It doubles as the manifest resolver's Catalog.
type LectureRepository interface {
	Create(ctx context.Context, lecture *model.Lecture) error
	GetByID(ctx context.Context, id string) (*model.Lecture, error)
	GetByCollection(ctx context.Context, collection string) ([]*model.Lecture, error)

	// Catalog for manifest resolution.
	ResolveTracks(ctx context.Context, ids []string) ([]manifest.TrackMeta, error)
}

// gormLectureRepository is the GORM implementation.
type gormLectureRepository struct {
	db *gorm.DB
}

// NewGormLectureRepository creates a GORM lecture repository.
func NewGormLectureRepository(db *gorm.DB) LectureRepository {
	return &gormLectureRepository{db: db}
}

// Create inserts a lecture.
func (r *gormLectureRepository) Create(ctx context.Context, lecture *model.Lecture) error {
	return r.db.WithContext(ctx).Create(lecture).Error
}

// GetByID fetches a single lecture, or nil when it does not exist.
func (r *gormLectureRepository) GetByID(ctx context.Context, id string) (*model.Lecture, error) {
	var lecture model.Lecture
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&lecture).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lecture %s: %w", id, err)
	}
	return &lecture, nil
}

// GetByCollection lists all lectures of a collection in catalog order.
func (r *gormLectureRepository) GetByCollection(ctx context.Context, collection string) ([]*model.Lecture, error) {
	var lectures []*model.Lecture
	err := r.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at ASC").
		Find(&lectures).Error
	if err != nil {
		return nil, fmt.Errorf("list collection %s: %w", collection, err)
	}
	return lectures, nil
}

// ResolveTracks maps track ids to storage keys and durations, preserving the
// requested order. Ids missing from the catalog are omitted; the caller
// compares counts and rejects the whole request on a mismatch.
func (r *gormLectureRepository) ResolveTracks(ctx context.Context, ids []string) ([]manifest.TrackMeta, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var lectures []model.Lecture
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&lectures).Error
	if err != nil {
		return nil, fmt.Errorf("resolve %d tracks: %w", len(ids), err)
	}

	byID := make(map[string]model.Lecture, len(lectures))
	for _, lecture := range lectures {
		byID[lecture.ID] = lecture
	}

	metas := make([]manifest.TrackMeta, 0, len(ids))
	for _, id := range ids {
		lecture, ok := byID[id]
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
