package model

import "time"

// Lecture represents one audio lecture in the catalog. The actual audio
// bytes live in the object store under StorageKey; the catalog only holds
// metadata.
type Lecture struct {
	ID          string    `json:"id" gorm:"primaryKey;size:64"`
	Title       string    `json:"title" gorm:"size:255"`
	Speaker     string    `json:"speaker" gorm:"size:255"`
	Collection  string    `json:"collection" gorm:"size:255;index"`
	StorageKey  string    `json:"-" gorm:"size:512"` // object store key, not exposed in API
	ContentType string    `json:"contentType" gorm:"size:128"`
	Duration    int64     `json:"duration"` // seconds, 0 when unknown
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName overrides the GORM table name.
func (Lecture) TableName() string {
	return "lectures"
}
