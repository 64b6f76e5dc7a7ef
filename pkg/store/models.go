package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.

type DocumentModel struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	Fingerprint      string    `gorm:"uniqueIndex;not null"`
	StorageKey       string    `gorm:"not null"`
	OriginalFilename string    `gorm:"not null"`
	SizeBytes        int64     `gorm:"not null"`
	OwnerID          string    `gorm:"not null;index"`
	CreatedAt        time.Time `gorm:"not null"`
}

func (DocumentModel) TableName() string { return "documents" }

type JobPostingModel struct {
	ID          int64          `gorm:"primaryKey;autoIncrement"`
	OwnerID     string         `gorm:"not null;index"`
	Description string         `gorm:"type:text;not null"`
	RawMatches  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"not null"`
}

func (JobPostingModel) TableName() string { return "job_postings" }

type MatchModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	JobPostingID int64  `gorm:"not null;index"`
	DocumentID   int64  `gorm:"not null"`
	FullName     string
	Score        int    `gorm:"not null"`
	Details      string `gorm:"type:text"`
	Rank         int    `gorm:"not null"`
}

func (MatchModel) TableName() string { return "matches" }
