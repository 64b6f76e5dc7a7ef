package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"resumescout/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&DocumentModel{}, &JobPostingModel{}, &MatchModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateDocument inserts the record, or fetches the existing one when a
// document with the same fingerprint is already stored. Concurrent
// uploads of identical content are resolved by the unique constraint:
// the losing insert is a no-op and the winner's record is returned.
func (s *GormStore) CreateDocument(doc domain.Document) (domain.Document, bool, error) {
	model := documentToModel(doc)
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fingerprint"}},
		DoNothing: true,
	}).Create(&model)
	if res.Error != nil {
		return domain.Document{}, false, fmt.Errorf("insert document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var existing DocumentModel
		if err := s.db.Where("fingerprint = ?", doc.Fingerprint).First(&existing).Error; err != nil {
			return domain.Document{}, false, fmt.Errorf("fetch existing document: %w", err)
		}
		return documentFromModel(existing), false, nil
	}
	return documentFromModel(model), true, nil
}

func (s *GormStore) GetDocumentByFingerprint(fingerprint string) (domain.Document, bool, error) {
	var model DocumentModel
	err := s.db.Where("fingerprint = ?", fingerprint).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Document{}, false, nil
	}
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("get document by fingerprint: %w", err)
	}
	return documentFromModel(model), true, nil
}

func (s *GormStore) GetDocument(id int64) (domain.Document, bool, error) {
	var model DocumentModel
	err := s.db.First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Document{}, false, nil
	}
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("get document: %w", err)
	}
	return documentFromModel(model), true, nil
}

func (s *GormStore) ListDocuments(ids []int64) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []DocumentModel
	if err := s.db.Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	byID := make(map[int64]DocumentModel, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			docs = append(docs, documentFromModel(m))
		}
	}
	return docs, nil
}

func (s *GormStore) DocumentCount() (int64, error) {
	var count int64
	if err := s.db.Model(&DocumentModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// SaveRanking persists the job posting and its matches in one
// transaction.
func (s *GormStore) SaveRanking(posting domain.JobPosting, rawMatches []byte, matches []domain.Match) (domain.JobPosting, error) {
	postingModel := JobPostingModel{
		OwnerID:     posting.OwnerID,
		Description: posting.Description,
		RawMatches:  rawMatches,
		CreatedAt:   posting.CreatedAt,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&postingModel).Error; err != nil {
			return fmt.Errorf("insert job posting: %w", err)
		}
		for _, match := range matches {
			model := MatchModel{
				JobPostingID: postingModel.ID,
				DocumentID:   match.DocumentID,
				FullName:     match.FullName,
				Score:        match.Score,
				Details:      match.Details,
				Rank:         match.Rank,
			}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("insert match: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.JobPosting{}, err
	}
	posting.ID = postingModel.ID
	return posting, nil
}

func (s *GormStore) JobPostingCount() (int64, error) {
	var count int64
	if err := s.db.Model(&JobPostingModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count job postings: %w", err)
	}
	return count, nil
}

func (s *GormStore) MatchCount(jobPostingID int64) (int64, error) {
	var count int64
	if err := s.db.Model(&MatchModel{}).Where("job_posting_id = ?", jobPostingID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return count, nil
}

func documentToModel(d domain.Document) DocumentModel {
	return DocumentModel{
		ID:               d.ID,
		Fingerprint:      d.Fingerprint,
		StorageKey:       d.StorageKey,
		OriginalFilename: d.OriginalFilename,
		SizeBytes:        d.SizeBytes,
		OwnerID:          d.OwnerID,
		CreatedAt:        d.CreatedAt,
	}
}

func documentFromModel(m DocumentModel) domain.Document {
	return domain.Document{
		ID:               m.ID,
		Fingerprint:      m.Fingerprint,
		StorageKey:       m.StorageKey,
		OriginalFilename: m.OriginalFilename,
		SizeBytes:        m.SizeBytes,
		OwnerID:          m.OwnerID,
		CreatedAt:        m.CreatedAt,
	}
}
