package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"classtable-backend/internal/model"
)

// ErrTokenNotFound is returned when a calendar token is not known.
var ErrTokenNotFound = errors.New("calendar token not found")

// Store defines the interface for all database operations.
type Store interface {
	// TokenFor returns the calendar token for a (student, term) pair,
	// minting one on first request. Repeated requests return the same
	// token so a student's subscription URL stays stable.
	TokenFor(ctx context.Context, studentID, termID string) (string, error)
	// FindToken resolves a token back to its owner, or ErrTokenNotFound.
	FindToken(ctx context.Context, token string) (*model.CalendarToken, error)
	// TouchToken records when a token was last used to download a feed.
	TouchToken(ctx context.Context, token string, usedAt time.Time) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) TokenFor(ctx context.Context, studentID, termID string) (string, error) {
	var existing model.CalendarToken
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND term_id = ?", studentID, termID).
		First(&existing).Error
	if err == nil {
		return existing.Token, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to look up calendar token: %w", err)
	}

	record := model.CalendarToken{
		Token:     uuid.NewString(),
		StudentID: studentID,
		TermID:    termID,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to create calendar token: %w", err)
	}
	return record.Token, nil
}

func (s *gormStore) FindToken(ctx context.Context, token string) (*model.CalendarToken, error) {
	var record model.CalendarToken
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up calendar token: %w", err)
	}
	return &record, nil
}

func (s *gormStore) TouchToken(ctx context.Context, token string, usedAt time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&model.CalendarToken{}).
		Where("token = ?", token).
		Update("last_used_at", usedAt).Error
	if err != nil {
		return fmt.Errorf("failed to update calendar token: %w", err)
	}
	return nil
}
