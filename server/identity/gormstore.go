package identity

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the DocumentStore backed by a relational table, standing in
// for the external document database spec.md treats as a fixed collaborator
// (collection "nsl-router", keyed by user id).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the nsl_router table, migrating it into existence if needed.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("auto migrate identity records: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) GetByID(ctx context.Context, userID string) (*Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity record %s: %w", userID, err)
	}
	return &rec, nil
}

func (s *GormStore) GetByDomain(ctx context.Context, label string) (string, *Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("domain_name = ?", label).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("get identity record by domain %s: %w", label, err)
	}
	return rec.UserID, &rec, nil
}

func (s *GormStore) Put(ctx context.Context, userID string, record *Record) error {
	record.UserID = userID
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("put identity record %s: %w", userID, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Record{}).Error
	if err != nil {
		return fmt.Errorf("delete identity record %s: %w", userID, err)
	}
	return nil
}
