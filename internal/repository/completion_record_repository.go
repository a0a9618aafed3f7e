package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"gopherai-chatbot/internal/model"
)

type CompletionRecordRepository struct {
	db *gorm.DB
}

func NewCompletionRecordRepository(db *gorm.DB) *CompletionRecordRepository {
	return &CompletionRecordRepository{db: db}
}

func (r *CompletionRecordRepository) Create(ctx context.Context, record *model.CompletionRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("create completion record failed: %w", err)
	}
	return nil
}

func (r *CompletionRecordRepository) ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.CompletionRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var records []model.CompletionRecord
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list completion records failed: %w", err)
	}
	return records, nil
}
