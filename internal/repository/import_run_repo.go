package repository

import (
	"context"

	"WarTrack/internal/model"

	"gorm.io/gorm"
)

// ImportRunRepository 导入审计记录仓储
type ImportRunRepository interface {
	// Create 追加一条审计记录
	Create(ctx context.Context, run *model.ImportRun) error
	// ListRecent 按开始时间倒序返回最近的审计记录
	ListRecent(ctx context.Context, limit int) ([]*model.ImportRun, error)
}

type importRunRepository struct {
	db *gorm.DB
}

// NewImportRunRepository 创建ImportRunRepository实例
func NewImportRunRepository(db *gorm.DB) ImportRunRepository {
	return &importRunRepository{db: db}
}

func (r *importRunRepository) Create(ctx context.Context, run *model.ImportRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *importRunRepository) ListRecent(ctx context.Context, limit int) ([]*model.ImportRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var runs []*model.ImportRun
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").Order("id DESC").
		Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
