package repository

import (
	"context"

	"MatSync/internal/model"

	"gorm.io/gorm"
)

// RunRepository 运行报告仓储（只追加，终态时整行回写）
type RunRepository interface {
	Create(ctx context.Context, run *model.SyncRun) error
	Update(ctx context.Context, run *model.SyncRun) error
	ListRecent(ctx context.Context, limit int) ([]*model.SyncRun, error)
}

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(ctx context.Context, run *model.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *runRepository) Update(ctx context.Context, run *model.SyncRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *runRepository) ListRecent(ctx context.Context, limit int) ([]*model.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []*model.SyncRun
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
