package repository

import (
	"context"

	"MatSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BracketRepository 对阵表仓储
type BracketRepository interface {
	// UpsertBracket 以 (event_id, flo_bracket_id) 为键 upsert，成功后 b.ID 保证回填
	UpsertBracket(ctx context.Context, b *model.Bracket) error
	// ReplaceBracketData 全量替换单个对阵表下的场次与名次
	// 删除与插入包在同一事务内，避免中途崩溃留下不完整场次集
	ReplaceBracketData(ctx context.Context, bracketID uint64, bouts []*model.Bout, placements []*model.Placement, boutBatch int) error
	// ListByEventID 取事件下全部对阵表
	ListByEventID(ctx context.Context, eventID uint64) ([]*model.Bracket, error)
	// CountBoutsByBracketID 统计对阵表下已入库场次数
	CountBoutsByBracketID(ctx context.Context, bracketID uint64) (int64, error)
}

type bracketRepository struct {
	db *gorm.DB
}

func NewBracketRepository(db *gorm.DB) BracketRepository {
	return &bracketRepository{db: db}
}

func (r *bracketRepository) UpsertBracket(ctx context.Context, b *model.Bracket) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "flo_bracket_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"weight_class", "participant_count", "bout_count", "updated_at"}),
	}).Create(b).Error; err != nil {
		return err
	}
	if b.ID == 0 {
		if err := r.db.WithContext(ctx).Model(b).
			Where("event_id = ? AND flo_bracket_id = ?", b.EventID, b.FloBracketID).
			Select("id").First(b).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *bracketRepository) ReplaceBracketData(ctx context.Context, bracketID uint64, bouts []*model.Bout, placements []*model.Placement, boutBatch int) error {
	if boutBatch <= 0 {
		boutBatch = 50
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bracket_id = ?", bracketID).Delete(&model.Bout{}).Error; err != nil {
			return err
		}
		if err := tx.Where("bracket_id = ?", bracketID).Delete(&model.Placement{}).Error; err != nil {
			return err
		}
		if len(bouts) > 0 {
			if err := tx.CreateInBatches(&bouts, boutBatch).Error; err != nil {
				return err
			}
		}
		if len(placements) > 0 {
			if err := tx.Create(&placements).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *bracketRepository) ListByEventID(ctx context.Context, eventID uint64) ([]*model.Bracket, error) {
	var brackets []*model.Bracket
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("weight_class ASC").
		Find(&brackets).Error; err != nil {
		return nil, err
	}
	return brackets, nil
}

func (r *bracketRepository) CountBoutsByBracketID(ctx context.Context, bracketID uint64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Bout{}).
		Where("bracket_id = ?", bracketID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
