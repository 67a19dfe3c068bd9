package repository

import (
	"context"
	"time"

	"MatSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CandidateRepository 候选事件仓储
type CandidateRepository interface {
	// ListExternalIDs 取全部候选事件的赛程源ID（去重步骤用）
	ListExternalIDs(ctx context.Context) ([]string, error)
	// InsertIgnoreDuplicates 批量插入，external_id 冲突时忽略（并发运行可能已写入同一条）
	InsertIgnoreDuplicates(ctx context.Context, candidates []*model.CandidateEvent) (int, error)
	// MarkAutoApproved 标记候选事件已自动审批并关联正式事件
	MarkAutoApproved(ctx context.Context, externalID string, eventID uint64) error
	// ListUnmatched 取未匹配到结果源ID的候选事件（手动回填用）
	ListUnmatched(ctx context.Context, limit int) ([]*model.CandidateEvent, error)
	// UpdateMatch 回写匹配到的结果源ID与置信度
	UpdateMatch(ctx context.Context, id uint64, floEventID string, confidence int) error
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) ListExternalIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.CandidateEvent{}).
		Pluck("external_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *candidateRepository) InsertIgnoreDuplicates(ctx context.Context, candidates []*model.CandidateEvent) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(&candidates)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return int(tx.RowsAffected), nil
}

func (r *candidateRepository) MarkAutoApproved(ctx context.Context, externalID string, eventID uint64) error {
	return r.db.WithContext(ctx).Model(&model.CandidateEvent{}).
		Where("external_id = ?", externalID).
		Updates(map[string]interface{}{
			"status":     model.CandidateStatusAutoApproved,
			"event_id":   eventID,
			"updated_at": time.Now(),
		}).Error
}

func (r *candidateRepository) ListUnmatched(ctx context.Context, limit int) ([]*model.CandidateEvent, error) {
	if limit <= 0 {
		limit = 200
	}
	var candidates []*model.CandidateEvent
	if err := r.db.WithContext(ctx).
		Where("flo_event_id IS NULL AND status = ?", model.CandidateStatusPending).
		Order("start_date ASC").Limit(limit).
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *candidateRepository) UpdateMatch(ctx context.Context, id uint64, floEventID string, confidence int) error {
	return r.db.WithContext(ctx).Model(&model.CandidateEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"flo_event_id":     floEventID,
			"match_confidence": confidence,
			"updated_at":       time.Now(),
		}).Error
}
