package repository

import (
	"context"
	"time"

	"MatSync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventFilter 正式事件列表筛选
type EventFilter struct {
	Status string // 对阵同步状态
	State  string // 州/地区
}

// EventRepository 正式事件仓储
type EventRepository interface {
	// ListExternalIDs 取全部正式事件的赛程源ID（去重步骤用）
	ListExternalIDs(ctx context.Context) ([]string, error)
	// UpsertByExternalID 以 external_id 为键 upsert，成功后 e.ID 保证回填
	UpsertByExternalID(ctx context.Context, e *model.Event) error
	// UpdateBracketSyncStatus 更新对阵同步状态
	UpdateBracketSyncStatus(ctx context.Context, eventID uint64, status string) error
	// FinishBracketSync 同步完成：写入 synced 状态与聚合计数
	FinishBracketSync(ctx context.Context, eventID uint64, totalBrackets, totalBouts int) error
	// SetFloEventID 回写匹配到的结果源ID（手动回填用）
	SetFloEventID(ctx context.Context, eventID uint64, floEventID string) error
	// ListUnmatched 取缺少结果源ID的正式事件
	ListUnmatched(ctx context.Context, limit int) ([]*model.Event, error)
	// ListEvents 按条件分页查询
	ListEvents(ctx context.Context, filter EventFilter, page, pageSize int) ([]*model.Event, int64, error)
	// GetByUUID 通过 event_uuid 获取事件
	GetByUUID(ctx context.Context, eventUUID string) (*model.Event, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) ListExternalIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Event{}).
		Pluck("external_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *eventRepository) UpsertByExternalID(ctx context.Context, e *model.Event) error {
	if e.EventUUID == "" {
		e.EventUUID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "start_date", "end_date", "venue", "city", "state", "flo_event_id", "updated_at"}),
	}).Create(e).Error; err != nil {
		return err
	}
	// 冲突走更新分支时 gorm 不回填主键，需补查
	if e.ID == 0 {
		if err := r.db.WithContext(ctx).Model(e).
			Where("external_id = ?", e.ExternalID).
			Select("id").First(e).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *eventRepository) UpdateBracketSyncStatus(ctx context.Context, eventID uint64, status string) error {
	return r.db.WithContext(ctx).Model(&model.Event{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"bracket_sync_status": status,
			"updated_at":          time.Now(),
		}).Error
}

func (r *eventRepository) FinishBracketSync(ctx context.Context, eventID uint64, totalBrackets, totalBouts int) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Event{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"bracket_sync_status": model.BracketSyncSynced,
			"total_brackets":      totalBrackets,
			"total_bouts":         totalBouts,
			"synced_at":           now,
			"updated_at":          now,
		}).Error
}

func (r *eventRepository) SetFloEventID(ctx context.Context, eventID uint64, floEventID string) error {
	return r.db.WithContext(ctx).Model(&model.Event{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"flo_event_id": floEventID,
			"updated_at":   time.Now(),
		}).Error
}

func (r *eventRepository) ListUnmatched(ctx context.Context, limit int) ([]*model.Event, error) {
	if limit <= 0 {
		limit = 200
	}
	var events []*model.Event
	if err := r.db.WithContext(ctx).
		Where("flo_event_id IS NULL").
		Order("start_date ASC").Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) ListEvents(ctx context.Context, filter EventFilter, page, pageSize int) ([]*model.Event, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	db := r.db.WithContext(ctx).Model(&model.Event{})
	if filter.Status != "" {
		db = db.Where("bracket_sync_status = ?", filter.Status)
	}
	if filter.State != "" {
		db = db.Where("state = ?", filter.State)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []*model.Event
	if err := db.Order("start_date ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) GetByUUID(ctx context.Context, eventUUID string) (*model.Event, error) {
	var e model.Event
	if err := r.db.WithContext(ctx).
		Where("event_uuid = ?", eventUUID).
		First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}
