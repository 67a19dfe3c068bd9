package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"MatSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSettingStale 乐观版本检查失败：并发运行已推进过该键
var ErrSettingStale = errors.New("setting 版本已过期")

// SettingsRepository 键值配置仓储（匹配游标等进程级状态）
type SettingsRepository interface {
	// GetLastFloEventID 读取匹配游标，不存在时 found=false
	GetLastFloEventID(ctx context.Context) (value int64, found bool, err error)
	// AdvanceLastFloEventID 以乐观版本检查推进匹配游标
	// 并发运行抢先写入时返回 ErrSettingStale，调用方记日志后跳过即可
	AdvanceLastFloEventID(ctx context.Context, newID int64) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetLastFloEventID(ctx context.Context) (int64, bool, error) {
	var s model.Setting
	err := r.db.WithContext(ctx).
		Where("key = ?", model.SettingKeyLastFloEventID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	v, err := strconv.ParseInt(s.Value, 10, 64)
	if err != nil {
		return 0, false, nil // 脏值视为无游标，下次写入修复
	}
	return v, true, nil
}

func (r *settingsRepository) AdvanceLastFloEventID(ctx context.Context, newID int64) error {
	var s model.Setting
	err := r.db.WithContext(ctx).
		Where("key = ?", model.SettingKeyLastFloEventID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 首次写入：冲突说明并发运行已插入，按过期处理
		s = model.Setting{
			Key:       model.SettingKeyLastFloEventID,
			Value:     strconv.FormatInt(newID, 10),
			Version:   1,
			UpdatedAt: time.Now(),
		}
		tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).Create(&s)
		if tx.Error != nil {
			return tx.Error
		}
		if tx.RowsAffected == 0 {
			return ErrSettingStale
		}
		return nil
	}
	if err != nil {
		return err
	}

	tx := r.db.WithContext(ctx).Model(&model.Setting{}).
		Where("key = ? AND version = ?", model.SettingKeyLastFloEventID, s.Version).
		Updates(map[string]interface{}{
			"value":      strconv.FormatInt(newID, 10),
			"version":    s.Version + 1,
			"updated_at": time.Now(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrSettingStale
	}
	return nil
}
