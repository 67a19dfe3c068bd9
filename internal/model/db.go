package model

import (
	"time"

	"gorm.io/datatypes"
)

// 候选事件状态
const (
	CandidateStatusPending      = "pending"
	CandidateStatusApproved     = "approved"
	CandidateStatusAutoApproved = "auto_approved"
)

// 正式事件的对阵同步状态
const (
	BracketSyncPending = "pending"
	BracketSyncSyncing = "syncing"
	BracketSyncSynced  = "synced"
	BracketSyncError   = "error"
)

// 同步运行状态
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// CandidateEvent 发现但尚未审批的赛事（来源：赛程源抓取）
// external_id 为赛程源唯一ID，与 events 表共同保证全局不重复
type CandidateEvent struct {
	ID              uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	ExternalID      string     `gorm:"column:external_id;type:varchar(64);uniqueIndex;not null"`
	Name            string     `gorm:"column:name;type:varchar(256);not null"`
	StartDate       time.Time  `gorm:"column:start_date;type:timestamp;not null"`
	EndDate         *time.Time `gorm:"column:end_date;type:timestamp"`
	Venue           string     `gorm:"column:venue;type:varchar(256)"`
	Street          string     `gorm:"column:street;type:varchar(256)"`
	City            string     `gorm:"column:city;type:varchar(128)"`
	State           string     `gorm:"column:state;type:varchar(32)"`
	Zip             string     `gorm:"column:zip;type:varchar(16)"`
	FloEventID      *string    `gorm:"column:flo_event_id;type:varchar(32)"` // 结果源匹配到的数字ID，未匹配为空
	MatchConfidence *int       `gorm:"column:match_confidence;type:int"`
	Status          string     `gorm:"column:status;type:varchar(16);default:pending"`
	EventID         *uint64    `gorm:"column:event_id;type:bigint"` // 审批后关联的正式事件ID
	CreatedAt       time.Time  `gorm:"column:created_at;type:timestamp;default:now()"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;type:timestamp;default:now()"`
}

// Event 审批通过的正式赛事（系统内唯一真相）
type Event struct {
	ID                uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	EventUUID         string     `gorm:"column:event_uuid;type:varchar(64);uniqueIndex;not null"`
	ExternalID        string     `gorm:"column:external_id;type:varchar(64);uniqueIndex;not null"`
	Name              string     `gorm:"column:name;type:varchar(256);not null"`
	StartDate         time.Time  `gorm:"column:start_date;type:timestamp;not null"`
	EndDate           *time.Time `gorm:"column:end_date;type:timestamp"`
	Venue             string     `gorm:"column:venue;type:varchar(256)"`
	City              string     `gorm:"column:city;type:varchar(128)"`
	State             string     `gorm:"column:state;type:varchar(32)"`
	FloEventID        *string    `gorm:"column:flo_event_id;type:varchar(32);index"`
	BracketSyncStatus string     `gorm:"column:bracket_sync_status;type:varchar(16);default:pending"`
	TotalBrackets     int        `gorm:"column:total_brackets;type:int;default:0"`
	TotalBouts        int        `gorm:"column:total_bouts;type:int;default:0"`
	SyncedAt          *time.Time `gorm:"column:synced_at;type:timestamp"`
	CreatedAt         time.Time  `gorm:"column:created_at;type:timestamp;default:now()"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;type:timestamp;default:now()"`
}

// Bracket 一个体重级别的对阵表，归属唯一事件
// (event_id, flo_bracket_id) 为 upsert 天然键
type Bracket struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	EventID          uint64    `gorm:"column:event_id;type:bigint;not null;uniqueIndex:uk_event_bracket"`
	FloBracketID     string    `gorm:"column:flo_bracket_id;type:varchar(32);not null;uniqueIndex:uk_event_bracket"`
	WeightClass      string    `gorm:"column:weight_class;type:varchar(32);not null"`
	ParticipantCount int       `gorm:"column:participant_count;type:int;default:0"`
	BoutCount        int       `gorm:"column:bout_count;type:int;default:0"` // 结果源原始场次数（含 bye，过滤前）
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamp;default:now()"`
	UpdatedAt        time.Time `gorm:"column:updated_at;type:timestamp;default:now()"`
}

// Bout 单场比赛，top/bottom 选手信息以 jsonb 存储
type Bout struct {
	ID                uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	BracketID         uint64          `gorm:"column:bracket_id;type:bigint;not null;index"`
	FloBoutID         string          `gorm:"column:flo_bout_id;type:varchar(32);not null"`
	MatchNumber       *int            `gorm:"column:match_number;type:int"`
	RoundName         *string         `gorm:"column:round_name;type:varchar(64)"`
	State             string          `gorm:"column:state;type:varchar(32)"`
	Result            *string         `gorm:"column:result;type:varchar(128)"`
	WinType           *string         `gorm:"column:win_type;type:varchar(32)"`
	TopParticipant    *datatypes.JSON `gorm:"column:top_participant;type:jsonb"`
	BottomParticipant *datatypes.JSON `gorm:"column:bottom_participant;type:jsonb"`
	BracketX          int             `gorm:"column:bracket_x;type:int;default:0"`
	BracketY          int             `gorm:"column:bracket_y;type:int;default:0"`
	CreatedAt         time.Time       `gorm:"column:created_at;type:timestamp;default:now()"`
}

// Placement 名次记录，归属唯一对阵表
type Placement struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	BracketID        uint64    `gorm:"column:bracket_id;type:bigint;not null;index"`
	Place            int       `gorm:"column:place;type:int;not null"`
	WrestlerName     string    `gorm:"column:wrestler_name;type:varchar(128);not null"`
	TeamName         string    `gorm:"column:team_name;type:varchar(128)"`
	FloParticipantID string    `gorm:"column:flo_participant_id;type:varchar(32)"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamp;default:now()"`
}

// Setting 键值配置表，单键单行
// version 用于乐观并发控制（多个同步进程同时推进匹配游标时避免互相覆盖）
type Setting struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string    `gorm:"column:key;type:varchar(64);uniqueIndex;not null"`
	Value     string    `gorm:"column:value;type:varchar(256);not null"`
	Version   int64     `gorm:"column:version;type:bigint;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:now()"`
}

// SettingKeyLastFloEventID 匹配游标：最近一次成功匹配的结果源事件ID
const SettingKeyLastFloEventID = "last_flo_event_id"

// SyncRun 一次编排执行的运行报告（只追加）
type SyncRun struct {
	ID             uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	RunUUID        string         `gorm:"column:run_uuid;type:varchar(64);uniqueIndex;not null"`
	Trigger        string         `gorm:"column:trigger;type:varchar(16);not null"` // scheduled/manual/resync
	PagesScraped   int            `gorm:"column:pages_scraped;type:int;default:0"`
	EventsFound    int            `gorm:"column:events_found;type:int;default:0"`
	NewCandidates  int            `gorm:"column:new_candidates;type:int;default:0"`
	MatchedEvents  int            `gorm:"column:matched_events;type:int;default:0"`
	AutoApproved   int            `gorm:"column:auto_approved;type:int;default:0"`
	BracketsSynced int            `gorm:"column:brackets_synced;type:int;default:0"`
	BoutsSynced    int            `gorm:"column:bouts_synced;type:int;default:0"`
	Log            datatypes.JSON `gorm:"column:log;type:jsonb"`
	Status         string         `gorm:"column:status;type:varchar(16);default:running"`
	StartedAt      time.Time      `gorm:"column:started_at;type:timestamp;default:now()"`
	FinishedAt     *time.Time     `gorm:"column:finished_at;type:timestamp"`
	DurationMs     int64          `gorm:"column:duration_ms;type:bigint;default:0"`
}

func (CandidateEvent) TableName() string { return "candidate_events" }
func (Event) TableName() string          { return "events" }
func (Bracket) TableName() string        { return "brackets" }
func (Bout) TableName() string           { return "bouts" }
func (Placement) TableName() string      { return "placements" }
func (Setting) TableName() string        { return "settings" }
func (SyncRun) TableName() string        { return "sync_runs" }
