package model

import (
	"encoding/json"
	"time"
)

// FloEnvelope 结果源统一响应格式：data 为主体，notifications 内可能携带平台侧错误
type FloEnvelope struct {
	Data          json.RawMessage   `json:"data"`
	Notifications []FloNotification `json:"notifications"`
}

type FloNotification struct {
	Type    string `json:"type"` // error/warning/info
	Message string `json:"message"`
}

// FloEventInfo 结果源事件元数据
type FloEventInfo struct {
	EventID   string       `json:"eventId"`
	Title     string       `json:"title"`
	StartDate string       `json:"startDate"` // "2006-01-02" 或带时间
	EndDate   string       `json:"endDate"`
	Venue     FloVenueInfo `json:"venue"`
}

type FloVenueInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// FloDivisionGroup 结果源的分组嵌套结构（按年龄组/赛制分组，组内为各级别）
type FloDivisionGroup struct {
	GroupName string        `json:"groupName"`
	Divisions []FloDivision `json:"divisions"`
}

type FloDivision struct {
	BracketID        string `json:"bracketId"`
	WeightClass      string `json:"weightClass"`
	ParticipantCount int    `json:"participantCount"`
	BoutCount        int    `json:"boutCount"`
	Disabled         bool   `json:"disabled"`
}

// FloBout 结果源单场比赛记录
type FloBout struct {
	BoutID            string          `json:"boutId"`
	MatchNumber       *int            `json:"matchNumber"`
	RoundName         *string         `json:"roundName"`
	State             string          `json:"state"` // completed/in_progress/upcoming/bye
	Result            *string         `json:"result"`
	WinType           *string         `json:"winType"`
	TopParticipant    *FloParticipant `json:"topParticipant"`
	BottomParticipant *FloParticipant `json:"bottomParticipant"`
	BracketX          int             `json:"bracketX"`
	BracketY          int             `json:"bracketY"`
}

// FloBoutStateBye 轮空场次，入库前必须过滤
const FloBoutStateBye = "bye"

type FloParticipant struct {
	Name     string `json:"name"`
	Team     string `json:"team"`
	Seed     *int   `json:"seed"`
	Score    *int   `json:"score"`
	IsWinner bool   `json:"isWinner"`
	FloID    string `json:"id"`
}

// FloPlacement 结果源名次记录
type FloPlacement struct {
	Place            int    `json:"place"`
	WrestlerName     string `json:"wrestlerName"`
	TeamName         string `json:"teamName"`
	FloParticipantID string `json:"participantId"`
}

// BracketOption 拍平排序后的级别选项（disabled 保留，由调用方决定是否过滤）
type BracketOption struct {
	BracketID        string
	WeightClass      string
	ParticipantCount int
	BoutCount        int
	Disabled         bool
}

// BracketData 单个级别的完整数据（bouts 已过滤 bye，BoutCount 保留原始数）
// Placements 仅在组合拉取（GetFullEventData）时填充
type BracketData struct {
	BracketID        string
	WeightClass      string
	ParticipantCount int
	BoutCount        int
	Bouts            []FloBout
	Placements       []FloPlacement
}

// FullEventData 组合拉取结果：单级别失败只记入 Errors，不中断整体
type FullEventData struct {
	Event    *FloEventInfo
	Brackets []BracketData
	Errors   []string
}

// ScanHit 匹配扫描缓存条目（仅保留匹配所需字段）
type ScanHit struct {
	FloEventID string
	Title      string
	StartDate  time.Time
}
