package model

import "time"

// SourceEvent 赛程源返回的单条赛事记录（抓取结果，取回后不再变更）
type SourceEvent struct {
	ExternalID string     `json:"external_id"` // 赛程源唯一ID
	Name       string     `json:"name"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Venue      string     `json:"venue"`
	Street     string     `json:"street"`
	City       string     `json:"city"`
	State      string     `json:"state"`
	Zip        string     `json:"zip"`
}
