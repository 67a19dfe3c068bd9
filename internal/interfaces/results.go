package interfaces

import (
	"context"

	"MatSync/internal/model"
)

// ResultClient 结果源客户端接口（四个基础查询 + 一个组合拉取）
// 匹配器与编排器均通过此接口访问结果源，便于测试替换
type ResultClient interface {
	GetEventInfo(ctx context.Context, floEventID string) (*model.FloEventInfo, error)
	GetBracketDivisions(ctx context.Context, floEventID string) ([]model.BracketOption, error)
	GetBracketBouts(ctx context.Context, floEventID, bracketID string) (*model.BracketData, error)
	GetBracketPlacements(ctx context.Context, floEventID, bracketID string) ([]model.FloPlacement, error)
	GetFullEventData(ctx context.Context, floEventID string) (*model.FullEventData, error)
}
