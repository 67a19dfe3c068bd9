package interfaces

import (
	"context"

	"MatSync/internal/model"
)

// ListingSource 赛程源读取接口：按页返回结构化赛事记录
// 空页（len==0, err==nil）表示没有更多数据，编排器据此停止翻页
type ListingSource interface {
	FetchPage(ctx context.Context, page int) ([]model.SourceEvent, error)
}
