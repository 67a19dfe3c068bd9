package trackwrestling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"MatSync/internal/config"
	"MatSync/internal/interfaces"
	"MatSync/internal/model"
	"MatSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Client 赛程源读取客户端
// 页面解析在上游完成，此处只消费结构化赛事记录；空页表示翻页结束
type Client struct {
	cfg        *config.ProviderConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(cfg *config.ProviderConfig, logger *logrus.Logger) interfaces.ListingSource {
	return &Client{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// FetchPage 按页拉取地区赛事列表
func (c *Client) FetchPage(ctx context.Context, page int) ([]model.SourceEvent, error) {
	pageSize := c.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	url := fmt.Sprintf("%s/api/tournaments?region=%s&page=%d&page_size=%d",
		c.cfg.BaseURL, c.cfg.RegionCode, page, pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("拉取赛程第%d页失败: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("赛程源返回状态码 %d", resp.StatusCode)
	}

	var payload struct {
		Events []model.SourceEvent `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("解析赛程第%d页失败: %w", page, err)
	}
	return payload.Events, nil
}
