package flowrestling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"MatSync/internal/config"
	"MatSync/internal/interfaces"
	"MatSync/internal/model"
	"MatSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Client 结果源客户端：四个基础查询 + 组合拉取
// 所有请求带独立超时；级别数据按固定批并发拉取，批间插入延迟以遵守隐式限流
type Client struct {
	cfg           *config.ProviderConfig
	httpClient    *http.Client
	logger        *logrus.Logger
	divisionBatch int
	divisionDelay time.Duration
}

func NewClient(cfg *config.ProviderConfig, syncCfg *config.SyncConfig, logger *logrus.Logger) interfaces.ResultClient {
	return &Client{
		cfg:           cfg,
		httpClient:    httpclient.NewHTTPClient(cfg, logger),
		logger:        logger,
		divisionBatch: syncCfg.DivisionBatch,
		divisionDelay: syncCfg.DivisionDelay,
	}
}

// fetchEnvelope 发起单次请求并解包统一响应格式
// notifications 含 error 条目 → ProviderError；data 为空 → ErrNotFound
func (c *Client) fetchEnvelope(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, translateErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("结果源返回状态码 %d", resp.StatusCode)
	}

	var envelope model.FloEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	for _, n := range envelope.Notifications {
		if strings.EqualFold(n.Type, "error") {
			return nil, &ProviderError{Message: n.Message}
		}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, ErrNotFound
	}
	return envelope.Data, nil
}

// GetEventInfo 拉取事件元数据
func (c *Client) GetEventInfo(ctx context.Context, floEventID string) (*model.FloEventInfo, error) {
	url := fmt.Sprintf("%s/api/events/%s", c.cfg.BaseURL, floEventID)
	data, err := c.fetchEnvelope(ctx, url)
	if err != nil {
		return nil, err
	}
	var info model.FloEventInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("解析事件元数据失败: %w", err)
	}
	if info.EventID == "" {
		info.EventID = floEventID
	}
	return &info, nil
}

// GetBracketDivisions 拉取级别列表并拍平排序（数字级别升序在前，非数字级别按字典序在后）
// disabled 级别保留并打标，由调用方决定是否过滤
func (c *Client) GetBracketDivisions(ctx context.Context, floEventID string) ([]model.BracketOption, error) {
	url := fmt.Sprintf("%s/api/events/%s/divisions", c.cfg.BaseURL, floEventID)
	data, err := c.fetchEnvelope(ctx, url)
	if err != nil {
		return nil, err
	}
	var groups []model.FloDivisionGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("解析级别列表失败: %w", err)
	}

	var options []model.BracketOption
	for _, g := range groups {
		for _, d := range g.Divisions {
			options = append(options, model.BracketOption{
				BracketID:        d.BracketID,
				WeightClass:      d.WeightClass,
				ParticipantCount: d.ParticipantCount,
				BoutCount:        d.BoutCount,
				Disabled:         d.Disabled,
			})
		}
	}
	sortBracketOptions(options)
	return options, nil
}

// sortBracketOptions 数字体重级别升序排前，非数字级别按字典序排后
func sortBracketOptions(options []model.BracketOption) {
	sort.SliceStable(options, func(i, j int) bool {
		wi, errI := strconv.ParseFloat(options[i].WeightClass, 64)
		wj, errJ := strconv.ParseFloat(options[j].WeightClass, 64)
		switch {
		case errI == nil && errJ == nil:
			return wi < wj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return options[i].WeightClass < options[j].WeightClass
		}
	})
}

// boutsPayload 结果源场次接口的 data 结构
type boutsPayload struct {
	WeightClass      string          `json:"weightClass"`
	ParticipantCount int             `json:"participantCount"`
	BoutCount        int             `json:"boutCount"`
	Bouts            []model.FloBout `json:"bouts"`
}

// GetBracketBouts 拉取单级别场次，bye 场次在返回前丢弃（BoutCount 保留过滤前原始数）
func (c *Client) GetBracketBouts(ctx context.Context, floEventID, bracketID string) (*model.BracketData, error) {
	url := fmt.Sprintf("%s/api/events/%s/brackets/%s/bouts", c.cfg.BaseURL, floEventID, bracketID)
	data, err := c.fetchEnvelope(ctx, url)
	if err != nil {
		return nil, err
	}
	var payload boutsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("解析场次列表失败: %w", err)
	}

	rawCount := payload.BoutCount
	if rawCount == 0 {
		rawCount = len(payload.Bouts)
	}
	bouts := make([]model.FloBout, 0, len(payload.Bouts))
	for _, b := range payload.Bouts {
		if strings.EqualFold(b.State, model.FloBoutStateBye) {
			continue
		}
		bouts = append(bouts, b)
	}

	return &model.BracketData{
		BracketID:        bracketID,
		WeightClass:      payload.WeightClass,
		ParticipantCount: payload.ParticipantCount,
		BoutCount:        rawCount,
		Bouts:            bouts,
	}, nil
}

// GetBracketPlacements 拉取单级别名次
func (c *Client) GetBracketPlacements(ctx context.Context, floEventID, bracketID string) ([]model.FloPlacement, error) {
	url := fmt.Sprintf("%s/api/events/%s/brackets/%s/placements", c.cfg.BaseURL, floEventID, bracketID)
	data, err := c.fetchEnvelope(ctx, url)
	if err != nil {
		return nil, err
	}
	var placements []model.FloPlacement
	if err := json.Unmarshal(data, &placements); err != nil {
		return nil, fmt.Errorf("解析名次列表失败: %w", err)
	}
	return placements, nil
}

// divisionResult 单级别拉取结果（成功或失败二选一）
type divisionResult struct {
	data *model.BracketData
	err  error
}

// GetFullEventData 组合拉取：级别列表一次获取，disabled 级别排除，
// 剩余级别按固定批并发拉取（每级别的场次与名次并发发起），批间延迟限流。
// 单级别失败只记入 Errors 并跳过该级别，从不中断整体；无可用级别时返回空列表加一条说明。
func (c *Client) GetFullEventData(ctx context.Context, floEventID string) (*model.FullEventData, error) {
	info, err := c.GetEventInfo(ctx, floEventID)
	if err != nil {
		return nil, fmt.Errorf("拉取事件元数据失败: %w", err)
	}

	options, err := c.GetBracketDivisions(ctx, floEventID)
	if err != nil {
		return nil, fmt.Errorf("拉取级别列表失败: %w", err)
	}

	var active []model.BracketOption
	for _, o := range options {
		if !o.Disabled {
			active = append(active, o)
		}
	}

	result := &model.FullEventData{Event: info}
	if len(active) == 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("事件 %s 无可用级别", floEventID))
		return result, nil
	}

	batchSize := c.divisionBatch
	if batchSize <= 0 {
		batchSize = 3
	}

	var mu sync.Mutex
	for start := 0; start < len(active); start += batchSize {
		end := start + batchSize
		if end > len(active) {
			end = len(active)
		}
		batch := active[start:end]

		var wg sync.WaitGroup
		for _, opt := range batch {
			wg.Add(1)
			go func(opt model.BracketOption) {
				defer wg.Done()
				res := c.fetchDivision(ctx, floEventID, opt)
				mu.Lock()
				defer mu.Unlock()
				if res.err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("级别 %s 拉取失败: %v", opt.WeightClass, res.err))
					return
				}
				result.Brackets = append(result.Brackets, *res.data)
			}(opt)
		}
		// 等待本批全部结束（成功或失败）再推进下一批
		wg.Wait()

		if end < len(active) {
			select {
			case <-ctx.Done():
				result.Errors = append(result.Errors, fmt.Sprintf("拉取中断: %v", ctx.Err()))
				return result, nil
			case <-time.After(c.divisionDelay):
			}
		}
	}

	// 批内 goroutine 完成顺序不定，按级别排序恢复稳定输出
	sort.SliceStable(result.Brackets, func(i, j int) bool {
		return lessWeightClass(result.Brackets[i].WeightClass, result.Brackets[j].WeightClass)
	})
	return result, nil
}

// fetchDivision 单级别的场次与名次并发拉取
func (c *Client) fetchDivision(ctx context.Context, floEventID string, opt model.BracketOption) divisionResult {
	var (
		wg         sync.WaitGroup
		bracket    *model.BracketData
		boutsErr   error
		placements []model.FloPlacement
		placeErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		bracket, boutsErr = c.GetBracketBouts(ctx, floEventID, opt.BracketID)
	}()
	go func() {
		defer wg.Done()
		placements, placeErr = c.GetBracketPlacements(ctx, floEventID, opt.BracketID)
	}()
	wg.Wait()

	if boutsErr != nil {
		return divisionResult{err: boutsErr}
	}
	if placeErr != nil {
		return divisionResult{err: placeErr}
	}

	// 级别列表的元数据比场次接口更完整时优先使用
	if bracket.WeightClass == "" {
		bracket.WeightClass = opt.WeightClass
	}
	if bracket.ParticipantCount == 0 {
		bracket.ParticipantCount = opt.ParticipantCount
	}
	if bracket.BoutCount == 0 {
		bracket.BoutCount = opt.BoutCount
	}
	bracket.Placements = placements
	return divisionResult{data: bracket}
}

func lessWeightClass(a, b string) bool {
	wa, errA := strconv.ParseFloat(a, 64)
	wb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		return wa < wb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
