package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"MatSync/internal/config"
	"MatSync/internal/interfaces"
	"MatSync/internal/model"
	"MatSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// MatcherService 身份匹配服务
// 结果源的数字ID大致按时间递增但不透明，以最近见过的ID为中心扫描有界邻域，
// 远比全空间扫描便宜；打分阶梯在召回（子串/日期+共词）与精确（完全同名优先）之间取舍
type MatcherService struct {
	client   interfaces.ResultClient
	settings repository.SettingsRepository
	cfg      *config.MatcherConfig
	logger   *logrus.Logger
}

func NewMatcherService(client interfaces.ResultClient, settings repository.SettingsRepository, cfg *config.MatcherConfig, logger *logrus.Logger) *MatcherService {
	return &MatcherService{
		client:   client,
		settings: settings,
		cfg:      cfg,
		logger:   logger,
	}
}

// MatchTarget 待匹配的目标事件（来自赛程源）
type MatchTarget struct {
	Name      string
	StartDate time.Time
}

// MatchBatch 批量匹配：一次扫描缓存覆盖全部目标
// 无合格候选的目标不出现在返回映射中（缺席不是错误）
func (m *MatcherService) MatchBatch(ctx context.Context, targets []MatchTarget) (map[string]string, error) {
	if len(targets) == 0 {
		return map[string]string{}, nil
	}

	hint := m.scanHint(ctx)
	hits := m.scanWindow(ctx, hint)
	m.logger.WithFields(logrus.Fields{
		"hint":    hint,
		"hits":    len(hits),
		"targets": len(targets),
	}).Info("身份匹配扫描完成")

	result := make(map[string]string)
	for _, t := range targets {
		if id, ok := m.pickBest(t, hits); ok {
			result[t.Name] = id
		}
	}
	return result, nil
}

// MatchOne 单事件匹配（临时查询用，不做批量优化）
func (m *MatcherService) MatchOne(ctx context.Context, name string, startDate time.Time) (string, bool) {
	hint := m.scanHint(ctx)
	hits := m.scanWindow(ctx, hint)
	return m.pickBest(MatchTarget{Name: name, StartDate: startDate}, hits)
}

// scanHint 读取持久化匹配游标，缺失时退回默认起始ID
func (m *MatcherService) scanHint(ctx context.Context) int64 {
	v, found, err := m.settings.GetLastFloEventID(ctx)
	if err != nil {
		m.logger.WithError(err).Warn("读取匹配游标失败，使用默认起始ID")
		return m.cfg.DefaultHintID
	}
	if !found {
		return m.cfg.DefaultHintID
	}
	return v
}

// scanWindow 按固定块并发探测 [hint-radius, hint+radius]
// 探测失败（不存在/超时）静默跳过：ID空间稀疏，缺席是常态；块间插入延迟限流
func (m *MatcherService) scanWindow(ctx context.Context, hint int64) []model.ScanHit {
	low := hint - int64(m.cfg.ScanRadius)
	high := hint + int64(m.cfg.ScanRadius)
	if low < 1 {
		low = 1
	}

	var hits []model.ScanHit
	chunkSize := int64(m.cfg.ChunkSize)

	for start := low; start <= high; start += chunkSize {
		end := start + chunkSize - 1
		if end > high {
			end = high
		}

		// 按块内ID顺序收集结果，保证"先见先得"的并列裁决稳定
		chunkHits := make([]*model.ScanHit, end-start+1)
		var wg sync.WaitGroup
		for id := start; id <= end; id++ {
			wg.Add(1)
			go func(id int64, slot int) {
				defer wg.Done()
				info, err := m.client.GetEventInfo(ctx, strconv.FormatInt(id, 10))
				if err != nil {
					return // NotFound/Timeout 均不重试不记错
				}
				// 日期解析失败记零值仍入缓存：名称档位不依赖日期
				startDate, _ := parseFloDate(info.StartDate)
				chunkHits[slot] = &model.ScanHit{
					FloEventID: strconv.FormatInt(id, 10),
					Title:      info.Title,
					StartDate:  startDate,
				}
			}(id, int(id-start))
		}
		wg.Wait()

		for _, h := range chunkHits {
			if h != nil {
				hits = append(hits, *h)
			}
		}

		if end < high {
			select {
			case <-ctx.Done():
				return hits
			case <-time.After(m.cfg.ChunkDelay):
			}
		}
	}
	return hits
}

// pickBest 对单个目标打分并取最高分候选，得分并列时先见者胜
func (m *MatcherService) pickBest(t MatchTarget, hits []model.ScanHit) (string, bool) {
	normalTarget := normalizeName(t.Name)
	bestScore := 0
	bestID := ""

	for _, h := range hits {
		score := m.score(normalTarget, t.StartDate, h)
		if score > bestScore {
			bestScore = score
			bestID = h.FloEventID
		}
		if score >= scoreExact {
			break // 精确命中后不再继续打分
		}
	}

	if bestScore < m.cfg.MinScore {
		return "", false
	}
	return bestID, true
}

const (
	scoreExact     = 100
	scoreSubstring = 90
	scoreDateBase  = 50
	scorePerWord   = 5
)

// score 打分阶梯：精确同名100 → 子串90 → 同日+共词（≥阈值）50+5×词数
func (m *MatcherService) score(normalTarget string, targetDate time.Time, h model.ScanHit) int {
	normalHit := normalizeName(h.Title)
	if normalTarget == "" || normalHit == "" {
		return 0
	}
	if normalTarget == normalHit {
		return scoreExact
	}
	if strings.Contains(normalTarget, normalHit) || strings.Contains(normalHit, normalTarget) {
		return scoreSubstring
	}
	if !h.StartDate.IsZero() && sameCalendarDay(targetDate, h.StartDate) {
		shared := sharedWordCount(normalTarget, normalHit)
		if shared >= m.cfg.MinSharedWords {
			return scoreDateBase + scorePerWord*shared
		}
	}
	return 0
}

// normalizeName 小写、去首尾空白、折叠连续空白
func normalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(s), " ")
}

// sharedWordCount 统计两个名称间长度>2的共享词（去重后计数）
func sharedWordCount(a, b string) int {
	wordsA := make(map[string]struct{})
	for _, w := range strings.Fields(a) {
		if len(w) > 2 {
			wordsA[w] = struct{}{}
		}
	}
	count := 0
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(b) {
		if len(w) <= 2 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := wordsA[w]; ok {
			count++
		}
	}
	return count
}

// sameCalendarDay 仅比较日历日期（忽略时间部分）
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// parseFloDate 结果源日期字段兼容日期与带时间两种格式
func parseFloDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
