package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"MatSync/internal/config"
	"MatSync/internal/interfaces"
	"MatSync/internal/model"
	"MatSync/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// 运行触发方式
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
	TriggerResync    = "resync"
)

// SyncService 同步编排服务
// 单次运行：抓取 → 去重 → 匹配 → 候选落库 → (自动审批+对阵同步)* → 推进匹配游标
// 顶层从不抛出：任何异常都落入运行报告的 error 终态
type SyncService struct {
	listing    interfaces.ListingSource
	results    interfaces.ResultClient
	matcher    *MatcherService
	candidates repository.CandidateRepository
	events     repository.EventRepository
	brackets   repository.BracketRepository
	settings   repository.SettingsRepository
	runs       repository.RunRepository
	cfg        *config.Config
	logger     *logrus.Logger
}

func NewSyncService(
	listing interfaces.ListingSource,
	results interfaces.ResultClient,
	matcher *MatcherService,
	candidates repository.CandidateRepository,
	events repository.EventRepository,
	brackets repository.BracketRepository,
	settings repository.SettingsRepository,
	runs repository.RunRepository,
	cfg *config.Config,
	logger *logrus.Logger,
) *SyncService {
	return &SyncService{
		listing:    listing,
		results:    results,
		matcher:    matcher,
		candidates: candidates,
		events:     events,
		brackets:   brackets,
		settings:   settings,
		runs:       runs,
		cfg:        cfg,
		logger:     logger,
	}
}

// RunOptions 单次运行参数
type RunOptions struct {
	Pages       int    // 抓取页数，<=0 时用配置值
	AutoApprove bool   // 匹配成功的事件是否自动审批并拉取对阵数据
	Trigger     string // scheduled/manual
}

// Run 执行一次完整同步，始终返回运行报告（含终态与日志）
// 返回值必须具名：recover 分支也要把报告还给调用方，而非 nil
func (s *SyncService) Run(ctx context.Context, opts RunOptions) (run *model.SyncRun) {
	run = s.newRun(ctx, opts.Trigger)
	rl := newRunLog()

	defer func() {
		if p := recover(); p != nil {
			rl.addf("运行异常终止: %v", p)
			run.Status = model.RunStatusError
		}
		s.finishRun(ctx, run, rl)
	}()

	if err := s.execute(ctx, run, rl, opts); err != nil {
		rl.addf("运行失败: %v", err)
		run.Status = model.RunStatusError
	} else {
		run.Status = model.RunStatusSuccess
	}
	return run
}

func (s *SyncService) execute(ctx context.Context, run *model.SyncRun, rl *runLog, opts RunOptions) error {
	pages := opts.Pages
	if pages <= 0 {
		pages = s.cfg.Sync.ScrapePages
	}

	// 1. 抓取：空页提前停止，单页失败跳过不中断
	scraped := s.scrape(ctx, run, rl, pages)
	run.EventsFound = len(scraped)
	rl.addf("抓取完成：%d页、%d条赛事", run.PagesScraped, len(scraped))

	// 2. 去重：过滤候选表与正式表均未出现过的 external_id
	fresh, err := s.dedupe(ctx, scraped)
	if err != nil {
		return fmt.Errorf("去重失败: %w", err)
	}
	if len(fresh) == 0 {
		rl.addf("无新事件，运行提前结束")
		return nil
	}
	rl.addf("去重后剩余 %d 条新事件", len(fresh))

	// 3. 匹配
	targets := make([]MatchTarget, 0, len(fresh))
	for _, e := range fresh {
		targets = append(targets, MatchTarget{Name: e.Name, StartDate: e.StartDate})
	}
	matches, err := s.matcher.MatchBatch(ctx, targets)
	if err != nil {
		return fmt.Errorf("身份匹配失败: %w", err)
	}
	run.MatchedEvents = len(matches)
	rl.addf("身份匹配：%d/%d 条命中", len(matches), len(fresh))

	// 4. 候选落库（重复冲突忽略）
	inserted, err := s.persistCandidates(ctx, fresh, matches)
	if err != nil {
		return fmt.Errorf("候选落库失败: %w", err)
	}
	run.NewCandidates = inserted
	rl.addf("候选落库：新增 %d 条", inserted)

	// 5. 自动审批 + 对阵同步（仅命中事件；单事件失败不中断运行）
	if opts.AutoApprove {
		for _, e := range fresh {
			floID, ok := matches[e.Name]
			if !ok {
				continue
			}
			brackets, bouts, err := s.syncEvent(ctx, rl, e, floID)
			if err != nil {
				rl.addf("事件 %s 对阵同步失败: %v", e.Name, err)
				continue
			}
			run.AutoApproved++
			run.BracketsSynced += brackets
			run.BoutsSynced += bouts
		}
		rl.addf("自动审批 %d 个事件，同步 %d 个对阵表 %d 场比赛",
			run.AutoApproved, run.BracketsSynced, run.BoutsSynced)
	}

	// 6. 推进匹配游标（成功匹配批次后，取最大命中ID）
	s.advanceMatchingState(ctx, rl, matches)
	return nil
}

// scrape 拉取 N 页赛程，空页提前停止
func (s *SyncService) scrape(ctx context.Context, run *model.SyncRun, rl *runLog, pages int) []model.SourceEvent {
	var all []model.SourceEvent
	for page := 1; page <= pages; page++ {
		events, err := s.listing.FetchPage(ctx, page)
		if err != nil {
			rl.addf("第%d页抓取失败，跳过: %v", page, err)
			s.logger.WithError(err).WithField("page", page).Warn("赛程页抓取失败")
			continue
		}
		if len(events) == 0 {
			rl.addf("第%d页为空，停止翻页", page)
			break
		}
		run.PagesScraped++
		all = append(all, events...)
	}
	return all
}

// dedupe 过滤掉候选表或正式表已存在的 external_id
func (s *SyncService) dedupe(ctx context.Context, scraped []model.SourceEvent) ([]model.SourceEvent, error) {
	candidateIDs, err := s.candidates.ListExternalIDs(ctx)
	if err != nil {
		return nil, err
	}
	eventIDs, err := s.events.ListExternalIDs(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(candidateIDs)+len(eventIDs))
	for _, id := range candidateIDs {
		seen[id] = struct{}{}
	}
	for _, id := range eventIDs {
		seen[id] = struct{}{}
	}

	var fresh []model.SourceEvent
	for _, e := range scraped {
		if _, ok := seen[e.ExternalID]; ok {
			continue
		}
		// 同一批内的重复也只保留首条
		seen[e.ExternalID] = struct{}{}
		fresh = append(fresh, e)
	}
	return fresh, nil
}

// persistCandidates 把新事件落为候选，命中事件附带结果源ID与固定置信度
func (s *SyncService) persistCandidates(ctx context.Context, fresh []model.SourceEvent, matches map[string]string) (int, error) {
	rows := make([]*model.CandidateEvent, 0, len(fresh))
	for _, e := range fresh {
		row := &model.CandidateEvent{
			ExternalID: e.ExternalID,
			Name:       e.Name,
			StartDate:  e.StartDate,
			EndDate:    e.EndDate,
			Venue:      e.Venue,
			Street:     e.Street,
			City:       e.City,
			State:      e.State,
			Zip:        e.Zip,
			Status:     model.CandidateStatusPending,
		}
		if floID, ok := matches[e.Name]; ok {
			confidence := s.cfg.Matcher.MatchConfidence
			row.FloEventID = &floID
			row.MatchConfidence = &confidence
		}
		rows = append(rows, row)
	}
	return s.candidates.InsertIgnoreDuplicates(ctx, rows)
}

// advanceMatchingState 持久化本批最大命中ID，下次扫描窗口随之前移
// 乐观版本过期说明并发运行已推进，跳过即可
func (s *SyncService) advanceMatchingState(ctx context.Context, rl *runLog, matches map[string]string) {
	var maxID int64
	for _, idStr := range matches {
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil && id > maxID {
			maxID = id
		}
	}
	if maxID == 0 {
		return
	}
	if err := s.settings.AdvanceLastFloEventID(ctx, maxID); err != nil {
		if errors.Is(err, repository.ErrSettingStale) {
			rl.addf("匹配游标已被并发运行推进，跳过")
			return
		}
		rl.addf("推进匹配游标失败: %v", err)
		return
	}
	rl.addf("匹配游标推进至 %d", maxID)
}

func (s *SyncService) newRun(ctx context.Context, trigger string) *model.SyncRun {
	run := &model.SyncRun{
		RunUUID:   uuid.NewString(),
		Trigger:   trigger,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		// 报告创建失败不阻塞运行本身，终态时再尝试整行写入
		s.logger.WithError(err).Warn("创建运行报告失败")
	}
	return run
}

func (s *SyncService) finishRun(ctx context.Context, run *model.SyncRun, rl *runLog) {
	now := time.Now()
	run.FinishedAt = &now
	run.DurationMs = now.Sub(run.StartedAt).Milliseconds()
	if logJSON, err := json.Marshal(rl.lines); err == nil {
		run.Log = datatypes.JSON(logJSON)
	}
	if err := s.runs.Update(ctx, run); err != nil {
		s.logger.WithError(err).WithField("run_uuid", run.RunUUID).Error("写入运行报告失败")
	}
	s.logger.WithFields(logrus.Fields{
		"run_uuid": run.RunUUID,
		"status":   run.Status,
		"duration": run.DurationMs,
	}).Info("同步运行结束")
}

// runLog 运行报告的行级日志缓冲
type runLog struct {
	lines []string
}

func newRunLog() *runLog {
	return &runLog{}
}

func (l *runLog) addf(format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	l.lines = append(l.lines, line)
}
