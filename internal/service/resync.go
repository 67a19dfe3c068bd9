package service

import (
	"context"
	"fmt"

	"MatSync/internal/model"
)

// 回填范围
const (
	RematchScopeEvents     = "events"
	RematchScopeCandidates = "candidates"
	RematchScopeAll        = "all"
)

// RematchUnlinked 手动回填入口：只对缺少结果源ID的存量行重跑匹配与持久化，不抓取
// 返回值必须具名：recover 分支也要把报告还给调用方，而非 nil
func (s *SyncService) RematchUnlinked(ctx context.Context, scope string) (run *model.SyncRun) {
	run = s.newRun(ctx, TriggerResync)
	rl := newRunLog()

	defer func() {
		if p := recover(); p != nil {
			rl.addf("运行异常终止: %v", p)
			run.Status = model.RunStatusError
		}
		s.finishRun(ctx, run, rl)
	}()

	if err := s.rematch(ctx, run, rl, scope); err != nil {
		rl.addf("回填失败: %v", err)
		run.Status = model.RunStatusError
	} else {
		run.Status = model.RunStatusSuccess
	}
	return run
}

func (s *SyncService) rematch(ctx context.Context, run *model.SyncRun, rl *runLog, scope string) error {
	var (
		candidates []*model.CandidateEvent
		events     []*model.Event
		err        error
	)

	if scope == RematchScopeCandidates || scope == RematchScopeAll {
		candidates, err = s.candidates.ListUnmatched(ctx, 0)
		if err != nil {
			return fmt.Errorf("读取未匹配候选失败: %w", err)
		}
	}
	if scope == RematchScopeEvents || scope == RematchScopeAll {
		events, err = s.events.ListUnmatched(ctx, 0)
		if err != nil {
			return fmt.Errorf("读取未匹配事件失败: %w", err)
		}
	}

	total := len(candidates) + len(events)
	if total == 0 {
		rl.addf("范围 %s 内无待回填行", scope)
		return nil
	}
	rl.addf("回填范围 %s：候选 %d 条、事件 %d 条", scope, len(candidates), len(events))

	targets := make([]MatchTarget, 0, total)
	for _, c := range candidates {
		targets = append(targets, MatchTarget{Name: c.Name, StartDate: c.StartDate})
	}
	for _, e := range events {
		targets = append(targets, MatchTarget{Name: e.Name, StartDate: e.StartDate})
	}

	matches, err := s.matcher.MatchBatch(ctx, targets)
	if err != nil {
		return fmt.Errorf("身份匹配失败: %w", err)
	}
	run.MatchedEvents = len(matches)
	rl.addf("身份匹配：%d/%d 条命中", len(matches), total)

	confidence := s.cfg.Matcher.MatchConfidence
	for _, c := range candidates {
		floID, ok := matches[c.Name]
		if !ok {
			continue
		}
		if err := s.candidates.UpdateMatch(ctx, c.ID, floID, confidence); err != nil {
			rl.addf("候选 %s 回写匹配失败: %v", c.ExternalID, err)
			continue
		}
	}
	for _, e := range events {
		floID, ok := matches[e.Name]
		if !ok {
			continue
		}
		if err := s.events.SetFloEventID(ctx, e.ID, floID); err != nil {
			rl.addf("事件 %s 回写匹配失败: %v", e.ExternalID, err)
			continue
		}
	}

	s.advanceMatchingState(ctx, rl, matches)
	return nil
}
