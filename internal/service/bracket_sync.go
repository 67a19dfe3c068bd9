package service

import (
	"context"
	"encoding/json"
	"fmt"

	"MatSync/internal/model"

	"gorm.io/datatypes"
)

// syncEvent 单事件的审批与对阵同步子流程
// upsert 正式事件 → 标记候选已审批 → 组合拉取 → 逐对阵表全量替换 → 回写聚合计数
// 单个对阵表失败记入报告并继续其余对阵表，事件行落 error 状态
func (s *SyncService) syncEvent(ctx context.Context, rl *runLog, src model.SourceEvent, floEventID string) (bracketCount, boutCount int, err error) {
	event := &model.Event{
		ExternalID: src.ExternalID,
		Name:       src.Name,
		StartDate:  src.StartDate,
		EndDate:    src.EndDate,
		Venue:      src.Venue,
		City:       src.City,
		State:      src.State,
		FloEventID: &floEventID,
	}
	if err := s.events.UpsertByExternalID(ctx, event); err != nil {
		return 0, 0, fmt.Errorf("正式事件落库失败: %w", err)
	}
	if err := s.candidates.MarkAutoApproved(ctx, src.ExternalID, event.ID); err != nil {
		// 候选标记失败不中断对阵同步，但要留痕
		rl.addf("候选 %s 标记审批失败: %v", src.ExternalID, err)
	}
	if err := s.events.UpdateBracketSyncStatus(ctx, event.ID, model.BracketSyncSyncing); err != nil {
		return 0, 0, fmt.Errorf("更新同步状态失败: %w", err)
	}

	full, err := s.results.GetFullEventData(ctx, floEventID)
	if err != nil {
		_ = s.events.UpdateBracketSyncStatus(ctx, event.ID, model.BracketSyncError)
		return 0, 0, fmt.Errorf("组合拉取失败: %w", err)
	}
	for _, msg := range full.Errors {
		rl.addf("事件 %s: %s", src.Name, msg)
	}

	partialFailure := len(full.Errors) > 0
	for _, bd := range full.Brackets {
		bouts, err := s.syncBracket(ctx, event.ID, bd)
		if err != nil {
			rl.addf("事件 %s 级别 %s 同步失败: %v", src.Name, bd.WeightClass, err)
			partialFailure = true
			continue
		}
		bracketCount++
		boutCount += bouts
	}

	if partialFailure {
		_ = s.events.UpdateBracketSyncStatus(ctx, event.ID, model.BracketSyncError)
		rl.addf("事件 %s 部分同步：%d 个对阵表成功", src.Name, bracketCount)
		return bracketCount, boutCount, nil
	}
	if err := s.events.FinishBracketSync(ctx, event.ID, bracketCount, boutCount); err != nil {
		return bracketCount, boutCount, fmt.Errorf("回写同步计数失败: %w", err)
	}
	return bracketCount, boutCount, nil
}

// syncBracket 单对阵表 upsert + 场次/名次全量替换，返回入库场次数
func (s *SyncService) syncBracket(ctx context.Context, eventID uint64, bd model.BracketData) (int, error) {
	bracket := &model.Bracket{
		EventID:          eventID,
		FloBracketID:     bd.BracketID,
		WeightClass:      bd.WeightClass,
		ParticipantCount: bd.ParticipantCount,
		BoutCount:        bd.BoutCount, // 原始场次数（含 bye），不等于入库行数
	}
	if err := s.brackets.UpsertBracket(ctx, bracket); err != nil {
		return 0, fmt.Errorf("对阵表落库失败: %w", err)
	}

	bouts := make([]*model.Bout, 0, len(bd.Bouts))
	for _, fb := range bd.Bouts {
		bout, err := convertBout(bracket.ID, fb)
		if err != nil {
			return 0, fmt.Errorf("场次转换失败: %w", err)
		}
		bouts = append(bouts, bout)
	}

	placements := make([]*model.Placement, 0, len(bd.Placements))
	for _, fp := range bd.Placements {
		placements = append(placements, &model.Placement{
			BracketID:        bracket.ID,
			Place:            fp.Place,
			WrestlerName:     fp.WrestlerName,
			TeamName:         fp.TeamName,
			FloParticipantID: fp.FloParticipantID,
		})
	}

	if err := s.brackets.ReplaceBracketData(ctx, bracket.ID, bouts, placements, s.cfg.Sync.BoutInsertBatch); err != nil {
		return 0, fmt.Errorf("场次替换失败: %w", err)
	}
	return len(bouts), nil
}

// convertBout 结果源场次 → 数据库模型（选手信息序列化为 jsonb）
func convertBout(bracketID uint64, fb model.FloBout) (*model.Bout, error) {
	bout := &model.Bout{
		BracketID:   bracketID,
		FloBoutID:   fb.BoutID,
		MatchNumber: fb.MatchNumber,
		RoundName:   fb.RoundName,
		State:       fb.State,
		Result:      fb.Result,
		WinType:     fb.WinType,
		BracketX:    fb.BracketX,
		BracketY:    fb.BracketY,
	}
	if fb.TopParticipant != nil {
		raw, err := json.Marshal(fb.TopParticipant)
		if err != nil {
			return nil, err
		}
		j := datatypes.JSON(raw)
		bout.TopParticipant = &j
	}
	if fb.BottomParticipant != nil {
		raw, err := json.Marshal(fb.BottomParticipant)
		if err != nil {
			return nil, err
		}
		j := datatypes.JSON(raw)
		bout.BottomParticipant = &j
	}
	return bout, nil
}
