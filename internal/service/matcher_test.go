package service

import (
	"context"
	"testing"
	"time"

	"MatSync/internal/adapter/flowrestling"
	"MatSync/internal/config"
	"MatSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResultClient 只实现匹配扫描用到的 GetEventInfo，其余方法不应被调用
type fakeResultClient struct {
	events map[string]*model.FloEventInfo
	full   map[string]*model.FullEventData
	calls  int
}

func (f *fakeResultClient) GetEventInfo(_ context.Context, floEventID string) (*model.FloEventInfo, error) {
	f.calls++
	if e, ok := f.events[floEventID]; ok {
		return e, nil
	}
	return nil, flowrestling.ErrNotFound
}

func (f *fakeResultClient) GetBracketDivisions(context.Context, string) ([]model.BracketOption, error) {
	panic("unexpected call")
}

func (f *fakeResultClient) GetBracketBouts(context.Context, string, string) (*model.BracketData, error) {
	panic("unexpected call")
}

func (f *fakeResultClient) GetBracketPlacements(context.Context, string, string) ([]model.FloPlacement, error) {
	panic("unexpected call")
}

func (f *fakeResultClient) GetFullEventData(_ context.Context, floEventID string) (*model.FullEventData, error) {
	if f.full != nil {
		if d, ok := f.full[floEventID]; ok {
			return d, nil
		}
	}
	return nil, flowrestling.ErrNotFound
}

// fakeSettings 内存版匹配游标
type fakeSettings struct {
	value    int64
	found    bool
	advanced []int64
}

func (f *fakeSettings) GetLastFloEventID(context.Context) (int64, bool, error) {
	return f.value, f.found, nil
}

func (f *fakeSettings) AdvanceLastFloEventID(_ context.Context, newID int64) error {
	f.advanced = append(f.advanced, newID)
	f.value = newID
	f.found = true
	return nil
}

func testMatcherConfig() *config.MatcherConfig {
	return &config.MatcherConfig{
		ScanRadius:      10,
		ChunkSize:       4,
		ChunkDelay:      time.Millisecond,
		DefaultHintID:   100,
		MinScore:        50,
		MinSharedWords:  3,
		MatchConfidence: 90,
	}
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestMatcher(client *fakeResultClient, settings *fakeSettings) *MatcherService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewMatcherService(client, settings, testMatcherConfig(), logger)
}

func TestMatchBatch_ExactMatchWins(t *testing.T) {
	client := &fakeResultClient{events: map[string]*model.FloEventInfo{
		// 子串候选得分90，即便先被扫描到也不能胜过精确同名的100
		"95":  {EventID: "95", Title: "Metro Duals Winter Open Tournament", StartDate: "2026-02-14"},
		"103": {EventID: "103", Title: "  metro   DUALS ", StartDate: "2026-02-14"},
	}}
	settings := &fakeSettings{value: 100, found: true}
	m := newTestMatcher(client, settings)

	result, err := m.MatchBatch(context.Background(), []MatchTarget{
		{Name: "Metro Duals", StartDate: date("2026-02-14")},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Metro Duals": "103"}, result)
}

func TestMatchBatch_BelowThresholdAbsent(t *testing.T) {
	client := &fakeResultClient{events: map[string]*model.FloEventInfo{
		// 同日但共词不足3个，得分为0，不产生映射
		"99": {EventID: "99", Title: "Spring Brawl Classic", StartDate: "2026-02-14"},
	}}
	settings := &fakeSettings{value: 100, found: true}
	m := newTestMatcher(client, settings)

	result, err := m.MatchBatch(context.Background(), []MatchTarget{
		{Name: "Metro Duals", StartDate: date("2026-02-14")},
	})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestMatchBatch_SubstringScores90(t *testing.T) {
	client := &fakeResultClient{events: map[string]*model.FloEventInfo{
		"101": {EventID: "101", Title: "Metro Duals 2026 Presented by XYZ", StartDate: "2026-03-01"},
	}}
	settings := &fakeSettings{value: 100, found: true}
	m := newTestMatcher(client, settings)

	// 日期不同也能靠子串命中
	result, err := m.MatchBatch(context.Background(), []MatchTarget{
		{Name: "Metro Duals", StartDate: date("2026-02-14")},
	})
	require.NoError(t, err)
	assert.Equal(t, "101", result["Metro Duals"])
}

func TestMatchBatch_DateAndSharedWords(t *testing.T) {
	client := &fakeResultClient{events: map[string]*model.FloEventInfo{
		"102": {EventID: "102", Title: "Annual Keystone State Wrestling Championship Finals", StartDate: "2026-02-14T08:00:00Z"},
	}}
	settings := &fakeSettings{value: 100, found: true}
	m := newTestMatcher(client, settings)

	t.Run("SameDayEnoughWords", func(t *testing.T) {
		// 共享词 keystone/state/wrestling/championship（长度>2），同日 → 50+5*4=70
		result, err := m.MatchBatch(context.Background(), []MatchTarget{
			{Name: "Keystone State Championship Wrestling Duals", StartDate: date("2026-02-14")},
		})
		require.NoError(t, err)
		assert.Equal(t, "102", result["Keystone State Championship Wrestling Duals"])
	})

	t.Run("DifferentDayRejected", func(t *testing.T) {
		result, err := m.MatchBatch(context.Background(), []MatchTarget{
			{Name: "Keystone State Championship Wrestling Duals", StartDate: date("2026-02-15")},
		})
		require.NoError(t, err)
		assert.Empty(t, result)
	})
}

func TestMatchBatch_SilentSkipOnProbeFailure(t *testing.T) {
	// 窗口内绝大多数ID不存在：21次探测只命中1个，其余静默跳过
	client := &fakeResultClient{events: map[string]*model.FloEventInfo{
		"105": {EventID: "105", Title: "Metro Duals", StartDate: "2026-02-14"},
	}}
	settings := &fakeSettings{value: 100, found: true}
	m := newTestMatcher(client, settings)

	result, err := m.MatchBatch(context.Background(), []MatchTarget{
		{Name: "Metro Duals", StartDate: date("2026-02-14")},
	})
	require.NoError(t, err)
	assert.Equal(t, "105", result["Metro Duals"])
	assert.Equal(t, 21, client.calls) // radius 10 → [90,110]
}

func TestMatchBatch_DefaultHintWhenNoCursor(t *testing.T) {
	client := &fakeResultClient{events: map[string]*model.FloEventInfo{
		"98": {EventID: "98", Title: "Metro Duals", StartDate: "2026-02-14"},
	}}
	settings := &fakeSettings{} // 无游标 → DefaultHintID=100 为中心
	m := newTestMatcher(client, settings)

	result, err := m.MatchBatch(context.Background(), []MatchTarget{
		{Name: "Metro Duals", StartDate: date("2026-02-14")},
	})
	require.NoError(t, err)
	assert.Equal(t, "98", result["Metro Duals"])
}

func TestMatchOne(t *testing.T) {
	client := &fakeResultClient{events: map[string]*model.FloEventInfo{
		"107": {EventID: "107", Title: "Iron City Invitational", StartDate: "2026-01-10"},
	}}
	settings := &fakeSettings{value: 100, found: true}
	m := newTestMatcher(client, settings)

	id, ok := m.MatchOne(context.Background(), "Iron City Invitational", date("2026-01-10"))
	require.True(t, ok)
	assert.Equal(t, "107", id)

	_, ok = m.MatchOne(context.Background(), "Completely Different Event", date("2026-01-10"))
	assert.False(t, ok)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "metro duals", normalizeName("  Metro   DUALS "))
	assert.Equal(t, "", normalizeName("   "))
}

func TestSharedWordCount(t *testing.T) {
	// 长度<=2的词不计；重复词只计一次
	assert.Equal(t, 2, sharedWordCount("the big metro duals", "big metro pa jv"))
	assert.Equal(t, 1, sharedWordCount("duals duals duals", "metro duals duals"))
	assert.Equal(t, 0, sharedWordCount("a b c", "a b c"))
}

func TestMatchBatch_NameTiersSurviveUnparsableHitDate(t *testing.T) {
	client := &fakeResultClient{events: map[string]*model.FloEventInfo{
		// 结果源日期字段偶见占位文本，名称档位不依赖日期，仍需命中
		"103": {EventID: "103", Title: "Metro Duals", StartDate: "TBD"},
	}}
	settings := &fakeSettings{value: 100, found: true}
	m := newTestMatcher(client, settings)

	result, err := m.MatchBatch(context.Background(), []MatchTarget{
		{Name: "Metro Duals", StartDate: date("2026-02-14")},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Metro Duals": "103"}, result)
}

func TestMatchBatch_DateTierRequiresParsableDate(t *testing.T) {
	client := &fakeResultClient{events: map[string]*model.FloEventInfo{
		// 共词足够但命中方日期解析失败：日期档位不得放行（零值日期互等不算同日）
		"103": {EventID: "103", Title: "Spring Metro Duals Showcase", StartDate: "TBD"},
	}}
	settings := &fakeSettings{value: 100, found: true}
	m := newTestMatcher(client, settings)

	result, err := m.MatchBatch(context.Background(), []MatchTarget{
		{Name: "Metro Duals Showcase Finals"},
	})
	require.NoError(t, err)
	assert.Empty(t, result)
}
