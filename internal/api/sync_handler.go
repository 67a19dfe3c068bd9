package api

import (
	"net/http"
	"strconv"

	"MatSync/internal/model"
	"MatSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SyncHandler 同步触发接口
type SyncHandler struct {
	syncService *service.SyncService
	logger      *logrus.Logger
}

func NewSyncHandler(syncService *service.SyncService, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// RunHandler 全自动同步（匹配成功即自动审批并拉取对阵数据）
// @Summary 触发一次完整同步
// @Param pages query int false "抓取页数（默认取配置）"
// @Success 200 {object} model.SyncRun
// @Router /sync/run [post]
func (h *SyncHandler) RunHandler(c *gin.Context) {
	pages, _ := strconv.Atoi(c.DefaultQuery("pages", "0"))
	run := h.syncService.Run(c.Request.Context(), service.RunOptions{
		Pages:       pages,
		AutoApprove: true,
		Trigger:     service.TriggerManual,
	})
	c.JSON(statusForRun(run), run)
}

// DiscoverHandler 手动发现：候选保持 pending 等待人工审批
// @Summary 触发一次发现式抓取
// @Param pages query int true "抓取页数"
// @Success 200 {object} model.SyncRun
// @Router /sync/discover [post]
func (h *SyncHandler) DiscoverHandler(c *gin.Context) {
	pages, err := strconv.Atoi(c.Query("pages"))
	if err != nil || pages <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pages 参数必须为正整数"})
		return
	}
	run := h.syncService.Run(c.Request.Context(), service.RunOptions{
		Pages:       pages,
		AutoApprove: false,
		Trigger:     service.TriggerManual,
	})
	c.JSON(statusForRun(run), run)
}

// RematchHandler 对存量未匹配行重跑身份匹配（不抓取）
// @Summary 触发一次匹配回填
// @Param scope query string false "回填范围：events/candidates/all（默认all）"
// @Success 200 {object} model.SyncRun
// @Router /sync/rematch [post]
func (h *SyncHandler) RematchHandler(c *gin.Context) {
	scope := c.DefaultQuery("scope", service.RematchScopeAll)
	switch scope {
	case service.RematchScopeEvents, service.RematchScopeCandidates, service.RematchScopeAll:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope 必须为 events/candidates/all"})
		return
	}
	run := h.syncService.RematchUnlinked(c.Request.Context(), scope)
	c.JSON(statusForRun(run), run)
}

func statusForRun(run *model.SyncRun) int {
	if run.Status == model.RunStatusError {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}
