package api

import (
	"errors"
	"net/http"
	"strconv"

	"MatSync/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EventHandler 正式事件与运行报告查询接口
type EventHandler struct {
	events   repository.EventRepository
	brackets repository.BracketRepository
	runs     repository.RunRepository
	logger   *logrus.Logger
}

func NewEventHandler(db *gorm.DB, logger *logrus.Logger) *EventHandler {
	return &EventHandler{
		events:   repository.NewEventRepository(db),
		brackets: repository.NewBracketRepository(db),
		runs:     repository.NewRunRepository(db),
		logger:   logger,
	}
}

// ListEvents 正式事件列表
// GET /api/events?status=synced&state=PA&page=1&page_size=20
func (h *EventHandler) ListEvents(c *gin.Context) {
	filter := repository.EventFilter{
		Status: c.Query("status"),
		State:  c.Query("state"),
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	events, total, err := h.events.ListEvents(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("事件列表查询失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":      page,
		"page_size": pageSize,
		"total":     total,
		"items":     events,
	})
}

// GetEventBrackets 单事件的对阵表列表
// GET /api/events/:event_uuid/brackets
func (h *EventHandler) GetEventBrackets(c *gin.Context) {
	eventUUID := c.Param("event_uuid")
	event, err := h.events.GetByUUID(c.Request.Context(), eventUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "事件不存在"})
			return
		}
		h.logger.WithError(err).Error("事件查询失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	brackets, err := h.brackets.ListByEventID(c.Request.Context(), event.ID)
	if err != nil {
		h.logger.WithError(err).Error("对阵表查询失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"event":    event,
		"brackets": brackets,
	})
}

// ListRuns 最近的运行报告
// GET /api/runs?limit=20
func (h *EventHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("运行报告查询失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": runs})
}
