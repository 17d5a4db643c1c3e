package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/dig-game/internal/errors"
	"github.com/wfunc/dig-game/internal/game"
	"github.com/wfunc/dig-game/internal/middleware"
	"github.com/wfunc/dig-game/internal/repository"
	"go.uber.org/zap"
)

// ExcavationHandler 发掘会话处理器
type ExcavationHandler struct {
	service *game.ExcavationService
	logger  *zap.Logger
}

// NewExcavationHandler 创建发掘处理器
func NewExcavationHandler(service *game.ExcavationService, logger *zap.Logger) *ExcavationHandler {
	return &ExcavationHandler{
		service: service,
		logger:  logger,
	}
}

// SiteListResponse 遗址列表响应
type SiteListResponse struct {
	Sites    interface{} `json:"sites"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// SessionListResponse 会话历史响应
type SessionListResponse struct {
	Sessions interface{} `json:"sessions"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// ToolListResponse 工具列表响应
type ToolListResponse struct {
	Tools []game.ToolView `json:"tools"`
}

// ListSites 获取开放遗址列表
// @Summary 获取开放遗址列表
// @Description 返回开放中的考古遗址，可按难度过滤
// @Tags Excavation
// @Security Bearer
// @Produce json
// @Param difficulty query string false "难度过滤 beginner/intermediate/advanced"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} SiteListResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/sites [get]
func (h *ExcavationHandler) ListSites(c *gin.Context) {
	p := paginationFromQuery(c)
	difficulty := c.Query("difficulty")

	sites, err := h.service.ListSites(c.Request.Context(), difficulty, p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SiteListResponse{
		Sites:    sites,
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
	})
}

// ListTools 获取可用工具列表
// @Summary 获取可用工具列表
// @Tags Excavation
// @Security Bearer
// @Produce json
// @Success 200 {object} ToolListResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/tools [get]
func (h *ExcavationHandler) ListTools(c *gin.Context) {
	c.JSON(http.StatusOK, ToolListResponse{Tools: h.service.Tools()})
}

// StartSession 开始发掘会话
// @Summary 开始发掘会话
// @Description 在指定遗址上开启新的发掘会话，已有进行中的会话会被自动放弃
// @Tags Excavation
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body game.StartSessionRequest true "开始会话请求"
// @Success 200 {object} game.SessionStateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/sessions [post]
func (h *ExcavationHandler) StartSession(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "NO_TOKEN", Message: "未登录"})
		return
	}

	var req game.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PARAM",
			Message: "参数错误",
			Details: err.Error(),
		})
		return
	}

	state, err := h.service.StartSession(c.Request.Context(), userID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("发掘会话开始",
		zap.Uint("user_id", userID),
		zap.String("session_id", state.SessionID),
		zap.Uint("site_id", state.SiteID))

	c.JSON(http.StatusOK, state)
}

// ListSessions 获取会话历史
// @Summary 获取会话历史
// @Tags Excavation
// @Security Bearer
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} SessionListResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/sessions [get]
func (h *ExcavationHandler) ListSessions(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Code: "NO_TOKEN", Message: "未登录"})
		return
	}

	p := paginationFromQuery(c)
	sessions, err := h.service.ListSessions(c.Request.Context(), userID, p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SessionListResponse{
		Sessions: sessions,
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
	})
}

// GetSession 获取会话状态
// @Summary 获取会话状态
// @Description 返回玩家视角的会话状态，未发现的埋藏信息不可见
// @Tags Excavation
// @Security Bearer
// @Produce json
// @Param id path string true "会话ID"
// @Success 200 {object} game.SessionStateResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sessions/{id} [get]
func (h *ExcavationHandler) GetSession(c *gin.Context) {
	state, err := h.service.GetSessionState(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ApplyAction 执行挖掘或记录动作
// @Summary 执行挖掘或记录动作
// @Description 对指定网格单元使用工具，返回动作结果与触发的违规/发现
// @Tags Excavation
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path string true "会话ID"
// @Param request body game.ActionRequest true "动作请求"
// @Success 200 {object} game.ActionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/sessions/{id}/actions [post]
func (h *ExcavationHandler) ApplyAction(c *gin.Context) {
	var req game.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PARAM",
			Message: "参数错误",
			Details: err.Error(),
		})
		return
	}

	result, err := h.service.ApplyAction(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ChangeTool 切换当前工具
// @Summary 切换当前工具
// @Tags Excavation
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path string true "会话ID"
// @Param request body game.ChangeToolRequest true "切换工具请求"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sessions/{id}/tool [put]
func (h *ExcavationHandler) ChangeTool(c *gin.Context) {
	var req game.ChangeToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PARAM",
			Message: "参数错误",
			Details: err.Error(),
		})
		return
	}

	if err := h.service.ChangeTool(c.Request.Context(), c.Param("id"), &req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "工具已切换", "tool_id": req.ToolID})
}

// AddEntry 添加记录条目
// @Summary 添加记录条目
// @Description 添加发现记录、测量、照片、笔记或取样条目
// @Tags Excavation
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path string true "会话ID"
// @Param request body game.EntryRequest true "记录条目请求"
// @Success 200 {object} game.EntryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sessions/{id}/entries [post]
func (h *ExcavationHandler) AddEntry(c *gin.Context) {
	var req game.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PARAM",
			Message: "参数错误",
			Details: err.Error(),
		})
		return
	}

	result, err := h.service.AddEntry(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CompleteSession 完成会话并生成报告
// @Summary 完成会话并生成报告
// @Description 结束发掘，补记缺失记录违规并生成最终考察报告
// @Tags Excavation
// @Security Bearer
// @Produce json
// @Param id path string true "会话ID"
// @Success 200 {object} game.ReportResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/sessions/{id}/complete [post]
func (h *ExcavationHandler) CompleteSession(c *gin.Context) {
	report, err := h.service.CompleteSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// AbandonSession 放弃会话
// @Summary 放弃会话
// @Description 放弃进行中的发掘会话，不生成报告也不记录成绩
// @Tags Excavation
// @Security Bearer
// @Produce json
// @Param id path string true "会话ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/sessions/{id}/abandon [post]
func (h *ExcavationHandler) AbandonSession(c *gin.Context) {
	if err := h.service.AbandonSession(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "会话已放弃"})
}

// respondError 把服务层错误映射为HTTP响应
func (h *ExcavationHandler) respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		status := appErr.HTTPStatus()
		if status >= 500 {
			h.logger.Error("发掘接口内部错误",
				zap.String("path", c.FullPath()),
				zap.Error(err))
		}
		c.JSON(status, apperrors.NewErrorResponse(appErr, c.GetHeader("X-Request-ID")))
		return
	}

	h.logger.Error("发掘接口未知错误",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    "INTERNAL_ERROR",
		Message: "服务器内部错误",
	})
}

// paginationFromQuery 从查询参数解析分页
func paginationFromQuery(c *gin.Context) *repository.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return repository.NewPagination(page, pageSize)
}
