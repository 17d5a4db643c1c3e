package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/dig-game/internal/middleware"
	"github.com/wfunc/dig-game/internal/models"
	"github.com/wfunc/dig-game/internal/repository"
	"github.com/wfunc/dig-game/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 学员默认角色。课堂场景不做账号体系，角色只区分学员与讲师。
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	logger     *zap.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(userRepo repository.UserRepository, jwtManager *utils.JWTManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// LoginRequest 报到请求
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=50"`
	Nickname string `json:"nickname"`
}

// LoginResponse 报到响应
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         interface{} `json:"user"`
}

// RefreshRequest 刷新令牌请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse 刷新令牌响应
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Login 学员报到
// @Summary 学员报到
// @Description 按用户名报到并获取令牌，首次报到自动建档
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "报到请求"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PARAM",
			Message: "参数错误",
			Details: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()

	// 首次报到自动建档
	user, err := h.userRepo.FindByUsername(ctx, req.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &models.User{
			Username: req.Username,
			Nickname: req.Nickname,
		}
		if err := h.userRepo.Create(ctx, user); err != nil {
			h.logger.Error("创建学员失败",
				zap.String("username", req.Username),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Code:    "INTERNAL_ERROR",
				Message: "创建学员失败",
			})
			return
		}
		h.logger.Info("学员首次报到",
			zap.Uint("user_id", user.ID),
			zap.String("username", user.Username))
	} else if err != nil {
		h.logger.Error("查询学员失败",
			zap.String("username", req.Username),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "查询学员失败",
		})
		return
	}

	if !user.IsActive() {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Code:    "USER_DISABLED",
			Message: "学员账号已被禁用",
		})
		return
	}

	accessToken, err := h.jwtManager.GenerateAccessToken(user.ID, user.Username, RoleStudent)
	if err != nil {
		h.logger.Error("生成访问令牌失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "生成令牌失败",
		})
		return
	}

	refreshToken, err := h.jwtManager.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		h.logger.Error("生成刷新令牌失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "生成令牌失败",
		})
		return
	}

	if err := h.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		// 登录时间更新失败不影响报到流程
		h.logger.Warn("更新最后登录时间失败",
			zap.Uint("user_id", user.ID),
			zap.Error(err))
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

// RefreshToken 刷新访问令牌
// @Summary 刷新访问令牌
// @Description 使用刷新令牌换取新的访问令牌
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "刷新请求"
// @Success 200 {object} RefreshResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PARAM",
			Message: "参数错误",
			Details: err.Error(),
		})
		return
	}

	accessToken, err := h.jwtManager.RefreshAccessToken(req.RefreshToken, RoleStudent)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "INVALID_TOKEN",
			Message: "刷新令牌无效",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{AccessToken: accessToken})
}

// GetProfile 获取学员档案
// @Summary 获取学员档案
// @Tags Auth
// @Security Bearer
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists || userID == 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "NO_TOKEN",
			Message: "未登录",
		})
		return
	}

	user, err := h.userRepo.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Code:    "USER_NOT_FOUND",
				Message: "学员不存在",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "查询学员失败",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}
