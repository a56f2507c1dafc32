// Package handler 提供 HTTP 请求处理器
package handler

import (
	"encoding/json"
	"time"

	"bookforge-api/internal/domain/repository"
	"bookforge-api/internal/infrastructure/persistence/redis"
	"bookforge-api/internal/interfaces/http/dto"
	apperrors "bookforge-api/pkg/errors"
	"bookforge-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// usageCacheTTL 用量缓存有效期。预算提交时会主动失效，TTL 只是兜底。
const usageCacheTTL = 30 * time.Second

// UserHandler 用户处理器
type UserHandler struct {
	userRepo repository.UserRepository
	cache    *redis.Cache
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userRepo repository.UserRepository, cache *redis.Cache) *UserHandler {
	return &UserHandler{
		userRepo: userRepo,
		cache:    cache,
	}
}

// GetMe 获取当前用户信息
// @Summary 获取当前用户
// @Tags User
// @Produce json
// @Success 200 {object} entity.User
// @Router /v1/users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Error(ctx, "failed to get user", err)
		dto.InternalError(c, "failed to load user")
		return
	}
	if user == nil {
		dto.FromAppError(c, apperrors.ErrUserNotFound)
		return
	}

	dto.OK(c, user)
}

// GetUsage 获取当前用户 Token 用量（Redis 读穿缓存）
// @Summary 获取 Token 用量
// @Tags User
// @Produce json
// @Success 200 {object} dto.UsageResponse
// @Router /v1/users/me/usage [get]
func (h *UserHandler) GetUsage(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	load := func() (interface{}, error) {
		user, err := h.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, apperrors.ErrUserNotFound
		}
		return dto.ToUsageResponse(user), nil
	}

	// 缓存不可用时直接读库
	if h.cache == nil {
		usage, err := load()
		if err != nil {
			dto.FromAppError(c, err)
			return
		}
		dto.OK(c, usage)
		return
	}

	raw, err := h.cache.GetOrLoadSafe(ctx, redis.UsageKey(userID), usageCacheTTL, load)
	if err != nil {
		dto.FromAppError(c, err)
		return
	}

	var usage dto.UsageResponse
	if err := json.Unmarshal(raw, &usage); err != nil {
		logger.Error(ctx, "failed to decode cached usage", err, "user_id", userID)
		dto.InternalError(c, "failed to load usage")
		return
	}

	dto.OK(c, &usage)
}
