// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"

	"bookforge-api/internal/domain/entity"
	"bookforge-api/internal/domain/repository"
	apperrors "bookforge-api/pkg/errors"

	"github.com/gin-gonic/gin"
)

// currentUserID 从 Gin Context 获取认证中间件注入的用户 ID
func currentUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// loadOwnedProject 加载属于当前用户的项目；不存在或不属于该用户返回 ErrProjectNotFound
func loadOwnedProject(ctx context.Context, projects repository.ProjectRepository, projectID, userID string) (*entity.Project, error) {
	project, err := projects.GetByIDAndUser(ctx, projectID, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load project")
	}
	if project == nil {
		return nil, apperrors.ErrProjectNotFound
	}
	return project, nil
}
