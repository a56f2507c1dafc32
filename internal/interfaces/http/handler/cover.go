// Package handler 提供 HTTP 请求处理器
package handler

import (
	"bookforge-api/internal/domain/repository"
	"bookforge-api/internal/interfaces/http/dto"
	"bookforge-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CoverHandler 封面处理器
type CoverHandler struct {
	coverRepo   repository.CoverRepository
	projectRepo repository.ProjectRepository
}

// NewCoverHandler 创建封面处理器
func NewCoverHandler(coverRepo repository.CoverRepository, projectRepo repository.ProjectRepository) *CoverHandler {
	return &CoverHandler{
		coverRepo:   coverRepo,
		projectRepo: projectRepo,
	}
}

// ListCovers 获取项目封面历史，最新在前
// @Summary 封面历史
// @Tags Cover
// @Produce json
// @Router /v1/projects/{pid}/covers [get]
func (h *CoverHandler) ListCovers(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := loadOwnedProject(ctx, h.projectRepo, c.Param("pid"), currentUserID(c))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}

	covers, err := h.coverRepo.ListByProject(ctx, project.ID)
	if err != nil {
		logger.Error(ctx, "failed to list covers", err, "project_id", project.ID)
		dto.InternalError(c, "failed to list covers")
		return
	}

	dto.OK(c, covers)
}
