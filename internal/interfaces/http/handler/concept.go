// Package handler 提供 HTTP 请求处理器
package handler

import (
	"bookforge-api/internal/domain/repository"
	"bookforge-api/internal/interfaces/http/dto"
	apperrors "bookforge-api/pkg/errors"
	"bookforge-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ConceptHandler 概念集合处理器
type ConceptHandler struct {
	conceptRepo repository.ConceptRepository
	projectRepo repository.ProjectRepository
}

// NewConceptHandler 创建概念集合处理器
func NewConceptHandler(conceptRepo repository.ConceptRepository, projectRepo repository.ProjectRepository) *ConceptHandler {
	return &ConceptHandler{
		conceptRepo: conceptRepo,
		projectRepo: projectRepo,
	}
}

// GetConcepts 获取项目的概念集合（头脑风暴产物 + 候选概念 + 选中项）
// @Summary 概念集合
// @Tags Concept
// @Produce json
// @Router /v1/projects/{pid}/concepts [get]
func (h *ConceptHandler) GetConcepts(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := loadOwnedProject(ctx, h.projectRepo, c.Param("pid"), currentUserID(c))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}

	set, err := h.conceptRepo.GetByProject(ctx, project.ID)
	if err != nil {
		logger.Error(ctx, "failed to load concept set", err, "project_id", project.ID)
		dto.InternalError(c, "failed to load concepts")
		return
	}
	// 资源读取走 404；400 的概念缺失语义只属于大纲生成
	if set == nil {
		dto.FromAppError(c, apperrors.New(apperrors.CodeNotFound, "concept set not found"))
		return
	}

	dto.OK(c, set)
}
