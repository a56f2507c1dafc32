// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"strconv"

	"bookforge-api/internal/domain/entity"
	"bookforge-api/internal/domain/repository"
	"bookforge-api/internal/interfaces/http/dto"
	"bookforge-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	tx          repository.Transactor
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projectRepo repository.ProjectRepository, userRepo repository.UserRepository, tx repository.Transactor) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		tx:          tx,
	}
}

// ListProjects 获取项目列表（按更新时间倒序）
// @Summary 项目列表
// @Tags Project
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "分页大小"
// @Router /v1/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	pagination := repository.NewPagination(page, pageSize)

	result, err := h.projectRepo.ListByUser(ctx, userID, pagination)
	if err != nil {
		logger.Error(ctx, "failed to list projects", err)
		dto.InternalError(c, "failed to list projects")
		return
	}

	dto.OK(c, &dto.PagedResponse[*entity.Project]{
		Items: result.Items,
		Meta:  dto.NewPageMeta(result.Page, result.PageSize, result.Total),
	})
}

// CreateProject 创建项目
// @Summary 创建项目
// @Tags Project
// @Accept json
// @Produce json
// @Param body body dto.CreateProjectRequest true "项目信息"
// @Success 201 {object} entity.Project
// @Router /v1/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	project := entity.NewProject(userID, req.SeedKeyword)
	project.Description = req.Description
	project.Genre = req.Genre
	project.TargetAudience = req.TargetAudience
	project.WritingStyle = req.WritingStyle
	if req.CoverStyle != "" {
		project.CoverStyle = req.CoverStyle
	}
	if req.WordCountGoal > 0 {
		project.WordCountGoal = req.WordCountGoal
	}

	// 项目创建与用户项目计数同事务
	err := h.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if crErr := h.projectRepo.Create(txCtx, project); crErr != nil {
			return crErr
		}
		return h.userRepo.IncrementProjectCount(txCtx, userID, 1)
	})
	if err != nil {
		logger.Error(ctx, "failed to create project", err)
		dto.InternalError(c, "failed to create project")
		return
	}

	dto.Created(c, project)
}

// GetProject 获取项目详情
// @Summary 项目详情
// @Tags Project
// @Produce json
// @Router /v1/projects/{pid} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := loadOwnedProject(ctx, h.projectRepo, c.Param("pid"), currentUserID(c))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}

	dto.OK(c, project)
}

// UpdateProject 更新项目设定
// @Summary 更新项目
// @Tags Project
// @Accept json
// @Produce json
// @Param body body dto.UpdateProjectRequest true "更新字段"
// @Router /v1/projects/{pid} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	project, err := loadOwnedProject(ctx, h.projectRepo, c.Param("pid"), currentUserID(c))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}

	if req.Title != nil {
		project.Title = *req.Title
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Genre != nil {
		project.Genre = *req.Genre
	}
	if req.TargetAudience != nil {
		project.TargetAudience = *req.TargetAudience
	}
	if req.WritingStyle != nil {
		project.WritingStyle = *req.WritingStyle
	}
	if req.CoverStyle != nil {
		project.CoverStyle = *req.CoverStyle
	}
	if req.WordCountGoal != nil {
		project.WordCountGoal = *req.WordCountGoal
	}

	if err := h.projectRepo.Update(ctx, project); err != nil {
		logger.Error(ctx, "failed to update project", err, "project_id", project.ID)
		dto.InternalError(c, "failed to update project")
		return
	}

	dto.OK(c, project)
}

// DeleteProject 软删除项目
// @Summary 删除项目
// @Tags Project
// @Router /v1/projects/{pid} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	project, err := loadOwnedProject(ctx, h.projectRepo, c.Param("pid"), userID)
	if err != nil {
		dto.FromAppError(c, err)
		return
	}

	err = h.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if delErr := h.projectRepo.Delete(txCtx, project.ID); delErr != nil {
			return delErr
		}
		return h.userRepo.IncrementProjectCount(txCtx, userID, -1)
	})
	if err != nil {
		logger.Error(ctx, "failed to delete project", err, "project_id", project.ID)
		dto.InternalError(c, "failed to delete project")
		return
	}

	dto.NoContent(c)
}

// SaveStep 显式保存向导步骤。步骤指针只进不退，
// 回看早期步骤属于本地导航，不会回退服务端进度。
// @Summary 保存向导步骤
// @Tags Project
// @Accept json
// @Produce json
// @Param body body dto.SaveStepRequest true "步骤"
// @Router /v1/projects/{pid}/step [put]
func (h *ProjectHandler) SaveStep(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SaveStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	project, err := loadOwnedProject(ctx, h.projectRepo, c.Param("pid"), currentUserID(c))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}

	project.AdvanceTo(*req.Step)
	if err := h.projectRepo.Update(ctx, project); err != nil {
		logger.Error(ctx, "failed to save step", err, "project_id", project.ID)
		dto.InternalError(c, "failed to save step")
		return
	}

	dto.OK(c, project)
}
