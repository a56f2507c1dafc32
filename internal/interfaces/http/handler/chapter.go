// Package handler 提供 HTTP 请求处理器
package handler

import (
	"bookforge-api/internal/domain/entity"
	"bookforge-api/internal/domain/repository"
	"bookforge-api/internal/interfaces/http/dto"
	apperrors "bookforge-api/pkg/errors"
	"bookforge-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ChapterHandler 章节处理器
type ChapterHandler struct {
	chapterRepo repository.ChapterRepository
	projectRepo repository.ProjectRepository
}

// NewChapterHandler 创建章节处理器
func NewChapterHandler(chapterRepo repository.ChapterRepository, projectRepo repository.ProjectRepository) *ChapterHandler {
	return &ChapterHandler{
		chapterRepo: chapterRepo,
		projectRepo: projectRepo,
	}
}

// loadOwnedChapter 加载章节并校验其项目属于当前用户
func (h *ChapterHandler) loadOwnedChapter(c *gin.Context, chapterID string) (*entity.Chapter, error) {
	ctx := c.Request.Context()

	chapter, err := h.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load chapter")
	}
	if chapter == nil {
		return nil, apperrors.ErrChapterNotFound
	}

	if _, err := loadOwnedProject(ctx, h.projectRepo, chapter.ProjectID, currentUserID(c)); err != nil {
		// 项目不属于当前用户时按章节不存在处理，避免泄露存在性
		return nil, apperrors.ErrChapterNotFound
	}
	return chapter, nil
}

// ListChapters 获取项目章节列表（按序号升序）
// @Summary 章节列表
// @Tags Chapter
// @Produce json
// @Router /v1/projects/{pid}/chapters [get]
func (h *ChapterHandler) ListChapters(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := loadOwnedProject(ctx, h.projectRepo, c.Param("pid"), currentUserID(c))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}

	chapters, err := h.chapterRepo.ListByProject(ctx, project.ID)
	if err != nil {
		logger.Error(ctx, "failed to list chapters", err, "project_id", project.ID)
		dto.InternalError(c, "failed to list chapters")
		return
	}

	dto.OK(c, chapters)
}

// GetChapter 获取章节详情
// @Summary 章节详情
// @Tags Chapter
// @Produce json
// @Router /v1/chapters/{cid} [get]
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	chapter, err := h.loadOwnedChapter(c, c.Param("cid"))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}

	dto.OK(c, chapter)
}

// UpdateChapter 手动编辑章节。正文变更时字数随之重算。
// @Summary 更新章节
// @Tags Chapter
// @Accept json
// @Produce json
// @Param body body dto.UpdateChapterRequest true "更新字段"
// @Router /v1/chapters/{cid} [put]
func (h *ChapterHandler) UpdateChapter(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	chapter, err := h.loadOwnedChapter(c, c.Param("cid"))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}

	if req.Title != nil {
		chapter.Title = *req.Title
	}
	if req.SummaryContext != nil {
		chapter.SummaryContext = *req.SummaryContext
	}
	if req.TargetWordCount != nil {
		chapter.TargetWordCount = *req.TargetWordCount
	}
	if req.ContentMarkdown != nil {
		chapter.ContentMarkdown = *req.ContentMarkdown
		chapter.WordCount = entity.CountWords(*req.ContentMarkdown)
	}

	if err := h.chapterRepo.Update(ctx, chapter); err != nil {
		logger.Error(ctx, "failed to update chapter", err, "chapter_id", chapter.ID)
		dto.InternalError(c, "failed to update chapter")
		return
	}

	dto.OK(c, chapter)
}
