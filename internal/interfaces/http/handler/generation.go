// Package handler 提供 HTTP 请求处理器
package handler

import (
	"bookforge-api/internal/application/stage"
	"bookforge-api/internal/interfaces/http/dto"

	"github.com/gin-gonic/gin"
)

// GenerationHandler 生成流水线处理器，五个阶段各占一个端点。
// 预算校验、Provider 调用与事务落库都在 stage.Service 内完成，
// 这里只做参数绑定和错误透出。
type GenerationHandler struct {
	stages *stage.Service
}

// NewGenerationHandler 创建生成处理器
func NewGenerationHandler(stages *stage.Service) *GenerationHandler {
	return &GenerationHandler{stages: stages}
}

// Brainstorm 主题扩展阶段
// @Summary 主题扩展
// @Tags Generation
// @Produce json
// @Success 200 {object} entity.Brainstorm
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/brainstorm [post]
func (h *GenerationHandler) Brainstorm(c *gin.Context) {
	result, err := h.stages.ExpandTopic(c.Request.Context(), currentUserID(c), c.Param("pid"))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.OK(c, result)
}

// Concepts 概念生成阶段
// @Summary 概念生成
// @Tags Generation
// @Produce json
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/concepts [post]
func (h *GenerationHandler) Concepts(c *gin.Context) {
	concepts, err := h.stages.GenerateConcepts(c.Request.Context(), currentUserID(c), c.Param("pid"))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.OK(c, concepts)
}

// Outline 大纲生成阶段
// @Summary 大纲生成
// @Tags Generation
// @Accept json
// @Produce json
// @Param body body dto.OutlineRequest true "选中概念下标"
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/outline [post]
func (h *GenerationHandler) Outline(c *gin.Context) {
	var req dto.OutlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	chapters, err := h.stages.GenerateOutline(c.Request.Context(), currentUserID(c), c.Param("pid"), req.ConceptIndex)
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.OK(c, chapters)
}

// Chapter 单章生成阶段
// @Summary 单章生成
// @Tags Generation
// @Produce json
// @Success 200 {object} dto.ChapterGenerationResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid}/generate [post]
func (h *GenerationHandler) Chapter(c *gin.Context) {
	chapter, err := h.stages.GenerateChapter(c.Request.Context(), currentUserID(c), c.Param("cid"))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.OK(c, dto.ToChapterGenerationResponse(chapter))
}

// Cover 封面生成阶段
// @Summary 封面生成
// @Tags Generation
// @Produce json
// @Success 200 {object} stage.CoverResult
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/cover [post]
func (h *GenerationHandler) Cover(c *gin.Context) {
	result, err := h.stages.GenerateCover(c.Request.Context(), currentUserID(c), c.Param("pid"))
	if err != nil {
		dto.FromAppError(c, err)
		return
	}
	dto.OK(c, result)
}
