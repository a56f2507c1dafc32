// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"bookforge-api/internal/domain/entity"
)

// OutlineRequest 大纲生成请求。concept_index 越界时服务端回退到 0。
type OutlineRequest struct {
	ConceptIndex int `json:"conceptIndex" binding:"min=0"`
}

// ChapterGenerationResponse 单章生成响应
type ChapterGenerationResponse struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	WordCount int    `json:"wordCount"`
	Status    string `json:"status"`
}

// ToChapterGenerationResponse 将章节实体转换为生成响应
func ToChapterGenerationResponse(ch *entity.Chapter) *ChapterGenerationResponse {
	if ch == nil {
		return nil
	}
	return &ChapterGenerationResponse{
		ID:        ch.ID,
		Content:   ch.ContentMarkdown,
		WordCount: ch.WordCount,
		Status:    string(ch.Status),
	}
}
