// Package dto 提供 HTTP 层数据传输对象
package dto

// UpdateChapterRequest 手动编辑章节请求，零值字段不更新
type UpdateChapterRequest struct {
	Title           *string `json:"title" binding:"omitempty,max=255"`
	ContentMarkdown *string `json:"content_markdown"`
	SummaryContext  *string `json:"summary_context" binding:"omitempty,max=2000"`
	TargetWordCount *int    `json:"target_word_count" binding:"omitempty,min=100,max=10000"`
}
