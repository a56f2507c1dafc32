package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChapterStatus 章节状态
type ChapterStatus string

const (
	ChapterStatusDraft      ChapterStatus = "draft"
	ChapterStatusGenerating ChapterStatus = "generating"
	ChapterStatusGenerated  ChapterStatus = "generated"
)

// DefaultTargetWordCount 大纲生成时赋予章节的默认目标字数
const DefaultTargetWordCount = 2000

// MaxTargetWordCount 单章生成的目标字数上限
const MaxTargetWordCount = 3000

// Chapter 章节实体。order_index 在项目内连续且唯一（0..N-1）。
type Chapter struct {
	ID              string        `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID       string        `json:"project_id" gorm:"type:uuid;index;uniqueIndex:idx_chapters_project_order;not null"`
	Title           string        `json:"title" gorm:"type:varchar(255);not null"`
	OrderIndex      int           `json:"order_index" gorm:"uniqueIndex:idx_chapters_project_order;not null"`
	SummaryContext  string        `json:"summary_context,omitempty" gorm:"type:text"`
	Sections        []string      `json:"sections,omitempty" gorm:"type:jsonb;serializer:json"`
	ContentMarkdown string        `json:"content_markdown,omitempty" gorm:"type:text"`
	TargetWordCount int           `json:"target_word_count" gorm:"default:2000"`
	WordCount       int           `json:"word_count" gorm:"default:0"`
	Status          ChapterStatus `json:"status" gorm:"type:varchar(50);default:'draft'"`
	CreatedAt       time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}

// NewChapter 创建新章节
func NewChapter(projectID, title string, orderIndex int) *Chapter {
	now := time.Now()
	return &Chapter{
		ID:              uuid.NewString(),
		ProjectID:       projectID,
		Title:           title,
		OrderIndex:      orderIndex,
		TargetWordCount: DefaultTargetWordCount,
		Status:          ChapterStatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// SetContent 写入生成正文并统计字数（按空白分词）
func (c *Chapter) SetContent(content string) {
	c.ContentMarkdown = content
	c.WordCount = CountWords(content)
	c.Status = ChapterStatusGenerated
	c.UpdatedAt = time.Now()
}

// CountWords 按空白分词统计字数
func CountWords(s string) int {
	return len(strings.Fields(s))
}
