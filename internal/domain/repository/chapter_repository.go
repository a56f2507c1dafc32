// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"bookforge-api/internal/domain/entity"
)

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// GetByID 根据 ID 获取章节
	GetByID(ctx context.Context, id string) (*entity.Chapter, error)

	// Update 更新章节
	Update(ctx context.Context, chapter *entity.Chapter) error

	// ListByProject 获取项目章节列表（按序号升序）
	ListByProject(ctx context.Context, projectID string) ([]*entity.Chapter, error)

	// GetByProjectAndOrder 根据项目和序号获取章节
	GetByProjectAndOrder(ctx context.Context, projectID string, orderIndex int) (*entity.Chapter, error)

	// ReplaceAll 替换项目全部章节：删除旧章节后按序写入新章节
	ReplaceAll(ctx context.Context, projectID string, chapters []*entity.Chapter) error

	// UpdateStatus 更新章节状态
	UpdateStatus(ctx context.Context, id string, status entity.ChapterStatus) error
}
