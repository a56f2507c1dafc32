// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"bookforge-api/internal/domain/entity"
)

// ProjectRepository 项目仓储接口
type ProjectRepository interface {
	// Create 创建项目
	Create(ctx context.Context, project *entity.Project) error

	// GetByID 根据 ID 获取项目
	GetByID(ctx context.Context, id string) (*entity.Project, error)

	// GetByIDAndUser 根据 ID 和属主获取项目
	GetByIDAndUser(ctx context.Context, id, userID string) (*entity.Project, error)

	// Update 更新项目
	Update(ctx context.Context, project *entity.Project) error

	// Delete 软删除项目
	Delete(ctx context.Context, id string) error

	// ListByUser 获取用户项目列表（按更新时间倒序）
	ListByUser(ctx context.Context, userID string, pagination Pagination) (*PagedResult[*entity.Project], error)
}
