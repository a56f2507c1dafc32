// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"bookforge-api/internal/domain/entity"
)

// CoverRepository 封面设计仓储接口（只追加）
type CoverRepository interface {
	// Create 写入一条封面记录
	Create(ctx context.Context, design *entity.CoverDesign) error

	// ListByProject 获取项目封面历史（按创建时间倒序，最新在前）
	ListByProject(ctx context.Context, projectID string) ([]*entity.CoverDesign, error)
}
