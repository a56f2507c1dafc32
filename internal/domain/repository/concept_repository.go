// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"bookforge-api/internal/domain/entity"
)

// ConceptRepository 概念集合仓储接口
type ConceptRepository interface {
	// Upsert 按项目写入概念集合，存在则更新
	Upsert(ctx context.Context, set *entity.ConceptSet) error

	// GetByProject 获取项目的概念集合
	GetByProject(ctx context.Context, projectID string) (*entity.ConceptSet, error)
}
