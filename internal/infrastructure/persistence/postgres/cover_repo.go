// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"bookforge-api/internal/domain/entity"
)

// CoverRepository 封面设计仓储实现
type CoverRepository struct {
	client *Client
}

// NewCoverRepository 创建封面设计仓储
func NewCoverRepository(client *Client) *CoverRepository {
	return &CoverRepository{client: client}
}

// Create 写入一条封面记录
func (r *CoverRepository) Create(ctx context.Context, design *entity.CoverDesign) error {
	ctx, span := tracer.Start(ctx, "postgres.CoverRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(design).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create cover design: %w", err)
	}
	return nil
}

// ListByProject 获取项目封面历史（最新在前）
func (r *CoverRepository) ListByProject(ctx context.Context, projectID string) ([]*entity.CoverDesign, error) {
	ctx, span := tracer.Start(ctx, "postgres.CoverRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var designs []*entity.CoverDesign
	if err := db.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&designs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list cover designs: %w", err)
	}
	return designs, nil
}
