// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookforge-api/internal/domain/entity"
)

// ConceptRepository 概念集合仓储实现
type ConceptRepository struct {
	client *Client
}

// NewConceptRepository 创建概念集合仓储
func NewConceptRepository(client *Client) *ConceptRepository {
	return &ConceptRepository{client: client}
}

// Upsert 按项目写入概念集合，冲突时更新内容列
func (r *ConceptRepository) Upsert(ctx context.Context, set *entity.ConceptSet) error {
	ctx, span := tracer.Start(ctx, "postgres.ConceptRepository.Upsert")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"thesis_statement",
			"brainstorm",
			"concepts",
			"selected_title",
			"selected_tagline",
			"selected_description",
			"market_positioning",
			"updated_at",
		}),
	}).Create(set).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert concept set: %w", err)
	}
	return nil
}

// GetByProject 获取项目的概念集合
func (r *ConceptRepository) GetByProject(ctx context.Context, projectID string) (*entity.ConceptSet, error) {
	ctx, span := tracer.Start(ctx, "postgres.ConceptRepository.GetByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var set entity.ConceptSet
	if err := db.First(&set, "project_id = ?", projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get concept set: %w", err)
	}
	return &set, nil
}
