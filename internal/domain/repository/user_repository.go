// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"bookforge-api/internal/domain/entity"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户
	Create(ctx context.Context, user *entity.User) error

	// GetByID 根据 ID 获取用户
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// GetByEmail 根据邮箱获取用户
	GetByEmail(ctx context.Context, email string) (*entity.User, error)

	// Update 更新用户
	Update(ctx context.Context, user *entity.User) error

	// Delete 软删除用户
	Delete(ctx context.Context, id string) error

	// IncrementTokenUsage 原子累加 Token 用量（总量与当月用量同步增加）
	IncrementTokenUsage(ctx context.Context, id string, tokens int64) error

	// IncrementProjectCount 原子调整项目计数，delta 可为负
	IncrementProjectCount(ctx context.Context, id string, delta int) error
}
