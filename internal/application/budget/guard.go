// Package budget 实现 Token 预算准入控制
package budget

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookforge-api/internal/domain/entity"
	"bookforge-api/internal/domain/repository"
	apperrors "bookforge-api/pkg/errors"
	"bookforge-api/pkg/logger"
	"bookforge-api/pkg/metrics"
)

var tracer = otel.Tracer("budget")

// Stage 生成阶段标识
type Stage string

const (
	StageExpandTopic Stage = "expand_topic"
	StageConcepts    Stage = "concepts"
	StageOutline     Stage = "outline"
	StageChapter     Stage = "chapter"
	StageCover       Stage = "cover"
)

// stageEstimates 各阶段的固定 Token 估算。预算始终按估算计费，
// 与 Provider 报告的真实用量无关。
var stageEstimates = map[Stage]int64{
	StageExpandTopic: 5000,
	StageConcepts:    10000,
	StageOutline:     11000,
	StageChapter:     45000,
	StageCover:       7000,
}

// EstimateFor 返回阶段的 Token 估算，未知阶段返回 0
func EstimateFor(stage Stage) int64 {
	return stageEstimates[stage]
}

// UsageCache 用量缓存失效接口
type UsageCache interface {
	InvalidateUsage(ctx context.Context, userID string) error
}

// Guard 预算守卫：生成前准入检查，生成后提交扣减。
type Guard struct {
	users repository.UserRepository
	cache UsageCache
}

// NewGuard 创建预算守卫。cache 可为 nil。
func NewGuard(users repository.UserRepository, cache UsageCache) *Guard {
	return &Guard{users: users, cache: cache}
}

// Check 准入检查。当月用量加上阶段估算超过限额时拒绝。
// 通过时返回用户实体供调用方复用。
func (g *Guard) Check(ctx context.Context, userID string, stage Stage) (*entity.User, error) {
	ctx, span := tracer.Start(ctx, "budget.Check",
		trace.WithAttributes(
			attribute.String("budget.stage", string(stage)),
		))
	defer span.End()

	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to load user")
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	estimate := EstimateFor(stage)
	span.SetAttributes(
		attribute.Int64("budget.estimate", estimate),
		attribute.Int64("budget.used_this_month", user.TokensThisMonth),
		attribute.Int64("budget.limit", user.TokenLimit),
	)

	if user.TokensThisMonth+estimate > user.TokenLimit {
		metrics.BudgetRejectedTotal.WithLabelValues(string(stage)).Inc()
		logger.Warn(ctx, "token budget exceeded",
			"stage", string(stage),
			"used_this_month", user.TokensThisMonth,
			"estimate", estimate,
			"limit", user.TokenLimit,
		)
		return nil, apperrors.ErrTokenLimitExceeded
	}

	return user, nil
}

// Commit 提交扣减：按阶段估算原子累加用户计数，并使用量缓存失效。
// 只应在生成成功后调用。
func (g *Guard) Commit(ctx context.Context, userID string, stage Stage) error {
	ctx, span := tracer.Start(ctx, "budget.Commit",
		trace.WithAttributes(attribute.String("budget.stage", string(stage))))
	defer span.End()

	estimate := EstimateFor(stage)
	if err := g.users.IncrementTokenUsage(ctx, userID, estimate); err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to commit token usage")
	}
	metrics.BudgetTokensCommitted.WithLabelValues(string(stage)).Add(float64(estimate))

	if g.cache != nil {
		// 缓存失效失败不影响扣减结果
		if err := g.cache.InvalidateUsage(ctx, userID); err != nil {
			logger.Warn(ctx, "failed to invalidate usage cache", "error", err.Error())
		}
	}
	return nil
}
