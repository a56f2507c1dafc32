// Package stage 实现书稿生成流水线的五个阶段处理器
package stage

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"bookforge-api/internal/application/budget"
	"bookforge-api/internal/domain/entity"
	"bookforge-api/internal/domain/repository"
	"bookforge-api/internal/infrastructure/llm"
	apperrors "bookforge-api/pkg/errors"
	"bookforge-api/pkg/metrics"
)

var tracer = otel.Tracer("stage")

// defaultTemperature 所有阶段统一使用的采样温度
var defaultTemperature = float32(0.7)

// TextGenerator 文本生成接口
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string, opts llm.GenerateOptions) (*llm.GenerateResult, error)
}

// ImageGenerator 图像生成接口
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// ObjectUploader 对象上传接口
type ObjectUploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Service 阶段处理器。每个阶段都是同步的请求-响应操作：
// 预算准入 → 生成 → 事务内持久化产物并推进步骤 → 提交预算扣减。
type Service struct {
	projects repository.ProjectRepository
	concepts repository.ConceptRepository
	chapters repository.ChapterRepository
	covers   repository.CoverRepository
	guard    *budget.Guard
	tx       repository.Transactor
	text     TextGenerator
	image    ImageGenerator
	uploader ObjectUploader
}

// NewService 创建阶段处理器
func NewService(
	projects repository.ProjectRepository,
	concepts repository.ConceptRepository,
	chapters repository.ChapterRepository,
	covers repository.CoverRepository,
	guard *budget.Guard,
	tx repository.Transactor,
	text TextGenerator,
	image ImageGenerator,
	uploader ObjectUploader,
) *Service {
	return &Service{
		projects: projects,
		concepts: concepts,
		chapters: chapters,
		covers:   covers,
		guard:    guard,
		tx:       tx,
		text:     text,
		image:    image,
		uploader: uploader,
	}
}

// loadOwnedProject 加载项目并校验属主
func (s *Service) loadOwnedProject(ctx context.Context, userID, projectID string) (*entity.Project, error) {
	project, err := s.projects.GetByIDAndUser(ctx, projectID, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to load project")
	}
	if project == nil {
		return nil, apperrors.ErrProjectNotFound
	}
	return project, nil
}

// observeStage 上报阶段指标
func observeStage(stage budget.Stage, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StageGenerationTotal.WithLabelValues(string(stage), status).Inc()
	metrics.StageGenerationDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
}
