package stage

import (
	"context"
	"strings"
	"time"

	"bookforge-api/internal/application/budget"
	"bookforge-api/internal/domain/entity"
	"bookforge-api/internal/infrastructure/llm"
	"bookforge-api/internal/infrastructure/storage"
	apperrors "bookforge-api/pkg/errors"
	"bookforge-api/pkg/logger"
)

// CoverResult 封面阶段产物
type CoverResult struct {
	ImageURL string `json:"imageUrl"`
	Prompt   string `json:"prompt"`
}

// GenerateCover 封面阶段：两步生成。先用文本模型产出图像提示词，
// 再调用图像模型生成竖版封面，上传对象存储后追加一条封面记录。
// 成功后推进到 DESIGN(5)。
func (s *Service) GenerateCover(ctx context.Context, userID, projectID string) (result *CoverResult, err error) {
	ctx, span := tracer.Start(ctx, "stage.GenerateCover")
	defer span.End()
	start := time.Now()
	defer func() { observeStage(budget.StageCover, start, err) }()

	project, err := s.loadOwnedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if _, err = s.guard.Check(ctx, userID, budget.StageCover); err != nil {
		return nil, err
	}

	set, err := s.concepts.GetByProject(ctx, projectID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to load concept set")
	}

	// 第一步：生成图像提示词
	gen, err := s.text.GenerateText(ctx,
		buildCoverSystemPrompt(project.CoverStyle),
		buildCoverUserPrompt(project, set),
		llm.GenerateOptions{
			MaxTokens:   500,
			Temperature: &defaultTemperature,
		})
	if err != nil {
		return nil, err
	}
	coverPrompt := strings.TrimSpace(gen.Content)

	// 第二步：生成封面图像
	imageBytes, err := s.image.GenerateImage(ctx, buildCoverImagePrompt(coverPrompt))
	if err != nil {
		return nil, err
	}

	// 第三步：上传对象存储
	storagePath := storage.CoverObjectKey(userID, projectID)
	imageURL, err := s.uploader.Upload(ctx, storagePath, imageBytes, "image/png")
	if err != nil {
		return nil, err
	}

	// 第四步：追加封面记录并推进步骤
	design := entity.NewCoverDesign(projectID, coverPrompt, imageURL, storagePath, project.CoverStyle)
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if crErr := s.covers.Create(txCtx, design); crErr != nil {
			return crErr
		}
		project.AdvanceTo(entity.StepDesign)
		return s.projects.Update(txCtx, project)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to persist cover design")
	}

	if err = s.guard.Commit(ctx, userID, budget.StageCover); err != nil {
		return nil, err
	}

	logger.Info(ctx, "cover generated",
		"project_id", projectID,
		"style", project.CoverStyle,
		"storage_path", storagePath,
		"provider", gen.Provider,
	)
	return &CoverResult{ImageURL: imageURL, Prompt: coverPrompt}, nil
}
