package stage

import (
	"context"
	"time"

	"bookforge-api/internal/application/budget"
	"bookforge-api/internal/domain/entity"
	"bookforge-api/internal/infrastructure/llm"
	apperrors "bookforge-api/pkg/errors"
	"bookforge-api/pkg/logger"
	"bookforge-api/pkg/metrics"
)

// GenerateChapter 章节阶段：生成单章正文。
// 调用 Provider 前先把状态置为 generating（并发读取可见进行中状态）。
// 生成失败时状态保持 generating，由用户手动重试恢复——这是刻意保留的既有行为。
func (s *Service) GenerateChapter(ctx context.Context, userID, chapterID string) (chapter *entity.Chapter, err error) {
	ctx, span := tracer.Start(ctx, "stage.GenerateChapter")
	defer span.End()
	start := time.Now()
	defer func() { observeStage(budget.StageChapter, start, err) }()

	chapter, err = s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to load chapter")
	}
	if chapter == nil {
		return nil, apperrors.ErrChapterNotFound
	}

	project, err := s.loadOwnedProject(ctx, userID, chapter.ProjectID)
	if err != nil {
		return nil, err
	}

	if _, err = s.guard.Check(ctx, userID, budget.StageChapter); err != nil {
		return nil, err
	}

	if err = s.chapters.UpdateStatus(ctx, chapterID, entity.ChapterStatusGenerating); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to mark chapter generating")
	}

	// 前一章摘要作为连续性上下文；没有摘要时为空串，不影响生成
	previousSummary := ""
	if chapter.OrderIndex > 0 {
		prev, prevErr := s.chapters.GetByProjectAndOrder(ctx, chapter.ProjectID, chapter.OrderIndex-1)
		if prevErr != nil {
			return nil, apperrors.Wrap(prevErr, apperrors.CodeDatabaseError, "Failed to load previous chapter")
		}
		if prev != nil {
			previousSummary = prev.SummaryContext
		}
	}

	bookTitle := ""
	set, err := s.concepts.GetByProject(ctx, chapter.ProjectID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to load concept set")
	}
	if set != nil {
		bookTitle = set.SelectedTitle
	}

	targetWordCount := chapter.TargetWordCount
	if targetWordCount <= 0 {
		targetWordCount = entity.DefaultTargetWordCount
	}
	if targetWordCount > entity.MaxTargetWordCount {
		targetWordCount = entity.MaxTargetWordCount
	}

	gen, err := s.text.GenerateText(ctx,
		buildChapterSystemPrompt(targetWordCount),
		buildChapterUserPrompt(project, chapter, bookTitle, previousSummary, targetWordCount),
		llm.GenerateOptions{
			MaxTokens:   8000,
			Temperature: &defaultTemperature,
		})
	if err != nil {
		return nil, err
	}

	chapter.SetContent(gen.Content)
	metrics.ChapterWordCount.Observe(float64(chapter.WordCount))

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if upErr := s.chapters.Update(txCtx, chapter); upErr != nil {
			return upErr
		}
		project.AdvanceTo(entity.StepWriting)
		return s.projects.Update(txCtx, project)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to persist chapter")
	}

	if err = s.guard.Commit(ctx, userID, budget.StageChapter); err != nil {
		return nil, err
	}

	logger.Info(ctx, "chapter generated",
		"project_id", chapter.ProjectID,
		"chapter_id", chapterID,
		"order_index", chapter.OrderIndex,
		"word_count", chapter.WordCount,
		"provider", gen.Provider,
	)
	return chapter, nil
}
