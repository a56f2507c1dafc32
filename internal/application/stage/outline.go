package stage

import (
	"context"
	"time"

	"bookforge-api/internal/application/budget"
	"bookforge-api/internal/domain/entity"
	"bookforge-api/internal/infrastructure/llm"
	apperrors "bookforge-api/pkg/errors"
	"bookforge-api/pkg/logger"
)

// GenerateOutline 大纲阶段：按选中概念生成 8-12 章的目录。
// 章节集合整体替换（删旧插新，序号从 0 连续编号），越界的概念下标回退到 0。
// 成功后把项目标题设为选中概念标题并推进到 OUTLINE(3)。
func (s *Service) GenerateOutline(ctx context.Context, userID, projectID string, conceptIndex int) (chapters []*entity.Chapter, err error) {
	ctx, span := tracer.Start(ctx, "stage.GenerateOutline")
	defer span.End()
	start := time.Now()
	defer func() { observeStage(budget.StageOutline, start, err) }()

	project, err := s.loadOwnedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if _, err = s.guard.Check(ctx, userID, budget.StageOutline); err != nil {
		return nil, err
	}

	set, err := s.concepts.GetByProject(ctx, projectID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to load concept set")
	}

	var candidates []entity.BookConcept
	if set != nil {
		candidates = NormalizeConceptSlice(set.Concepts)
	}
	if len(candidates) == 0 {
		return nil, apperrors.ErrConceptNotFound
	}
	selected := candidates[ClampConceptIndex(conceptIndex, len(candidates))]

	gen, err := s.text.GenerateText(ctx, outlineSystemPrompt, buildOutlineUserPrompt(project, selected), llm.GenerateOptions{
		MaxTokens:   4000,
		Temperature: &defaultTemperature,
		JSONOutput:  true,
	})
	if err != nil {
		return nil, err
	}

	outline, err := ParseOutline(gen.Content)
	if err != nil {
		return nil, err
	}

	chapters = make([]*entity.Chapter, 0, len(outline))
	for idx, ch := range outline {
		chapter := entity.NewChapter(projectID, ch.Title, idx)
		chapter.SummaryContext = ch.Summary
		chapter.Sections = ch.Sections
		chapters = append(chapters, chapter)
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		set.SelectConcept(selected)
		if upErr := s.concepts.Upsert(txCtx, set); upErr != nil {
			return upErr
		}

		if repErr := s.chapters.ReplaceAll(txCtx, projectID, chapters); repErr != nil {
			return repErr
		}

		project.Title = selected.Title
		project.AdvanceTo(entity.StepOutline)
		return s.projects.Update(txCtx, project)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to persist outline")
	}

	if err = s.guard.Commit(ctx, userID, budget.StageOutline); err != nil {
		return nil, err
	}

	logger.Info(ctx, "outline generated",
		"project_id", projectID,
		"chapter_count", len(chapters),
		"selected_concept", selected.Title,
		"provider", gen.Provider,
	)
	return chapters, nil
}
