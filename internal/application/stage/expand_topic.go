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

// ExpandTopic 头脑风暴阶段：把种子关键词与描述扩展为论题、话题与研究问题。
// 产物以 upsert 语义写入概念集合，成功后推进到 BRAINSTORM(1)。
func (s *Service) ExpandTopic(ctx context.Context, userID, projectID string) (result *entity.Brainstorm, err error) {
	ctx, span := tracer.Start(ctx, "stage.ExpandTopic")
	defer span.End()
	start := time.Now()
	defer func() { observeStage(budget.StageExpandTopic, start, err) }()

	project, err := s.loadOwnedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if _, err = s.guard.Check(ctx, userID, budget.StageExpandTopic); err != nil {
		return nil, err
	}

	gen, err := s.text.GenerateText(ctx, brainstormSystemPrompt, buildBrainstormUserPrompt(project), llm.GenerateOptions{
		MaxTokens:   2000,
		Temperature: &defaultTemperature,
		JSONOutput:  true,
	})
	if err != nil {
		return nil, err
	}

	result, err = ParseBrainstorm(gen.Content)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		set, loadErr := s.concepts.GetByProject(txCtx, projectID)
		if loadErr != nil {
			return loadErr
		}
		if set == nil {
			set = entity.NewConceptSet(projectID)
		}
		set.ThesisStatement = result.Thesis
		set.Brainstorm = result
		if upErr := s.concepts.Upsert(txCtx, set); upErr != nil {
			return upErr
		}

		project.AdvanceTo(entity.StepBrainstorm)
		return s.projects.Update(txCtx, project)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to persist brainstorm")
	}

	if err = s.guard.Commit(ctx, userID, budget.StageExpandTopic); err != nil {
		return nil, err
	}

	logger.Info(ctx, "brainstorm generated",
		"project_id", projectID,
		"topics", len(result.Topics),
		"research_questions", len(result.ResearchQuestions),
		"provider", gen.Provider,
	)
	return result, nil
}
