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

// GenerateConcepts 概念阶段：基于论题与研究问题生成 3-5 个候选书籍概念。
// 概念数组覆盖写入概念集合，成功后推进到 CONCEPT(2)。
func (s *Service) GenerateConcepts(ctx context.Context, userID, projectID string) (concepts []entity.BookConcept, err error) {
	ctx, span := tracer.Start(ctx, "stage.GenerateConcepts")
	defer span.End()
	start := time.Now()
	defer func() { observeStage(budget.StageConcepts, start, err) }()

	project, err := s.loadOwnedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if _, err = s.guard.Check(ctx, userID, budget.StageConcepts); err != nil {
		return nil, err
	}

	set, err := s.concepts.GetByProject(ctx, projectID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to load concept set")
	}

	gen, err := s.text.GenerateText(ctx, conceptsSystemPrompt, buildConceptsUserPrompt(project, set), llm.GenerateOptions{
		MaxTokens:   3000,
		Temperature: &defaultTemperature,
		JSONOutput:  true,
	})
	if err != nil {
		return nil, err
	}

	concepts, err = NormalizeConcepts(gen.Content)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if set == nil {
			set = entity.NewConceptSet(projectID)
		}
		set.Concepts = concepts
		if upErr := s.concepts.Upsert(txCtx, set); upErr != nil {
			return upErr
		}

		project.AdvanceTo(entity.StepConcept)
		return s.projects.Update(txCtx, project)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "Failed to persist concepts")
	}

	if err = s.guard.Commit(ctx, userID, budget.StageConcepts); err != nil {
		return nil, err
	}

	logger.Info(ctx, "concepts generated",
		"project_id", projectID,
		"concept_count", len(concepts),
		"provider", gen.Provider,
	)
	return concepts, nil
}
