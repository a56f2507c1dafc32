// Package client 提供类型化的 HTTP SDK 与本地编排器
package client

import (
	"context"
	"errors"
	"sync"

	"bookforge-api/internal/domain/entity"
	"bookforge-api/internal/interfaces/http/dto"
)

// ErrStageInFlight 已有阶段在执行中
var ErrStageInFlight = errors.New("a generation stage is already in flight")

// ErrNoProject 编排器尚未加载项目
var ErrNoProject = errors.New("no project loaded")

// Orchestrator 客户端侧的向导编排器。持有项目的本地镜像，
// 同一时刻只允许一个阶段在途；阶段成功后把响应合并进本地状态
// 并单调推进步骤，失败则不改动本地状态。
// 回看早期步骤只改本地视图，调用 SaveStep 才会写回服务端。
type Orchestrator struct {
	api *Client

	mu         sync.Mutex
	busy       bool
	viewStep   int
	project    *entity.Project
	brainstorm *entity.Brainstorm
	concepts   []entity.BookConcept
	chapters   []*entity.Chapter
	covers     []*entity.CoverDesign
	activeIdx  int
}

// NewOrchestrator 创建编排器
func NewOrchestrator(api *Client) *Orchestrator {
	return &Orchestrator{api: api, activeIdx: -1}
}

// begin 占用在途标记；已有阶段在途或未加载项目时拒绝
func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.project == nil {
		return ErrNoProject
	}
	if o.busy {
		return ErrStageInFlight
	}
	o.busy = true
	return nil
}

// end 释放在途标记
func (o *Orchestrator) end() {
	o.mu.Lock()
	o.busy = false
	o.mu.Unlock()
}

// advanceTo 单调推进本地步骤视图
func (o *Orchestrator) advanceTo(step int) {
	if step > o.viewStep {
		o.viewStep = step
	}
	if o.project != nil {
		o.project.AdvanceTo(step)
	}
}

// Busy 返回是否有阶段在途
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// Step 返回本地步骤视图
func (o *Orchestrator) Step() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewStep
}

// Project 返回项目本地镜像
func (o *Orchestrator) Project() *entity.Project {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.project
}

// Chapters 返回章节本地镜像
func (o *Orchestrator) Chapters() []*entity.Chapter {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.chapters
}

// Brainstorm 返回头脑风暴产物
func (o *Orchestrator) Brainstorm() *entity.Brainstorm {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.brainstorm
}

// Concepts 返回候选概念
func (o *Orchestrator) Concepts() []entity.BookConcept {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.concepts
}

// StartProject 创建项目并加载到编排器
func (o *Orchestrator) StartProject(ctx context.Context, req *dto.CreateProjectRequest) (*entity.Project, error) {
	project, err := o.api.CreateProject(ctx, req)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.project = project
	o.viewStep = project.CurrentStep
	o.brainstorm = nil
	o.concepts = nil
	o.chapters = nil
	o.covers = nil
	o.activeIdx = -1
	o.mu.Unlock()
	return project, nil
}

// Load 从服务端恢复项目状态（项目 + 概念集合 + 章节）
func (o *Orchestrator) Load(ctx context.Context, projectID string) error {
	project, err := o.api.GetProject(ctx, projectID)
	if err != nil {
		return err
	}

	var brainstorm *entity.Brainstorm
	var concepts []entity.BookConcept
	set, err := o.api.GetConcepts(ctx, projectID)
	if err != nil {
		// 早期项目还没有概念集合，404 属于正常情况
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != 404 {
			return err
		}
	} else {
		brainstorm = set.Brainstorm
		concepts = set.Concepts
	}

	var chapters []*entity.Chapter
	if project.CurrentStep >= entity.StepOutline {
		chapters, err = o.api.ListChapters(ctx, projectID)
		if err != nil {
			return err
		}
	}

	o.mu.Lock()
	o.project = project
	o.viewStep = project.CurrentStep
	o.brainstorm = brainstorm
	o.concepts = concepts
	o.chapters = chapters
	o.activeIdx = -1
	o.mu.Unlock()
	return nil
}

// RunBrainstorm 执行主题扩展阶段
func (o *Orchestrator) RunBrainstorm(ctx context.Context) (*entity.Brainstorm, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.end()

	result, err := o.api.Brainstorm(ctx, o.project.ID)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.brainstorm = result
	o.advanceTo(entity.StepBrainstorm)
	o.mu.Unlock()
	return result, nil
}

// RunConcepts 执行概念生成阶段
func (o *Orchestrator) RunConcepts(ctx context.Context) ([]entity.BookConcept, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.end()

	concepts, err := o.api.GenerateConcepts(ctx, o.project.ID)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.concepts = concepts
	o.advanceTo(entity.StepConcept)
	o.mu.Unlock()
	return concepts, nil
}

// RunOutline 执行大纲生成阶段，整体替换本地章节镜像
func (o *Orchestrator) RunOutline(ctx context.Context, conceptIndex int) ([]*entity.Chapter, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.end()

	chapters, err := o.api.GenerateOutline(ctx, o.project.ID, conceptIndex)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.chapters = chapters
	o.activeIdx = 0
	// 与服务端一致：越界下标回退到第一个概念
	if len(o.concepts) > 0 {
		if conceptIndex < 0 || conceptIndex >= len(o.concepts) {
			conceptIndex = 0
		}
		o.project.Title = o.concepts[conceptIndex].Title
	}
	o.advanceTo(entity.StepOutline)
	o.mu.Unlock()
	return chapters, nil
}

// RunChapter 执行单章生成阶段，成功后把正文合并进本地章节
func (o *Orchestrator) RunChapter(ctx context.Context, chapterID string) (*dto.ChapterGenerationResponse, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.end()

	result, err := o.api.GenerateChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	for i, ch := range o.chapters {
		if ch.ID == chapterID {
			ch.ContentMarkdown = result.Content
			ch.WordCount = result.WordCount
			ch.Status = entity.ChapterStatus(result.Status)
			o.activeIdx = i
			break
		}
	}
	o.advanceTo(entity.StepWriting)
	o.mu.Unlock()
	return result, nil
}

// RunCover 执行封面生成阶段
func (o *Orchestrator) RunCover(ctx context.Context) (*CoverResult, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.end()

	result, err := o.api.GenerateCover(ctx, o.project.ID)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.covers = append([]*entity.CoverDesign{{
		ProjectID:    o.project.ID,
		ImagePrompt:  result.Prompt,
		ImageURL:     result.ImageURL,
		StyleVariant: o.project.CoverStyle,
	}}, o.covers...)
	o.advanceTo(entity.StepDesign)
	o.mu.Unlock()
	return result, nil
}

// GoToStep 本地导航。允许回看早期步骤，但不会写回服务端。
func (o *Orchestrator) GoToStep(step int) {
	o.mu.Lock()
	if step >= 0 && step <= entity.StepFinalize {
		o.viewStep = step
	}
	o.mu.Unlock()
}

// SaveStep 把当前本地步骤写回服务端；服务端步骤只进不退
func (o *Orchestrator) SaveStep(ctx context.Context) error {
	o.mu.Lock()
	if o.project == nil {
		o.mu.Unlock()
		return ErrNoProject
	}
	projectID := o.project.ID
	step := o.viewStep
	o.mu.Unlock()

	project, err := o.api.SaveStep(ctx, projectID, step)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.project = project
	o.mu.Unlock()
	return nil
}
