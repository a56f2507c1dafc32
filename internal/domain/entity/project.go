// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectStatus 项目生命周期状态
type ProjectStatus string

const (
	ProjectStatusSetup      ProjectStatus = "setup"
	ProjectStatusBrainstorm ProjectStatus = "brainstorm"
	ProjectStatusConcept    ProjectStatus = "concept"
	ProjectStatusOutline    ProjectStatus = "outline"
	ProjectStatusWriting    ProjectStatus = "writing"
	ProjectStatusDesign     ProjectStatus = "design"
	ProjectStatusFinalize   ProjectStatus = "finalize"
)

// 步骤索引，与状态一一对应
const (
	StepSetup      = 0
	StepBrainstorm = 1
	StepConcept    = 2
	StepOutline    = 3
	StepWriting    = 4
	StepDesign     = 5
	StepFinalize   = 6
)

// StatusForStep 返回步骤索引对应的状态
func StatusForStep(step int) ProjectStatus {
	switch step {
	case StepBrainstorm:
		return ProjectStatusBrainstorm
	case StepConcept:
		return ProjectStatusConcept
	case StepOutline:
		return ProjectStatusOutline
	case StepWriting:
		return ProjectStatusWriting
	case StepDesign:
		return ProjectStatusDesign
	case StepFinalize:
		return ProjectStatusFinalize
	default:
		return ProjectStatusSetup
	}
}

// CoverStyle 封面美学预设
type CoverStyle string

const (
	CoverStyleMinimalist CoverStyle = "Minimalist"
	CoverStyleVibrant    CoverStyle = "Vibrant"
	CoverStyleClassic    CoverStyle = "Classic"
	CoverStyleDarkMoody  CoverStyle = "Dark & Moody"
	CoverStyleHighTech   CoverStyle = "High-Tech"
)

// Project 书稿项目实体
type Project struct {
	ID             string         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID         string         `json:"user_id" gorm:"type:uuid;index;not null"`
	Title          string         `json:"title,omitempty" gorm:"type:varchar(255)"`
	SeedKeyword    string         `json:"seed_keyword" gorm:"type:varchar(500);not null"`
	Description    string         `json:"description,omitempty" gorm:"type:text"`
	Genre          string         `json:"genre" gorm:"type:varchar(100)"`
	TargetAudience string         `json:"target_audience" gorm:"type:varchar(255)"`
	WritingStyle   string         `json:"writing_style" gorm:"type:varchar(100)"`
	CoverStyle     string         `json:"cover_style" gorm:"type:varchar(50);default:'Minimalist'"`
	WordCountGoal  int            `json:"word_count_goal" gorm:"default:20000"`
	CurrentStep    int            `json:"current_step" gorm:"default:0"`
	Status         ProjectStatus  `json:"status" gorm:"type:varchar(50);default:'setup'"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// NewProject 创建新项目
func NewProject(userID, seedKeyword string) *Project {
	now := time.Now()
	return &Project{
		ID:          uuid.NewString(),
		UserID:      userID,
		SeedKeyword: seedKeyword,
		CoverStyle:  string(CoverStyleMinimalist),
		CurrentStep: StepSetup,
		Status:      ProjectStatusSetup,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AdvanceTo 推进步骤与状态。步骤指针只进不退：
// 重跑早期阶段会覆盖产物，但不会把进度拉回去。
func (p *Project) AdvanceTo(step int) {
	if step < p.CurrentStep {
		return
	}
	p.CurrentStep = step
	p.Status = StatusForStep(step)
	p.UpdatedAt = time.Now()
}
