// Package dto 提供 HTTP 层数据传输对象
package dto

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	SeedKeyword    string `json:"seed_keyword" binding:"required,max=500"`
	Description    string `json:"description" binding:"max=2000"`
	Genre          string `json:"genre" binding:"max=100"`
	TargetAudience string `json:"target_audience" binding:"max=255"`
	WritingStyle   string `json:"writing_style" binding:"max=100"`
	CoverStyle     string `json:"cover_style" binding:"max=50"`
	WordCountGoal  int    `json:"word_count_goal" binding:"omitempty,min=1000,max=200000"`
}

// UpdateProjectRequest 更新项目请求，零值字段不更新
type UpdateProjectRequest struct {
	Title          *string `json:"title" binding:"omitempty,max=255"`
	Description    *string `json:"description" binding:"omitempty,max=2000"`
	Genre          *string `json:"genre" binding:"omitempty,max=100"`
	TargetAudience *string `json:"target_audience" binding:"omitempty,max=255"`
	WritingStyle   *string `json:"writing_style" binding:"omitempty,max=100"`
	CoverStyle     *string `json:"cover_style" binding:"omitempty,max=50"`
	WordCountGoal  *int    `json:"word_count_goal" binding:"omitempty,min=1000,max=200000"`
}

// SaveStepRequest 保存向导步骤请求
type SaveStepRequest struct {
	Step *int `json:"step" binding:"required,min=0,max=6"`
}
