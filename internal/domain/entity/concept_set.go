package entity

import (
	"time"

	"github.com/google/uuid"
)

// BookConcept 单个候选书籍概念
type BookConcept struct {
	Title        string `json:"title"`
	Tagline      string `json:"tagline"`
	Description  string `json:"description"`
	TargetMarket string `json:"targetMarket"`
}

// Brainstorm 头脑风暴产物
type Brainstorm struct {
	Thesis            string   `json:"thesis"`
	Topics            []string `json:"topics"`
	ResearchQuestions []string `json:"researchQuestions"`
}

// ConceptSet 项目的概念集合，每个项目至多一行（upsert 语义）。
// selected_* 字段在用户从候选数组中选择后才填充。
type ConceptSet struct {
	ID                  string        `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID           string        `json:"project_id" gorm:"type:uuid;uniqueIndex;not null"`
	ThesisStatement     string        `json:"thesis_statement,omitempty" gorm:"type:text"`
	Brainstorm          *Brainstorm   `json:"brainstorm,omitempty" gorm:"type:jsonb;serializer:json"`
	Concepts            []BookConcept `json:"concepts,omitempty" gorm:"type:jsonb;serializer:json"`
	SelectedTitle       string        `json:"selected_title,omitempty" gorm:"type:varchar(255)"`
	SelectedTagline     string        `json:"selected_tagline,omitempty" gorm:"type:varchar(500)"`
	SelectedDescription string        `json:"selected_description,omitempty" gorm:"type:text"`
	MarketPositioning   string        `json:"market_positioning,omitempty" gorm:"type:text"`
	CreatedAt           time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (ConceptSet) TableName() string {
	return "book_concepts"
}

// NewConceptSet 创建新概念集合
func NewConceptSet(projectID string) *ConceptSet {
	now := time.Now()
	return &ConceptSet{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SelectConcept 将选中概念反规范化到 selected_* 字段
func (c *ConceptSet) SelectConcept(concept BookConcept) {
	c.SelectedTitle = concept.Title
	c.SelectedTagline = concept.Tagline
	c.SelectedDescription = concept.Description
	c.MarketPositioning = concept.TargetMarket
	c.UpdatedAt = time.Now()
}
