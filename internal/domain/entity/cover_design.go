package entity

import (
	"time"

	"github.com/google/uuid"
)

// CoverDesign 封面设计记录，按项目追加写入；最新一行即当前封面。
type CoverDesign struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID    string    `json:"project_id" gorm:"type:uuid;index;not null"`
	ImagePrompt  string    `json:"image_prompt,omitempty" gorm:"type:text"`
	ImageURL     string    `json:"image_url,omitempty" gorm:"type:text"`
	StoragePath  string    `json:"storage_path,omitempty" gorm:"type:varchar(500)"`
	StyleVariant string    `json:"style_variant" gorm:"type:varchar(50);not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (CoverDesign) TableName() string {
	return "cover_designs"
}

// NewCoverDesign 创建封面记录
func NewCoverDesign(projectID, prompt, imageURL, storagePath, styleVariant string) *CoverDesign {
	return &CoverDesign{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		ImagePrompt:  prompt,
		ImageURL:     imageURL,
		StoragePath:  storagePath,
		StyleVariant: styleVariant,
		CreatedAt:    time.Now(),
	}
}
