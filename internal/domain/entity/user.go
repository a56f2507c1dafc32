package entity

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SubscriptionTier 订阅等级
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierPro        SubscriptionTier = "pro"
	TierEnterprise SubscriptionTier = "enterprise"
)

// DefaultTokenLimit 各等级的月度 Token 限额
func DefaultTokenLimit(tier SubscriptionTier) int64 {
	switch tier {
	case TierPro:
		return 1_000_000
	case TierEnterprise:
		return 10_000_000
	default:
		return 100_000
	}
}

// User 用户实体。Token 计数只允许通过 UserRepository.IncrementTokenUsage 变更。
type User struct {
	ID               string           `json:"id" gorm:"type:uuid;primaryKey"`
	Email            string           `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name             string           `json:"name" gorm:"type:varchar(255)"`
	PasswordHash     string           `json:"-" gorm:"type:varchar(255)"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier" gorm:"type:varchar(50);default:'free'"`
	TokensUsed       int64            `json:"tokens_used" gorm:"default:0"`
	TokensThisMonth  int64            `json:"tokens_this_month" gorm:"default:0"`
	TokenLimit       int64            `json:"token_limit" gorm:"default:100000"`
	ProjectCount     int              `json:"project_count" gorm:"default:0"`
	CreatedAt        time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt   `json:"-" gorm:"index"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// NewUser 创建新用户
func NewUser(email, name string) *User {
	now := time.Now()
	return &User{
		ID:               uuid.NewString(),
		Email:            email,
		Name:             name,
		SubscriptionTier: TierFree,
		TokenLimit:       DefaultTokenLimit(TierFree),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// SetPassword 设置并散列密码
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword 校验密码
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}
