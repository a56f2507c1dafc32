// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"bookforge-api/internal/domain/entity"
)

// UsageResponse 用户 Token 用量响应
type UsageResponse struct {
	TokensUsed      int64 `json:"tokens_used"`
	TokensThisMonth int64 `json:"tokens_this_month"`
	TokenLimit      int64 `json:"token_limit"`
	Remaining       int64 `json:"remaining"`
	ProjectCount    int   `json:"project_count"`
}

// ToUsageResponse 将用户实体转换为用量响应
func ToUsageResponse(u *entity.User) *UsageResponse {
	remaining := u.TokenLimit - u.TokensThisMonth
	if remaining < 0 {
		remaining = 0
	}
	return &UsageResponse{
		TokensUsed:      u.TokensUsed,
		TokensThisMonth: u.TokensThisMonth,
		TokenLimit:      u.TokenLimit,
		Remaining:       remaining,
		ProjectCount:    u.ProjectCount,
	}
}
