// Package client 提供类型化的 HTTP SDK 与本地编排器
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"bookforge-api/internal/domain/entity"
	"bookforge-api/internal/interfaces/http/dto"
)

// APIError 服务端错误，携带 HTTP 状态码与错误文案
type APIError struct {
	StatusCode int
	Message    string
}

// Error 实现 error 接口
func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// IsTokenLimit 判断是否为 Token 预算拒绝
func (e *APIError) IsTokenLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Client 类型化 HTTP 客户端
type Client struct {
	baseURL string
	httpc   *http.Client

	mu    sync.RWMutex
	token string
}

// Option 客户端配置项
type Option func(*Client)

// WithHTTPClient 使用自定义 http.Client
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// WithToken 预设 AccessToken
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New 创建客户端
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken 更新 AccessToken
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// do 发送请求并解码响应。out 为 nil 时丢弃响应体。
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var errResp dto.ErrorResponse
		msg := resp.Status
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Register 注册并返回认证信息
func (c *Client) Register(ctx context.Context, email, password, name string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/register", &dto.RegisterRequest{
		Email:    email,
		Password: password,
		Name:     name,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login 登录并把 AccessToken 记到客户端
func (c *Client) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", &dto.LoginRequest{
		Email:    email,
		Password: password,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

// CreateProject 创建项目
func (c *Client) CreateProject(ctx context.Context, req *dto.CreateProjectRequest) (*entity.Project, error) {
	var out entity.Project
	if err := c.do(ctx, http.MethodPost, "/v1/projects", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProject 获取项目详情
func (c *Client) GetProject(ctx context.Context, projectID string) (*entity.Project, error) {
	var out entity.Project
	if err := c.do(ctx, http.MethodGet, "/v1/projects/"+projectID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProjects 获取项目列表
func (c *Client) ListProjects(ctx context.Context, page, pageSize int) (*dto.PagedResponse[*entity.Project], error) {
	var out dto.PagedResponse[*entity.Project]
	path := fmt.Sprintf("/v1/projects?page=%d&page_size=%d", page, pageSize)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject 更新项目设定
func (c *Client) UpdateProject(ctx context.Context, projectID string, req *dto.UpdateProjectRequest) (*entity.Project, error) {
	var out entity.Project
	if err := c.do(ctx, http.MethodPut, "/v1/projects/"+projectID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject 删除项目
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/projects/"+projectID, nil, nil)
}

// SaveStep 显式保存向导步骤
func (c *Client) SaveStep(ctx context.Context, projectID string, step int) (*entity.Project, error) {
	var out entity.Project
	if err := c.do(ctx, http.MethodPut, "/v1/projects/"+projectID+"/step", &dto.SaveStepRequest{Step: &step}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Brainstorm 主题扩展阶段
func (c *Client) Brainstorm(ctx context.Context, projectID string) (*entity.Brainstorm, error) {
	var out entity.Brainstorm
	if err := c.do(ctx, http.MethodPost, "/v1/projects/"+projectID+"/brainstorm", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateConcepts 概念生成阶段
func (c *Client) GenerateConcepts(ctx context.Context, projectID string) ([]entity.BookConcept, error) {
	var out []entity.BookConcept
	if err := c.do(ctx, http.MethodPost, "/v1/projects/"+projectID+"/concepts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateOutline 大纲生成阶段
func (c *Client) GenerateOutline(ctx context.Context, projectID string, conceptIndex int) ([]*entity.Chapter, error) {
	var out []*entity.Chapter
	if err := c.do(ctx, http.MethodPost, "/v1/projects/"+projectID+"/outline", &dto.OutlineRequest{ConceptIndex: conceptIndex}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateChapter 单章生成阶段
func (c *Client) GenerateChapter(ctx context.Context, chapterID string) (*dto.ChapterGenerationResponse, error) {
	var out dto.ChapterGenerationResponse
	if err := c.do(ctx, http.MethodPost, "/v1/chapters/"+chapterID+"/generate", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateCover 封面生成阶段
func (c *Client) GenerateCover(ctx context.Context, projectID string) (*CoverResult, error) {
	var out CoverResult
	if err := c.do(ctx, http.MethodPost, "/v1/projects/"+projectID+"/cover", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CoverResult 封面生成结果
type CoverResult struct {
	ImageURL string `json:"imageUrl"`
	Prompt   string `json:"prompt"`
}

// ListChapters 获取项目章节列表
func (c *Client) ListChapters(ctx context.Context, projectID string) ([]*entity.Chapter, error) {
	var out []*entity.Chapter
	if err := c.do(ctx, http.MethodGet, "/v1/projects/"+projectID+"/chapters", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetChapter 获取章节详情
func (c *Client) GetChapter(ctx context.Context, chapterID string) (*entity.Chapter, error) {
	var out entity.Chapter
	if err := c.do(ctx, http.MethodGet, "/v1/chapters/"+chapterID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateChapter 手动编辑章节
func (c *Client) UpdateChapter(ctx context.Context, chapterID string, req *dto.UpdateChapterRequest) (*entity.Chapter, error) {
	var out entity.Chapter
	if err := c.do(ctx, http.MethodPut, "/v1/chapters/"+chapterID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConcepts 获取项目概念集合
func (c *Client) GetConcepts(ctx context.Context, projectID string) (*entity.ConceptSet, error) {
	var out entity.ConceptSet
	if err := c.do(ctx, http.MethodGet, "/v1/projects/"+projectID+"/concepts", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCovers 获取项目封面历史
func (c *Client) ListCovers(ctx context.Context, projectID string) ([]*entity.CoverDesign, error) {
	var out []*entity.CoverDesign
	if err := c.do(ctx, http.MethodGet, "/v1/projects/"+projectID+"/covers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUsage 获取当前用户 Token 用量
func (c *Client) GetUsage(ctx context.Context) (*dto.UsageResponse, error) {
	var out dto.UsageResponse
	if err := c.do(ctx, http.MethodGet, "/v1/users/me/usage", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
