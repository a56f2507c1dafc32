// Package llm 提供大模型访问层实现
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookforge-api/internal/config"
	apperrors "bookforge-api/pkg/errors"
)

// ImageClient OpenAI Images API 客户端。
// Eino 当前没有图像生成组件，这里直接走 HTTP 协议。
type ImageClient struct {
	config     *config.ImageConfig
	httpClient *http.Client
}

// NewImageClient 创建图像生成客户端
func NewImageClient(cfg *config.Config) *ImageClient {
	return &ImageClient{
		config: &cfg.Image,
		httpClient: &http.Client{
			Timeout: cfg.Image.Timeout,
		},
	}
}

type imageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageGenerationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateImage 生成图像并返回解码后的 PNG 字节
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "llm.GenerateImage",
		trace.WithAttributes(
			attribute.String("image.model", c.config.Model),
			attribute.String("image.size", c.config.Size),
		))
	defer span.End()

	reqBody, err := json.Marshal(imageGenerationRequest{
		Model:          c.config.Model,
		Prompt:         prompt,
		N:              1,
		Size:           c.config.Size,
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image request: %w", err)
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/images/generations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeProviderUnavailable, "Image provider unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image response: %w", err)
	}

	var result imageGenerationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeMalformedResponse, "Invalid image provider response")
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("image generation failed with status %d", resp.StatusCode)
		if result.Error != nil {
			msg = result.Error.Message
		}
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		return nil, apperrors.New(apperrors.CodeGenerationFailed, msg)
	}

	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		return nil, apperrors.New(apperrors.CodeMalformedResponse, "Image provider returned no image data")
	}

	imageBytes, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeMalformedResponse, "Invalid base64 image payload")
	}

	span.SetAttributes(attribute.Int("image.bytes", len(imageBytes)))
	return imageBytes, nil
}
