// Package llm 提供大模型访问层实现
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookforge-api/internal/config"
	apperrors "bookforge-api/pkg/errors"
	"bookforge-api/pkg/logger"
	"bookforge-api/pkg/metrics"
)

var tracer = otel.Tracer("llm")

// jsonOnlyInstruction 要求模型只输出 JSON 的附加指令
const jsonOnlyInstruction = "\n\nYou must respond with valid JSON only. Do not include any prose, markdown fences, or explanation outside the JSON."

// GenerateOptions 单次生成的可选参数
type GenerateOptions struct {
	// Provider 指定首选 Provider，空值使用默认
	Provider string
	// MaxTokens 覆盖 Provider 默认的输出上限，0 表示不覆盖
	MaxTokens int
	// Temperature 覆盖默认温度，nil 表示不覆盖
	Temperature *float32
	// JSONOutput 要求模型输出严格 JSON
	JSONOutput bool
}

// GenerateResult 生成结果与用量元数据
type GenerateResult struct {
	Content          string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// TotalTokens 本次调用消耗的 Token 总数
func (r *GenerateResult) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}

// Generator 文本生成器，按降级链依次尝试 Provider
type Generator struct {
	factory *EinoFactory
	config  *config.LLMConfig
}

// NewGenerator 创建文本生成器
func NewGenerator(factory *EinoFactory, cfg *config.Config) *Generator {
	return &Generator{
		factory: factory,
		config:  &cfg.LLM,
	}
}

// GenerateText 生成文本。首选 Provider 失败后沿降级链重试，
// 全部失败时返回 ErrProviderUnavailable。
func (g *Generator) GenerateText(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (*GenerateResult, error) {
	ctx, span := tracer.Start(ctx, "llm.GenerateText",
		trace.WithAttributes(attribute.Bool("llm.json_output", opts.JSONOutput)))
	defer span.End()

	if opts.JSONOutput {
		systemPrompt += jsonOnlyInstruction
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}

	var lastErr error
	for _, name := range g.providerChain(opts.Provider) {
		result, err := g.generateWith(ctx, name, messages, opts)
		if err == nil {
			span.SetAttributes(attribute.String("llm.provider", result.Provider))
			return result, nil
		}
		lastErr = err
		logger.Warn(ctx, "llm provider failed, trying next in chain",
			"provider", name,
			"error", err.Error(),
		)
	}

	span.RecordError(lastErr)
	return nil, apperrors.Wrap(lastErr, apperrors.CodeProviderUnavailable, "All AI providers failed")
}

// providerChain 计算本次调用的 Provider 尝试顺序
func (g *Generator) providerChain(preferred string) []string {
	if preferred == "" {
		preferred = g.config.DefaultProvider
	}
	chain := []string{preferred}
	for _, name := range g.config.FallbackChain {
		if name != preferred {
			chain = append(chain, name)
		}
	}
	return chain
}

func (g *Generator) generateWith(ctx context.Context, name string, messages []*schema.Message, opts GenerateOptions) (*GenerateResult, error) {
	chatModel, err := g.factory.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	providerCfg := g.config.Providers[name]

	var modelOpts []model.Option
	if opts.MaxTokens > 0 {
		modelOpts = append(modelOpts, model.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Temperature != nil {
		modelOpts = append(modelOpts, model.WithTemperature(*opts.Temperature))
	}

	start := time.Now()
	outMsg, err := chatModel.Generate(ctx, messages, modelOpts...)
	metrics.LLMCallDuration.WithLabelValues(name, providerCfg.Model).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(name, providerCfg.Model, "error").Inc()
		return nil, fmt.Errorf("provider %s generate failed: %w", name, err)
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		metrics.LLMCallTotal.WithLabelValues(name, providerCfg.Model, "error").Inc()
		return nil, fmt.Errorf("provider %s returned empty response", name)
	}
	metrics.LLMCallTotal.WithLabelValues(name, providerCfg.Model, "success").Inc()

	result := &GenerateResult{
		Content:  outMsg.Content,
		Provider: name,
		Model:    providerCfg.Model,
	}
	if outMsg.ResponseMeta != nil && outMsg.ResponseMeta.Usage != nil {
		result.PromptTokens = outMsg.ResponseMeta.Usage.PromptTokens
		result.CompletionTokens = outMsg.ResponseMeta.Usage.CompletionTokens
		metrics.LLMTokensUsed.WithLabelValues(name, providerCfg.Model, "prompt").Add(float64(result.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(name, providerCfg.Model, "completion").Add(float64(result.CompletionTokens))
	}

	return result, nil
}
