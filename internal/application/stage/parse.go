package stage

import (
	"encoding/json"
	"strings"

	"bookforge-api/internal/domain/entity"
	apperrors "bookforge-api/pkg/errors"
)

// ParseBrainstorm 解析头脑风暴产物
func ParseBrainstorm(raw string) (*entity.Brainstorm, error) {
	var result entity.Brainstorm
	if err := json.Unmarshal([]byte(ExtractJSONValue(raw)), &result); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeMalformedResponse, "Invalid brainstorm response")
	}
	if strings.TrimSpace(result.Thesis) == "" {
		return nil, apperrors.New(apperrors.CodeMalformedResponse, "Brainstorm response missing thesis")
	}
	return &result, nil
}

// NormalizeConcepts 防御式解析概念数组。
// 模型可能返回：裸数组、{"concepts": [...]}、{"data": [...]}、或单个概念对象。
func NormalizeConcepts(raw string) ([]entity.BookConcept, error) {
	cleaned := ExtractJSONValue(raw)

	var asArray []entity.BookConcept
	if err := json.Unmarshal([]byte(cleaned), &asArray); err == nil {
		return asArray, nil
	}

	var wrapper struct {
		Concepts []entity.BookConcept `json:"concepts"`
		Data     []entity.BookConcept `json:"data"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapper); err == nil {
		if len(wrapper.Concepts) > 0 {
			return wrapper.Concepts, nil
		}
		if len(wrapper.Data) > 0 {
			return wrapper.Data, nil
		}
	}

	// 单个概念对象 → 包装为单元素数组
	var single entity.BookConcept
	if err := json.Unmarshal([]byte(cleaned), &single); err == nil && single.Title != "" {
		return []entity.BookConcept{single}, nil
	}

	return nil, apperrors.New(apperrors.CodeMalformedResponse, "Invalid concepts response")
}

// NormalizeConceptSlice 规范化已持久化的概念集合，兜底历史脏数据。
// 返回新切片，调用方持有的原集合不受影响。
func NormalizeConceptSlice(concepts []entity.BookConcept) []entity.BookConcept {
	out := make([]entity.BookConcept, 0, len(concepts))
	for _, c := range concepts {
		if c.Title != "" {
			out = append(out, c)
		}
	}
	return out
}

// OutlineChapter 大纲解析的中间结构
type OutlineChapter struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Sections []string `json:"sections"`
}

// ParseOutline 解析大纲数组
func ParseOutline(raw string) ([]OutlineChapter, error) {
	cleaned := ExtractJSONValue(raw)

	var chapters []OutlineChapter
	if err := json.Unmarshal([]byte(cleaned), &chapters); err != nil {
		// 兼容 {"chapters": [...]} 包装
		var wrapper struct {
			Chapters []OutlineChapter `json:"chapters"`
		}
		if err2 := json.Unmarshal([]byte(cleaned), &wrapper); err2 != nil || len(wrapper.Chapters) == 0 {
			return nil, apperrors.Wrap(err, apperrors.CodeMalformedResponse, "Invalid outline response")
		}
		chapters = wrapper.Chapters
	}

	valid := chapters[:0]
	for _, ch := range chapters {
		if strings.TrimSpace(ch.Title) != "" {
			valid = append(valid, ch)
		}
	}
	if len(valid) == 0 {
		return nil, apperrors.New(apperrors.CodeMalformedResponse, "Outline response contains no chapters")
	}
	return valid, nil
}

// ClampConceptIndex 将概念下标收敛到合法范围，越界回退到 0。
func ClampConceptIndex(index, length int) int {
	if index < 0 || index >= length {
		return 0
	}
	return index
}
