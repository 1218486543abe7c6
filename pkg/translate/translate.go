// Package translate 歌词翻译后处理。未配置凭证时整个步骤是no-op，
// 外部服务失败只会让导出缺少翻译变体，不会让请求失败。
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlignment 输出行数和输入对不上。宁可整体失败
	// 也不输出错位的译文。
	ErrAlignment = errors.New("translation output misaligned with input")
	// ErrUnavailable 外部服务失败（配额、鉴权、网络）
	ErrUnavailable = errors.New("translation service unavailable")
)

// Translator 批量文本翻译接口。输出第N行必须对应输入第N行。
type Translator interface {
	Name() string
	Translate(ctx context.Context, lines []string, targetLang string) ([]string, error)
}

// 单次请求的行数上限，避免超出外部服务的请求体积限制
const batchSize = 50

// TranslateLines 分批调用翻译服务并校验行数对齐
func TranslateLines(ctx context.Context, tr Translator, lines []string, targetLang string) ([]string, error) {
	if tr == nil || len(lines) == 0 {
		return nil, nil
	}

	out := make([]string, 0, len(lines))
	for start := 0; start < len(lines); start += batchSize {
		end := start + batchSize
		if end > len(lines) {
			end = len(lines)
		}
		batch := lines[start:end]

		translated, err := tr.Translate(ctx, batch, targetLang)
		if err != nil {
			if errors.Is(err, ErrAlignment) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if len(translated) != len(batch) {
			return nil, fmt.Errorf("%w: sent %d lines, got %d back", ErrAlignment, len(batch), len(translated))
		}
		out = append(out, translated...)
	}
	return out, nil
}

// BuildPrompt 供LLM型后端使用的统一指令
func BuildPrompt(lines []string, targetLang string) (string, error) {
	payload, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("failed to marshal lines: %w", err)
	}
	return fmt.Sprintf(`请将以下JSON数组中的每一行歌词翻译成%s。`+
		`严格返回一个JSON字符串数组，行数和顺序与输入完全一致，`+
		`空行保持为空字符串，不要任何markdown格式或解释。输入：%s`, targetLang, payload), nil
}

// ParseJSONLines 解析LLM返回的JSON数组，容忍代码围栏
func ParseJSONLines(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var lines []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &lines); err != nil {
		return nil, fmt.Errorf("response is not a json string array: %w", err)
	}
	return lines, nil
}
