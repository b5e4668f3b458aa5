package analysis

import (
	"errors"
	"fmt"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/logger"
)

var (
	// ErrValidation 本地输入校验失败，没有调用模型
	ErrValidation = errors.New("validation error")
	// ErrAnalysisUnavailable 无法访问模型（网络、超时、取消）
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
	// ErrMalformedResponse 模型返回的内容不是要求的 JSON 结构
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrExtractionParse 抽取调用的解析失败，是 ErrMalformedResponse 的一种
	ErrExtractionParse = errors.New("extraction parse error")
)

// MalformedResponseError 携带原始输出，便于排查
type MalformedResponseError struct {
	Op  string
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed model response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Is 让 errors.Is 同时匹配 ErrMalformedResponse，抽取调用还匹配 ErrExtractionParse
func (e *MalformedResponseError) Is(target error) bool {
	if target == ErrMalformedResponse {
		return true
	}
	return target == ErrExtractionParse && e.Op == opExtract
}

func malformed(op, raw string, err error) error {
	logger.Log.Warnf("模型输出解析失败 [%s]: %v, 原始输出: %s", op, err, truncate(raw, 300))
	return &MalformedResponseError{Op: op, Raw: raw, Err: err}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrAnalysisUnavailable, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
