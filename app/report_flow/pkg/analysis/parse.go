package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/logger"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
)

// stripCodeFence 去掉模型可能包裹的 ``` 或 ```json 标记
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// 去掉语言标记所在的第一行，例如 json
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeReport 解析并校验抽取结果，任何不符合 schema 的输出都被拒绝
func decodeReport(raw string) (*model.StructuredReport, error) {
	clean := stripCodeFence(raw)
	if clean == "" {
		return nil, fmt.Errorf("empty response")
	}

	var report model.StructuredReport
	if err := json.Unmarshal([]byte(clean), &report); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if err := report.Validate(); err != nil {
		return nil, err
	}
	return &report, nil
}

// decodeKpiSeries 兼容裸数组和 {"kpis": [...]} 两种形式，无效的序列被丢弃
func decodeKpiSeries(raw string) ([]model.KpiTimeSeries, error) {
	clean := []byte(stripCodeFence(raw))

	var series []model.KpiTimeSeries
	if bytes.HasPrefix(clean, []byte("{")) {
		var wrapped struct {
			Kpis []model.KpiTimeSeries `json:"kpis"`
		}
		if err := json.Unmarshal(clean, &wrapped); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
		series = wrapped.Kpis
	} else if err := json.Unmarshal(clean, &series); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	valid := make([]model.KpiTimeSeries, 0, len(series))
	for _, s := range series {
		if err := s.Validate(); err != nil {
			logger.Log.Warnf("丢弃无效的 KPI 序列 [%s]: %v", s.KpiName, err)
			continue
		}
		valid = append(valid, s)
	}
	return valid, nil
}

// reportSchema 抽取提示词中附带的输出 schema，只生成一次
var reportSchema = sync.OnceValue(func() string {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(&model.StructuredReport{})
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		logger.Log.Errorf("生成报告 schema 失败: %v", err)
		return ""
	}
	return string(data)
})
