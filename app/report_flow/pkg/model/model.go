package model

import (
	"fmt"
	"strings"
)

// ReportMeta 报告来源信息，除周次外都是可选的自由文本
type ReportMeta struct {
	Organization string `json:"organization,omitempty" jsonschema:"description=회사/조직"`
	Week         string `json:"week" jsonschema:"required,description=보고 주차 (예: 2026-W1)"`
	ReportDate   string `json:"reportDate,omitempty" jsonschema:"description=보고일"`
	Source       string `json:"source,omitempty" jsonschema:"description=원본 파일명 또는 출처"`
}

// ReportSummary 报告整体摘要
type ReportSummary struct {
	OverallStatus      Status   `json:"overallStatus" jsonschema:"required,enum=Green,enum=Yellow,enum=Red,enum=Mixed,enum=Unknown"`
	KeyMessages        []string `json:"keyMessages"`
	TopRisks           []string `json:"topRisks"`
	NextWeekPriorities []string `json:"nextWeekPriorities"`
}

// Metric 从计划/实绩/差异文本中抽取的数值
type Metric struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit,omitempty"`
	Currency string  `json:"currency,omitempty"`
}

// ReportItem 一个被追踪的工作条目
type ReportItem struct {
	// IssueID 约定格式 ORG-CATEGORY-KEYWORD-YEAR-SEQ，不保证唯一或存在
	IssueID        string   `json:"issueId,omitempty"`
	Section        string   `json:"section,omitempty"`
	OrgUnit        string   `json:"orgUnit"`
	Category       Category `json:"category" jsonschema:"enum=KPI,enum=Project,enum=Finance,enum=Risk,enum=Operation,enum=Other"`
	Item           string   `json:"item"`
	Plan           string   `json:"plan"`
	Actual         string   `json:"actual"`
	Gap            string   `json:"gap"`
	PlanMetrics    []Metric `json:"planMetrics"`
	ActualMetrics  []Metric `json:"actualMetrics"`
	GapMetrics     []Metric `json:"gapMetrics"`
	Status         Status   `json:"status" jsonschema:"required,enum=Green,enum=Yellow,enum=Red,enum=Unknown"`
	NextAction     string   `json:"nextAction,omitempty"`
	Owner          string   `json:"owner,omitempty"`
	IsNew          bool     `json:"isNew,omitempty"`
	EvidenceQuotes []string `json:"evidenceQuotes"`
}

// StructuredReport 一次抽取得到的持久化记录
type StructuredReport struct {
	ID         string        `json:"id" jsonschema:"-"`
	ReportMeta ReportMeta    `json:"reportMeta" jsonschema:"required"`
	Summary    ReportSummary `json:"summary" jsonschema:"required"`
	Details    []ReportItem  `json:"details"`
	// CreatedAt 创建时间（毫秒时间戳），只设置一次
	CreatedAt int64 `json:"createdAt" jsonschema:"-"`
}

// KpiPoint KPI 时间序列中的一个点
type KpiPoint struct {
	Week   string   `json:"week"`
	Plan   *float64 `json:"plan"`
	Actual *float64 `json:"actual"`
	Status Status   `json:"status"`
}

// KpiTimeSeries 按需从报告集合推导，不持久化
type KpiTimeSeries struct {
	KpiName string     `json:"kpiName"`
	OrgUnit string     `json:"orgUnit"`
	Unit    string     `json:"unit"`
	Data    []KpiPoint `json:"data"`
}

// ChatRole 对话角色
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatTurn 对话记录中的一条
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ValidationError 模型输出不符合 schema 时的缺陷列表
type ValidationError struct {
	Defects []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("report does not conform to schema: %s", strings.Join(e.Defects, "; "))
}

// Validate 校验模型输出的结构，发现问题时不做修正，只报告
func (r *StructuredReport) Validate() error {
	var defects []string
	if strings.TrimSpace(r.ReportMeta.Week) == "" {
		defects = append(defects, "reportMeta.week is empty")
	}
	if !r.Summary.OverallStatus.ValidReportStatus() {
		defects = append(defects, fmt.Sprintf("summary.overallStatus %q is not a known status", r.Summary.OverallStatus))
	}
	for i, item := range r.Details {
		if !item.Status.ValidItemStatus() {
			defects = append(defects, fmt.Sprintf("details[%d].status %q is not a known status", i, item.Status))
		}
		if !item.Category.Valid() {
			defects = append(defects, fmt.Sprintf("details[%d].category %q is not a known category", i, item.Category))
		}
	}
	if len(defects) > 0 {
		return &ValidationError{Defects: defects}
	}
	return nil
}

// Validate 校验单条 KPI 序列
func (k *KpiTimeSeries) Validate() error {
	var defects []string
	if strings.TrimSpace(k.KpiName) == "" {
		defects = append(defects, "kpiName is empty")
	}
	for i, p := range k.Data {
		if !p.Status.ValidReportStatus() {
			defects = append(defects, fmt.Sprintf("data[%d].status %q is not a known status", i, p.Status))
		}
	}
	if len(defects) > 0 {
		return &ValidationError{Defects: defects}
	}
	return nil
}

// StatusCounts 线性扫描统计各状态的条目数，只返回出现过的状态
func StatusCounts(r *StructuredReport) map[Status]int {
	counts := make(map[Status]int)
	if r == nil {
		return counts
	}
	for _, item := range r.Details {
		counts[item.Status]++
	}
	return counts
}

// Label 列表展示用的简短标题
func (r *StructuredReport) Label() string {
	if r.ReportMeta.Organization != "" {
		return fmt.Sprintf("%s %s", r.ReportMeta.Organization, r.ReportMeta.Week)
	}
	return r.ReportMeta.Week
}
