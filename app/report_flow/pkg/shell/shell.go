// Package shell 导航外壳：显式的应用状态加纯函数 reducer。
// 选中的报告由存储持有，这里只通过 Facts 读取。
package shell

import (
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
)

// View 导航中的页面
type View string

const (
	ViewExtract  View = "extract"
	ViewSummary  View = "summary"
	ViewTracking View = "tracking"
	ViewKPI      View = "kpi"
	ViewChat     View = "chat"
	ViewHistory  View = "history"
)

var viewOrder = []View{ViewExtract, ViewSummary, ViewTracking, ViewKPI, ViewChat, ViewHistory}

var viewLabels = map[View]string{
	ViewExtract:  "보고서 추출",
	ViewSummary:  "요약 보고서",
	ViewTracking: "계획-실적 추적",
	ViewKPI:      "KPI 대시보드",
	ViewChat:     "AI 챗봇",
	ViewHistory:  "히스토리",
}

// ParseView 解析页面名
func ParseView(s string) (View, bool) {
	v := View(s)
	_, ok := viewLabels[v]
	return v, ok
}

// State 应用状态
type State struct {
	View View       `json:"view"`
	Role model.Role `json:"role"`
}

// Initial 启动时的状态
func Initial() State {
	return State{View: ViewExtract, Role: model.RoleExecutive}
}

// Facts 从报告存储读取的前置条件
type Facts struct {
	Reports      int  `json:"reports"`
	HasSelection bool `json:"hasSelection"`
}

// Action 状态迁移
type Action interface {
	isAction()
}

type (
	// Navigate 用户点击导航
	Navigate struct{ View View }
	// ReportAdded 抽取成功，新报告已被选中
	ReportAdded struct{}
	// ReportSelected 在历史页选中了一份报告
	ReportSelected struct{}
	// ReportRemoved 删除了一份报告
	ReportRemoved struct{}
	// SetRole 切换展示角色
	SetRole struct{ Role model.Role }
)

func (Navigate) isAction()       {}
func (ReportAdded) isAction()    {}
func (ReportSelected) isAction() {}
func (ReportRemoved) isAction()  {}
func (SetRole) isAction()        {}

// Enabled 页面的前置条件是否满足
func Enabled(v View, f Facts) bool {
	switch v {
	case ViewSummary:
		return f.HasSelection
	case ViewTracking:
		return f.Reports >= 2
	case ViewKPI, ViewChat:
		return f.Reports >= 1
	case ViewExtract, ViewHistory:
		return true
	default:
		return false
	}
}

// Reduce 纯函数：根据 action 计算下一个状态。
// 跳转到不可用页面不生效；任何 action 之后当前页面不可用时退回抽取页。
func Reduce(s State, f Facts, a Action) State {
	switch a := a.(type) {
	case Navigate:
		if Enabled(a.View, f) {
			s.View = a.View
		}
	case ReportAdded, ReportSelected:
		if Enabled(ViewSummary, f) {
			s.View = ViewSummary
		}
	case ReportRemoved:
	case SetRole:
		if a.Role.Valid() {
			s.Role = a.Role
		}
	}

	if !Enabled(s.View, f) {
		s.View = ViewExtract
	}
	return s
}

// NavEntry 导航栏中的一项
type NavEntry struct {
	View    View   `json:"view"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
	Active  bool   `json:"active"`
}

// Views 按固定顺序列出导航项
func Views(s State, f Facts) []NavEntry {
	entries := make([]NavEntry, 0, len(viewOrder))
	for _, v := range viewOrder {
		entries = append(entries, NavEntry{
			View:    v,
			Label:   viewLabels[v],
			Enabled: Enabled(v, f),
			Active:  v == s.View,
		})
	}
	return entries
}
