// Package workspace 把报告存储、各页面控制器和导航状态组合在一起，
// 供 HTTP 服务和命令行共用。
package workspace

import (
	"context"
	"sync"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/config"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/shell"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/store"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/view"
)

// Workspace 一个用户会话的全部状态
type Workspace struct {
	Store      *store.Store
	Extraction *view.Extraction
	Summary    *view.Summary
	Tracking   *view.Tracking
	KPI        *view.KPI
	Chat       *view.Chat
	History    *view.History

	mu    sync.Mutex
	state shell.State
}

func New(analyzer view.Analyzer, s *store.Store, cfg *config.Config) *Workspace {
	return &Workspace{
		Store:      s,
		Extraction: view.NewExtraction(analyzer, s),
		Summary:    view.NewSummary(analyzer),
		Tracking:   view.NewTracking(analyzer, s, cfg.Tracking.HistoryLimit),
		KPI:        view.NewKPI(analyzer, s),
		Chat:       view.NewChat(analyzer, s, cfg.Chat.HistoryTurns),
		History:    view.NewHistory(s, cfg.History.ConfirmDelete),
		state:      shell.Initial(),
	}
}

// Facts 当前存储中的前置条件
func (w *Workspace) Facts() shell.Facts {
	return shell.Facts{
		Reports:      w.Store.Len(),
		HasSelection: w.Store.SelectedID() != "",
	}
}

// State 当前导航状态，先按最新的存储状态校正
func (w *Workspace) State() shell.State {
	return w.Dispatch(nil)
}

// Dispatch 执行一次状态迁移；离开的页面上进行中的调用会被放弃
func (w *Workspace) Dispatch(a shell.Action) shell.State {
	w.mu.Lock()
	defer w.mu.Unlock()

	prev := w.state
	w.state = shell.Reduce(prev, w.Facts(), a)
	if prev.View != w.state.View {
		w.deactivate(prev.View)
	}
	return w.state
}

// Extract 提交抽取；成功后选中新报告并跳转到摘要页
func (w *Workspace) Extract(ctx context.Context) (model.StructuredReport, error) {
	report, err := w.Extraction.Submit(ctx)
	if err != nil {
		return model.StructuredReport{}, err
	}
	if err := w.Store.Select(report.ID); err != nil {
		return report, err
	}
	w.Dispatch(shell.ReportAdded{})
	return report, nil
}

// SelectReport 选中报告并跳转到摘要页
func (w *Workspace) SelectReport(id string) error {
	if err := w.Store.Select(id); err != nil {
		return err
	}
	w.Dispatch(shell.ReportSelected{})
	return nil
}

// DeleteReport 删除报告并校正当前页面
func (w *Workspace) DeleteReport(ctx context.Context, id string, confirmed bool) error {
	if err := w.History.Delete(ctx, id, confirmed); err != nil {
		return err
	}
	w.Dispatch(shell.ReportRemoved{})
	return nil
}

// SummarizeSelected 为选中的报告生成摘要；refresh 为 false 时复用本次进入摘要页后同一报告的结果
func (w *Workspace) SummarizeSelected(ctx context.Context, refresh bool) (model.StructuredReport, string, error) {
	report, ok := w.Store.Selected()
	if !ok {
		return model.StructuredReport{}, "", store.ErrNotFound
	}
	if id, text := w.Summary.Result(); !refresh && id == report.ID {
		return report, text, nil
	}
	text, err := w.Summary.Activate(ctx, report)
	return report, text, err
}

func (w *Workspace) deactivate(v shell.View) {
	switch v {
	case shell.ViewSummary:
		w.Summary.Deactivate()
	case shell.ViewTracking:
		w.Tracking.Deactivate()
	case shell.ViewKPI:
		w.KPI.Deactivate()
	case shell.ViewChat:
		w.Chat.Deactivate()
	}
}
