package view

import (
	"context"
	"fmt"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/store"
)

// MinTrackingReports 追踪分析需要的最少报告数
const MinTrackingReports = 2

// Tracking 计划-实绩追踪页面
type Tracking struct {
	Runner

	analyzer     Analyzer
	store        *store.Store
	historyLimit int

	targetID string
	text     string
}

// NewTracking historyLimit 为 0 时发送全部历史报告
func NewTracking(analyzer Analyzer, s *store.Store, historyLimit int) *Tracking {
	return &Tracking{analyzer: analyzer, store: s, historyLimit: historyLimit}
}

// Run 以 targetID 为本周报告执行追踪，targetID 为空时取最新一份
func (t *Tracking) Run(ctx context.Context, targetID string) (string, error) {
	target, history, err := splitHistory(t.store.List(), targetID, t.historyLimit)
	if err != nil {
		return "", t.reject(err)
	}

	runCtx, gen, err := t.begin(ctx)
	if err != nil {
		return "", err
	}

	text, err := t.analyzer.Track(runCtx, target, history)
	err = t.finish(gen, err, func() error {
		t.targetID = target.ID
		t.text = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Result 最近一次成功的追踪结果
func (t *Tracking) Result() (targetID, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.targetID, t.text
}

// splitHistory 取出目标报告，其余报告按存储顺序作为历史，超过 limit 时截断
func splitHistory(reports []model.StructuredReport, targetID string, limit int) (model.StructuredReport, []model.StructuredReport, error) {
	if len(reports) < MinTrackingReports {
		return model.StructuredReport{}, nil, validationf("추적 분석에는 최소 %d개 이상의 보고서가 필요합니다", MinTrackingReports)
	}
	if targetID == "" {
		targetID = reports[0].ID
	}

	var (
		target  model.StructuredReport
		found   bool
		history = make([]model.StructuredReport, 0, len(reports)-1)
	)
	for _, r := range reports {
		if r.ID == targetID {
			target, found = r, true
			continue
		}
		history = append(history, r)
	}
	if !found {
		return model.StructuredReport{}, nil, fmt.Errorf("%w: %s", store.ErrNotFound, targetID)
	}
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return target, history, nil
}
