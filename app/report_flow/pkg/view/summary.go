package view

import (
	"context"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
)

// Summary 高管摘要页面
type Summary struct {
	Runner

	analyzer Analyzer
	report   *model.StructuredReport
	text     string
}

func NewSummary(analyzer Analyzer) *Summary {
	return &Summary{analyzer: analyzer}
}

// Activate 为给定报告生成摘要
func (s *Summary) Activate(ctx context.Context, report model.StructuredReport) (string, error) {
	runCtx, gen, err := s.begin(ctx)
	if err != nil {
		return "", err
	}

	text, err := s.analyzer.Summarize(runCtx, report)
	err = s.finish(gen, err, func() error {
		s.report = &report
		s.text = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Deactivate 离开页面时放弃进行中的调用并清空结果，下次进入重新生成
func (s *Summary) Deactivate() {
	s.Runner.Deactivate()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = nil
	s.text = ""
}

// Result 最近一次成功的摘要；reportID 为空表示还没有结果
func (s *Summary) Result() (reportID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return "", ""
	}
	return s.report.ID, s.text
}

// StatusCounts 当前报告各状态的条目数，每次重新扫描
func (s *Summary) StatusCounts() map[model.Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.StatusCounts(s.report)
}
