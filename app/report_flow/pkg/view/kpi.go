package view

import (
	"context"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/store"
)

// KPI 仪表盘页面，报告集合变化后重新计算
type KPI struct {
	Runner

	analyzer Analyzer
	store    *store.Store

	computed bool
	version  uint64
	series   []model.KpiTimeSeries
}

func NewKPI(analyzer Analyzer, s *store.Store) *KPI {
	return &KPI{analyzer: analyzer, store: s}
}

// Activate 从未计算过或存储版本变化时调用模型，否则直接返回上次结果。
// 空结果表示没有找到 KPI，不是错误。
func (k *KPI) Activate(ctx context.Context) ([]model.KpiTimeSeries, error) {
	version := k.store.Version()
	if series, ok := k.cached(version); ok {
		return series, nil
	}

	reports := k.store.List()
	if len(reports) == 0 {
		return nil, k.reject(validationf("보고서가 없습니다"))
	}

	runCtx, gen, err := k.begin(ctx)
	if err != nil {
		return nil, err
	}

	series, err := k.analyzer.ExtractKpiSeries(runCtx, reports)
	err = k.finish(gen, err, func() error {
		if series == nil {
			series = []model.KpiTimeSeries{}
		}
		k.series = series
		k.version = version
		k.computed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

// Series 上次计算的结果；computed 为 false 表示还没有计算过
func (k *KPI) Series() (series []model.KpiTimeSeries, computed bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.series, k.computed
}

func (k *KPI) cached(version uint64) ([]model.KpiTimeSeries, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.computed && k.version == version {
		return k.series, true
	}
	return nil, false
}
