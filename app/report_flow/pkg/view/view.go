// Package view 每个页面的控制器：持有临时状态，驱动一次分析调用，并把结果写回报告存储。
package view

import (
	"context"
	"errors"
	"fmt"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/analysis"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/logger"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/store"
)

// Analyzer 控制器依赖的分析操作，由 *analysis.Client 实现
type Analyzer interface {
	Extract(ctx context.Context, in analysis.ExtractInput) (*model.StructuredReport, error)
	Summarize(ctx context.Context, report model.StructuredReport) (string, error)
	Track(ctx context.Context, target model.StructuredReport, history []model.StructuredReport) (string, error)
	Chat(ctx context.Context, question string, reports []model.StructuredReport, prior []model.ChatTurn) (string, error)
	ExtractKpiSeries(ctx context.Context, reports []model.StructuredReport) ([]model.KpiTimeSeries, error)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", analysis.ErrValidation, fmt.Sprintf(format, args...))
}

// tolerateProjection 内存集合已更新但持久化失败时只记录日志
func tolerateProjection(err error) error {
	if err == nil || errors.Is(err, store.ErrDuplicateID) || errors.Is(err, store.ErrNotFound) {
		return err
	}
	logger.Log.Warnf("报告集合已在内存中更新，但持久化失败: %v", err)
	return nil
}
