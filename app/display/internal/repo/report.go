package repo

import (
	"context"

	"github.com/iWorld-y/report_flow/app/display/internal/domain"
)

// ReportRepo 报告仓库接口
type ReportRepo interface {
	// ListReports 分页获取报告摘要列表，按创建时间倒序
	ListReports(ctx context.Context, page, pageSize int) ([]*domain.ReportSummary, int, error)
	// GetReportByID 根据ID获取分组后的报告详情
	GetReportByID(ctx context.Context, id string) (*domain.GroupedReport, error)
}
