package usecase

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/report_flow/app/display/internal/domain"
	"github.com/iWorld-y/report_flow/app/display/internal/repo"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ReportUseCase 报告归档的只读业务逻辑
type ReportUseCase struct {
	repo repo.ReportRepo
	log  *log.Helper
}

// NewReportUseCase 创建报告业务逻辑实例
func NewReportUseCase(repo repo.ReportRepo, logger log.Logger) *ReportUseCase {
	return &ReportUseCase{repo: repo, log: log.NewHelper(logger)}
}

// NormalizePage 修正非法的分页参数
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// List 分页列出报告摘要
func (uc *ReportUseCase) List(ctx context.Context, page, pageSize int) ([]*domain.ReportSummary, int, error) {
	page, pageSize = NormalizePage(page, pageSize)
	return uc.repo.ListReports(ctx, page, pageSize)
}

// GetByID 根据ID获取报告详情
func (uc *ReportUseCase) GetByID(ctx context.Context, id string) (*domain.GroupedReport, error) {
	return uc.repo.GetReportByID(ctx, id)
}
