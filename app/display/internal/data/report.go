package data

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/report_flow/app/display/internal/domain"
	"github.com/iWorld-y/report_flow/app/display/internal/repo"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/store"
)

const timeLayout = "2006-01-02 15:04:05"

type reportRepo struct {
	data *Data
	log  *log.Helper
}

func NewReportRepo(data *Data, logger log.Logger) repo.ReportRepo {
	return &reportRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *reportRepo) ListReports(ctx context.Context, page, pageSize int) ([]*domain.ReportSummary, int, error) {
	reports := r.data.Store.List()
	total := len(reports)

	offset := (page - 1) * pageSize
	if offset >= total {
		return []*domain.ReportSummary{}, total, nil
	}
	end := min(offset+pageSize, total)

	summaries := make([]*domain.ReportSummary, 0, end-offset)
	for i := offset; i < end; i++ {
		rp := &reports[i]
		summaries = append(summaries, &domain.ReportSummary{
			ID:            rp.ID,
			Label:         rp.Label(),
			Week:          rp.ReportMeta.Week,
			Organization:  rp.ReportMeta.Organization,
			OverallStatus: rp.Summary.OverallStatus,
			ItemCount:     len(rp.Details),
			StatusCounts:  model.StatusCounts(rp),
			CreatedAt:     formatMillis(rp.CreatedAt),
		})
	}
	return summaries, total, nil
}

func (r *reportRepo) GetReportByID(ctx context.Context, id string) (*domain.GroupedReport, error) {
	rp, ok := r.data.Store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}

	grouped := &domain.GroupedReport{
		ID:        rp.ID,
		Label:     rp.Label(),
		Meta:      rp.ReportMeta,
		Summary:   rp.Summary,
		Groups:    []*domain.OrgUnitGroup{},
		CreatedAt: formatMillis(rp.CreatedAt),
	}

	// 保持条目首次出现的组织单位顺序
	byUnit := make(map[string]*domain.OrgUnitGroup)
	for _, item := range rp.Details {
		unit := item.OrgUnit
		if unit == "" {
			unit = domain.UnassignedOrgUnit
		}
		g, ok := byUnit[unit]
		if !ok {
			g = &domain.OrgUnitGroup{OrgUnit: unit, StatusCounts: make(map[model.Status]int)}
			byUnit[unit] = g
			grouped.Groups = append(grouped.Groups, g)
		}
		g.Items = append(g.Items, item)
		g.StatusCounts[item.Status]++
	}

	return grouped, nil
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).Format(timeLayout)
}
