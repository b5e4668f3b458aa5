package domain

import "github.com/iWorld-y/report_flow/app/report_flow/pkg/model"

// UnassignedOrgUnit 未填写组织单位的条目归入此分组
const UnassignedOrgUnit = "(미지정)"

// ReportSummary 报告列表中的一行
type ReportSummary struct {
	ID            string               `json:"id"`
	Label         string               `json:"label"`
	Week          string               `json:"week"`
	Organization  string               `json:"organization,omitempty"`
	OverallStatus model.Status         `json:"overallStatus"`
	ItemCount     int                  `json:"itemCount"`
	StatusCounts  map[model.Status]int `json:"statusCounts"`
	CreatedAt     string               `json:"createdAt"`
}

// OrgUnitGroup 同一组织单位下的条目
type OrgUnitGroup struct {
	OrgUnit      string               `json:"orgUnit"`
	Items        []model.ReportItem   `json:"items"`
	StatusCounts map[model.Status]int `json:"statusCounts"`
}

// GroupedReport 报告详情，条目按组织单位分组
type GroupedReport struct {
	ID        string              `json:"id"`
	Label     string              `json:"label"`
	Meta      model.ReportMeta    `json:"reportMeta"`
	Summary   model.ReportSummary `json:"summary"`
	Groups    []*OrgUnitGroup     `json:"groups"`
	CreatedAt string              `json:"createdAt"`
}
