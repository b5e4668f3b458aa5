package model

import (
	"fmt"
	"strings"
)

// Status 信号灯状态，始终由模型给出，客户端不推断
type Status string

const (
	StatusGreen   Status = "Green"
	StatusYellow  Status = "Yellow"
	StatusRed     Status = "Red"
	StatusMixed   Status = "Mixed"
	StatusUnknown Status = "Unknown"
)

// ValidReportStatus 报告整体状态允许 Mixed
func (s Status) ValidReportStatus() bool {
	switch s {
	case StatusGreen, StatusYellow, StatusRed, StatusMixed, StatusUnknown:
		return true
	}
	return false
}

// ValidItemStatus 单个条目的状态不允许 Mixed
func (s Status) ValidItemStatus() bool {
	switch s {
	case StatusGreen, StatusYellow, StatusRed, StatusUnknown:
		return true
	}
	return false
}

// Category 条目分类
type Category string

const (
	CategoryKPI       Category = "KPI"
	CategoryProject   Category = "Project"
	CategoryFinance   Category = "Finance"
	CategoryRisk      Category = "Risk"
	CategoryOperation Category = "Operation"
	CategoryOther     Category = "Other"
)

var categories = []Category{
	CategoryKPI, CategoryProject, CategoryFinance, CategoryRisk, CategoryOperation, CategoryOther,
}

// ParseCategory 不区分大小写地匹配分类
func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// UnmarshalText 规范化大小写；未知分类原样保留，交给 Validate 报告
func (c *Category) UnmarshalText(b []byte) error {
	if parsed, err := ParseCategory(string(b)); err == nil {
		*c = parsed
		return nil
	}
	*c = Category(b)
	return nil
}

// Valid 空分类视为未填写
func (c Category) Valid() bool {
	if c == "" {
		return true
	}
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// Role 页面右上角的角色切换，仅用于展示
type Role string

const (
	RoleExecutive Role = "EXECUTIVE"
	RoleManager   Role = "MANAGER"
	RoleStaff     Role = "STAFF"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleExecutive, RoleManager, RoleStaff:
		return true
	}
	return false
}
