package view

import (
	"context"
	"errors"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/logger"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/store"
)

// ErrConfirmationRequired 开启删除确认时未确认
var ErrConfirmationRequired = errors.New("delete requires confirmation")

// HistoryEntry 历史列表中的一行
type HistoryEntry struct {
	Report       model.StructuredReport `json:"report"`
	Label        string                 `json:"label"`
	StatusCounts map[model.Status]int   `json:"statusCounts"`
	Selected     bool                   `json:"selected"`
}

// History 报告集合的纯投影
type History struct {
	store         *store.Store
	confirmDelete bool
}

func NewHistory(s *store.Store, confirmDelete bool) *History {
	return &History{store: s, confirmDelete: confirmDelete}
}

// ConfirmDelete 删除前是否需要确认
func (h *History) ConfirmDelete() bool {
	return h.confirmDelete
}

// Entries 按存储顺序（最新在前）列出报告
func (h *History) Entries() []HistoryEntry {
	selected := h.store.SelectedID()
	reports := h.store.List()
	entries := make([]HistoryEntry, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		entries = append(entries, HistoryEntry{
			Report:       *r,
			Label:        r.Label(),
			StatusCounts: model.StatusCounts(r),
			Selected:     r.ID == selected,
		})
	}
	return entries
}

// Delete 删除报告；confirmDelete 开启时必须 confirmed
func (h *History) Delete(ctx context.Context, id string, confirmed bool) error {
	if h.confirmDelete && !confirmed {
		return ErrConfirmationRequired
	}
	if err := tolerateProjection(h.store.Remove(ctx, id)); err != nil {
		return err
	}
	logger.Log.Infof("报告已删除: %s", id)
	return nil
}
