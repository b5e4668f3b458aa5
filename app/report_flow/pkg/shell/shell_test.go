package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
)

func TestEnabledThresholds(t *testing.T) {
	tests := []struct {
		view  View
		facts Facts
		want  bool
	}{
		{ViewTracking, Facts{Reports: 1}, false},
		{ViewTracking, Facts{Reports: 2}, true},
		{ViewTracking, Facts{Reports: 3}, true},
		{ViewKPI, Facts{Reports: 0}, false},
		{ViewKPI, Facts{Reports: 1}, true},
		{ViewChat, Facts{Reports: 0}, false},
		{ViewChat, Facts{Reports: 1}, true},
		{ViewSummary, Facts{Reports: 5}, false},
		{ViewSummary, Facts{Reports: 1, HasSelection: true}, true},
		{ViewExtract, Facts{}, true},
		{ViewHistory, Facts{}, true},
		{View("settings"), Facts{Reports: 9, HasSelection: true}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Enabled(tt.view, tt.facts), "%s with %+v", tt.view, tt.facts)
	}
}

func TestNavigateToGatedViewIsNoop(t *testing.T) {
	s := Initial()
	next := Reduce(s, Facts{Reports: 1}, Navigate{View: ViewTracking})
	assert.Equal(t, ViewExtract, next.View)

	next = Reduce(s, Facts{Reports: 2}, Navigate{View: ViewTracking})
	assert.Equal(t, ViewTracking, next.View)
}

func TestReportAddedOpensSummary(t *testing.T) {
	next := Reduce(Initial(), Facts{Reports: 1, HasSelection: true}, ReportAdded{})
	assert.Equal(t, ViewSummary, next.View)

	next = Reduce(State{View: ViewHistory}, Facts{Reports: 3, HasSelection: true}, ReportSelected{})
	assert.Equal(t, ViewSummary, next.View)
}

func TestRemovalFallsBackToExtract(t *testing.T) {
	s := State{View: ViewSummary, Role: model.RoleManager}
	next := Reduce(s, Facts{Reports: 2, HasSelection: false}, ReportRemoved{})
	assert.Equal(t, ViewExtract, next.View)
	assert.Equal(t, model.RoleManager, next.Role)

	s = State{View: ViewTracking}
	next = Reduce(s, Facts{Reports: 1}, ReportRemoved{})
	assert.Equal(t, ViewExtract, next.View)

	s = State{View: ViewKPI}
	next = Reduce(s, Facts{Reports: 1}, ReportRemoved{})
	assert.Equal(t, ViewKPI, next.View)
}

func TestSetRole(t *testing.T) {
	next := Reduce(Initial(), Facts{}, SetRole{Role: model.RoleStaff})
	assert.Equal(t, model.RoleStaff, next.Role)

	next = Reduce(next, Facts{}, SetRole{Role: model.Role("CEO")})
	assert.Equal(t, model.RoleStaff, next.Role)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := State{View: ViewChat, Role: model.RoleExecutive}
	_ = Reduce(s, Facts{}, ReportRemoved{})
	assert.Equal(t, ViewChat, s.View)
}

func TestViews(t *testing.T) {
	entries := Views(State{View: ViewHistory}, Facts{Reports: 1})
	assert.Len(t, entries, 6)

	byView := map[View]NavEntry{}
	for _, e := range entries {
		byView[e.View] = e
	}
	assert.True(t, byView[ViewHistory].Active)
	assert.False(t, byView[ViewSummary].Enabled)
	assert.False(t, byView[ViewTracking].Enabled)
	assert.True(t, byView[ViewKPI].Enabled)
	assert.Equal(t, "KPI 대시보드", byView[ViewKPI].Label)
}

func TestParseView(t *testing.T) {
	v, ok := ParseView("tracking")
	assert.True(t, ok)
	assert.Equal(t, ViewTracking, v)

	_, ok = ParseView("Tracking")
	assert.False(t, ok)
}
