package workspace

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/analysis"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/config"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/kv"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/shell"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/store"
)

const greenReport = `{"reportMeta":{"week":"2026-W1"},"summary":{"overallStatus":"Green","keyMessages":[],"topRisks":[],"nextWeekPriorities":[]},"details":[]}`

type cannedModel struct {
	reply string
}

func (m cannedModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m cannedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, assert.AnError
}

// countingModel 记录 Generate 调用次数
type countingModel struct {
	cannedModel
	calls int
}

func (m *countingModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.calls++
	return m.cannedModel.Generate(ctx, msgs, opts...)
}

func newWorkspace(t *testing.T, reply string) *Workspace {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	client := analysis.NewClient(cannedModel{reply: reply})
	return New(client, store.New(kv.NewMemory(), cfg.Store.Key), cfg)
}

func TestExtractSelectsAndOpensSummary(t *testing.T) {
	w := newWorkspace(t, greenReport)
	assert.Equal(t, shell.ViewExtract, w.State().View)

	require.NoError(t, w.Extraction.SetText("Plan: ship v2\nActual: shipped v2"))
	report, err := w.Extract(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.NotZero(t, report.CreatedAt)
	assert.Equal(t, "Green", string(report.Summary.OverallStatus))
	assert.Equal(t, report.ID, w.Store.SelectedID())
	assert.Equal(t, shell.ViewSummary, w.State().View)
}

func TestRepeatedExtractionKeepsIDsUnique(t *testing.T) {
	w := newWorkspace(t, greenReport)
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Extraction.SetText("same input"))
		_, err := w.Extract(context.Background())
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for _, r := range w.Store.List() {
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
	}
	assert.Len(t, seen, 3)
}

func TestDeletingSelectedReportFallsBackToExtract(t *testing.T) {
	w := newWorkspace(t, greenReport)
	require.NoError(t, w.Extraction.SetText("x"))
	report, err := w.Extract(context.Background())
	require.NoError(t, err)
	require.Equal(t, shell.ViewSummary, w.State().View)

	require.NoError(t, w.DeleteReport(context.Background(), report.ID, false))
	assert.Equal(t, shell.ViewExtract, w.State().View)
	assert.Empty(t, w.Store.SelectedID())
}

func TestSummarizeSelectedReusesResult(t *testing.T) {
	w := newWorkspace(t, greenReport)
	require.NoError(t, w.Extraction.SetText("x"))
	report, err := w.Extract(context.Background())
	require.NoError(t, err)

	got, text, err := w.SummarizeSelected(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, greenReport, text)

	id, _ := w.Summary.Result()
	assert.Equal(t, report.ID, id)

	w.Store.ClearSelection()
	_, _, err = w.SummarizeSelected(context.Background(), false)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSummaryRecomputedOnEachActivation(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	m := &countingModel{cannedModel: cannedModel{reply: greenReport}}
	w := New(analysis.NewClient(m), store.New(kv.NewMemory(), cfg.Store.Key), cfg)

	require.NoError(t, w.Extraction.SetText("x"))
	_, err := w.Extract(context.Background())
	require.NoError(t, err)
	extractCalls := m.calls

	_, _, err = w.SummarizeSelected(context.Background(), false)
	require.NoError(t, err)
	_, _, err = w.SummarizeSelected(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, extractCalls+1, m.calls)

	w.Dispatch(shell.Navigate{View: shell.ViewHistory})
	w.Dispatch(shell.Navigate{View: shell.ViewSummary})
	require.Equal(t, shell.ViewSummary, w.State().View)

	_, _, err = w.SummarizeSelected(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, extractCalls+2, m.calls)
}
