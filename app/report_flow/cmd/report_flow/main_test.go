package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/analysis"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/config"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/kv"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/store"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/view"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/workspace"
)

const greenReport = `{"reportMeta":{"organization":"AJ Networks","week":"2026-W1"},"summary":{"overallStatus":"Green","keyMessages":[],"topRisks":[],"nextWeekPriorities":[]},"details":[{"orgUnit":"IT","category":"Project","item":"ERP","plan":"","actual":"","gap":"","status":"Red"}]}`

type echoModel struct{}

func (echoModel) Generate(_ context.Context, msgs []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if msgs[0].Content == msgs[len(msgs)-1].Content {
		return nil, errors.New("unexpected")
	}
	last := msgs[len(msgs)-1]
	if strings.HasPrefix(last.Content, "[질문]") {
		return schema.AssistantMessage("답변입니다", nil), nil
	}
	return schema.AssistantMessage(greenReport, nil), nil
}

func (echoModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func newTestWorkspace(t *testing.T, confirmDelete bool) *workspace.Workspace {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.History.ConfirmDelete = confirmDelete
	return workspace.New(analysis.NewClient(echoModel{}), store.New(kv.NewMemory(), cfg.Store.Key), cfg)
}

func TestExtractFromStdinThenList(t *testing.T) {
	ws := newTestWorkspace(t, false)
	var out bytes.Buffer

	err := run(context.Background(), ws, "extract", []string{"-text-file", "-"}, strings.NewReader("Plan: ship v2\nActual: shipped v2"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"overallStatus": "Green"`)
	require.Equal(t, 1, ws.Store.Len())

	out.Reset()
	require.NoError(t, run(context.Background(), ws, "list", nil, nil, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "2026-W1")
	assert.Contains(t, lines[1], "AJ Networks")
}

func TestExtractWithAttachment(t *testing.T) {
	ws := newTestWorkspace(t, false)
	path := filepath.Join(t.TempDir(), "slide.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644))

	att, err := readAttachment(path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.MIMEType)
	assert.Equal(t, "slide.png", att.Name)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), ws, "extract", []string{"-file", path}, nil, &out))
	assert.Equal(t, 1, ws.Store.Len())
}

func TestExtractWithoutInputFails(t *testing.T) {
	ws := newTestWorkspace(t, false)
	err := run(context.Background(), ws, "extract", nil, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, analysis.ErrValidation)
}

func TestDeleteRequiresConfirmationWhenConfigured(t *testing.T) {
	ws := newTestWorkspace(t, true)
	require.NoError(t, run(context.Background(), ws, "extract", []string{"-text-file", "-"}, strings.NewReader("x"), &bytes.Buffer{}))
	id := ws.Store.List()[0].ID

	err := run(context.Background(), ws, "delete", []string{"-id", id}, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, view.ErrConfirmationRequired)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), ws, "delete", []string{"-id", id, "-confirm"}, nil, &out))
	assert.Equal(t, "deleted "+id+"\n", out.String())
	assert.Equal(t, 0, ws.Store.Len())
}

func TestUsageErrors(t *testing.T) {
	ws := newTestWorkspace(t, false)
	var fe flagError

	err := run(context.Background(), ws, "publish", nil, nil, &bytes.Buffer{})
	assert.ErrorAs(t, err, &fe)

	err = run(context.Background(), ws, "delete", nil, nil, &bytes.Buffer{})
	assert.ErrorAs(t, err, &fe)

	err = run(context.Background(), ws, "summary", []string{"-bogus"}, nil, &bytes.Buffer{})
	assert.ErrorAs(t, err, &fe)
}

func TestChatReadsQuestionsFromStdin(t *testing.T) {
	ws := newTestWorkspace(t, false)
	require.NoError(t, run(context.Background(), ws, "extract", []string{"-text-file", "-"}, strings.NewReader("x"), &bytes.Buffer{}))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), ws, "chat", nil, strings.NewReader("ERP 상태는?\n\n매출은?\n"), &out))
	assert.Equal(t, 2, strings.Count(out.String(), "답변입니다"))
	assert.Len(t, ws.Chat.Transcript(), 5)
}

func TestSummaryDefaultsToNewest(t *testing.T) {
	ws := newTestWorkspace(t, false)
	err := run(context.Background(), ws, "summary", nil, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, run(context.Background(), ws, "extract", []string{"-text-file", "-"}, strings.NewReader("x"), &bytes.Buffer{}))
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), ws, "summary", nil, nil, &out))
	assert.True(t, strings.HasPrefix(out.String(), "# AJ Networks 2026-W1\n"))
}
