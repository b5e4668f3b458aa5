package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rm "github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
)

const validReport = `{
  "reportMeta": {"organization": "AJ Networks", "week": "2026-W1"},
  "summary": {"overallStatus": "Yellow", "keyMessages": ["매출 미달"], "topRisks": [], "nextWeekPriorities": []},
  "details": [
    {"orgUnit": "영업", "category": "KPI", "item": "매출", "plan": "100", "actual": "90", "gap": "-10", "status": "Yellow"}
  ]
}`

// fakeModel 按顺序返回预设回复并记录收到的消息
type fakeModel struct {
	mu      sync.Mutex
	replies []string
	err     error
	block   bool
	calls   [][]*schema.Message
}

func (f *fakeModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, input)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return schema.AssistantMessage(reply, nil), nil
}

func (f *fakeModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeModel) lastUserMessage() *schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.calls[len(f.calls)-1]
	return msgs[len(msgs)-1]
}

type fakeFetcher map[string]string

func (f fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	text, ok := f[url]
	if !ok {
		return "", errors.New("404")
	}
	return text, nil
}

func fixedClock() time.Time {
	return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
}

func TestExtractRejectsEmptyInputWithoutCallingModel(t *testing.T) {
	fm := &fakeModel{replies: []string{validReport}}
	c := NewClient(fm)

	_, err := c.Extract(context.Background(), ExtractInput{Meta: "- 회사/조직: AJ", Text: "   "})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, fm.callCount())
}

func TestExtractStampsIDAndCreatedAt(t *testing.T) {
	fm := &fakeModel{replies: []string{"```json\n" + validReport + "\n```"}}
	c := NewClient(fm, WithClock(fixedClock), WithIDGenerator(func() string { return "fixed-id" }))

	report, err := c.Extract(context.Background(), ExtractInput{Meta: "- 회사/조직: AJ", Text: "매출 90"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", report.ID)
	assert.Equal(t, fixedClock().UnixMilli(), report.CreatedAt)
	assert.Equal(t, "2026-W1", report.ReportMeta.Week)
	require.Len(t, report.Details, 1)
	assert.Equal(t, rm.CategoryKPI, report.Details[0].Category)

	prompt := fm.lastUserMessage().Content
	assert.Contains(t, prompt, "[메타]\n- 회사/조직: AJ")
	assert.Contains(t, prompt, "[슬라이드 텍스트]\n매출 90")
	assert.Contains(t, prompt, `"overallStatus"`)
}

func TestExtractTwiceYieldsDistinctIDs(t *testing.T) {
	fm := &fakeModel{replies: []string{validReport}}
	c := NewClient(fm)

	a, err := c.Extract(context.Background(), ExtractInput{Text: "same"})
	require.NoError(t, err)
	b, err := c.Extract(context.Background(), ExtractInput{Text: "same"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEmpty(t, a.ID)
}

func TestExtractMalformedOutput(t *testing.T) {
	cases := map[string]string{
		"not json":       "죄송합니다, 분석할 수 없습니다.",
		"missing week":   `{"reportMeta": {}, "summary": {"overallStatus": "Green"}, "details": []}`,
		"unknown status": `{"reportMeta": {"week": "W1"}, "summary": {"overallStatus": "Blue"}, "details": []}`,
		"mixed item":     `{"reportMeta": {"week": "W1"}, "summary": {"overallStatus": "Green"}, "details": [{"status": "Mixed"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewClient(&fakeModel{replies: []string{raw}})
			report, err := c.Extract(context.Background(), ExtractInput{Text: "x"})
			assert.Nil(t, report)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.ErrorIs(t, err, ErrExtractionParse)

			var mre *MalformedResponseError
			require.ErrorAs(t, err, &mre)
			assert.Equal(t, raw, mre.Raw)
		})
	}
}

func TestExtractAttachmentsAreSentInline(t *testing.T) {
	fm := &fakeModel{replies: []string{validReport}}
	c := NewClient(fm)

	_, err := c.Extract(context.Background(), ExtractInput{
		Files: []Attachment{
			{Name: "slide.png", MIMEType: "image/png", Data: []byte("png")},
			{Name: "report.pdf", MIMEType: "application/pdf", Data: []byte("pdf")},
		},
	})
	require.NoError(t, err)

	parts := fm.lastUserMessage().MultiContent
	require.Len(t, parts, 3)
	assert.Equal(t, schema.ChatMessagePartTypeText, parts[0].Type)
	assert.Contains(t, parts[0].Text, "[첨부 파일: report.pdf (application/pdf)]")

	assert.Equal(t, schema.ChatMessagePartTypeImageURL, parts[1].Type)
	assert.Equal(t, "data:image/png;base64,cG5n", parts[1].ImageURL.URL)

	assert.Equal(t, schema.ChatMessagePartTypeFileURL, parts[2].Type)
	assert.Equal(t, "data:application/pdf;base64,cGRm", parts[2].FileURL.URL)
	assert.Equal(t, "report.pdf", parts[2].FileURL.Name)
}

func TestExtractRejectsEmptyAttachment(t *testing.T) {
	fm := &fakeModel{replies: []string{validReport}}
	c := NewClient(fm)

	_, err := c.Extract(context.Background(), ExtractInput{Files: []Attachment{{Name: "empty.pdf"}}})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, fm.callCount())
}

func TestExtractFetchesURLs(t *testing.T) {
	fm := &fakeModel{replies: []string{validReport}}
	c := NewClient(fm, WithFetcher(fakeFetcher{"https://wiki/weekly": "주간 회의록 본문"}))

	_, err := c.Extract(context.Background(), ExtractInput{URLs: []string{"https://wiki/weekly"}})
	require.NoError(t, err)
	assert.Contains(t, fm.lastUserMessage().Content, "[첨부 문서: https://wiki/weekly]\n주간 회의록 본문")

	_, err = c.Extract(context.Background(), ExtractInput{URLs: []string{"https://missing"}})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, fm.callCount())
}

// slowFetcher 阻塞到 ctx 结束
type slowFetcher struct{}

func (slowFetcher) Fetch(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestExtractTimeoutCoversURLFetch(t *testing.T) {
	fm := &fakeModel{replies: []string{validReport}}
	c := NewClient(fm, WithFetcher(slowFetcher{}), WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := c.Extract(context.Background(), ExtractInput{URLs: []string{"https://slow"}})
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.ErrorIs(t, err, ErrAnalysisUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, fm.callCount())
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	c := NewClient(&fakeModel{err: errors.New("connection refused")})

	_, err := c.Summarize(context.Background(), rm.StructuredReport{ID: "r1"})
	assert.ErrorIs(t, err, ErrAnalysisUnavailable)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}

func TestCallTimeoutApplies(t *testing.T) {
	c := NewClient(&fakeModel{block: true}, WithTimeout(20*time.Millisecond))

	_, err := c.Summarize(context.Background(), rm.StructuredReport{ID: "r1"})
	assert.ErrorIs(t, err, ErrAnalysisUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCancelledContextIsUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewClient(&fakeModel{block: true})

	_, err := c.Chat(ctx, "지난주 매출은?", nil, nil)
	assert.ErrorIs(t, err, ErrAnalysisUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarizeReturnsTextVerbatim(t *testing.T) {
	text := "# 주간 요약\n\n- 매출 미달 (계획 100 / 실적 90)\n"
	fm := &fakeModel{replies: []string{text}}
	c := NewClient(fm)

	got, err := c.Summarize(context.Background(), rm.StructuredReport{ID: "r1", ReportMeta: rm.ReportMeta{Week: "W1"}})
	require.NoError(t, err)
	assert.Equal(t, text, got)
	assert.True(t, strings.HasPrefix(fm.lastUserMessage().Content, "[JSON]\n"))
}

func TestTrackSendsTargetAndHistory(t *testing.T) {
	fm := &fakeModel{replies: []string{"추적 결과"}}
	c := NewClient(fm)

	target := rm.StructuredReport{ID: "new", ReportMeta: rm.ReportMeta{Week: "W2"}}
	history := []rm.StructuredReport{{ID: "old", ReportMeta: rm.ReportMeta{Week: "W1"}}}
	got, err := c.Track(context.Background(), target, history)
	require.NoError(t, err)
	assert.Equal(t, "추적 결과", got)

	prompt := fm.lastUserMessage().Content
	cur := strings.Index(prompt, "[이번주]")
	past := strings.Index(prompt, "[과거주]")
	require.GreaterOrEqual(t, cur, 0)
	assert.Greater(t, past, cur)
	assert.Contains(t, prompt[past:], `"id": "old"`)

	_, err = c.Track(context.Background(), target, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestChatBuildsContextAndPriorTurns(t *testing.T) {
	fm := &fakeModel{replies: []string{"답변"}}
	c := NewClient(fm)

	reports := []rm.StructuredReport{
		{ID: "a", ReportMeta: rm.ReportMeta{Week: "2026-W2"}, Details: []rm.ReportItem{{Item: "ERP"}}},
		{ID: "b", ReportMeta: rm.ReportMeta{Week: "2026-W1"}},
	}
	prior := []rm.ChatTurn{
		{Role: rm.ChatRoleUser, Content: "이전 질문"},
		{Role: rm.ChatRoleAssistant, Content: "이전 답변"},
	}
	got, err := c.Chat(context.Background(), "ERP 진행 상황은?", reports, prior)
	require.NoError(t, err)
	assert.Equal(t, "답변", got)

	fm.mu.Lock()
	msgs := fm.calls[0]
	fm.mu.Unlock()
	require.Len(t, msgs, 4)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, schema.Assistant, msgs[2].Role)

	prompt := msgs[3].Content
	assert.Contains(t, prompt, "[질문]\nERP 진행 상황은?")
	assert.Contains(t, prompt, `[2026-W2] [{"orgUnit":"","category":"","item":"ERP"`)
	assert.Contains(t, prompt, "[2026-W1] null")
}

func TestChatRejectsBlankQuestion(t *testing.T) {
	fm := &fakeModel{}
	_, err := NewClient(fm).Chat(context.Background(), "  ", nil, nil)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, fm.callCount())
}

func TestExtractKpiSeries(t *testing.T) {
	reports := []rm.StructuredReport{{ID: "r1", ReportMeta: rm.ReportMeta{Week: "W1"}}}

	t.Run("array", func(t *testing.T) {
		c := NewClient(&fakeModel{replies: []string{`[{"kpiName": "매출", "orgUnit": "영업", "unit": "억원",
			"data": [{"week": "W1", "plan": 100, "actual": 90, "status": "Yellow"}, {"week": "W2", "plan": 100, "actual": null, "status": "Unknown"}]}]`}})
		series, err := c.ExtractKpiSeries(context.Background(), reports)
		require.NoError(t, err)
		require.Len(t, series, 1)
		require.Len(t, series[0].Data, 2)
		assert.InDelta(t, 90, *series[0].Data[0].Actual, 0.001)
		assert.Nil(t, series[0].Data[1].Actual)
	})

	t.Run("wrapped object", func(t *testing.T) {
		c := NewClient(&fakeModel{replies: []string{"```json\n{\"kpis\": [{\"kpiName\": \"가동률\", \"data\": []}]}\n```"}})
		series, err := c.ExtractKpiSeries(context.Background(), reports)
		require.NoError(t, err)
		require.Len(t, series, 1)
		assert.Equal(t, "가동률", series[0].KpiName)
	})

	t.Run("garbage degrades to empty", func(t *testing.T) {
		c := NewClient(&fakeModel{replies: []string{"KPI를 찾을 수 없습니다"}})
		series, err := c.ExtractKpiSeries(context.Background(), reports)
		require.NoError(t, err)
		assert.NotNil(t, series)
		assert.Empty(t, series)
	})

	t.Run("invalid series dropped", func(t *testing.T) {
		c := NewClient(&fakeModel{replies: []string{`[{"kpiName": "", "data": []}, {"kpiName": "원가", "data": [{"week": "W1", "status": "Purple"}]}, {"kpiName": "재고", "data": []}]`}})
		series, err := c.ExtractKpiSeries(context.Background(), reports)
		require.NoError(t, err)
		require.Len(t, series, 1)
		assert.Equal(t, "재고", series[0].KpiName)
	})

	t.Run("transport failure still surfaces", func(t *testing.T) {
		c := NewClient(&fakeModel{err: errors.New("503")})
		_, err := c.ExtractKpiSeries(context.Background(), reports)
		assert.ErrorIs(t, err, ErrAnalysisUnavailable)
	})
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", `[1,2]`},
		{"```json{\"a\":1}```", `{"a":1}`},
		{"  \n{\"a\":1}\n  ", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFence(tt.in), tt.in)
	}
}

func TestReportSchemaOmitsStoreFields(t *testing.T) {
	s := reportSchema()
	require.NotEmpty(t, s)
	assert.Contains(t, s, `"reportMeta"`)
	assert.Contains(t, s, `"evidenceQuotes"`)
	assert.NotContains(t, s, `"createdAt"`)
}
