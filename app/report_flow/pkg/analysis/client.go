package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/config"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/logger"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/metrics"
	rm "github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
)

const (
	opExtract   = "extract"
	opSummarize = "summarize"
	opTrack     = "track"
	opChat      = "chat"
	opKpi       = "kpi"
)

// ExtractInput 一次抽取请求的全部输入
type ExtractInput struct {
	Meta  string
	Text  string
	Files []Attachment
	URLs  []string
}

// Empty 文本、文件和链接都没有时为 true
func (in ExtractInput) Empty() bool {
	return strings.TrimSpace(in.Text) == "" && len(in.Files) == 0 && len(in.URLs) == 0
}

// Client 封装所有模型调用，每个操作一次往返，不做重试
type Client struct {
	chatModel model.BaseChatModel
	limiter   *rate.Limiter
	timeout   time.Duration
	fetcher   Fetcher
	now       func() time.Time
	newID     func() string
}

// Option 配置 Client
type Option func(*Client)

// WithLimiter 所有操作共享的限流器，nil 表示不限流
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithTimeout 单次调用的超时时间
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithFetcher 替换 URL 抓取实现
func WithFetcher(f Fetcher) Option {
	return func(c *Client) { c.fetcher = f }
}

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithIDGenerator 替换报告 ID 生成器，测试用
func WithIDGenerator(gen func() string) Option {
	return func(c *Client) { c.newID = gen }
}

// NewClient 基于任意 eino 模型创建 Client
func NewClient(chatModel model.BaseChatModel, opts ...Option) *Client {
	c := &Client{
		chatModel: chatModel,
		fetcher:   ReadabilityFetcher{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig 创建 OpenAI 兼容的模型和限流器
func NewClientFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	opts := []Option{WithTimeout(cfg.LLM.CallTimeout())}
	if cfg.Concurrency.RPM > 0 {
		limit := rate.Limit(float64(cfg.Concurrency.RPM) / 60.0)
		opts = append(opts, WithLimiter(rate.NewLimiter(limit, cfg.Concurrency.QPS)))
	}
	return NewClient(chatModel, opts...), nil
}

// Extract 把幻灯片文本和附件抽取为结构化报告
func (c *Client) Extract(ctx context.Context, in ExtractInput) (*rm.StructuredReport, error) {
	if in.Empty() {
		metrics.AnalysisCallsTotal.WithLabelValues(opExtract, metrics.OutcomeInvalid).Inc()
		return nil, invalid("텍스트 또는 파일을 입력해주세요")
	}
	for _, f := range in.Files {
		if len(f.Data) == 0 {
			metrics.AnalysisCallsTotal.WithLabelValues(opExtract, metrics.OutcomeInvalid).Inc()
			return nil, invalid("첨부 파일 %q 이(가) 비어 있습니다", f.Name)
		}
	}

	// 链接抓取和模型调用共用同一个截止时间
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var docs strings.Builder
	for _, u := range in.URLs {
		text, err := c.fetcher.Fetch(ctx, u)
		if err != nil && ctx.Err() != nil {
			metrics.AnalysisCallsTotal.WithLabelValues(opExtract, metrics.OutcomeUnavailable).Inc()
			return nil, unavailable(opExtract, ctx.Err())
		}
		if err != nil {
			logger.Log.Warnf("抓取附件链接失败 [%s]: %v", u, err)
			metrics.AnalysisCallsTotal.WithLabelValues(opExtract, metrics.OutcomeInvalid).Inc()
			return nil, invalid("링크를 읽을 수 없습니다 %s: %v", u, err)
		}
		fmt.Fprintf(&docs, "\n\n[첨부 문서: %s]\n%s", u, text)
	}

	var sb strings.Builder
	sb.WriteString("[메타]\n")
	sb.WriteString(in.Meta)
	sb.WriteString("\n\n[슬라이드 텍스트]\n")
	sb.WriteString(in.Text)
	sb.WriteString(docs.String())
	for _, f := range in.Files {
		fmt.Fprintf(&sb, "\n\n[첨부 파일: %s (%s)]", f.Name, f.MIMEType)
	}
	sb.WriteString("\n\n[출력 스키마]\n")
	sb.WriteString(reportSchema())

	user := &schema.Message{Role: schema.User}
	if len(in.Files) == 0 {
		user.Content = sb.String()
	} else {
		user.MultiContent = append(user.MultiContent, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeText,
			Text: sb.String(),
		})
		for _, f := range in.Files {
			user.MultiContent = append(user.MultiContent, attachmentPart(f))
		}
	}

	raw, err := c.generate(ctx, opExtract, []*schema.Message{schema.SystemMessage(extractionSystemPrompt), user})
	if err != nil {
		return nil, err
	}

	report, err := decodeReport(raw)
	if err != nil {
		metrics.AnalysisCallsTotal.WithLabelValues(opExtract, metrics.OutcomeMalformed).Inc()
		return nil, malformed(opExtract, raw, err)
	}
	report.ID = c.newID()
	report.CreatedAt = c.now().UnixMilli()

	metrics.AnalysisCallsTotal.WithLabelValues(opExtract, metrics.OutcomeOK).Inc()
	logger.Log.Infof("报告抽取完成: %s, 共 %d 个条目", report.Label(), len(report.Details))
	return report, nil
}

// Summarize 为单份报告生成高管摘要文本
func (c *Client) Summarize(ctx context.Context, report rm.StructuredReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", invalid("encode report: %v", err)
	}
	prompt := "[JSON]\n" + string(data)
	return c.generateText(ctx, opSummarize, summarySystemPrompt, nil, prompt)
}

// Track 对比目标报告和历史报告，生成计划-实绩追踪文本
func (c *Client) Track(ctx context.Context, target rm.StructuredReport, history []rm.StructuredReport) (string, error) {
	if len(history) == 0 {
		metrics.AnalysisCallsTotal.WithLabelValues(opTrack, metrics.OutcomeInvalid).Inc()
		return "", invalid("추적 분석에는 최소 2개 이상의 보고서가 필요합니다")
	}
	cur, err := json.MarshalIndent(target, "", "  ")
	if err != nil {
		return "", invalid("encode report: %v", err)
	}
	past, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return "", invalid("encode history: %v", err)
	}
	prompt := fmt.Sprintf("[이번주]\n%s\n\n[과거주]\n%s", cur, past)
	return c.generateText(ctx, opTrack, trackingSystemPrompt, nil, prompt)
}

// Chat 基于全部报告回答问题，prior 为需要回传的历史对话
func (c *Client) Chat(ctx context.Context, question string, reports []rm.StructuredReport, prior []rm.ChatTurn) (string, error) {
	if strings.TrimSpace(question) == "" {
		metrics.AnalysisCallsTotal.WithLabelValues(opChat, metrics.OutcomeInvalid).Inc()
		return "", invalid("질문을 입력해주세요")
	}

	var sb strings.Builder
	sb.WriteString("[질문]\n")
	sb.WriteString(question)
	sb.WriteString("\n\n[검색결과 context]\n")
	for i, r := range reports {
		details, err := json.Marshal(r.Details)
		if err != nil {
			return "", invalid("encode report %s: %v", r.ID, err)
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%s] %s", r.ReportMeta.Week, details)
	}

	history := make([]*schema.Message, 0, len(prior))
	for _, t := range prior {
		switch t.Role {
		case rm.ChatRoleUser:
			history = append(history, schema.UserMessage(t.Content))
		case rm.ChatRoleAssistant:
			history = append(history, schema.AssistantMessage(t.Content, nil))
		}
	}
	return c.generateText(ctx, opChat, chatSystemPrompt, history, sb.String())
}

// ExtractKpiSeries 从报告集合推导 KPI 时间序列，解析失败时返回空列表
func (c *Client) ExtractKpiSeries(ctx context.Context, reports []rm.StructuredReport) ([]rm.KpiTimeSeries, error) {
	if len(reports) == 0 {
		return []rm.KpiTimeSeries{}, nil
	}
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return nil, invalid("encode reports: %v", err)
	}

	msgs := []*schema.Message{
		schema.SystemMessage(kpiSystemPrompt),
		schema.UserMessage("[JSON]\n" + string(data)),
	}
	raw, err := c.generate(ctx, opKpi, msgs)
	if err != nil {
		return nil, err
	}

	series, err := decodeKpiSeries(raw)
	if err != nil {
		logger.Log.Warnf("KPI 序列解析失败，返回空结果: %v", err)
		metrics.AnalysisCallsTotal.WithLabelValues(opKpi, metrics.OutcomeMalformed).Inc()
		return []rm.KpiTimeSeries{}, nil
	}
	metrics.AnalysisCallsTotal.WithLabelValues(opKpi, metrics.OutcomeOK).Inc()
	return series, nil
}

func (c *Client) generateText(ctx context.Context, op, system string, history []*schema.Message, prompt string) (string, error) {
	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(system))
	msgs = append(msgs, history...)
	msgs = append(msgs, schema.UserMessage(prompt))

	text, err := c.generate(ctx, op, msgs)
	if err != nil {
		return "", err
	}
	metrics.AnalysisCallsTotal.WithLabelValues(op, metrics.OutcomeOK).Inc()
	return text, nil
}

// withTimeout 未配置超时时只返回可取消的 ctx
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// generate 执行一次模型往返，限流等待和超时都计入本次调用
func (c *Client) generate(ctx context.Context, op string, msgs []*schema.Message) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.AnalysisCallDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.AnalysisCallsTotal.WithLabelValues(op, metrics.OutcomeUnavailable).Inc()
			return "", unavailable(op, err)
		}
	}

	logger.Log.Debugf("调用模型 [%s], 消息数 %d", op, len(msgs))
	resp, err := c.chatModel.Generate(ctx, msgs)
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		logger.Log.Errorf("模型调用失败 [%s]: %v", op, err)
		metrics.AnalysisCallsTotal.WithLabelValues(op, metrics.OutcomeUnavailable).Inc()
		return "", unavailable(op, err)
	}
	return resp.Content, nil
}

func attachmentPart(f Attachment) schema.ChatMessagePart {
	mime := f.MIMEType
	if mime == "" {
		mime = "application/octet-stream"
	}
	url := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(f.Data))
	if strings.HasPrefix(mime, "image/") {
		return schema.ChatMessagePart{
			Type:     schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{URL: url, MIMEType: mime},
		}
	}
	return schema.ChatMessagePart{
		Type:    schema.ChatMessagePartTypeFileURL,
		FileURL: &schema.ChatMessageFileURL{URL: url, MIMEType: mime, Name: f.Name},
	}
}
