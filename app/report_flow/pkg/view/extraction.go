package view

import (
	"context"
	"slices"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/analysis"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/logger"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/store"
)

// DefaultMetaTemplate 元信息输入框的预填内容
const DefaultMetaTemplate = "- 회사/조직: AJ Networks\n- 보고 주차: 2026년 1월 1주차\n- 보고일: 2026-01-05"

// Extraction 抽取页面
type Extraction struct {
	Runner

	analyzer Analyzer
	store    *store.Store

	meta  string
	text  string
	files []analysis.Attachment
	urls  []string
	last  *model.StructuredReport
}

func NewExtraction(analyzer Analyzer, s *store.Store) *Extraction {
	return &Extraction{
		analyzer: analyzer,
		store:    s,
		meta:     DefaultMetaTemplate,
	}
}

// SetMeta 替换元信息
func (e *Extraction) SetMeta(meta string) error {
	return e.edit(func() { e.meta = meta })
}

// SetText 替换幻灯片文本
func (e *Extraction) SetText(text string) error {
	return e.edit(func() { e.text = text })
}

// AddFile 追加附件，同名附件会被替换
func (e *Extraction) AddFile(f analysis.Attachment) error {
	return e.edit(func() {
		e.files = slices.DeleteFunc(e.files, func(a analysis.Attachment) bool { return a.Name == f.Name })
		e.files = append(e.files, f)
	})
}

// SetFiles 替换全部附件
func (e *Extraction) SetFiles(files []analysis.Attachment) error {
	return e.edit(func() { e.files = slices.Clone(files) })
}

// RemoveFile 按文件名移除附件
func (e *Extraction) RemoveFile(name string) error {
	return e.edit(func() {
		e.files = slices.DeleteFunc(e.files, func(a analysis.Attachment) bool { return a.Name == name })
	})
}

// SetURLs 替换附件链接
func (e *Extraction) SetURLs(urls []string) error {
	return e.edit(func() { e.urls = slices.Clone(urls) })
}

// Input 当前输入缓冲区
func (e *Extraction) Input() analysis.ExtractInput {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inputLocked()
}

// Ready 有文本、文件或链接且不在加载中时才允许提交
func (e *Extraction) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase != PhaseLoading && !e.inputLocked().Empty()
}

// Last 最近一次成功抽取的报告
func (e *Extraction) Last() (model.StructuredReport, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return model.StructuredReport{}, false
	}
	return *e.last, true
}

// Submit 发起抽取，成功后清空输入并把报告加入存储
func (e *Extraction) Submit(ctx context.Context) (model.StructuredReport, error) {
	in := e.Input()
	if in.Empty() {
		return model.StructuredReport{}, e.reject(validationf("텍스트 또는 파일을 입력해주세요"))
	}

	runCtx, gen, err := e.begin(ctx)
	if err != nil {
		return model.StructuredReport{}, err
	}

	report, err := e.analyzer.Extract(runCtx, in)
	err = e.finish(gen, err, func() error {
		if err := tolerateProjection(e.store.Add(runCtx, *report)); err != nil {
			return err
		}
		e.text = ""
		e.files = nil
		e.urls = nil
		e.last = report
		return nil
	})
	if err != nil {
		return model.StructuredReport{}, err
	}

	logger.Log.Infof("新报告已加入存储: %s (%s)", report.ID, report.Label())
	return *report, nil
}

func (e *Extraction) edit(fn func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhaseLoading {
		return ErrBusy
	}
	fn()
	return nil
}

func (e *Extraction) inputLocked() analysis.ExtractInput {
	return analysis.ExtractInput{
		Meta:  e.meta,
		Text:  e.text,
		Files: slices.Clone(e.files),
		URLs:  slices.Clone(e.urls),
	}
}
